package models

import "time"

// SiteMetric is a key/value row backing the marketing hero numbers.
type SiteMetric struct {
	Key       string    `json:"key" gorm:"column:metric_key;primaryKey;size:100"`
	Value     string    `json:"value" gorm:"column:metric_value;size:255"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the historical table name used by earlier deployments.
func (SiteMetric) TableName() string {
	return "site_metrics"
}
