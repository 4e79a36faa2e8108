package models

import "time"

// LogEntry is a structured log record mirrored into the database so it
// can be queried alongside the application data.
type LogEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Level     string    `json:"level" gorm:"index"`
	Message   string    `json:"message"`
	Source    string    `json:"source" gorm:"index"`
	UserID    *uint     `json:"user_id" gorm:"index"`
	Data      string    `json:"data"`
}
