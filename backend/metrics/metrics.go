package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"intelligencedev/backend/config"
	"intelligencedev/backend/models"

	"gorm.io/gorm"
)

const (
	defaultSupportAvailability = "24/7"
	cloudflareEndpoint         = "https://api.cloudflare.com/client/v4/graphql"
	cloudflareTimeout          = 8 * time.Second
)

// HeroMetrics are the numbers shown in the marketing hero section.
type HeroMetrics struct {
	MonthlyDownloads    int
	SatisfactionRate    float64
	SupportAvailability string
}

// Service reads hero metrics from the site_metrics table, preferring live
// Cloudflare analytics for the downloads number when credentials are
// configured.
type Service struct {
	db     *gorm.DB
	client *http.Client

	// endpoint is overridable in tests.
	endpoint string
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		client:   &http.Client{Timeout: cloudflareTimeout},
		endpoint: cloudflareEndpoint,
	}
}

// Hero never fails: missing metrics fall back to zero values and the
// default support availability.
func (s *Service) Hero(ctx context.Context) HeroMetrics {
	m := HeroMetrics{SupportAvailability: defaultSupportAvailability}

	if n, ok := s.cloudflareRequests(ctx); ok {
		m.MonthlyDownloads = n
	} else if v, ok := s.metric(ctx, "monthly_downloads"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			m.MonthlyDownloads = n
		}
	}

	if v, ok := s.metric(ctx, "satisfaction_rate"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			m.SatisfactionRate = f
		}
	}
	if v, ok := s.metric(ctx, "support_availability"); ok && v != "" {
		m.SupportAvailability = v
	}
	return m
}

func (s *Service) metric(ctx context.Context, key string) (string, bool) {
	var row models.SiteMetric
	err := s.db.WithContext(ctx).First(&row, "metric_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		slog.Warn("site metric lookup failed", "source", "metrics", "key", key, "error", err.Error())
		return "", false
	}
	return row.Value, true
}

type cloudflareResponse struct {
	Data struct {
		Viewer struct {
			Zones []struct {
				Groups []struct {
					Sum struct {
						Requests int `json:"requests"`
					} `json:"sum"`
				} `json:"httpRequests1dGroups"`
			} `json:"zones"`
		} `json:"viewer"`
	} `json:"data"`
}

// cloudflareRequests sums the zone's requests over the last 30 days. Any
// failure is silent; the DB metric is the fallback.
func (s *Service) cloudflareRequests(ctx context.Context) (int, bool) {
	zone := config.C.Analytics.CloudflareZoneID
	token := config.C.Analytics.CloudflareAPIToken
	if zone == "" || token == "" {
		return 0, false
	}

	query := map[string]any{
		"query": `query Analytics($zoneTag: String!, $since: Time!, $until: Time!) {
			viewer {
				zones(filter: {zoneTag: $zoneTag}) {
					httpRequests1dGroups(limit: 30, filter: {datetime_geq: $since, datetime_lt: $until}) {
						sum { requests }
					}
				}
			}
		}`,
		"variables": map[string]string{
			"zoneTag": zone,
			"since":   time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339),
			"until":   time.Now().UTC().Format(time.RFC3339),
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("cloudflare analytics request failed", "source", "metrics", "error", err.Error())
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	var decoded cloudflareResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, false
	}

	total := 0
	for _, z := range decoded.Data.Viewer.Zones {
		for _, g := range z.Groups {
			total += g.Sum.Requests
		}
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}
