package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"intelligencedev/backend/models"

	"gorm.io/gorm"
)

// DBHandler mirrors every log record to stdout as JSON and to the
// log_entries table. The "source" and "user_id" attrs become columns so
// entries can be filtered without parsing the data blob.
type DBHandler struct {
	db          *gorm.DB
	jsonHandler slog.Handler
	attrs       []slog.Attr
}

func NewDBHandler(db *gorm.DB) *DBHandler {
	return &DBHandler{
		db:          db,
		jsonHandler: slog.NewJSONHandler(os.Stdout, nil),
	}
}

func (h *DBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	_ = h.jsonHandler.Handle(ctx, r)

	data := make(map[string]any)
	var source string
	var userID *uint

	collect := func(a slog.Attr) {
		switch a.Key {
		case "source":
			source = a.Value.String()
		case "user_id":
			if id := attrUserID(a.Value); id > 0 {
				userID = &id
			}
		default:
			data[a.Key] = a.Value.Any()
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	var encoded string
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			encoded = string(b)
		}
	}

	entry := models.LogEntry{
		CreatedAt: time.Now(),
		Level:     r.Level.String(),
		Message:   r.Message,
		Source:    source,
		UserID:    userID,
		Data:      encoded,
	}
	return h.db.Create(&entry).Error
}

func attrUserID(v slog.Value) uint {
	switch v.Kind() {
	case slog.KindInt64:
		return uint(v.Int64())
	case slog.KindUint64:
		return uint(v.Uint64())
	default:
		return 0
	}
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &DBHandler{db: h.db, jsonHandler: h.jsonHandler, attrs: merged}
}

func (h *DBHandler) WithGroup(name string) slog.Handler {
	return h
}

// CleanupOldLogs prunes entries older than maxAge once an hour.
func CleanupOldLogs(db *gorm.DB, maxAge time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	for range ticker.C {
		cutoff := time.Now().Add(-maxAge)
		db.Where("created_at < ?", cutoff).Delete(&models.LogEntry{})
	}
}
