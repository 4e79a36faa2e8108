package database

import (
	"intelligencedev/backend/config"
	"intelligencedev/backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init() error {
	var err error
	DB, err = gorm.Open(sqlite.Open(config.C.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	return Migrate(DB)
}

// Migrate brings the schema up to date. Deployments that predate the
// verification flow may carry a users table without the verification
// columns, so missing columns are added lazily instead of requiring a
// migration tool.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.LogEntry{}, &models.SiteMetric{}); err != nil {
		return err
	}
	if err := ensureUserColumns(db); err != nil {
		return err
	}
	return backfillVerifiedAt(db)
}

func ensureUserColumns(db *gorm.DB) error {
	for _, column := range []string{
		"email_verification_code",
		"verification_code_expires_at",
		"email_verified_at",
	} {
		if db.Migrator().HasColumn(&models.User{}, column) {
			continue
		}
		if err := db.Migrator().AddColumn(&models.User{}, column); err != nil {
			return err
		}
	}
	return nil
}

// backfillVerifiedAt marks accounts created before the verification flow
// existed as verified, so they are not locked out of login.
func backfillVerifiedAt(db *gorm.DB) error {
	return db.Model(&models.User{}).
		Where("email_verified_at IS NULL AND (email_verification_code IS NULL OR email_verification_code = '')").
		Update("email_verified_at", gorm.Expr("created_at")).Error
}
