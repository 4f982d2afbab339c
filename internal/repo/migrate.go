package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"portfolio-api/internal/domain"
)

// Migrate creates or updates the schema. Safe to run on every start.
func Migrate(db *gorm.DB) error { return db.AutoMigrate(domain.Models()...) }

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
