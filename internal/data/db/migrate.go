package db

import (
	"github.com/yungbote/neurobridge-companion/internal/domain/auth"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.StoredCredential{},
	)
}

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
