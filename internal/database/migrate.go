package database

import (
	"quill/internal/models"
	"quill/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Taxonomy{},
		&models.Content{},
		&models.ContentTaxonomy{},
		&models.Revision{},
		&models.SEO{},
		&models.Media{},
		&models.Menu{},
		&models.MenuItem{},
		&models.Organization{},
		&models.SiteSetting{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
