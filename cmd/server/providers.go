// File: cmd/server/providers.go
package main

import (
	"log"

	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/platform/database"
	"guidecheck_backend/internal/scan"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDatabase connects to Postgres and keeps the schema current.
func provideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&guide.Guide{}, &guide.Chapter{}, &scan.Scan{}, &scan.Finding{}); err != nil {
		return nil, err
	}
	return db, nil
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
