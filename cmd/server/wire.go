// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"guidecheck_backend/internal/app"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/jobs"
	platformElasticsearch "guidecheck_backend/internal/platform/elasticsearch"
	"guidecheck_backend/internal/platform/logger"
	"guidecheck_backend/internal/scan"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDatabase,
		platformElasticsearch.NewClient,
		provideCleanup,

		// Catalog
		guide.NewGORMRepository,
		guide.NewService,
		guide.NewHandler,

		// Scans
		scan.NewGORMRepository,
		scan.NewService,
		scan.NewHandler,
		jobs.NewRescanJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
