// File: cmd/server/main.go
package main

import (
	"context"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/platform/database"
	platformElasticsearch "guidecheck_backend/internal/platform/elasticsearch"
	"guidecheck_backend/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sync-chapters" {
		runChapterSync()
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformElasticsearch.CreateChaptersIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch chapters index.", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runChapterSync pushes the current catalog into the Elasticsearch chapters
// index. Useful after pointing the service at a fresh cluster.
func runChapterSync() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}
	if esClient == nil {
		appLogger.Fatal("FATAL: Elasticsearch is disabled; set ELASTICSEARCH_URL to sync chapters.")
	}

	if err := platformElasticsearch.CreateChaptersIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Fatal("FATAL: Failed to create/verify Elasticsearch index before sync", zap.Error(err))
	}

	guideRepo := guide.NewGORMRepository(db)
	total, err := guideRepo.CountChapters(context.Background())
	if err != nil {
		appLogger.Fatal("FATAL: Failed to count catalog chapters for sync", zap.Error(err))
	}
	appLogger.Info("Syncing catalog chapters to Elasticsearch.", zap.Int64("chapters", total))

	guides, err := guideRepo.FindAllGuides(context.Background(), true)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to load catalog for sync", zap.Error(err))
	}

	failed, err := guide.BulkIndexChapters(context.Background(), esClient, guides, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Chapter synchronization failed", zap.Error(err))
	}
	if failed > 0 {
		appLogger.Warn("Chapter synchronization finished with failures", zap.Int("failed", failed))
		os.Exit(1)
	}
	appLogger.Info("Chapter synchronization completed successfully.")
}
