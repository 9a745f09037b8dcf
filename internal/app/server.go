// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/jobs"
	"guidecheck_backend/internal/middleware"
	platformElasticsearch "guidecheck_backend/internal/platform/elasticsearch"
	"guidecheck_backend/internal/scan"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Exposed for startup tasks in main (index creation, logging).
	AppLogger *zap.Logger
	ESClient  *platformElasticsearch.ESClientWrapper

	// Handlers
	guideHandler *guide.Handler
	scanHandler  *scan.Handler

	// Services needed outside request handling
	scanService scan.Service

	// Jobs
	rescanJob *jobs.RescanJob

	// Middleware instances
	adminMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	guideHandler *guide.Handler,
	scanHandler *scan.Handler,
	scanService scan.Service,
	rescanJob *jobs.RescanJob,
	esClient *platformElasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	adminMW := middleware.AdminAuthMiddleware(cfg, logger.Named("AdminAuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "GuideCheck API is healthy!"})
	})

	v1 := router.Group("/api/v1")
	guideHandler.RegisterRoutes(v1)
	scanHandler.RegisterRoutes(v1, adminMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:   httpServer,
		router:       router,
		cfg:          cfg,
		logger:       logger,
		AppLogger:    logger,
		ESClient:     esClient,
		guideHandler: guideHandler,
		scanHandler:  scanHandler,
		scanService:  scanService,
		rescanJob:    rescanJob,
		adminMW:      adminMW,
	}, nil
}

// Start runs the startup scan when configured, starts the rescan scheduler,
// and serves HTTP. It blocks until the server stops.
func (s *Server) Start() error {
	if s.cfg.ScanOnStartup {
		go s.runStartupScan()
	}

	if s.rescanJob != nil {
		if err := s.rescanJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start rescan job", zap.Error(err))
		}
	} else {
		s.logger.Info("Rescan job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
		zap.String("docs_root", s.cfg.DocsRoot),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) runStartupScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("Running startup scan...")
	scanRun, err := s.scanService.Run(ctx, scan.TriggerStartup)
	if err != nil {
		if errors.Is(err, common.ErrScanInProgress) {
			s.logger.Warn("Startup scan skipped: another scan is already running.")
			return
		}
		s.logger.Error("Startup scan failed", zap.Error(err))
		return
	}
	s.logger.Info("Startup scan completed",
		zap.String("scanID", scanRun.ID.String()),
		zap.Int("findings", scanRun.FindingCount))
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.rescanJob != nil {
		s.rescanJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
