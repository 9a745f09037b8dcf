// File: internal/scan/service.go
package scan

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/content"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/integrity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for scan-related business logic.
type Service interface {
	// Run performs a full scan of the docs tree: load, check, persist
	// findings, refresh the catalog, export the report. Only one scan may
	// run at a time; a concurrent call gets common.ErrScanInProgress.
	Run(ctx context.Context, trigger Trigger) (*Scan, error)

	GetScan(ctx context.Context, id uuid.UUID, preloadFindings bool) (*Scan, error)
	GetLatestScan(ctx context.Context) (*Scan, error)
	ListScans(ctx context.Context, page, pageSize int) ([]Scan, *common.Pagination, error)
	ListFindings(ctx context.Context, scanID uuid.UUID, query FindingListQuery, page, pageSize int) ([]Finding, *common.Pagination, error)
	ResolveFinding(ctx context.Context, id uuid.UUID) (*Finding, error)
}

type service struct {
	repo         Repository
	guideService guide.Service
	engine       *integrity.Engine
	logger       *zap.Logger
	config       *config.Config
	running      atomic.Bool
}

// NewService creates a new scan service.
func NewService(repo Repository, guideService guide.Service, logger *zap.Logger, cfg *config.Config) Service {
	return &service{
		repo:         repo,
		guideService: guideService,
		engine:       integrity.NewEngine(cfg.DisabledRuleSet()),
		logger:       logger,
		config:       cfg,
	}
}

func (s *service) Run(ctx context.Context, trigger Trigger) (*Scan, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Scan requested while another is running", zap.String("trigger", string(trigger)))
		return nil, common.ErrScanInProgress
	}
	defer s.running.Store(false)

	scanRun := &Scan{
		Status:    StatusRunning,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	if err := s.repo.CreateScan(ctx, scanRun); err != nil {
		s.logger.Error("Failed to create scan record", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Scan started",
		zap.String("id", scanRun.ID.String()),
		zap.String("trigger", string(trigger)),
		zap.String("docsRoot", s.config.DocsRoot))

	ws, err := content.LoadWorkspace(s.config.DocsRoot)
	if err != nil {
		s.failScan(ctx, scanRun, err)
		return nil, common.ErrInternalServer.WithDetails(fmt.Sprintf("Failed to load docs tree: %v", err))
	}

	checkFindings := s.engine.Check(ws)

	guides := s.guideService.BuildCatalog(ws)
	if err := s.guideService.ReplaceCatalog(ctx, guides); err != nil {
		s.failScan(ctx, scanRun, err)
		return nil, common.ErrInternalServer.WithDetails("Failed to update the catalog.")
	}

	findings := make([]Finding, 0, len(checkFindings))
	for _, f := range checkFindings {
		findings = append(findings, FromIntegrityFinding(scanRun.ID, f))
	}
	if err := s.repo.InsertFindings(ctx, findings); err != nil {
		s.failScan(ctx, scanRun, err)
		return nil, common.ErrInternalServer.WithDetails("Failed to persist findings.")
	}

	scanRun.GuideCount = len(ws.Guides)
	scanRun.ChapterCount = ws.ChapterCount()
	scanRun.FindingCount = len(findings)
	for _, f := range checkFindings {
		switch f.Severity {
		case integrity.SeverityError:
			scanRun.ErrorCount++
		case integrity.SeverityWarning:
			scanRun.WarningCount++
		}
	}

	// Report export and search indexing are best-effort: the scan result
	// in the database is already complete at this point.
	if reportPath, err := writeReport(s.config.ReportExportPath, scanRun, findings); err != nil {
		s.logger.Error("Failed to export scan report", zap.Error(err), zap.String("scanID", scanRun.ID.String()))
	} else {
		scanRun.ReportPath = &reportPath
	}

	if err := s.guideService.SyncSearchIndex(ctx, guides); err != nil {
		s.logger.Error("Failed to sync chapter search index", zap.Error(err), zap.String("scanID", scanRun.ID.String()))
	}

	now := time.Now()
	scanRun.Status = StatusCompleted
	scanRun.FinishedAt = &now
	if err := s.repo.UpdateScan(ctx, scanRun); err != nil {
		s.logger.Error("Failed to finalize scan record", zap.Error(err), zap.String("scanID", scanRun.ID.String()))
		return nil, err
	}

	s.logger.Info("Scan completed",
		zap.String("id", scanRun.ID.String()),
		zap.Int("guides", scanRun.GuideCount),
		zap.Int("chapters", scanRun.ChapterCount),
		zap.Int("findings", scanRun.FindingCount),
		zap.Int("errors", scanRun.ErrorCount),
		zap.Int("warnings", scanRun.WarningCount),
		zap.Duration("duration", now.Sub(scanRun.StartedAt)))
	return scanRun, nil
}

func (s *service) failScan(ctx context.Context, scanRun *Scan, cause error) {
	s.logger.Error("Scan failed", zap.Error(cause), zap.String("scanID", scanRun.ID.String()))
	now := time.Now()
	msg := cause.Error()
	scanRun.Status = StatusFailed
	scanRun.FinishedAt = &now
	scanRun.ErrorMessage = &msg
	if err := s.repo.UpdateScan(ctx, scanRun); err != nil {
		s.logger.Error("Failed to mark scan as failed", zap.Error(err), zap.String("scanID", scanRun.ID.String()))
	}
}

func (s *service) GetScan(ctx context.Context, id uuid.UUID, preloadFindings bool) (*Scan, error) {
	return s.repo.FindScanByID(ctx, id, preloadFindings)
}

func (s *service) GetLatestScan(ctx context.Context) (*Scan, error) {
	return s.repo.FindLatestScan(ctx)
}

func (s *service) ListScans(ctx context.Context, page, pageSize int) ([]Scan, *common.Pagination, error) {
	scans, pagination, err := s.repo.ListScans(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list scans", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve scans.")
	}
	return scans, pagination, nil
}

func (s *service) ListFindings(ctx context.Context, scanID uuid.UUID, query FindingListQuery, page, pageSize int) ([]Finding, *common.Pagination, error) {
	// Listing findings of an unknown scan is a 404, not an empty list.
	if _, err := s.repo.FindScanByID(ctx, scanID, false); err != nil {
		return nil, nil, err
	}
	findings, pagination, err := s.repo.ListFindings(ctx, scanID, query, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list findings", zap.Error(err), zap.String("scanID", scanID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve findings.")
	}
	return findings, pagination, nil
}

func (s *service) ResolveFinding(ctx context.Context, id uuid.UUID) (*Finding, error) {
	f, err := s.repo.ResolveFinding(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Finding resolved", zap.String("id", id.String()), zap.String("rule", f.Rule))
	return f, nil
}
