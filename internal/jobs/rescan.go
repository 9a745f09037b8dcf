// File: internal/jobs/rescan.go
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/scan"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RescanJob holds dependencies for the scheduled docs rescan.
type RescanJob struct {
	scanService   scan.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewRescanJob creates a new RescanJob.
func NewRescanJob(
	scanService scan.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *RescanJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &RescanJob{
		scanService:   scanService,
		logger:        logger.Named("RescanJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *RescanJob) SetupAndStart() error {
	jobSpec := j.cfg.ScanSchedule // e.g., "@hourly", "0 3 * * *" (3 AM daily)
	if jobSpec == "" {
		j.logger.Warn("Rescan job schedule not defined (SCAN_SCHEDULE). Job will not run.")
		return nil // Not a fatal error, just won't run
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule rescan job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Rescan job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *RescanJob) runJob() {
	j.logger.Info("Starting scheduled docs rescan...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute) // Job timeout
	defer cancel()

	scanRun, err := j.scanService.Run(ctx, scan.TriggerSchedule)
	if err != nil {
		if errors.Is(err, common.ErrScanInProgress) {
			j.logger.Warn("Scheduled rescan skipped: another scan is already running.")
			return
		}
		j.logger.Error("Scheduled rescan failed", zap.Error(err))
		return
	}
	j.logger.Info("Scheduled rescan completed",
		zap.String("scanID", scanRun.ID.String()),
		zap.Int("findings", scanRun.FindingCount))
}

// Stop gracefully stops the cron scheduler.
func (j *RescanJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping rescan job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Rescan job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second): // Timeout for stopping
			j.logger.Warn("Rescan job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	cl.zl.Info(msg, fields...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
