// File: internal/scan/repository.go
package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	"guidecheck_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for scan and finding persistence.
type Repository interface {
	CreateScan(ctx context.Context, scan *Scan) error
	UpdateScan(ctx context.Context, scan *Scan) error
	FindScanByID(ctx context.Context, id uuid.UUID, preloadFindings bool) (*Scan, error)
	FindLatestScan(ctx context.Context) (*Scan, error)
	ListScans(ctx context.Context, page, pageSize int) ([]Scan, *common.Pagination, error)
	InsertFindings(ctx context.Context, findings []Finding) error
	ListFindings(ctx context.Context, scanID uuid.UUID, query FindingListQuery, page, pageSize int) ([]Finding, *common.Pagination, error)
	ResolveFinding(ctx context.Context, id uuid.UUID) (*Finding, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM scan repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateScan(ctx context.Context, scan *Scan) error {
	return r.db.WithContext(ctx).Create(scan).Error
}

func (r *gormRepository) UpdateScan(ctx context.Context, scan *Scan) error {
	return r.db.WithContext(ctx).Omit("Findings").Save(scan).Error
}

func (r *gormRepository) FindScanByID(ctx context.Context, id uuid.UUID, preloadFindings bool) (*Scan, error) {
	var s Scan
	query := r.db.WithContext(ctx)
	if preloadFindings {
		query = query.Preload("Findings", func(db *gorm.DB) *gorm.DB {
			return db.Order("findings.path ASC, findings.line ASC")
		})
	}
	err := query.First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Scan not found.")
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) FindLatestScan(ctx context.Context) (*Scan, error) {
	var s Scan
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusCompleted).
		Order("started_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No completed scan yet.")
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) ListScans(ctx context.Context, page, pageSize int) ([]Scan, *common.Pagination, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Scan{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var scans []Scan
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&scans).Error
	if err != nil {
		return nil, nil, err
	}
	return scans, common.NewPagination(total, page, pageSize), nil
}

func (r *gormRepository) InsertFindings(ctx context.Context, findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(findings, 200).Error
}

func (r *gormRepository) ListFindings(ctx context.Context, scanID uuid.UUID, query FindingListQuery, page, pageSize int) ([]Finding, *common.Pagination, error) {
	base := r.db.WithContext(ctx).Model(&Finding{}).Where("scan_id = ?", scanID)

	if query.Severity != "" {
		base = base.Where("severity = ?", strings.ToLower(query.Severity))
	}
	if query.Rule != "" {
		base = base.Where("rule = ?", strings.ToUpper(strings.TrimSpace(query.Rule)))
	}
	if query.Resolved != nil {
		base = base.Where("resolved = ?", *query.Resolved)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var findings []Finding
	err := base.
		Order("path ASC, line ASC, rule ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&findings).Error
	if err != nil {
		return nil, nil, err
	}
	return findings, common.NewPagination(total, page, pageSize), nil
}

func (r *gormRepository) ResolveFinding(ctx context.Context, id uuid.UUID) (*Finding, error) {
	var f Finding
	err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Finding not found.")
		}
		return nil, err
	}

	// Resolving twice is a no-op, not an error.
	if !f.Resolved {
		now := time.Now()
		f.Resolved = true
		f.ResolvedAt = &now
		if err := r.db.WithContext(ctx).Save(&f).Error; err != nil {
			return nil, err
		}
	}
	return &f, nil
}
