// File: internal/scan/model.go
package scan

import (
	"time"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/integrity"

	"github.com/google/uuid"
)

// --- Scan Model ---

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerStartup  Trigger = "startup"
)

// Scan is one full pass over the docs tree.
type Scan struct {
	common.BaseModel
	Status       Status     `gorm:"type:varchar(20);not null;default:'running'"`
	Trigger      Trigger    `gorm:"type:varchar(20);not null;default:'manual'"`
	StartedAt    time.Time  `gorm:"not null"`
	FinishedAt   *time.Time `gorm:""`
	GuideCount   int        `gorm:"not null;default:0"`
	ChapterCount int        `gorm:"not null;default:0"`
	FindingCount int        `gorm:"not null;default:0"`
	ErrorCount   int        `gorm:"not null;default:0"`
	WarningCount int        `gorm:"not null;default:0"`
	ReportPath   *string    `gorm:"type:varchar(512)"`
	ErrorMessage *string    `gorm:"type:text"`
	Findings     []Finding  `gorm:"foreignKey:ScanID;constraint:OnDelete:CASCADE;"`
}

// TableName specifies the table name for the Scan model.
func (Scan) TableName() string {
	return "scans"
}

// Finding is one persisted integrity violation from a scan.
type Finding struct {
	common.BaseModel
	ScanID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_findings_scan_id"`
	Scan       *Scan      `gorm:"foreignKey:ScanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GuidePath  string     `gorm:"type:varchar(512);not null"`
	Path       string     `gorm:"type:varchar(512);not null"`
	Rule       string     `gorm:"type:varchar(64);not null;index:idx_findings_rule"`
	Severity   string     `gorm:"type:varchar(20);not null"`
	Line       int        `gorm:"not null;default:0"`
	Message    string     `gorm:"type:text;not null"`
	Resolved   bool       `gorm:"not null;default:false"`
	ResolvedAt *time.Time `gorm:""`
}

// TableName specifies the table name for the Finding model.
func (Finding) TableName() string {
	return "findings"
}

// FromIntegrityFinding converts an engine finding to its persisted form.
func FromIntegrityFinding(scanID uuid.UUID, f integrity.Finding) Finding {
	return Finding{
		ScanID:    scanID,
		GuidePath: f.GuidePath,
		Path:      f.Path,
		Rule:      f.Rule,
		Severity:  string(f.Severity),
		Line:      f.Line,
		Message:   f.Message,
	}
}

// --- DTOs ---

// ScanResponse defines the structure for scan data sent in API responses.
type ScanResponse struct {
	ID           uuid.UUID         `json:"id"`
	Status       Status            `json:"status"`
	Trigger      Trigger           `json:"trigger"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	GuideCount   int               `json:"guide_count"`
	ChapterCount int               `json:"chapter_count"`
	FindingCount int               `json:"finding_count"`
	ErrorCount   int               `json:"error_count"`
	WarningCount int               `json:"warning_count"`
	ReportPath   *string           `json:"report_path,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Findings     []FindingResponse `json:"findings,omitempty"`
}

// FindingResponse defines the structure for finding data.
type FindingResponse struct {
	ID         uuid.UUID  `json:"id"`
	ScanID     uuid.UUID  `json:"scan_id"`
	GuidePath  string     `json:"guide_path"`
	Path       string     `json:"path"`
	Rule       string     `json:"rule"`
	Severity   string     `json:"severity"`
	Line       int        `json:"line"`
	Message    string     `json:"message"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToScanResponse converts a Scan model to a ScanResponse DTO.
func ToScanResponse(s *Scan) ScanResponse {
	findingDTOs := make([]FindingResponse, len(s.Findings))
	for i, f := range s.Findings {
		findingDTOs[i] = ToFindingResponse(&f)
	}
	return ScanResponse{
		ID:           s.ID,
		Status:       s.Status,
		Trigger:      s.Trigger,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		GuideCount:   s.GuideCount,
		ChapterCount: s.ChapterCount,
		FindingCount: s.FindingCount,
		ErrorCount:   s.ErrorCount,
		WarningCount: s.WarningCount,
		ReportPath:   s.ReportPath,
		ErrorMessage: s.ErrorMessage,
		Findings:     findingDTOs,
	}
}

// ToFindingResponse converts a Finding model to a FindingResponse DTO.
func ToFindingResponse(f *Finding) FindingResponse {
	return FindingResponse{
		ID:         f.ID,
		ScanID:     f.ScanID,
		GuidePath:  f.GuidePath,
		Path:       f.Path,
		Rule:       f.Rule,
		Severity:   f.Severity,
		Line:       f.Line,
		Message:    f.Message,
		Resolved:   f.Resolved,
		ResolvedAt: f.ResolvedAt,
		CreatedAt:  f.CreatedAt,
	}
}

// FindingListQuery holds the filters for listing a scan's findings.
type FindingListQuery struct {
	Severity string `form:"severity" binding:"omitempty,oneof=error warning"`
	Rule     string `form:"rule"`
	Resolved *bool  `form:"resolved"`
}
