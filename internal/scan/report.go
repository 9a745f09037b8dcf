// File: internal/scan/report.go
package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// reportDocument is the exported JSON shape of a finished scan.
type reportDocument struct {
	ScanID       string          `json:"scan_id"`
	Trigger      Trigger         `json:"trigger"`
	StartedAt    time.Time       `json:"started_at"`
	GeneratedAt  time.Time       `json:"generated_at"`
	GuideCount   int             `json:"guide_count"`
	ChapterCount int             `json:"chapter_count"`
	FindingCount int             `json:"finding_count"`
	ErrorCount   int             `json:"error_count"`
	WarningCount int             `json:"warning_count"`
	Findings     []reportFinding `json:"findings"`
}

type reportFinding struct {
	GuidePath string `json:"guide_path"`
	Path      string `json:"path"`
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
}

// writeReport exports a finished scan as a JSON file under exportPath and
// returns the written file path. The directory is created on demand.
func writeReport(exportPath string, scanRun *Scan, findings []Finding) (string, error) {
	if exportPath == "" {
		return "", fmt.Errorf("report export path is not configured")
	}
	if err := os.MkdirAll(exportPath, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", exportPath, err)
	}

	doc := reportDocument{
		ScanID:       scanRun.ID.String(),
		Trigger:      scanRun.Trigger,
		StartedAt:    scanRun.StartedAt,
		GeneratedAt:  time.Now(),
		GuideCount:   scanRun.GuideCount,
		ChapterCount: scanRun.ChapterCount,
		FindingCount: scanRun.FindingCount,
		ErrorCount:   scanRun.ErrorCount,
		WarningCount: scanRun.WarningCount,
		Findings:     make([]reportFinding, 0, len(findings)),
	}
	for _, f := range findings {
		doc.Findings = append(doc.Findings, reportFinding{
			GuidePath: f.GuidePath,
			Path:      f.Path,
			Rule:      f.Rule,
			Severity:  f.Severity,
			Line:      f.Line,
			Message:   f.Message,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling scan report: %w", err)
	}

	fileName := fmt.Sprintf("scan-%s.json", scanRun.ID.String())
	fullPath := filepath.Join(exportPath, fileName)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing scan report %s: %w", fullPath, err)
	}
	return fullPath, nil
}
