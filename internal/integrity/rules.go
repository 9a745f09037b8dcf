// File: internal/integrity/rules.go
package integrity

// Severity grades a finding. Errors break a reader's navigation; warnings
// degrade the reading experience but everything still resolves.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule codes. Stable identifiers: they are persisted with findings and used
// in DISABLED_RULES config.
const (
	RuleLinkTargetMissing      = "LINK_TARGET_MISSING"
	RuleLinkAnchorMissing      = "LINK_ANCHOR_MISSING"
	RuleFenceLanguageMissing   = "FENCE_LANGUAGE_MISSING"
	RuleChapterTitleMissing    = "CHAPTER_TITLE_MISSING"
	RuleChapterNotIndexed      = "CHAPTER_NOT_INDEXED"
	RuleChapterNumberDuplicate = "CHAPTER_NUMBER_DUPLICATE"
	RuleChapterNumberGap       = "CHAPTER_NUMBER_GAP"
	RuleNavPrevMismatch        = "NAV_PREV_MISMATCH"
	RuleNavNextMismatch        = "NAV_NEXT_MISMATCH"
	RuleNavIndexMissing        = "NAV_INDEX_MISSING"
)

// ruleSeverities maps every known rule to its severity.
var ruleSeverities = map[string]Severity{
	RuleLinkTargetMissing:      SeverityError,
	RuleLinkAnchorMissing:      SeverityWarning,
	RuleFenceLanguageMissing:   SeverityWarning,
	RuleChapterTitleMissing:    SeverityWarning,
	RuleChapterNotIndexed:      SeverityWarning,
	RuleChapterNumberDuplicate: SeverityError,
	RuleChapterNumberGap:       SeverityWarning,
	RuleNavPrevMismatch:        SeverityError,
	RuleNavNextMismatch:        SeverityError,
	RuleNavIndexMissing:        SeverityWarning,
}

// KnownRules returns all rule codes.
func KnownRules() []string {
	rules := make([]string, 0, len(ruleSeverities))
	for code := range ruleSeverities {
		rules = append(rules, code)
	}
	return rules
}

// SeverityOf returns the severity for a rule code, defaulting to warning
// for unknown codes so persisted findings from older versions stay valid.
func SeverityOf(rule string) Severity {
	if s, ok := ruleSeverities[rule]; ok {
		return s
	}
	return SeverityWarning
}

// Finding is one integrity violation located in the docs tree.
type Finding struct {
	// GuidePath is the guide directory relative to the docs root.
	GuidePath string
	// Path is the offending file relative to the docs root.
	Path     string
	Rule     string
	Severity Severity
	Line     int
	Message  string
}
