// File: internal/integrity/engine.go
package integrity

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"guidecheck_backend/internal/content"
)

// Engine runs the integrity rules over a parsed workspace. It performs no
// network I/O: external links are never followed, and the only filesystem
// access is existence checks for link targets beneath the docs root.
type Engine struct {
	disabled map[string]bool
}

// NewEngine creates an engine. Codes in disabled are skipped entirely.
func NewEngine(disabled map[string]bool) *Engine {
	if disabled == nil {
		disabled = map[string]bool{}
	}
	return &Engine{disabled: disabled}
}

// Check runs every enabled rule and returns the findings in deterministic
// order (guide, file, line, rule).
func (e *Engine) Check(ws *content.Workspace) []Finding {
	docs := docsByPath(ws)
	var findings []Finding

	for gi := range ws.Guides {
		guide := &ws.Guides[gi]
		findings = append(findings, e.checkDocumentRules(ws, guide, guide.Index, docs)...)
		for _, ch := range guide.Chapters {
			findings = append(findings, e.checkDocumentRules(ws, guide, ch, docs)...)
			if ch.Title == "" {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      ch.Path,
					Rule:      RuleChapterTitleMissing,
					Line:      1,
					Message:   "Chapter has no level-1 heading to serve as its title.",
				})
			}
		}
		findings = append(findings, e.checkIndexCoverage(guide)...)
		findings = append(findings, e.checkNumbering(guide)...)
		findings = append(findings, e.checkNavigation(guide)...)
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.GuidePath != b.GuidePath {
			return a.GuidePath < b.GuidePath
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
	return findings
}

// append adds a finding unless its rule is disabled, filling the severity.
func (e *Engine) append(findings []Finding, f Finding) []Finding {
	if e.disabled[f.Rule] {
		return findings
	}
	f.Severity = SeverityOf(f.Rule)
	return append(findings, f)
}

// checkDocumentRules covers the per-file rules: link resolution, anchor
// resolution, and fence language tags.
func (e *Engine) checkDocumentRules(ws *content.Workspace, guide *content.GuideDir, doc *content.Document, docs map[string]*content.Document) []Finding {
	if doc == nil {
		return nil
	}
	var findings []Finding

	for _, link := range doc.Links {
		if link.External {
			continue
		}

		if link.Target == "" {
			// Anchor-only link into the same document.
			if link.Anchor != "" && !doc.HasAnchor(link.Anchor) {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      doc.Path,
					Rule:      RuleLinkAnchorMissing,
					Line:      link.Line,
					Message:   fmt.Sprintf("Anchor #%s does not match any heading in this file.", link.Anchor),
				})
			}
			continue
		}

		resolved, ok := resolveTarget(doc.Path, link.Target)
		if !ok || !targetExists(ws, docs, resolved) {
			findings = e.append(findings, Finding{
				GuidePath: guide.Path,
				Path:      doc.Path,
				Rule:      RuleLinkTargetMissing,
				Line:      link.Line,
				Message:   fmt.Sprintf("Link target %q does not exist.", link.Destination),
			})
			continue
		}

		if link.Anchor != "" {
			if target, parsed := docs[resolved]; parsed && !target.HasAnchor(link.Anchor) {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      doc.Path,
					Rule:      RuleLinkAnchorMissing,
					Line:      link.Line,
					Message:   fmt.Sprintf("Anchor #%s does not match any heading in %s.", link.Anchor, resolved),
				})
			}
		}
	}

	for _, fence := range doc.Fences {
		if fence.Language == "" {
			findings = e.append(findings, Finding{
				GuidePath: guide.Path,
				Path:      doc.Path,
				Rule:      RuleFenceLanguageMissing,
				Line:      fence.Line,
				Message:   "Fenced code block declares no language tag.",
			})
		}
	}

	return findings
}

// checkIndexCoverage flags chapters that the guide's README never links.
func (e *Engine) checkIndexCoverage(guide *content.GuideDir) []Finding {
	if guide.Index == nil {
		return nil
	}
	indexed := indexedChapterPaths(guide)

	var findings []Finding
	for _, ch := range guide.Chapters {
		if !indexed[ch.Path] {
			findings = e.append(findings, Finding{
				GuidePath: guide.Path,
				Path:      ch.Path,
				Rule:      RuleChapterNotIndexed,
				Line:      1,
				Message:   fmt.Sprintf("Chapter is not linked from %s.", guide.Index.Path),
			})
		}
	}
	return findings
}

// checkNumbering flags duplicate chapter number prefixes and gaps in the
// 1..N sequence.
func (e *Engine) checkNumbering(guide *content.GuideDir) []Finding {
	var findings []Finding
	byNumber := map[int]*content.Document{}
	maxNumber := 0
	numbered := 0

	for _, ch := range guide.Chapters {
		if ch.Number == 0 {
			continue
		}
		numbered++
		if first, dup := byNumber[ch.Number]; dup {
			findings = e.append(findings, Finding{
				GuidePath: guide.Path,
				Path:      ch.Path,
				Rule:      RuleChapterNumberDuplicate,
				Line:      1,
				Message:   fmt.Sprintf("Chapter number %d is already used by %s.", ch.Number, first.Path),
			})
			continue
		}
		byNumber[ch.Number] = ch
		if ch.Number > maxNumber {
			maxNumber = ch.Number
		}
	}

	if numbered > 0 && len(byNumber) != maxNumber {
		var missing []string
		for n := 1; n <= maxNumber; n++ {
			if _, ok := byNumber[n]; !ok {
				missing = append(missing, fmt.Sprintf("%d", n))
			}
		}
		indexPath := guide.Path
		if guide.Index != nil {
			indexPath = guide.Index.Path
		}
		findings = e.append(findings, Finding{
			GuidePath: guide.Path,
			Path:      indexPath,
			Rule:      RuleChapterNumberGap,
			Line:      1,
			Message:   fmt.Sprintf("Chapter numbering is not contiguous; missing: %s.", strings.Join(missing, ", ")),
		})
	}

	return findings
}

// checkNavigation verifies chapter footers against the index reading order.
func (e *Engine) checkNavigation(guide *content.GuideDir) []Finding {
	order := readingOrder(guide)
	position := map[string]int{}
	for i, p := range order {
		position[p] = i
	}

	indexPath := ""
	if guide.Index != nil {
		indexPath = guide.Index.Path
	}

	var findings []Finding
	for _, ch := range guide.Chapters {
		pos, inOrder := position[ch.Path]

		if indexPath != "" {
			target := ""
			if ch.Nav.Index != nil {
				if resolved, ok := resolveTarget(ch.Path, ch.Nav.Index.Target); ok {
					target = resolved
				}
			}
			if target != indexPath {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      ch.Path,
					Rule:      RuleNavIndexMissing,
					Line:      navLine(ch.Nav.Index),
					Message:   fmt.Sprintf("Chapter footer has no link back to %s.", indexPath),
				})
			}
		}

		if !inOrder {
			continue
		}

		if ch.Nav.Prev != nil {
			expected := ""
			if pos > 0 {
				expected = order[pos-1]
			}
			if resolved, ok := resolveTarget(ch.Path, ch.Nav.Prev.Target); !ok || resolved != expected {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      ch.Path,
					Rule:      RuleNavPrevMismatch,
					Line:      ch.Nav.Prev.Line,
					Message:   navMismatchMessage("Previous", ch.Nav.Prev.Destination, expected),
				})
			}
		}
		if ch.Nav.Next != nil {
			expected := ""
			if pos+1 < len(order) {
				expected = order[pos+1]
			}
			if resolved, ok := resolveTarget(ch.Path, ch.Nav.Next.Target); !ok || resolved != expected {
				findings = e.append(findings, Finding{
					GuidePath: guide.Path,
					Path:      ch.Path,
					Rule:      RuleNavNextMismatch,
					Line:      ch.Nav.Next.Line,
					Message:   navMismatchMessage("Next", ch.Nav.Next.Destination, expected),
				})
			}
		}
	}
	return findings
}

func navMismatchMessage(kind, got, expected string) string {
	if expected == "" {
		return fmt.Sprintf("%s link points to %q but this chapter has no %s chapter in the index order.", kind, got, strings.ToLower(kind))
	}
	return fmt.Sprintf("%s link points to %q but the index order expects %s.", kind, got, expected)
}

func navLine(link *content.Link) int {
	if link != nil {
		return link.Line
	}
	return 1
}

// indexedChapterPaths collects the chapter paths the guide's README links to.
func indexedChapterPaths(guide *content.GuideDir) map[string]bool {
	chapterSet := map[string]bool{}
	for _, ch := range guide.Chapters {
		chapterSet[ch.Path] = true
	}

	indexed := map[string]bool{}
	if guide.Index != nil {
		for _, link := range guide.Index.Links {
			if link.External || link.Target == "" {
				continue
			}
			if resolved, ok := resolveTarget(guide.Index.Path, link.Target); ok && chapterSet[resolved] {
				indexed[resolved] = true
			}
		}
	}
	return indexed
}

// readingOrder is the chapter sequence the guide's README prescribes: index
// links resolving to chapter files, in document order, deduplicated. A guide
// without usable index links falls back to the sorted chapter order.
func readingOrder(guide *content.GuideDir) []string {
	chapterSet := map[string]bool{}
	for _, ch := range guide.Chapters {
		chapterSet[ch.Path] = true
	}

	var order []string
	seen := map[string]bool{}
	if guide.Index != nil {
		for _, link := range guide.Index.Links {
			if link.External || link.Target == "" {
				continue
			}
			resolved, ok := resolveTarget(guide.Index.Path, link.Target)
			if !ok || !chapterSet[resolved] || seen[resolved] {
				continue
			}
			seen[resolved] = true
			order = append(order, resolved)
		}
	}
	if len(order) > 0 {
		return order
	}

	order = make([]string, 0, len(guide.Chapters))
	for _, ch := range guide.Chapters {
		order = append(order, ch.Path)
	}
	return order
}

// resolveTarget resolves a relative link target against the linking file's
// directory. ok is false when the target escapes the docs root.
func resolveTarget(fromPath, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	if strings.HasPrefix(target, "/") {
		// Treat absolute paths as rooted at the docs root.
		target = strings.TrimPrefix(target, "/")
		return path.Clean(target), !strings.HasPrefix(path.Clean(target), "..")
	}
	resolved := path.Clean(path.Join(path.Dir(fromPath), target))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", false
	}
	return resolved, true
}

// targetExists checks a resolved target against the parsed docs first and
// the filesystem second (for images and source files next to the guides).
func targetExists(ws *content.Workspace, docs map[string]*content.Document, resolved string) bool {
	if _, ok := docs[resolved]; ok {
		return true
	}
	_, err := os.Stat(filepath.Join(ws.Root, filepath.FromSlash(resolved)))
	return err == nil
}

func docsByPath(ws *content.Workspace) map[string]*content.Document {
	docs := map[string]*content.Document{}
	for gi := range ws.Guides {
		g := &ws.Guides[gi]
		if g.Index != nil {
			docs[g.Index.Path] = g.Index
		}
		for _, ch := range g.Chapters {
			docs[ch.Path] = ch
		}
	}
	return docs
}
