// File: internal/content/parser.go
package content

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// A single Markdown instance is reused; goldmark parsers are safe for
// concurrent use.
var markdown = goldmark.New()

var numberPrefixRe = regexp.MustCompile(`^(\d+)[-_. ]`)

// ParseDocument parses one Markdown file into its Document form.
// relPath must be slash-separated and relative to the workspace root.
func ParseDocument(relPath string, src []byte) (*Document, error) {
	doc := &Document{
		Path:      relPath,
		Number:    parseNumberPrefix(baseName(relPath)),
		WordCount: len(strings.Fields(string(src))),
	}

	root := markdown.Parser().Parse(text.NewReader(src))
	lines := newLineIndex(src)
	anchors := map[string]int{}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headingText := nodeText(node, src)
			doc.Headings = append(doc.Headings, Heading{
				Level:  node.Level,
				Text:   headingText,
				Anchor: uniqueAnchor(anchors, githubAnchor(headingText)),
				Line:   blockLine(node, lines),
			})
			if node.Level == 1 && doc.Title == "" {
				doc.Title = headingText
			}
		case *ast.FencedCodeBlock:
			lang := ""
			line := 0
			if node.Info != nil {
				info := strings.TrimSpace(string(node.Info.Segment.Value(src)))
				// The info string may carry attributes after the language,
				// e.g. "go {linenos=true}".
				lang = firstField(info)
				line = lines.lineOf(node.Info.Segment.Start)
			} else if node.Lines().Len() > 0 {
				// No info string: the opening fence sits one line above the
				// first content line.
				line = lines.lineOf(node.Lines().At(0).Start) - 1
			}
			if line <= 0 {
				line = 1
			}
			doc.Fences = append(doc.Fences, Fence{Language: lang, Line: line})
		case *ast.Link:
			doc.Links = append(doc.Links, classifyLink(string(node.Destination), nodeText(node, src), inlineLine(node, src, lines)))
		case *ast.AutoLink:
			doc.Links = append(doc.Links, Link{
				Destination: string(node.URL(src)),
				Text:        string(node.Label(src)),
				Line:        inlineLine(node, src, lines),
				External:    true,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown AST of %s: %w", relPath, err)
	}

	doc.Nav = extractNav(root, src, lines)
	return doc, nil
}

// extractNav reads footer navigation from the document's final paragraph.
// Keyworded links anywhere else are plain cross-references, not navigation:
// a body sentence like "see the [next big topic](...)" must not become a
// Next link.
func extractNav(root ast.Node, src []byte, lines *lineIndex) NavLinks {
	var nav NavLinks
	last := root.LastChild()
	if last == nil || last.Kind() != ast.KindParagraph {
		return nav
	}
	_ = ast.Walk(last, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if l, ok := n.(*ast.Link); ok {
			nav.note(classifyLink(string(l.Destination), nodeText(l, src), inlineLine(l, src, lines)))
		}
		return ast.WalkContinue, nil
	})
	return nav
}

// note records a footer link by its text. The last matching link wins.
func (n *NavLinks) note(link Link) {
	if link.External {
		return
	}
	text := strings.ToLower(link.Text)
	l := link
	switch {
	case strings.Contains(text, "previous") || strings.HasPrefix(text, "prev"):
		n.Prev = &l
	case strings.Contains(text, "next"):
		n.Next = &l
	case strings.Contains(text, "index") || strings.Contains(text, "table of contents"):
		n.Index = &l
	}
}

// classifyLink splits a raw destination into file target and anchor and
// flags external URLs.
func classifyLink(destination, linkText string, line int) Link {
	link := Link{Destination: destination, Text: linkText, Line: line}

	if isExternal(destination) {
		link.External = true
		return link
	}

	target := destination
	if i := strings.IndexByte(target, '#'); i >= 0 {
		link.Anchor = target[i+1:]
		target = target[:i]
	}
	// Strip query strings some authors append to relative links.
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	link.Target = target
	return link
}

func isExternal(destination string) bool {
	if strings.HasPrefix(destination, "//") {
		return true
	}
	for _, scheme := range []string{"http://", "https://", "mailto:", "ftp://", "tel:"} {
		if strings.HasPrefix(strings.ToLower(destination), scheme) {
			return true
		}
	}
	return false
}

// githubAnchor converts heading text into a GitHub-style anchor slug:
// lowercase, punctuation stripped, spaces turned into hyphens.
func githubAnchor(headingText string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(headingText) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune('-')
		case r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// uniqueAnchor applies GitHub's -1, -2 suffixing for repeated headings.
func uniqueAnchor(seen map[string]int, anchor string) string {
	count := seen[anchor]
	seen[anchor] = count + 1
	if count == 0 {
		return anchor
	}
	return anchor + "-" + strconv.Itoa(count)
}

// nodeText collects the plain text of a node's descendants.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// blockLine returns the 1-based source line of a block node.
func blockLine(n ast.Node, lines *lineIndex) int {
	if n.Lines().Len() > 0 {
		return lines.lineOf(n.Lines().At(0).Start)
	}
	return 1
}

// inlineLine returns the 1-based source line of an inline node, falling back
// to the enclosing block when the node has no text of its own.
func inlineLine(n ast.Node, src []byte, lines *lineIndex) int {
	line := 0
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			line = lines.lineOf(t.Segment.Start)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if line > 0 {
		return line
	}
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Type() == ast.TypeBlock && parent.Lines().Len() > 0 {
			return lines.lineOf(parent.Lines().At(0).Start)
		}
	}
	return 1
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) lineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
}

func parseNumberPrefix(name string) int {
	m := numberPrefixRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func baseName(relPath string) string {
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		return relPath[i+1:]
	}
	return relPath
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
