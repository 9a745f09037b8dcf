// File: internal/content/model.go
package content

// Heading is one Markdown heading with its GitHub-style anchor.
type Heading struct {
	Level  int
	Text   string
	Anchor string
	Line   int
}

// Link is one Markdown link occurrence.
type Link struct {
	// Destination is the raw link destination as written.
	Destination string
	// Target is the file part of a relative destination ("" for anchor-only
	// links that point into the same document).
	Target string
	// Anchor is the fragment part, without the leading '#'.
	Anchor string
	// Text is the rendered link text.
	Text string
	Line int
	// External is true for absolute URLs (scheme or protocol-relative);
	// external links are never checked against the filesystem.
	External bool
}

// Fence is one fenced code block.
type Fence struct {
	Language string
	Line     int
}

// NavLinks holds the navigation links from a chapter's footer, when present.
// Only the document's final paragraph counts as a footer; the last matching
// link within it wins.
type NavLinks struct {
	Prev  *Link
	Next  *Link
	Index *Link
}

// Document is one parsed Markdown file.
type Document struct {
	// Path is relative to the workspace root, slash-separated.
	Path string
	// Title is the text of the first level-1 heading, "" when absent.
	Title string
	// Number is the leading numeric filename prefix ("03-errors.md" -> 3),
	// 0 when the filename carries no number.
	Number    int
	Headings  []Heading
	Links     []Link
	Fences    []Fence
	Nav       NavLinks
	WordCount int
}

// HasAnchor reports whether any heading in the document produces the given
// anchor.
func (d *Document) HasAnchor(anchor string) bool {
	for _, h := range d.Headings {
		if h.Anchor == anchor {
			return true
		}
	}
	return false
}

// GuideDir is a directory holding a README.md index plus chapter files.
type GuideDir struct {
	// Path is the directory path relative to the workspace root; "." for
	// the root itself.
	Path    string
	DirName string
	Index   *Document
	// Chapters are the non-README .md files of the directory, ordered by
	// number prefix then filename.
	Chapters []*Document
}

// Workspace is the parsed docs tree.
type Workspace struct {
	Root   string
	Guides []GuideDir
}

// ChapterCount returns the total number of chapters across all guides.
func (w *Workspace) ChapterCount() int {
	n := 0
	for _, g := range w.Guides {
		n += len(g.Chapters)
	}
	return n
}
