// File: internal/content/walker.go
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const indexFileName = "README.md"

// LoadWorkspace walks the docs root and parses every guide directory it
// finds. A guide directory is any directory holding a README.md index; its
// chapters are the directory's other .md files (non-recursive, so nested
// guide directories stay independent guides). Dotted and underscore-prefixed
// directories are skipped.
func LoadWorkspace(root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving docs root %s: %w", root, err)
	}

	ws := &Workspace{Root: absRoot}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != absRoot && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "node_modules") {
			return filepath.SkipDir
		}

		guide, err := loadGuideDir(absRoot, path)
		if err != nil {
			return err
		}
		if guide != nil {
			ws.Guides = append(ws.Guides, *guide)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking docs root %s: %w", absRoot, err)
	}

	sort.Slice(ws.Guides, func(i, j int) bool {
		return ws.Guides[i].Path < ws.Guides[j].Path
	})
	return ws, nil
}

// loadGuideDir parses dir as a guide when it holds an index file; returns
// (nil, nil) for plain directories.
func loadGuideDir(root, dir string) (*GuideDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	hasIndex := false
	for _, e := range entries {
		if !e.IsDir() && e.Name() == indexFileName {
			hasIndex = true
			break
		}
	}
	if !hasIndex {
		return nil, nil
	}

	relDir, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	relDir = filepath.ToSlash(relDir)

	guide := &GuideDir{
		Path:    relDir,
		DirName: filepath.Base(dir),
	}
	if relDir == "." {
		guide.DirName = filepath.Base(root)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		relPath := e.Name()
		if relDir != "." {
			relPath = relDir + "/" + e.Name()
		}

		src, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", relPath, err)
		}
		doc, err := ParseDocument(relPath, src)
		if err != nil {
			return nil, err
		}

		if e.Name() == indexFileName {
			guide.Index = doc
		} else {
			guide.Chapters = append(guide.Chapters, doc)
		}
	}

	sort.Slice(guide.Chapters, func(i, j int) bool {
		a, b := guide.Chapters[i], guide.Chapters[j]
		if a.Number != b.Number {
			// Unnumbered chapters (0) sort after numbered ones.
			if a.Number == 0 || b.Number == 0 {
				return b.Number == 0
			}
			return a.Number < b.Number
		}
		return a.Path < b.Path
	})

	return guide, nil
}
