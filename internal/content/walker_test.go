// File: internal/content/walker_test.go
package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocsFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadWorkspace(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "go-basics/README.md", "# Go Basics\n")
	writeDocsFile(t, root, "go-basics/01-setup.md", "# Setup\n")
	writeDocsFile(t, root, "go-basics/02-tools.md", "# Tools\n")
	writeDocsFile(t, root, "go-basics/notes.txt", "not markdown\n")
	writeDocsFile(t, root, "misc/scratch.md", "no index here\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)

	// misc/ has no README.md so it is not a guide.
	require.Len(t, ws.Guides, 1)
	g := ws.Guides[0]
	assert.Equal(t, "go-basics", g.Path)
	assert.Equal(t, "go-basics", g.DirName)
	require.NotNil(t, g.Index)
	assert.Equal(t, "go-basics/README.md", g.Index.Path)

	require.Len(t, g.Chapters, 2)
	assert.Equal(t, "go-basics/01-setup.md", g.Chapters[0].Path)
	assert.Equal(t, "go-basics/02-tools.md", g.Chapters[1].Path)
	assert.Equal(t, 2, ws.ChapterCount())
}

func TestLoadWorkspaceChapterOrdering(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "g/README.md", "# G\n")
	writeDocsFile(t, root, "g/10-ten.md", "# Ten\n")
	writeDocsFile(t, root, "g/02-two.md", "# Two\n")
	writeDocsFile(t, root, "g/appendix.md", "# Appendix\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)
	require.Len(t, ws.Guides, 1)

	var paths []string
	for _, ch := range ws.Guides[0].Chapters {
		paths = append(paths, ch.Path)
	}
	// Numeric order, with unnumbered chapters after the numbered ones.
	assert.Equal(t, []string{"g/02-two.md", "g/10-ten.md", "g/appendix.md"}, paths)
}

func TestLoadWorkspaceIndexOnlyGuide(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "stub/README.md", "# Stub Guide\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)
	require.Len(t, ws.Guides, 1)
	require.NotNil(t, ws.Guides[0].Index)
	assert.Empty(t, ws.Guides[0].Chapters)
	assert.Equal(t, 0, ws.ChapterCount())
}

func TestLoadWorkspaceSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "g/README.md", "# G\n")
	writeDocsFile(t, root, ".git/README.md", "# not a guide\n")
	writeDocsFile(t, root, "_drafts/README.md", "# not a guide\n")
	writeDocsFile(t, root, "node_modules/pkg/README.md", "# not a guide\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)
	require.Len(t, ws.Guides, 1)
	assert.Equal(t, "g", ws.Guides[0].Path)
}

func TestLoadWorkspaceRootCanBeAGuide(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "README.md", "# Root Guide\n")
	writeDocsFile(t, root, "01-only.md", "# Only\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)
	require.Len(t, ws.Guides, 1)
	g := ws.Guides[0]
	assert.Equal(t, ".", g.Path)
	assert.Equal(t, filepath.Base(root), g.DirName)
	require.Len(t, g.Chapters, 1)
	assert.Equal(t, "01-only.md", g.Chapters[0].Path)
}

func TestLoadWorkspaceNestedGuidesStayIndependent(t *testing.T) {
	root := t.TempDir()
	writeDocsFile(t, root, "outer/README.md", "# Outer\n")
	writeDocsFile(t, root, "outer/01-a.md", "# A\n")
	writeDocsFile(t, root, "outer/inner/README.md", "# Inner\n")
	writeDocsFile(t, root, "outer/inner/01-b.md", "# B\n")

	ws, err := LoadWorkspace(root)
	require.NoError(t, err)
	require.Len(t, ws.Guides, 2)
	assert.Equal(t, "outer", ws.Guides[0].Path)
	require.Len(t, ws.Guides[0].Chapters, 1)
	assert.Equal(t, "outer/inner", ws.Guides[1].Path)
	require.Len(t, ws.Guides[1].Chapters, 1)
}
