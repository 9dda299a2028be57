package draft

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/capability"
)

func TestFileDepth(t *testing.T) {
	f := File{Path: "/tmp/test/some_archive/meson.build", ExtractRoot: "/tmp/test"}
	assert.Equal(t, 0, f.Depth())
}

func TestAnalyzeDetectsMeson(t *testing.T) {
	root := t.TempDir()
	archiveDir := filepath.Join(root, "hello-1.0")
	require.NoError(t, os.MkdirAll(archiveDir, 0o755))

	mesonBuild := "project('hello')\ndependency('glib-2.0')\nfind_program('python3')\n"
	require.NoError(t, os.WriteFile(filepath.Join(archiveDir, "meson.build"), []byte(mesonBuild), 0o644))

	files := []File{{Path: filepath.Join(archiveDir, "meson.build"), ExtractRoot: root}}

	system, deps, detected := Analyze(files)
	assert.True(t, detected)
	assert.Equal(t, SystemMeson, system)

	var sawGlib, sawPython bool
	for _, d := range deps {
		if d.Kind == capability.PkgConfig && d.Name == "glib-2.0" {
			sawGlib = true
		}
		if d.Kind == capability.Binary && d.Name == "python3" {
			sawPython = true
		}
	}
	assert.True(t, sawGlib)
	assert.True(t, sawPython)
}

func TestAnalyzeFallsBackToAutotoolsWhenUndetected(t *testing.T) {
	system, deps, detected := Analyze(nil)
	assert.False(t, detected)
	assert.Equal(t, SystemAutotools, system)
	assert.Empty(t, deps)
}

func TestRecipeRendersPhasesAndBuildDeps(t *testing.T) {
	src := Source{Name: "hello", Version: "1.0", Homepage: "https://example.org", Upstreams: []string{"https://example.org/hello-1.0.tar.xz"}}
	deps := []capability.Capability{{Kind: capability.PkgConfig, Name: "glib-2.0"}}

	text := Recipe(src, SystemMeson, deps)

	assert.Contains(t, text, "name        : hello")
	assert.Contains(t, text, "setup       : %meson")
	assert.Contains(t, text, "builddeps   :")
	assert.Contains(t, text, "pkg-config(glib-2.0)")
}
