// Package config resolves the on-disk layout boulder uses for a given
// recipe build: where the rootfs, build tree, artefacts, compiler cache
// and fetched upstreams live, and which XDG directories back them by
// default. It also hosts the vendor/admin/drop-in config-file merge,
// used by pkg/app to load the global and per-architecture macro files.
package config

import (
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
)

// AppConfig carries identity and filesystem roots threaded through the
// whole build: one instance is constructed in main() and handed to every
// subsystem explicitly (see SPEC_FULL.md §9, "no package-level globals").
type AppConfig struct {
	Name    string
	Version string
	Commit  string
	Debug   bool

	// CacheDir holds root/, build/, artefacts/, ccache/ and upstreams/
	// (SPEC_FULL.md §6, "On-disk layout").
	CacheDir  string
	ConfigDir string
	DataDir   string

	// SourceDateEpoch is propagated into phase scripts verbatim when set.
	SourceDateEpoch string
}

// NewAppConfig resolves the XDG directories and returns a ready AppConfig.
// XDG_CACHE_HOME/XDG_CONFIG_HOME/XDG_DATA_HOME are honoured directly,
// covering the three XDG roots boulder's on-disk layout depends on.
func NewAppConfig(name, version, commit string, debug bool) (*AppConfig, error) {
	dirs := xdg.New("", name)

	cfg := &AppConfig{
		Name:            name,
		Version:         version,
		Commit:          commit,
		Debug:           debug || os.Getenv("DEBUG") == "TRUE",
		CacheDir:        firstNonEmpty(os.Getenv("XDG_CACHE_HOME"), dirs.CacheHome()),
		ConfigDir:       firstNonEmpty(os.Getenv("XDG_CONFIG_HOME"), dirs.ConfigHome()),
		DataDir:         firstNonEmpty(os.Getenv("XDG_DATA_HOME"), dirs.DataHome()),
		SourceDateEpoch: os.Getenv("SOURCE_DATE_EPOCH"),
	}

	for _, dir := range []string{cfg.CacheDir, cfg.ConfigDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RecipeLayout is the per-recipe cache tree described in SPEC_FULL.md §6.
type RecipeLayout struct {
	RootDir      string
	BuildDir     string
	ArtefactsDir string
	CcacheDir    string
	UpstreamsDir string
}

// Layout constructs a RecipeLayout for the given recipe id under the
// app's cache directory, creating each directory as needed.
func (c *AppConfig) Layout(recipeID string) (*RecipeLayout, error) {
	layout := &RecipeLayout{
		RootDir:      filepath.Join(c.CacheDir, "root", recipeID),
		BuildDir:     filepath.Join(c.CacheDir, "build", recipeID),
		ArtefactsDir: filepath.Join(c.CacheDir, "artefacts", recipeID),
		CcacheDir:    filepath.Join(c.CacheDir, "ccache"),
		UpstreamsDir: filepath.Join(c.CacheDir, "upstreams"),
	}

	dirs := []string{layout.RootDir, layout.BuildDir, layout.ArtefactsDir, layout.CcacheDir, layout.UpstreamsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return layout, nil
}
