package app

import (
	"os"
	"path/filepath"

	"github.com/go-errors/errors"

	"github.com/serpent-go/boulder/pkg/draft"
)

// RecipeNewOptions carries `recipe new`'s flags: a source tree already
// extracted on disk, and the identifying fields a real archive fetch
// and extraction step (out of scope per spec.md §6) would otherwise
// have supplied.
type RecipeNewOptions struct {
	SourceDir string
	Name      string
	Version   string
	Homepage  string
	Upstreams []string
	OutPath   string
}

// RecipeNew walks opts.SourceDir, detects its build system, and writes
// a starting recipe document to opts.OutPath (spec.md §6, "recipe
// {new|...}"; pkg/draft implements the detection itself).
func (a *App) RecipeNew(opts RecipeNewOptions) error {
	var files []draft.File
	err := filepath.WalkDir(opts.SourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, draft.File{Path: path, ExtractRoot: opts.SourceDir})
		return nil
	})
	if err != nil {
		return errors.Errorf("app: walk source tree %s: %w", opts.SourceDir, err)
	}

	system, deps, detected := draft.Analyze(files)
	if !detected {
		a.Log.Warn("could not detect a build system, defaulting to autotools")
	}

	text := draft.Recipe(draft.Source{
		Name:      opts.Name,
		Version:   opts.Version,
		Homepage:  opts.Homepage,
		Upstreams: opts.Upstreams,
	}, system, deps)

	outPath := opts.OutPath
	if outPath == "" {
		outPath = "stone.yml"
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return errors.Errorf("app: write recipe %s: %w", outPath, err)
	}

	a.Log.WithField("system", system.String()).Info("wrote draft recipe")
	return nil
}
