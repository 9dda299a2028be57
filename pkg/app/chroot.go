package app

import (
	"os"
	"strings"

	"github.com/go-errors/errors"

	"github.com/serpent-go/boulder/pkg/container"
	"github.com/serpent-go/boulder/pkg/recipe"
)

// Chroot drops an interactive shell into the most recently built
// recipe's rootfs (spec.md §6, "chroot: enter the last-used rootfs
// interactively").
func (a *App) Chroot() error {
	id, err := a.readLastRecipe()
	if err != nil {
		return err
	}

	layout, err := a.Config.Layout(id)
	if err != nil {
		return errors.Errorf("app: prepare cache layout: %w", err)
	}

	unlock, err := lockRootfs(layout.RootDir)
	if err != nil {
		return err
	}
	defer unlock()

	opts := container.Options{
		Rootfs:     recipe.NewPaths(id, "", a.Config.CacheDir, "/").Rootfs().Host,
		Networking: true,
		SubUIDPath: "/etc/subuid",
		SubGIDPath: "/etc/subgid",
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return container.Exec(opts, []string{shell})
}

func (a *App) readLastRecipe() (string, error) {
	data, err := os.ReadFile(a.lastRecipePath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("app: no rootfs has been built yet")
		}
		return "", errors.Errorf("app: read last-used recipe: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
