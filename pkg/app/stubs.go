package app

import "github.com/go-errors/errors"

// ErrOutOfScope is returned by CLI surfaces spec.md §1 names explicitly
// out of scope (profile/repository management, recipe macro/bump/
// update surface syntax editing): the subcommand exists so the CLI
// dispatch table matches spec.md §6, but its behavior is an external
// collaborator this repo doesn't implement.
var ErrOutOfScope = errors.New("not implemented: out of scope per this build's specification")

// Profile handles the `profile {list|add|update}` subcommand. Profile
// and repository configuration management is explicitly out of scope
// (spec.md, "profile management... repository configuration loading").
func (a *App) Profile(action string) error {
	return errors.Errorf("app: profile %s: %w", action, ErrOutOfScope)
}

// RecipeMaintenance handles `recipe {bump|update|macros}` — editing an
// existing recipe's surface syntax, which is out of scope (spec.md,
// "YAML recipe surface syntax... out of scope"). Only `recipe new`
// (RecipeNew) is implemented, since it produces a document rather than
// parsing or rewriting one.
func (a *App) RecipeMaintenance(action string) error {
	return errors.Errorf("app: recipe %s: %w", action, ErrOutOfScope)
}
