// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides a repository clone recipe and a submodule
// update helper, ported from original_source/bakery/recipes/git.py.
package git

import (
	bakery "github.com/lainproliant/bakery"
)

// Toolchain binds the git recipes to a Build façade.
type Toolchain struct {
	build *bakery.Build
}

// New returns a git Toolchain bound to b.
func New(b *bakery.Build) *Toolchain { return &Toolchain{build: b} }

// Clone returns a recipe producer that clones url into repo. Clone
// declares no check role — once repo exists it is considered
// up to date regardless of the upstream's state (spec §4.3's
// outputs_exist-only freshness when no check files are declared).
func (t *Toolchain) Clone(name string) func(args bakery.RecipeArgs) bakery.Value {
	return t.build.Recipe(bakery.RecipeSpec{
		Name:    name,
		Targets: []string{"repo"},
	}, func(ctx *bakery.RecipeContext) error {
		_, err := ctx.Shell(bakery.Str("git"), bakery.Str("clone"), ctx.Args["url"], ctx.Args["repo"])
		return err
	})
}

// SubmoduleUpdate runs "git submodule update --init --recursive" in
// the current directory. Unlike Clone, this is not a recipe — the
// original never wraps it with a freshness check, since submodule
// state isn't expressed as a single file target.
func (t *Toolchain) SubmoduleUpdate(job *bakery.JobLog) error {
	_, err := t.build.RunShell(job, bakery.Str("git"), bakery.Str("submodule"), bakery.Str("update"),
		bakery.Str("--init"), bakery.Str("--recursive"))
	return err
}
