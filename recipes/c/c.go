// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

// Package c provides a C compile/link recipe pair, ported from
// original_source/bakery/recipes/c.py.
package c

import (
	bakery "github.com/lainproliant/bakery"
)

// Toolchain holds the compiler and flags shared by every compile/link
// recipe it builds, replacing the original module's bare CC/CFLAGS/
// LDFLAGS globals with an explicit, independently-configurable value.
type Toolchain struct {
	build *bakery.Build

	CC      string
	CFlags  []string
	LDFlags []string
}

// New returns a C Toolchain bound to b, defaulting to the "cc" driver.
func New(b *bakery.Build) *Toolchain {
	return &Toolchain{build: b, CC: "cc"}
}

func strValues(ss []string) []bakery.Value {
	out := make([]bakery.Value, len(ss))
	for i, s := range ss {
		out[i] = bakery.Str(s)
	}
	return out
}

// Compile returns a recipe producer that compiles src into obj.
func (t *Toolchain) Compile(name string) func(args bakery.RecipeArgs) bakery.Value {
	return t.build.Recipe(bakery.RecipeSpec{
		Name:    name,
		Targets: []string{"obj"},
		Check:   []string{"src"},
		Verbose: true,
	}, func(ctx *bakery.RecipeContext) error {
		argv := append([]bakery.Value{bakery.Str(t.CC)}, strValues(t.CFlags)...)
		argv = append(argv, bakery.Str("-c"), ctx.Args["src"], bakery.Str("-o"), ctx.Args["obj"])
		_, err := ctx.Shell(argv...)
		return err
	})
}

// Link returns a recipe producer that links obj into executable.
func (t *Toolchain) Link(name string) func(args bakery.RecipeArgs) bakery.Value {
	return t.build.Recipe(bakery.RecipeSpec{
		Name:    name,
		Targets: []string{"executable"},
		Check:   []string{"obj"},
	}, func(ctx *bakery.RecipeContext) error {
		argv := append([]bakery.Value{bakery.Str(t.CC)}, strValues(t.LDFlags)...)
		argv = append(argv, ctx.Args["obj"], bakery.Str("-o"), ctx.Args["executable"])
		_, err := ctx.Shell(argv...)
		return err
	})
}
