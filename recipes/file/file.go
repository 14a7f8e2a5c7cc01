// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

// Package file provides filesystem recipes — directory creation and
// recursive copy — ported from
// original_source/bakery/recipes/file.py.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cp "github.com/otiai10/copy"

	bakery "github.com/lainproliant/bakery"
)

// Toolchain binds the file recipes to a single Build façade, the way
// every recipes subpackage in this rewrite does (spec §9: Design
// Notes prefer an explicit façade instance over the original's
// module-level Borg singleton).
type Toolchain struct {
	build *bakery.Build
}

// New returns a file Toolchain bound to b.
func New(b *bakery.Build) *Toolchain { return &Toolchain{build: b} }

// Directory returns a recipe producer that creates path (and any
// missing parents) if it does not already exist, failing if path
// exists but is not a directory.
func (t *Toolchain) Directory(name string) func(args bakery.RecipeArgs) bakery.Value {
	return t.build.Recipe(bakery.RecipeSpec{
		Name:    name,
		Targets: []string{"path"},
	}, func(ctx *bakery.RecipeContext) error {
		path := ctx.Str("path")
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			ctx.Log.Trace(fmt.Sprintf("Making directory: %s", path))
			return os.MkdirAll(path, 0o755)
		case err != nil:
			return err
		case !info.IsDir():
			return &bakery.BuildError{Message: fmt.Sprintf("File exists but is not a directory: %s", path)}
		}
		return nil
	})
}

// Copy returns a recipe producer that copies src to dst, recursively
// when src is a directory. dst is only refreshed when src is newer
// (spec §4.3's check role).
func (t *Toolchain) Copy(name string) func(args bakery.RecipeArgs) bakery.Value {
	return t.build.Recipe(bakery.RecipeSpec{
		Name:    name,
		Targets: []string{"dst"},
		Check:   []string{"src"},
	}, func(ctx *bakery.RecipeContext) error {
		src, dst := ctx.Str("src"), ctx.Str("dst")
		info, err := os.Stat(src)
		if err != nil {
			return err
		}
		if info.IsDir() {
			ctx.Log.Trace(fmt.Sprintf("Copying directory: %s --> %s", src, dst))
		} else {
			ctx.Log.Trace(fmt.Sprintf("Copying file: %s --> %s", src, dst))
		}
		return cp.Copy(src, dst)
	})
}

// Glob returns the sorted set of paths matching pattern as a Seq, the
// Go replacement for the original's File.glob (a thin wrapper over
// Python's glob.glob).
func Glob(pattern string) bakery.Value {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		matches = nil
	}
	sort.Strings(matches)
	return bakery.Strs(matches)
}

// SwapExt replaces filename's extension with ext.
func SwapExt(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + ext
}

// DropExt removes filename's extension.
func DropExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
