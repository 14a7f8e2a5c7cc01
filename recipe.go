// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// RecipeSpec declares a recipe's file roles (spec §4.3): Targets are
// positional target roles, Check and Temp are the check= and temp=
// roles. Each name must be a key a caller will supply in RecipeArgs.
type RecipeSpec struct {
	Name    string
	Targets []string
	Check   []string
	Temp    []string
	Verbose bool
}

// RecipeArgs binds a recipe invocation's declared parameters to already
// spliced (concrete) Values.
type RecipeArgs map[string]Value

// RecipeContext is what a RecipeFunc receives: the bound arguments, a
// per-job log, and a bound Shell entry point.
type RecipeContext struct {
	Args  RecipeArgs
	Log   *JobLog
	Shell func(args ...Value) ([]string, error)
}

// Str returns a bound argument flattened to its first string, or "".
func (c *RecipeContext) Str(name string) string {
	v, ok := c.Args[name]
	if !ok {
		return ""
	}
	ss, err := Flatten(v)
	if err != nil || len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// Strs returns a bound argument flattened to a string slice.
func (c *RecipeContext) Strs(name string) []string {
	v, ok := c.Args[name]
	if !ok {
		return nil
	}
	ss, _ := Flatten(v)
	return ss
}

// RecipeFunc is the effectful body of a recipe: it performs the actual
// work (typically a Shell invocation) and reports only an error. Unlike
// the Python original, where the decorated function's own return value
// is used verbatim unless the decorator's coalescing kicks in, this
// port always computes the coalesced return value from the declared
// target role(s) itself (see SPEC_FULL.md §4.3) so the Coalesced Return
// invariant (spec §8) holds unconditionally.
type RecipeFunc func(ctx *RecipeContext) error

// Recipe wraps fn with the up-to-date check, clean-mode semantics, and
// output validation from spec §4.3. The returned function, when
// called, immediately yields a Deferred — it does not run the
// freshness check or fn synchronously — so a provider can build a Seq
// of not-yet-evaluated recipe calls for the evaluator to splice
// concurrently (spec §4.2's "sequence-of-deferred" shape).
func (b *Build) Recipe(spec RecipeSpec, fn RecipeFunc) func(args RecipeArgs) Value {
	return func(args RecipeArgs) Value {
		return Deferred{
			Resource: spec.Name,
			Run:      func() (Value, error) { return b.runRecipe(spec, fn, args) },
		}
	}
}

func (b *Build) runRecipe(spec RecipeSpec, fn RecipeFunc, args RecipeArgs) (Value, error) {
	targetFiles, err := flattenRoles(args, spec.Targets)
	if err != nil {
		return nil, err
	}
	checkFiles, err := flattenRoles(args, spec.Check)
	if err != nil {
		return nil, err
	}
	tempFiles, err := flattenRoles(args, spec.Temp)
	if err != nil {
		return nil, err
	}
	outputFiles := unionFiles(targetFiles, tempFiles)

	longName := spec.Name
	if spec.Verbose && len(outputFiles) > 0 {
		longName = fmt.Sprintf("%s %s", spec.Name, strings.Join(outputFiles, ","))
	}
	job := NewJobLog(b.log, longName)

	if Debug() {
		fmt.Fprintf(os.Stderr, "Recipe %q invoked here...\n", spec.Name)
		fmt.Fprint(os.Stderr, string(debug.Stack()))
	}

	coalesced := coalesceOutputs(spec, args, outputFiles)

	if b.Cleaning {
		for _, f := range outputFiles {
			if err := removeFile(f, job); err != nil {
				return nil, err
			}
		}
		return coalesced, nil
	}

	if recipeUpToDate(outputFiles, checkFiles) {
		return coalesced, nil
	}

	ctx := &RecipeContext{
		Args: args,
		Log:  job,
		Shell: func(args ...Value) ([]string, error) {
			return b.shell.Run(context.Background(), job, args...)
		},
	}

	if err := fn(ctx); err != nil {
		return nil, &JobError{Message: fmt.Sprintf("recipe %q failed", spec.Name), Cause: err}
	}

	if !recipeUpToDate(outputFiles, checkFiles) {
		return nil, &BuildError{Message: fmt.Sprintf(
			"Recipe %q failed to create the prescribed output: %s", spec.Name, strings.Join(outputFiles, ", "))}
	}

	b.addTempFiles(tempFiles)
	return coalesced, nil
}

// coalesceOutputs implements spec §4.3's "Coalesced return": with
// exactly one target role bound to a non-sequence value, that value is
// returned verbatim; otherwise the full output set is returned.
func coalesceOutputs(spec RecipeSpec, args RecipeArgs, outputFiles []string) Value {
	if len(spec.Targets) == 1 {
		if v, ok := args[spec.Targets[0]]; ok {
			if _, isSeq := v.(Seq); !isSeq {
				return v
			}
		}
	}
	return Strs(outputFiles)
}

// recipeUpToDate implements spec §4.3's freshness predicate:
// outputs_up_to_date ≜ outputs_exist ∧ (check_files = ∅ ∨
// max(check_mtimes) ≤ max(output_mtimes)). A recipe with no declared
// output files at all is never up to date.
func recipeUpToDate(outputFiles, checkFiles []string) bool {
	if len(outputFiles) == 0 {
		return false
	}
	for _, f := range outputFiles {
		if !fileExists(f) {
			return false
		}
	}
	if len(checkFiles) == 0 {
		return true
	}
	return maxMtime(checkFiles).Compare(maxMtime(outputFiles)) <= 0
}

func flattenRoles(args RecipeArgs, roles []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, role := range roles {
		v, ok := args[role]
		if !ok {
			continue
		}
		files, err := Flatten(v)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func unionFiles(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, f := range append(append([]string{}, a...), b...) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func maxMtime(files []string) time.Time {
	var max time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if m := info.ModTime(); m.After(max) {
			max = m
		}
	}
	return max
}

// removeFile deletes path: a directory is removed recursively, a
// regular file is deleted, a nonexistent path is a no-op (spec §4.3).
func removeFile(path string, log *JobLog) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &BuildError{Message: fmt.Sprintf("stat %q: %v", path, err)}
	}
	if info.IsDir() {
		log.Trace(fmt.Sprintf("Removing directory %q...", path))
		if err := os.RemoveAll(path); err != nil {
			return &BuildError{Message: fmt.Sprintf("removing directory %q: %v", path, err)}
		}
	} else {
		log.Trace(fmt.Sprintf("Removing file %q...", path))
		if err := os.Remove(path); err != nil {
			return &BuildError{Message: fmt.Sprintf("removing file %q: %v", path, err)}
		}
	}
	return nil
}
