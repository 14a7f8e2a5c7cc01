// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Build is the process-wide façade bound into every recipe wrapper and
// the shell runner (spec §4.5) — a single injected instance replacing
// the Borg-style shared Recipes() singleton of the original.
type Build struct {
	log   *logrus.Logger
	shell *Shell

	// Cleaning selects clean mode: recipes remove their declared
	// outputs instead of running, and bakery-noclean resources are
	// skipped. Set this before calling Build.
	Cleaning bool

	injector  *Injector
	evaluator *Evaluator

	tempMu       sync.Mutex
	tempRegistry []string // files to remove after the top-level build completes
	tempNames    []string // resource names tagged bakery-temp, in production order
}

// NewBuild returns a Build façade with its own Injector and Evaluator,
// and registers the built-in "log"/"cleaning" providers (spec §4.5).
// There is no "scheduler" resource; see Evaluator and Injector below.
func NewBuild() *Build {
	b := &Build{
		log:   NewRootLogger(),
		shell: NewShell(),
	}
	b.injector = NewInjector()
	b.evaluator = NewEvaluator(b.injector)
	b.injector.SetCleaningFn(func() bool { return b.Cleaning })
	b.injector.AddProducedHook(func(res *Resource) {
		if res.Attrs.has(AttrTemp) {
			b.tempMu.Lock()
			b.tempNames = append(b.tempNames, res.Name)
			b.tempMu.Unlock()
		}
	})

	builtin := Module{
		{Name: "log", Attrs: Attrs{AttrSingleton: "true"}, Make: func(*Context) (Value, error) { return Str("log"), nil }},
		{Name: "cleaning", Make: func(*Context) (Value, error) { return boolValue(b.Cleaning), nil }},
	}
	_ = b.injector.Register(builtin)
	return b
}

func boolValue(v bool) Value {
	if v {
		return Str("true")
	}
	return Str("")
}

// Evaluator exposes the façade's Evaluator directly, for producers that
// need to resolve a name themselves rather than declare it as a
// Dependency — the Go replacement for the original's injected
// "scheduler" resource, which had no representation as a Value.
func (b *Build) Evaluator() *Evaluator { return b.evaluator }

// Injector exposes the façade's Injector directly.
func (b *Build) Injector() *Injector { return b.injector }

// Log returns the process-wide logger.
func (b *Build) Log() *logrus.Logger { return b.log }

// RunShell runs a one-off command through the façade's bounded shell
// runner, outside of any recipe (spec §4.5: "shell(*args, ...):
// delegates to the shell runner").
func (b *Build) RunShell(job *JobLog, args ...Value) ([]string, error) {
	return b.shell.Run(context.Background(), job, args...)
}

// Register adds every resource in modules to the façade's injector.
func (b *Build) Register(modules ...Module) error {
	return b.injector.Register(modules...)
}

// Scan enumerates registered resources matching predicate, letting
// callers — such as tests or a custom CLI — introspect what a
// Bakefile package registered.
func (b *Build) Scan(predicate func(name string, attrs Attrs) bool) []ScanResult {
	return b.injector.Scan(predicate)
}

func (b *Build) addTempFiles(files []string) {
	if len(files) == 0 {
		return
	}
	b.tempMu.Lock()
	b.tempRegistry = append(b.tempRegistry, files...)
	b.tempMu.Unlock()
}

// Build drives the evaluator through the six-step algorithm of spec
// §4.2: resolve the default target when none is requested, validate
// requested targets, run bakery-setup resources once, resolve (and
// fully splice) every requested target, walk the dependency graph for
// clean-mode intermediate cleanup, and finally — always, even on
// failure — delete every file recorded in the temp-file registry.
func (b *Build) Build(targets ...string) (map[string]Value, error) {
	result := make(map[string]Value)
	job := NewJobLog(b.log, "build")
	buildErr := func() error {
		if len(targets) == 0 {
			def, err := b.defaultTarget()
			if err != nil {
				return err
			}
			if def == "" {
				return &BuildError{Message: "No target was specified and no default target was defined."}
			}
			targets = []string{def}
		}

		validTargets := make(map[string]bool)
		for _, r := range b.injector.Scan(func(_ string, attrs Attrs) bool { return attrs.has(AttrTarget) }) {
			validTargets[r.Name] = true
		}
		for _, t := range targets {
			if !validTargets[t] {
				return &BuildError{Message: fmt.Sprintf("Unknown target: %s", t)}
			}
		}

		for _, r := range b.injector.Scan(func(_ string, attrs Attrs) bool { return attrs.has(AttrSetup) }) {
			if _, err := b.injector.Require(r.Name, job); err != nil {
				return fmt.Errorf("running setup resource %q: %w", r.Name, err)
			}
		}

		for _, target := range targets {
			raw, err := b.injector.Require(target, job)
			if err != nil {
				return err
			}
			final, err := b.evaluator.Resolve(target, raw)
			if err != nil {
				return err
			}
			result[target] = final
		}

		if b.Cleaning {
			graph := b.injector.DependencyGraph(targets...)
			for dep := range graph {
				if !validTargets[dep] {
					continue
				}
				raw, err := b.injector.Require(dep, job)
				if err != nil {
					return err
				}
				if _, err := b.evaluator.Resolve(dep, raw); err != nil {
					return err
				}
			}
		}

		return b.resolveTempResources(job)
	}()

	cleanupErr := b.cleanupTempFiles()
	if buildErr != nil {
		return result, buildErr
	}
	return result, cleanupErr
}

// resolveTempResources splices every bakery-temp-tagged resource that
// was produced during this build down to a concrete value and appends
// its file path(s) to the temp-file registry — the Go port of
// original_source/bakery/core.py's _prepare_temp_targets_for_cleanup.
func (b *Build) resolveTempResources(job *JobLog) error {
	b.tempMu.Lock()
	names := append([]string{}, b.tempNames...)
	b.tempMu.Unlock()

	for _, name := range names {
		raw, err := b.injector.Require(name, job)
		if err != nil {
			return err
		}
		final, err := b.evaluator.Resolve(name, raw)
		if err != nil {
			return err
		}
		files, err := Flatten(final)
		if err != nil {
			return err
		}
		b.addTempFiles(files)
	}
	return nil
}

// cleanupTempFiles deletes every file recorded in the temp registry.
// Runs in a guaranteed finalizer branch, even on build failure (spec
// §7), but — per spec §9's Open Question — only files recorded by a
// recipe/resource that completed successfully are ever in the
// registry, so a partial failure never deletes an output it didn't
// itself finish producing.
func (b *Build) cleanupTempFiles() error {
	b.tempMu.Lock()
	files := append([]string{}, b.tempRegistry...)
	b.tempMu.Unlock()

	job := NewJobLog(b.log, "cleanup")
	var firstErr error
	for _, f := range files {
		if err := removeFile(f, job); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// defaultTarget returns the single bakery-default resource's name, or
// a TargetConflictError if more than one resource claims the marker
// (spec §3: "At most one target may also be tagged bakery-default;
// violation is a conflict error").
func (b *Build) defaultTarget() (string, error) {
	results := b.injector.Scan(func(_ string, attrs Attrs) bool { return attrs.has(AttrDefault) })
	if len(results) == 0 {
		return "", nil
	}
	if len(results) > 1 {
		var names []string
		for _, r := range results {
			names = append(names, r.Name)
		}
		return "", &TargetConflictError{
			BuildError: &BuildError{Message: "Multiple default targets defined."},
			Targets:    names,
		}
	}
	return results[0].Name, nil
}
