// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResolvesDefaultTarget(t *testing.T) {
	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("greeting").Default().Build(func(*Context) (Value, error) { return Str("hi"), nil }),
	}))
	result, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, Str("hi"), result["greeting"])
}

func TestBuildRejectsUnknownTarget(t *testing.T) {
	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("a").Target().Build(func(*Context) (Value, error) { return Str("a"), nil }),
	}))
	_, err := b.Build("nope")
	var buildErr *BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestBuildRunsSetupBeforeTargets(t *testing.T) {
	var order []string
	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("setup").Setup().Build(func(*Context) (Value, error) {
			order = append(order, "setup")
			return Str("ok"), nil
		}),
		Provide("target").Target().Default().Build(func(*Context) (Value, error) {
			order = append(order, "target")
			return Str("built"), nil
		}),
	}))
	_, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"setup", "target"}, order)
}

func TestBuildCleansUpTempResourcesAfterCompletion(t *testing.T) {
	dir := t.TempDir()
	tempFile := filepath.Join(dir, "intermediate.o")
	require.NoError(t, os.WriteFile(tempFile, []byte("x"), 0o644))

	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("intermediate").Temp().Build(func(*Context) (Value, error) { return Str(tempFile), nil }),
		Provide("final").Default().DependsOn("obj", "intermediate").Build(func(ctx *Context) (Value, error) {
			return ctx.Get("obj"), nil
		}),
	}))
	_, err := b.Build()
	require.NoError(t, err)

	_, statErr := os.Stat(tempFile)
	assert.True(t, os.IsNotExist(statErr), "temp resource output should be removed after the build completes")
}

func TestBuildNoCleanSkipsProducerWhileCleaning(t *testing.T) {
	var calls int
	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("sideEffect").Default().NoClean().Build(func(*Context) (Value, error) {
			calls++
			return Str("ran"), nil
		}),
	}))
	b.Cleaning = true
	result, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "noclean producer must not run in clean mode")
	assert.Equal(t, Str(""), result["sideEffect"])
}

func TestBuildCleanModeRemovesRecipeOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o644))

	b := NewBuild()
	makeOut := b.Recipe(RecipeSpec{Name: "out", Targets: []string{"dst"}}, func(*RecipeContext) error { return nil })
	require.NoError(t, b.Register(Module{
		Provide("out").Default().Build(func(*Context) (Value, error) {
			return makeOut(RecipeArgs{"dst": Str(out)}), nil
		}),
	}))
	b.Cleaning = true
	_, err := b.Build()
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildRejectsDuplicateDefaultTargets(t *testing.T) {
	b := NewBuild()
	require.NoError(t, b.Register(Module{
		Provide("a").Default().Build(func(*Context) (Value, error) { return Str("a"), nil }),
		Provide("b").Default().Build(func(*Context) (Value, error) { return Str("b"), nil }),
	}))
	_, err := b.Build()
	var conflict *TargetConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"a", "b"}, conflict.Targets)
}
