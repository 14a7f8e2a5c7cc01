// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsUnknownDependency(t *testing.T) {
	inj := NewInjector()
	err := inj.Register(Module{
		Provide("a").DependsOn("b", "missing").Build(func(*Context) (Value, error) { return Str("a"), nil }),
	})
	require.Error(t, err)
	var buildErr *BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestRegisterRejectsCycle(t *testing.T) {
	inj := NewInjector()
	err := inj.Register(Module{
		Provide("a").DependsOn("x", "b").Build(func(*Context) (Value, error) { return Str("a"), nil }),
		Provide("b").DependsOn("x", "a").Build(func(*Context) (Value, error) { return Str("b"), nil }),
	})
	require.Error(t, err)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.NotEmpty(t, evalErr.Cycle)
}

func TestSingletonProducesExactlyOnce(t *testing.T) {
	var calls int32
	inj := NewInjector()
	require.NoError(t, inj.Register(Module{
		Provide("counter").Singleton().Build(func(*Context) (Value, error) {
			atomic.AddInt32(&calls, 1)
			return Str("v"), nil
		}),
		Provide("a").DependsOn("c", "counter").Build(func(ctx *Context) (Value, error) { return ctx.Get("c"), nil }),
		Provide("b").DependsOn("c", "counter").Build(func(ctx *Context) (Value, error) { return ctx.Get("c"), nil }),
	}))

	done := make(chan Value, 2)
	go func() { v, _ := inj.Require("a", nil); done <- v }()
	go func() { v, _ := inj.Require("b", nil); done <- v }()
	<-done
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNonSingletonRunsPerRequire(t *testing.T) {
	var calls int32
	inj := NewInjector()
	require.NoError(t, inj.Register(Module{
		Provide("stamp").Build(func(*Context) (Value, error) {
			atomic.AddInt32(&calls, 1)
			return Str("v"), nil
		}),
	}))
	_, _ = inj.Require("stamp", nil)
	_, _ = inj.Require("stamp", nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScanFiltersByAttr(t *testing.T) {
	inj := NewInjector()
	require.NoError(t, inj.Register(Module{
		Provide("a").Target().Build(func(*Context) (Value, error) { return Str("a"), nil }),
		Provide("b").Build(func(*Context) (Value, error) { return Str("b"), nil }),
	}))
	results := inj.Scan(func(_ string, attrs Attrs) bool { return attrs.has(AttrTarget) })
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Name)
}

func TestRequireUnknownTarget(t *testing.T) {
	inj := NewInjector()
	_, err := inj.Require("nope", nil)
	var unknown *UnknownTargetError
	assert.ErrorAs(t, err, &unknown)
}
