// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Evaluator drives the Injector to produce requested targets, splicing
// deferred values back into the graph as they resolve — spec §4.2.
type Evaluator struct {
	injector *Injector

	mu      sync.Mutex
	spliced map[string]*spliceEntry // resource names whose Seq is being or has been scanned
}

// spliceEntry is a latched future, the same idiom as injector.go's
// cacheEntry: the first goroutine to scan a resource's Seq creates the
// entry and does the work, every later goroutine blocks on done and
// shares the result instead of racing past a half-spliced value.
type spliceEntry struct {
	done  chan struct{}
	value Value
	err   error
}

// NewEvaluator returns an Evaluator over injector and installs the
// evaluator's splicing function as the injector's async interceptor —
// this is how Require's freshly-resolved dependency values get fully
// concretized before a dependent producer runs.
func NewEvaluator(injector *Injector) *Evaluator {
	e := &Evaluator{injector: injector, spliced: make(map[string]*spliceEntry)}
	injector.AddInterceptor(e.intercept)
	return e
}

// intercept is the Injector.Interceptor the evaluator installs: it
// splices every bound dependency value before the producer using it
// runs, exactly as spec §4.1's add_async_interceptor contract
// describes ("the hook's returned map replaces param_map").
func (e *Evaluator) intercept(_ Attrs, params map[string]Value) (map[string]Value, error) {
	out := make(map[string]Value, len(params))
	var mu sync.Mutex
	g := new(errgroup.Group)
	for k, v := range params {
		k, v := k, v
		g.Go(func() error {
			spliced, err := e.Resolve(k, v)
			if err != nil {
				return err
			}
			mu.Lock()
			out[k] = spliced
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve implements the splicing rules of spec §4.2 as a structural
// fold over Value:
//
//   - Str      returned as is.
//   - Deferred  awaited (Run); if name is a singleton the result
//     updates the injector's cache entry for name.
//   - Seq       scanned at most once per resource name — concurrent
//     callers for the same name share one scan via a latched future,
//     so a second caller never observes a partially-spliced Seq;
//     Deferred elements are run concurrently and substituted in place,
//     and the fully concrete Seq updates the singleton cache if name
//     is one.
func (e *Evaluator) Resolve(name string, v Value) (Value, error) {
	switch val := v.(type) {
	case Str:
		return val, nil

	case Deferred:
		concrete, err := val.Run()
		if err != nil {
			return nil, err
		}
		if e.injector.IsSingleton(name) {
			e.injector.SetCache(name, concrete)
		}
		return concrete, nil

	case Seq:
		e.mu.Lock()
		entry, ok := e.spliced[name]
		if !ok {
			entry = &spliceEntry{done: make(chan struct{})}
			e.spliced[name] = entry
		}
		e.mu.Unlock()

		if ok {
			<-entry.done
			return entry.value, entry.err
		}

		out := make(Seq, len(val))
		copy(out, val)

		var mu sync.Mutex
		g := new(errgroup.Group)
		for i, elem := range val {
			i, elem := i, elem
			d, ok := elem.(Deferred)
			if !ok {
				continue
			}
			g.Go(func() error {
				concrete, err := d.Run()
				if err != nil {
					return err
				}
				mu.Lock()
				out[i] = concrete
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			entry.err = err
			close(entry.done)
			return nil, err
		}

		if e.injector.IsSingleton(name) {
			e.injector.SetCache(name, out)
		}

		entry.value = out
		close(entry.done)
		return out, nil

	case nil:
		return nil, nil

	default:
		return nil, &InternalError{Message: "evaluator: unrecognized Value type in splicing"}
	}
}
