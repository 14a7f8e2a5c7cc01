// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Interceptor is invoked with a resource's attributes and its bound
// parameter map immediately before the producer runs; the map it
// returns replaces the original. The evaluator installs exactly one
// interceptor — its splicing function (spec §4.2) — but the contract
// (spec §4.1) allows more than one to be chained.
type Interceptor func(attrs Attrs, params map[string]Value) (map[string]Value, error)

// ScanResult is one match returned by Injector.Scan.
type ScanResult struct {
	Name  string
	Attrs Attrs
}

// cacheEntry is a latched future: the first caller to require a
// singleton resource creates the entry and runs the producer; every
// later caller blocks on done and shares the result. This is the same
// singleflight idiom as mk's Executor.building map in exec.go,
// generalized from build targets to named resources.
type cacheEntry struct {
	done  chan struct{}
	value Value
	err   error
}

// Injector holds the registered resources, the dependency graph they
// induce, and the singleton cache — spec §3/§4.1.
type Injector struct {
	mu            sync.Mutex
	resources     map[string]*Resource
	cache         map[string]*cacheEntry
	interceptors  []Interceptor
	producedHooks []func(*Resource)
	cleaningFn    func() bool
}

// SetCleaningFn installs the predicate the injector consults before
// invoking a bakery-noclean resource's producer (spec §4.5: "noclean
// marks a resource that should return None (and skip its producer)
// when in clean mode"). The Build façade wires this to its Cleaning
// flag in NewBuild.
func (inj *Injector) SetCleaningFn(fn func() bool) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.cleaningFn = fn
}

func (inj *Injector) cleaning() bool {
	inj.mu.Lock()
	fn := inj.cleaningFn
	inj.mu.Unlock()
	return fn != nil && fn()
}

// NewInjector returns an empty Injector.
func NewInjector() *Injector {
	return &Injector{
		resources: make(map[string]*Resource),
		cache:     make(map[string]*cacheEntry),
	}
}

// Register adds every resource from every module to the injector, then
// validates the induced dependency graph: every Dependency.Resource
// must name a registered resource, and the graph must be acyclic.
// Cycles and unknown dependencies are rejected here, at registration,
// rather than deferred to first resolution.
func (inj *Injector) Register(modules ...Module) error {
	inj.mu.Lock()
	defer inj.mu.Unlock()

	for _, mod := range modules {
		for _, res := range mod {
			inj.resources[res.Name] = res
		}
	}

	for name, res := range inj.resources {
		for _, dep := range res.Deps {
			if _, ok := inj.resources[dep.Resource]; !ok {
				return &BuildError{Message: fmt.Sprintf(
					"resource %q depends on unknown resource %q (param %q)",
					name, dep.Resource, dep.Param)}
			}
		}
	}

	if cycle := findCycle(inj.resources); cycle != nil {
		return &EvaluationError{
			BuildError: &BuildError{Message: "dependency cycle detected"},
			Cycle:      cycle,
		}
	}

	return nil
}

// findCycle runs a DFS over the Dependency graph and returns the first
// cycle found, or nil if the graph is acyclic.
func findCycle(resources map[string]*Resource) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(resources))
	var path []string
	var cycle []string

	var names []string
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic traversal order

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		path = append(path, name)
		res := resources[name]
		for _, dep := range res.Deps {
			switch color[dep.Resource] {
			case gray:
				// Found the back-edge; extract the cycle from path.
				start := 0
				for i, p := range path {
					if p == dep.Resource {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), dep.Resource)
				return true
			case white:
				if visit(dep.Resource) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	for _, name := range names {
		if color[name] == white {
			if visit(name) {
				return cycle
			}
		}
	}
	return nil
}

// AddInterceptor registers a hook invoked on a resource's parameter map
// just before its producer runs.
func (inj *Injector) AddInterceptor(fn Interceptor) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.interceptors = append(inj.interceptors, fn)
}

// resourceOf returns the registered resource, or an UnknownTargetError.
func (inj *Injector) resourceOf(name string) (*Resource, error) {
	inj.mu.Lock()
	res, ok := inj.resources[name]
	inj.mu.Unlock()
	if !ok {
		return nil, &UnknownTargetError{
			BuildError: &BuildError{Message: fmt.Sprintf("Unknown target: %s", name)},
			Name:       name,
		}
	}
	return res, nil
}

// IsSingleton reports whether name is a registered singleton resource.
func (inj *Injector) IsSingleton(name string) bool {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	res, ok := inj.resources[name]
	return ok && res.singleton()
}

// SetCache overwrites the cached value for a singleton resource. Used
// by the evaluator once it has spliced a resource's raw Deferred/Seq
// value down to something fully concrete (spec §4.2 splicing rules).
func (inj *Injector) SetCache(name string, value Value) {
	inj.mu.Lock()
	entry, ok := inj.cache[name]
	if !ok {
		entry = &cacheEntry{done: closedChan()}
		inj.cache[name] = entry
	}
	entry.value = value
	entry.err = nil
	inj.mu.Unlock()
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Require produces the value for name, resolving its dependencies
// first. If the resource is a singleton and has already been produced,
// the cached (raw) value is returned and the producer is not invoked
// again — concurrent first-requires of the same singleton share one
// execution via a latched cacheEntry.
func (inj *Injector) Require(name string, log *JobLog) (Value, error) {
	res, err := inj.resourceOf(name)
	if err != nil {
		return nil, err
	}

	if !res.singleton() {
		return inj.produce(res, log)
	}

	inj.mu.Lock()
	entry, ok := inj.cache[name]
	created := false
	if !ok {
		entry = &cacheEntry{done: make(chan struct{})}
		inj.cache[name] = entry
		created = true
	}
	inj.mu.Unlock()

	if !created {
		<-entry.done
		return entry.value, entry.err
	}

	entry.value, entry.err = inj.produce(res, log)
	close(entry.done)
	return entry.value, entry.err
}

// produce resolves every declared Dependency of res concurrently,
// applies the registered interceptors to the resulting parameter map,
// and invokes the producer.
func (inj *Injector) produce(res *Resource, log *JobLog) (Value, error) {
	params := make(map[string]Value, len(res.Deps))
	var mu sync.Mutex

	g := new(errgroup.Group)
	for _, dep := range res.Deps {
		dep := dep
		g.Go(func() error {
			v, err := inj.Require(dep.Resource, log)
			if err != nil {
				return fmt.Errorf("resolving %q for %q: %w", dep.Resource, res.Name, err)
			}
			mu.Lock()
			params[dep.Param] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inj.mu.Lock()
	interceptors := append([]Interceptor(nil), inj.interceptors...)
	inj.mu.Unlock()

	for _, ic := range interceptors {
		var err error
		params, err = ic(res.Attrs, params)
		if err != nil {
			return nil, err
		}
	}

	if res.Attrs.has(AttrNoClean) && inj.cleaning() {
		return Str(""), nil
	}

	ctx := &Context{params: params, log: log}
	value, err := res.Make(ctx)
	if err == nil {
		inj.mu.Lock()
		hooks := append([]func(*Resource){}, inj.producedHooks...)
		inj.mu.Unlock()
		for _, hook := range hooks {
			hook(res)
		}
	}
	return value, err
}

// AddProducedHook registers fn to run after every resource's producer
// returns successfully. Used by the Build façade to notice
// bakery-temp-tagged resources as they are produced (spec §4.5: "temp
// marks a resource so that its final value ... is appended to the temp
// registry after resolution").
func (inj *Injector) AddProducedHook(fn func(*Resource)) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.producedHooks = append(inj.producedHooks, fn)
}

// Scan enumerates registered resources matching predicate, sorted by
// name for deterministic output.
func (inj *Injector) Scan(predicate func(name string, attrs Attrs) bool) []ScanResult {
	inj.mu.Lock()
	defer inj.mu.Unlock()

	var out []ScanResult
	for name, res := range inj.resources {
		if predicate(name, res.Attrs) {
			out = append(out, ScanResult{Name: name, Attrs: res.Attrs})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DependencyGraph returns the mapping name -> dependency names,
// restricted to the transitive closure of roots.
func (inj *Injector) DependencyGraph(roots ...string) map[string][]string {
	inj.mu.Lock()
	defer inj.mu.Unlock()

	graph := make(map[string][]string)
	visited := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		res, ok := inj.resources[name]
		if !ok {
			graph[name] = nil
			return
		}
		var deps []string
		for _, dep := range res.Deps {
			deps = append(deps, dep.Resource)
			visit(dep.Resource)
		}
		graph[name] = deps
	}

	for _, root := range roots {
		visit(root)
	}
	return graph
}
