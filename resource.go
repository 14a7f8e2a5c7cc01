// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

// Attrs is the free-form string-keyed attribute map carried by every
// Resource. Markers are recorded as attrs[marker] == "true"; "name"
// holds a human-readable display name.
type Attrs map[string]string

func (a Attrs) has(marker string) bool { return a[marker] == "true" }

// Has reports whether marker is set on these attrs — the exported
// form of has, for callers outside this package inspecting a Scan
// result.
func (a Attrs) Has(marker string) bool { return a.has(marker) }

// Well-known attribute markers, per spec §3.
const (
	AttrSingleton   = "singleton"
	AttrTarget      = "bakery-target"
	AttrDefault     = "bakery-default"
	AttrSetup       = "bakery-setup"
	AttrTemp        = "bakery-temp"
	AttrNoClean     = "bakery-noclean"
	AttrDisplayName = "name"
)

// Dependency names one producer parameter and the resource that binds
// it. Declared explicitly at registration time rather than recovered
// by reflecting over a function signature (Design Notes: "Dynamic
// parameter-name resolution").
type Dependency struct {
	Param    string
	Resource string
}

// Context is what a Producer receives. Params holds the already-spliced
// (fully concrete) Value for each declared Dependency, keyed by
// Dependency.Param. Log returns the per-job log handle — the Go
// replacement for the `log: 'log'` parameter annotation in the
// original: always available, never a dependency to resolve.
type Context struct {
	params map[string]Value
	log    *JobLog
}

// Get returns the bound value for a dependency's parameter name, or nil
// if param was not declared as a Dependency of this resource.
func (c *Context) Get(param string) Value { return c.params[param] }

// Str returns the bound parameter as a flattened scalar string, or ""
// if unbound.
func (c *Context) Str(param string) string {
	v := c.Get(param)
	if v == nil {
		return ""
	}
	ss, err := Flatten(v)
	if err != nil || len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// Strs returns the bound parameter flattened to a string slice.
func (c *Context) Strs(param string) []string {
	v := c.Get(param)
	if v == nil {
		return nil
	}
	ss, _ := Flatten(v)
	return ss
}

// Log returns the per-job log handle for this producer invocation.
func (c *Context) Log() *JobLog { return c.log }

// Producer is the function behind a Resource. It receives the bound
// parameter map and returns a Value: a scalar, a sequence, or a
// Deferred computation.
type Producer func(ctx *Context) (Value, error)

// Resource is a (name, attrs, producer, declared-dependencies) tuple —
// spec §3's Resource.
type Resource struct {
	Name  string
	Attrs Attrs
	Deps  []Dependency
	Make  Producer
}

func (r *Resource) singleton() bool { return r.Attrs.has(AttrSingleton) }

// Module is a named bundle of resources contributed to an Injector —
// spec §3's Module. It is deliberately just a slice: modules in this
// rewrite are assembled by ordinary Go functions (the "Bakefile"),
// never by reflecting over a user class's methods.
type Module []*Resource

// ResourceBuilder is the fluent replacement for the Python decorators
// (target, default, setup, temp, noclean, singleton, provide, inject,
// named, alias, using) listed in spec §4.5. Each decorator collapses
// into a builder method; provide/inject/alias/using all collapse into
// DependsOn, since dependency binding is explicit here rather than
// name-matched by reflection, and named becomes Named, which sets the
// display-name attribute.
type ResourceBuilder struct {
	name  string
	attrs Attrs
	deps  []Dependency
}

// Provide begins building a resource named name.
func Provide(name string) *ResourceBuilder {
	return &ResourceBuilder{name: name, attrs: Attrs{}}
}

// DependsOn declares that the producer's param argument is bound from
// the named resource.
func (b *ResourceBuilder) DependsOn(param, resource string) *ResourceBuilder {
	b.deps = append(b.deps, Dependency{Param: param, Resource: resource})
	return b
}

// Attr sets an arbitrary attribute.
func (b *ResourceBuilder) Attr(key, value string) *ResourceBuilder {
	b.attrs[key] = value
	return b
}

// Singleton marks the resource as produced at most once per build.
func (b *ResourceBuilder) Singleton() *ResourceBuilder { return b.Attr(AttrSingleton, "true") }

// Target tags the resource as a user-selectable build output.
func (b *ResourceBuilder) Target() *ResourceBuilder { return b.Attr(AttrTarget, "true") }

// Default tags the resource as the target used when none is requested.
// Implies Target and Singleton, mirroring `default = compose(target, ...)`
// in the original.
func (b *ResourceBuilder) Default() *ResourceBuilder {
	return b.Target().Singleton().Attr(AttrDefault, "true")
}

// Setup tags the resource to be required exactly once before any
// requested target is resolved. Implies Singleton, mirroring
// `setup = compose(singleton, method_attr('bakery-setup'))`.
func (b *ResourceBuilder) Setup() *ResourceBuilder {
	return b.Singleton().Attr(AttrSetup, "true")
}

// Temp marks the resource so its resolved value(s) are appended to the
// temp-file registry for cleanup after the top-level build completes.
// Implies Singleton, mirroring `temp = compose(singleton, build.temp)`
// in the original: a temp resource's side effects must run at most
// once, since the façade re-resolves it by name during cleanup.
func (b *ResourceBuilder) Temp() *ResourceBuilder { return b.Singleton().Attr(AttrTemp, "true") }

// NoClean marks the resource to return an empty Str and skip its
// producer while in clean mode, for side-effect-only targets whose
// contract is not a file.
func (b *ResourceBuilder) NoClean() *ResourceBuilder { return b.Attr(AttrNoClean, "true") }

// Named sets the resource's human-readable display name.
func (b *ResourceBuilder) Named(name string) *ResourceBuilder { return b.Attr(AttrDisplayName, name) }

// Build finalizes the resource with the given Producer.
func (b *ResourceBuilder) Build(fn Producer) *Resource {
	return &Resource{Name: b.name, Attrs: b.attrs, Deps: append([]Dependency(nil), b.deps...), Make: fn}
}

// Const returns a resource whose producer always yields the same fixed
// value, grounded on xeno.const in the original.
func Const(name string, value Value) *Resource {
	return &Resource{
		Name:  name,
		Attrs: Attrs{},
		Make:  func(*Context) (Value, error) { return value, nil },
	}
}

// Namespaced joins a namespace prefix and a resource name; the
// resolved name is always a flat string (spec §3).
func Namespaced(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "::" + name
}
