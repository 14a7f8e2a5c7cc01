// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import "fmt"

// Value is the tagged union that flows through producers, recipe roles,
// and shell argv assembly. It replaces the scalar/sequence/coroutine
// union of the dynamically-typed original with an explicit sum type.
//
// A Value is one of:
//
//	Str      a scalar.
//	Seq      an ordered sequence, which may itself hold Deferred
//	         elements one level deep.
//	Deferred a not-yet-evaluated computation; awaiting it yields a
//	         Str or a Seq.
type Value interface {
	isValue()
}

// Str is a scalar Value, typically a file path or a single shell word.
type Str string

func (Str) isValue() {}

// Seq is an ordered sequence Value.
type Seq []Value

func (Seq) isValue() {}

// Deferred is a named, not-yet-run computation. Resource is the name of
// the resource or recipe that produced it, reported in the error when a
// Deferred reaches Flatten unresolved. The evaluator's singleton cache
// decision uses the resource name passed to Resolve, not this field.
type Deferred struct {
	Resource string
	Run      func() (Value, error)
}

func (Deferred) isValue() {}

// Strs converts a slice of strings into a Seq of Str.
func Strs(ss []string) Seq {
	out := make(Seq, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// Flatten structurally flattens a Value into an ordered list of strings.
// It is used both to derive a recipe's target/check/temp file sets from
// bound parameter values (spec §4.3) and to assemble shell argv (spec
// §4.4) — the spec calls out that these are "the same structural
// flattening."
//
// Flatten requires that v has already been spliced to a concrete Value;
// encountering a Deferred is an engine invariant violation, not a user
// error.
func Flatten(v Value) ([]string, error) {
	var out []string
	if err := flattenInto(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(v Value, out *[]string) error {
	switch val := v.(type) {
	case nil:
		return nil
	case Str:
		*out = append(*out, string(val))
		return nil
	case Seq:
		for _, elem := range val {
			if err := flattenInto(elem, out); err != nil {
				return err
			}
		}
		return nil
	case Deferred:
		return &InternalError{Message: fmt.Sprintf("flatten: unresolved deferred value from %q", val.Resource)}
	default:
		return &InternalError{Message: fmt.Sprintf("flatten: unrecognized Value type %T", v)}
	}
}

// FlattenAll flattens and concatenates a list of Values, in order — the
// direct equivalent of the original's flat_map applied to *args.
func FlattenAll(vs ...Value) ([]string, error) {
	var out []string
	for _, v := range vs {
		if err := flattenInto(v, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
