// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenNested(t *testing.T) {
	v := Seq{Str("a"), Seq{Str("b"), Str("c")}, Str("d")}
	out, err := Flatten(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, out)
}

func TestFlattenNil(t *testing.T) {
	out, err := Flatten(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFlattenRejectsDeferred(t *testing.T) {
	d := Deferred{Resource: "obj", Run: func() (Value, error) { return Str("x"), nil }}
	_, err := Flatten(d)
	require.Error(t, err)
	var internal *InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestFlattenAllConcatenatesInOrder(t *testing.T) {
	out, err := FlattenAll(Str("cc"), Strs([]string{"-O2", "-Wall"}), Str("main.c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cc", "-O2", "-Wall", "main.c"}, out)
}

func TestStrsRoundTrip(t *testing.T) {
	seq := Strs([]string{"a", "b"})
	out, err := Flatten(seq)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}
