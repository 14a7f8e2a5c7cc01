// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bakery "github.com/lainproliant/bakery"
)

func TestDirectoryCreatesMissingPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "child")

	b := bakery.NewBuild()
	tc := New(b)
	deferred := tc.Directory("directory")(bakery.RecipeArgs{"path": bakery.Str(target)})
	_, err := deferred.(bakery.Deferred).Run()
	require.NoError(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	b := bakery.NewBuild()
	tc := New(b)
	deferred := tc.Copy("copy")(bakery.RecipeArgs{"src": bakery.Str(src), "dst": bakery.Str(dst)})
	_, err := deferred.(bakery.Deferred).Run()
	require.NoError(t, err)

	contents, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(contents))
}

func TestSwapExtAndDropExt(t *testing.T) {
	assert.Equal(t, "main.o", SwapExt("main.c", "o"))
	assert.Equal(t, "main", DropExt("main.c"))
}

func TestGlobSortsMatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.c", "a.c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	v := Glob(filepath.Join(dir, "*.c"))
	out, err := bakery.Flatten(v)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Less(t, out[0], out[1])
}
