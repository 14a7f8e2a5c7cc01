// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bakery "github.com/lainproliant/bakery"
)

func TestCloneIsUpToDateOnceRepoExists(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.Mkdir(repo, 0o755))

	b := bakery.NewBuild()
	tc := New(b)
	deferred := tc.Clone("clone")(bakery.RecipeArgs{
		"url":  bakery.Str("https://example.invalid/repo.git"),
		"repo": bakery.Str(repo),
	})
	v, err := deferred.(bakery.Deferred).Run()
	require.NoError(t, err, "clone must not re-run git once the repo directory already exists")
	assert.Equal(t, bakery.Str(repo), v)
}
