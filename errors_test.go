// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetConflictErrorUnwrapsToBuildError(t *testing.T) {
	err := &TargetConflictError{
		BuildError: &BuildError{Message: "Multiple default targets defined."},
		Targets:    []string{"a", "b"},
	}
	var build *BuildError
	assert.True(t, errors.As(err, &build))
	assert.Equal(t, "Multiple default targets defined.", build.Message)
	assert.Contains(t, err.Error(), "a, b")
}

func TestEvaluationErrorUnwrapsToBuildError(t *testing.T) {
	err := &EvaluationError{
		BuildError: &BuildError{Message: "dependency cycle detected"},
		Cycle:      []string{"a", "b", "a"},
	}
	var build *BuildError
	assert.True(t, errors.As(err, &build))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestUnknownTargetErrorUnwrapsToBuildError(t *testing.T) {
	err := &UnknownTargetError{
		BuildError: &BuildError{Message: "Unknown target: nope"},
		Name:       "nope",
	}
	var build *BuildError
	assert.True(t, errors.As(err, &build))
}

func TestSubprocessErrorUnwrapsToJobError(t *testing.T) {
	err := &SubprocessError{
		JobError: &JobError{Message: "command failed"},
		Argv:     []string{"cc", "-c", "a.c"},
		ExitCode: 1,
	}
	var job *JobError
	assert.True(t, errors.As(err, &job))
	assert.Contains(t, err.Error(), "exit 1")
}
