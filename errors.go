// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"fmt"
	"strings"
)

// BuildError is the root of all build-failure errors: unknown targets,
// a recipe that produced no output, duplicate default targets, and
// dependency cycles all surface as (or embed) a BuildError.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return e.Message }

// UnknownTargetError reports a require() for a name the injector has no
// resource for. It embeds *BuildError for the same reason
// TargetConflictError does.
type UnknownTargetError struct {
	*BuildError
	Name string
}

func (e *UnknownTargetError) Error() string { return fmt.Sprintf("Unknown target: %s", e.Name) }

func (e *UnknownTargetError) Unwrap() error { return e.BuildError }

// TargetConflictError reports more than one resource tagged
// bakery-default. It embeds *BuildError so errors.As(err, new(*BuildError))
// also matches, per spec §7's "BuildError — root of build failures:
// ... duplicate defaults (TargetConflictError)".
type TargetConflictError struct {
	*BuildError
	Targets []string
}

func (e *TargetConflictError) Error() string {
	return fmt.Sprintf("%s. (%s)", e.Message, strings.Join(e.Targets, ", "))
}

func (e *TargetConflictError) Unwrap() error { return e.BuildError }

// EvaluationError reports a dependency cycle discovered at
// registration. It embeds *BuildError for the same reason
// TargetConflictError does (spec §7: "dependency cycle (EvaluationError)").
type EvaluationError struct {
	*BuildError
	Cycle []string
}

func (e *EvaluationError) Error() string {
	if len(e.Cycle) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Cycle, " -> "))
}

func (e *EvaluationError) Unwrap() error { return e.BuildError }

// JobError is the root of producer-invocation failures.
type JobError struct {
	Message string
	Cause   error
}

func (e *JobError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause)
	}
	return e.Message
}

func (e *JobError) Unwrap() error { return e.Cause }

// SubprocessError reports a subprocess that exited with a nonzero code.
// It carries the full argv and both captured output streams so a caller
// can report exactly what ran and what it printed. It embeds *JobError
// per spec §7 ("JobError — producer-invocation failures; includes
// SubprocessError").
type SubprocessError struct {
	*JobError
	Argv     []string
	Stdout   []string
	Stderr   []string
	ExitCode int
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("Failed to execute command: %s (exit %d)", strings.Join(e.Argv, " "), e.ExitCode)
}

func (e *SubprocessError) Unwrap() error { return e.JobError }

// InternalError reports an invariant violation inside the engine — a
// branch that should be unreachable given a correctly built graph.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %s", e.Message) }
