// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/semaphore"
)

// Shell runs subprocesses with bounded global concurrency, streaming
// stdout/stderr line-by-line to a JobLog — spec §4.4. Grounded on
// original_source/bakery/shell.py's Shell class and mk's exec.go
// subprocess plumbing.
type Shell struct {
	sem *semaphore.Weighted
	mu  sync.Mutex
	env map[string]string

	// instrument, if set, is called true immediately after a permit is
	// acquired and false immediately before it is released — a test
	// seam for asserting the concurrency bound without conflating
	// "waiting for a permit" with "holding one" (spec §4.4/§8).
	instrument func(active bool)
}

// NewShell returns a Shell whose concurrency bound is the host CPU
// count, per spec §4.4 ("initialized to the host CPU count").
func NewShell() *Shell {
	return &Shell{
		sem: semaphore.NewWeighted(int64(runtime.NumCPU())),
		env: make(map[string]string),
	}
}

// Setenv overlays a key/value pair onto every subsequent subprocess's
// environment, on top of the inherited parent environment.
func (sh *Shell) Setenv(key, value string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.env[key] = value
}

func (sh *Shell) environ() []string {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	env := os.Environ()
	for k, v := range sh.env {
		env = append(env, k+"="+v)
	}
	return env
}

// Run assembles argv from args via Flatten, spawns the process,
// streams its output to job, and returns the captured stdout lines.
// Exactly one semaphore permit is held for the lifetime of the
// subprocess (acquired before spawn, released after wait, on both
// success and failure), bounding global shell concurrency to the host
// CPU count regardless of how many goroutines call Run concurrently.
func (sh *Shell) Run(ctx context.Context, job *JobLog, args ...Value) ([]string, error) {
	if job == nil {
		job = NewJobLog(NewRootLogger(), "")
	}

	if err := sh.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sh.sem.Release(1)
	if sh.instrument != nil {
		sh.instrument(true)
		defer sh.instrument(false)
	}

	argv, err := FlattenAll(args...)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, &InternalError{Message: "shell: empty argv"}
	}

	job.Trace(joinArgs(argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = sh.environ()

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &JobError{Message: "failed to open stdout pipe", Cause: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &JobError{Message: "failed to open stderr pipe", Cause: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &JobError{Message: "failed to start " + argv[0], Cause: err}
	}

	var wg sync.WaitGroup
	var linesMu sync.Mutex
	var stdout, stderr []string

	wg.Add(2)
	go streamLines(&wg, stdoutPipe, &linesMu, &stdout, job.Print)
	go streamLines(&wg, stderrPipe, &linesMu, &stderr, job.Error)
	wg.Wait()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, &JobError{Message: "failed to wait for " + argv[0], Cause: waitErr}
		}
	}

	if exitCode != 0 {
		return nil, &SubprocessError{
			JobError: &JobError{Message: fmt.Sprintf("command %q exited %d", argv[0], exitCode)},
			Argv:     argv,
			Stdout:   stdout,
			Stderr:   stderr,
			ExitCode: exitCode,
		}
	}
	return stdout, nil
}

// streamLines reads newline-delimited output from r, appending each
// trimmed line to buf and forwarding it to display. Running stdout and
// stderr readers on their own goroutines, joined by a WaitGroup, avoids
// deadlocking regardless of which stream produces output first (spec
// §4.4).
func streamLines(wg *sync.WaitGroup, r interface{ Read([]byte) (int, error) }, mu *sync.Mutex, buf *[]string, display func(string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		mu.Lock()
		*buf = append(*buf, line)
		mu.Unlock()
		display(line)
	}
}

func joinArgs(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
