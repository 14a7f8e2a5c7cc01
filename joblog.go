// Copyright 2026 The Bakery Authors
// SPDX-License-Identifier: Apache-2.0

package bakery

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ANSI color codes for the per-job name bracket, the Go equivalent of
// the original's `fg.blue`/`fg.yellow`/`fg.red`/`fg.green` helpers from
// ansilog (original_source/bakery/utils.py's JobLog). logrus's
// TextFormatter only colorizes the level name, not arbitrary fields, so
// the bracketed job name is colorized here directly.
const (
	colorReset  = "\x1b[0m"
	colorBlue   = "\x1b[34m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
)

// NewRootLogger returns the process-wide logger, raised to debug level
// when BAKERY_DEBUG is set (spec §6). It does not report caller info;
// the BAKERY_DEBUG stack print happens in the recipe wrapper.
func NewRootLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true, DisableTimestamp: true})
	if Debug() {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Debug reports whether BAKERY_DEBUG is set to any truthy presence.
func Debug() bool {
	_, ok := os.LookupEnv("BAKERY_DEBUG")
	return ok
}

// createJobID returns a short unique id, optionally suffixed with name
// — the Go port of original_source/bakery/utils.py's create_job_id.
func createJobID(name string) string {
	id := uuid.New().String()[:8]
	if name != "" {
		return id + "-" + name
	}
	return id
}

// JobLog is a per-job-invocation log handle: every line it emits is
// prefixed with a colorized "[name]" bracket, ported method-for-method
// from original_source/bakery/utils.py's JobLog.
type JobLog struct {
	log  *logrus.Logger
	name string
	id   string
}

// NewJobLog returns a JobLog under root for one recipe/shell
// invocation. name is used for the bracket; if empty, "job <id>" is
// used instead.
func NewJobLog(root *logrus.Logger, name string) *JobLog {
	return &JobLog{log: root, name: name, id: createJobID(name)}
}

func (j *JobLog) displayName() string {
	if j.name != "" {
		return j.name
	}
	return "job " + j.id
}

func (j *JobLog) bracket(color string) string {
	return fmt.Sprintf("%s[%s]%s", color, j.displayName(), colorReset)
}

// Print logs msg at info level with a blue bracket — stdout lines land
// here (spec §4.4: "stdout lines at info-level").
func (j *JobLog) Print(msg string) { j.log.Infof("%s %s", j.bracket(colorBlue), msg) }

// Warning logs msg at info level with a yellow bracket.
func (j *JobLog) Warning(msg string) { j.log.Infof("%s %s", j.bracket(colorYellow), msg) }

// Error logs msg at error level with a red bracket — stderr lines land
// here (spec §4.4: "stderr lines at error-level").
func (j *JobLog) Error(msg string) { j.log.Errorf("%s %s", j.bracket(colorRed), msg) }

// Trace logs msg at debug level with a green bracket.
func (j *JobLog) Trace(msg string) { j.log.Debugf("%s %s", j.bracket(colorGreen), msg) }

// Fail logs a terminal failure line at error level.
func (j *JobLog) Fail(msg string) {
	if msg == "" {
		msg = "FAILED"
	}
	j.log.Errorf("%s %s", j.bracket(colorRed), msg)
}

// Finish logs a terminal success line at info level.
func (j *JobLog) Finish(msg string) {
	if msg == "" {
		msg = "Finished."
	}
	j.log.Infof("%s %s", j.bracket(colorBlue), msg)
}
