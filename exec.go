// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package qsync

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tool failure. Carries the exit code and captured stderr verbatim so
// callers can surface the tool's own diagnostics.
type ToolError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Cmd, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Runner executes a quota tool command and captures its output. The
// local runner covers the common case; see SSHRunner for appliances
// that only expose the tools over SSH.
type Runner interface {
	Run(name string, args ...string) (stdout, stderr string, rc int, err error)
}

// LocalRunner executes commands on the local host, resolving the tool
// binary through PATH.
type LocalRunner struct{}

func (LocalRunner) Run(name string, args ...string) (string, string, int, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", "", -1, fmt.Errorf("failed to locate %s: %w", name, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logrus.WithFields(logrus.Fields{
		"cmd":  name,
		"args": args,
	}).Debug("Running quota tool")

	err = cmd.Run()
	rc := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return "", "", -1, err
		}
		rc = exitErr.ExitCode()
	}

	return stdout.String(), stderr.String(), rc, nil
}

// SystemBackend reads quota state with quota(1) and applies limits with
// setquota(8). The query tolerates a non-zero exit status: quota(1)
// uses it to signal that the subject is over quota, and the report on
// stdout is still valid.
type SystemBackend struct {
	runner Runner
}

func NewSystemBackend(runner Runner) *SystemBackend {
	if runner == nil {
		runner = LocalRunner{}
	}
	return &SystemBackend{runner: runner}
}

func (b *SystemBackend) Read(subject Subject, filesystem string) (string, error) {
	out, _, rc, err := b.runner.Run("quota", "-l", subject.Flag(), subject.Name)
	if err != nil {
		return "", err
	}
	if rc != 0 {
		// quota(1) exits non-zero when the subject is over quota. The
		// report on stdout is still valid.
		logrus.WithFields(logrus.Fields{
			"rc":      rc,
			"subject": subject.Name,
		}).Debug("quota exited non-zero")
	}

	return out, nil
}

// Write applies one resource's limits. setquota sets the whole quota
// entry in a single call, so the other resource's limits are re-read
// and carried through unchanged.
func (b *SystemBackend) Write(subject Subject, filesystem string, r Resource, hard, soft int64) error {
	out, err := b.Read(subject, filesystem)
	if err != nil {
		return err
	}
	current, err := ParseReport(out, filesystem)
	if err != nil {
		return err
	}

	blocksHard, blocksSoft := current.Blocks.Hard, current.Blocks.Soft
	inodesHard, inodesSoft := current.Inodes.Hard, current.Inodes.Soft
	if r == Blocks {
		blocksHard, blocksSoft = hard, soft
	} else {
		inodesHard, inodesSoft = hard, soft
	}

	args := []string{
		subject.Flag(), subject.Name,
		strconv.FormatInt(blocksHard, 10), strconv.FormatInt(blocksSoft, 10),
		strconv.FormatInt(inodesHard, 10), strconv.FormatInt(inodesSoft, 10),
		filesystem,
	}

	_, stderr, rc, err := b.runner.Run("setquota", args...)
	if err != nil {
		return err
	}
	if rc != 0 {
		return &ToolError{Cmd: "setquota", ExitCode: rc, Stderr: stderr}
	}

	return nil
}

// QuotatoolBackend reads and writes quota state with quotatool(8), the
// legacy tool family. Unlike quota(1), a non-zero exit status from the
// query is a hard failure.
type QuotatoolBackend struct {
	runner Runner
}

func NewQuotatoolBackend(runner Runner) *QuotatoolBackend {
	if runner == nil {
		runner = LocalRunner{}
	}
	return &QuotatoolBackend{runner: runner}
}

func (b *QuotatoolBackend) Read(subject Subject, filesystem string) (string, error) {
	out, stderr, rc, err := b.runner.Run("quotatool", "-d", subject.Flag(), subject.Name, filesystem)
	if err != nil {
		return "", err
	}
	if rc != 0 {
		return "", &ToolError{Cmd: "quotatool", ExitCode: rc, Stderr: stderr}
	}

	return out, nil
}

func (b *QuotatoolBackend) Write(subject Subject, filesystem string, r Resource, hard, soft int64) error {
	rflag := "-b"
	if r == Inodes {
		rflag = "-i"
	}

	args := []string{
		subject.Flag(), subject.Name,
		rflag,
		"-l", strconv.FormatInt(hard, 10),
		"-q", strconv.FormatInt(soft, 10),
		filesystem,
	}

	_, stderr, rc, err := b.runner.Run("quotatool", args...)
	if err != nil {
		return err
	}
	if rc != 0 {
		return &ToolError{Cmd: "quotatool", ExitCode: rc, Stderr: stderr}
	}

	return nil
}

// Backend bundles the reader and writer halves of one tool family.
type Backend interface {
	QuotaReader
	QuotaWriter
}

// NewBackend returns the backend for a configured tool family name,
// "system" (quota/setquota) or "quotatool".
func NewBackend(name string, runner Runner) (Backend, error) {
	switch name {
	case "", "system":
		return NewSystemBackend(runner), nil
	case "quotatool":
		return NewQuotatoolBackend(runner), nil
	}

	return nil, fmt.Errorf("unknown quota backend: %s", name)
}
