// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package qsync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCmd struct {
	name string
	args []string
}

type fakeRunner struct {
	cmds   []fakeCmd
	stdout string
	stderr string
	rc     int
}

func (r *fakeRunner) Run(name string, args ...string) (string, string, int, error) {
	r.cmds = append(r.cmds, fakeCmd{name: name, args: args})
	return r.stdout, r.stderr, r.rc, nil
}

func TestSystemBackendRead(t *testing.T) {
	runner := &fakeRunner{stdout: testReport()}
	backend := NewSystemBackend(runner)

	out, err := backend.Read(Subject{Type: SUBJECT_USER, Name: "jdoe"}, "/dev/sdb1")
	require.NoError(t, err)
	assert.Equal(t, testReport(), out)

	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "quota", runner.cmds[0].name)
	assert.Equal(t, []string{"-l", "-u", "jdoe"}, runner.cmds[0].args)
}

// quota(1) signals "over quota" through its exit status. That is not a
// query failure and the report must still be used.
func TestSystemBackendReadOverQuota(t *testing.T) {
	runner := &fakeRunner{stdout: testReport(), rc: 1}
	backend := NewSystemBackend(runner)

	out, err := backend.Read(Subject{Type: SUBJECT_USER, Name: "jdoe"}, "/dev/sdb1")
	require.NoError(t, err)
	assert.Equal(t, testReport(), out)
}

func TestSystemBackendWrite(t *testing.T) {
	runner := &fakeRunner{stdout: testReport()}
	backend := NewSystemBackend(runner)

	err := backend.Write(Subject{Type: SUBJECT_GROUP, Name: "staff"}, "/dev/sdb1", Blocks, 10240, 5120)
	require.NoError(t, err)

	// re-read to carry the inode limits through, then setquota
	require.Len(t, runner.cmds, 2)
	assert.Equal(t, "quota", runner.cmds[0].name)
	assert.Equal(t, "setquota", runner.cmds[1].name)
	assert.Equal(t,
		[]string{"-g", "staff", "10240", "5120", "20", "10", "/dev/sdb1"},
		runner.cmds[1].args)
}

func TestSystemBackendWriteInodes(t *testing.T) {
	runner := &fakeRunner{stdout: testReport()}
	backend := NewSystemBackend(runner)

	err := backend.Write(Subject{Type: SUBJECT_USER, Name: "jdoe"}, "/dev/sdb1", Inodes, 40, 30)
	require.NoError(t, err)

	require.Len(t, runner.cmds, 2)
	assert.Equal(t,
		[]string{"-u", "jdoe", "300", "200", "40", "30", "/dev/sdb1"},
		runner.cmds[1].args)
}

func TestSystemBackendWriteFailure(t *testing.T) {
	// the embedded read succeeds, then setquota exits non-zero
	failing := &failAfterRunner{inner: &fakeRunner{stdout: testReport()}, failFrom: 1}
	backend := NewSystemBackend(failing)

	err := backend.Write(Subject{Name: "jdoe"}, "/dev/sdb1", Blocks, 1, 1)
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "setquota", toolErr.Cmd)
	assert.Equal(t, 1, toolErr.ExitCode)
}

// failAfterRunner succeeds for the first failFrom commands, then exits 1
// with stderr output.
type failAfterRunner struct {
	inner *fakeRunner
	calls int

	failFrom int
}

func (r *failAfterRunner) Run(name string, args ...string) (string, string, int, error) {
	defer func() { r.calls++ }()
	if r.calls >= r.failFrom {
		return "", "permission denied", 1, nil
	}
	return r.inner.Run(name, args...)
}

func TestQuotatoolBackendRead(t *testing.T) {
	runner := &fakeRunner{stdout: testReport()}
	backend := NewQuotatoolBackend(runner)

	out, err := backend.Read(Subject{Type: SUBJECT_USER, Name: "jdoe"}, "/dev/sdb1")
	require.NoError(t, err)
	assert.Equal(t, testReport(), out)

	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "quotatool", runner.cmds[0].name)
	assert.Equal(t, []string{"-d", "-u", "jdoe", "/dev/sdb1"}, runner.cmds[0].args)
}

// The legacy tool path treats any non-zero exit from the query as
// fatal, unlike quota(1).
func TestQuotatoolBackendReadFailure(t *testing.T) {
	runner := &fakeRunner{stderr: "quotatool: no such user", rc: 2}
	backend := NewQuotatoolBackend(runner)

	_, err := backend.Read(Subject{Type: SUBJECT_USER, Name: "nobody"}, "/dev/sdb1")
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 2, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "no such user")
}

func TestQuotatoolBackendWrite(t *testing.T) {
	runner := &fakeRunner{}
	backend := NewQuotatoolBackend(runner)

	err := backend.Write(Subject{Type: SUBJECT_USER, Name: "jdoe"}, "/dev/sdb1", Blocks, 10240, 5120)
	require.NoError(t, err)

	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "quotatool", runner.cmds[0].name)
	assert.Equal(t,
		[]string{"-u", "jdoe", "-b", "-l", "10240", "-q", "5120", "/dev/sdb1"},
		runner.cmds[0].args)

	err = backend.Write(Subject{Type: SUBJECT_GROUP, Name: "staff"}, "/dev/sdb1", Inodes, 2000, 1000)
	require.NoError(t, err)

	require.Len(t, runner.cmds, 2)
	assert.Equal(t,
		[]string{"-g", "staff", "-i", "-l", "2000", "-q", "1000", "/dev/sdb1"},
		runner.cmds[1].args)
}

func TestNewBackend(t *testing.T) {
	backend, err := NewBackend("", nil)
	require.NoError(t, err)
	assert.IsType(t, &SystemBackend{}, backend)

	backend, err = NewBackend("system", nil)
	require.NoError(t, err)
	assert.IsType(t, &SystemBackend{}, backend)

	backend, err = NewBackend("quotatool", nil)
	require.NoError(t, err)
	assert.IsType(t, &QuotatoolBackend{}, backend)

	_, err = NewBackend("edquota", nil)
	require.Error(t, err)
}
