// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"testing"

	"github.com/securcom/qsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A cached report must serve the same flattened shape as a live
// report-only run, message included.
func TestReportResult(t *testing.T) {
	report := &qsync.Report{
		Blocks: qsync.QuotaRecord{Current: 100, Soft: 200, Hard: 300, Grace: "6days"},
		Inodes: qsync.QuotaRecord{Current: 5, Soft: 10, Hard: 20},
	}

	result := reportResult(report)

	assert.False(t, result.Changed)
	assert.Equal(t, qsync.MSG_REPORTED, result.Message)
	assert.Equal(t, int64(100), result.BlocksCurrent)
	assert.Equal(t, int64(200), result.BlocksSoft)
	assert.Equal(t, int64(300), result.BlocksHard)
	assert.Equal(t, "6days", result.BlocksGrace)
	assert.Equal(t, int64(5), result.InodesCurrent)
	assert.Equal(t, int64(10), result.InodesSoft)
	assert.Equal(t, int64(20), result.InodesHard)

	out, err := json.Marshal(result)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Contains(t, fields, "message")
	assert.Contains(t, fields, "changed")
	assert.Contains(t, fields, "blocks_current")
	assert.NotContains(t, fields, "blocks")
}
