// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package qsync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertLimit(t *testing.T) {
	tests := []struct {
		expr     string
		resource Resource
		want     int64
	}{
		{"0", Blocks, 0},
		{"7", Blocks, 7},
		{"1024", Blocks, 1024},
		{"1K", Blocks, 1},
		{"2K", Blocks, 2},
		{"10M", Blocks, 10240},
		{"10Mb", Blocks, 10240},
		{"1G", Blocks, 1048576},
		{"1Gb", Blocks, 1048576},
		{"3T", Blocks, 3 * 1024 * 1024 * 1024},
		{"0", Inodes, 0},
		{"42", Inodes, 42},
		{"5K", Inodes, 5000},
		{"5Kb", Inodes, 5000},
		{"2M", Inodes, 2000000},
		{"1G", Inodes, 1000000000},
		{"1T", Inodes, 1000000000000},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%s_%s", test.expr, test.resource), func(t *testing.T) {
			got, err := ConvertLimit(test.expr, test.resource)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

// Signed expressions skip unit scaling entirely and parse as plain
// signed integers. Legacy behavior, kept for compatibility.
func TestConvertLimitSignBypass(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"+5", 5},
		{"-5", -5},
		{"+10M", 10},
		{"-2K", -2},
	}

	for _, test := range tests {
		for _, r := range []Resource{Blocks, Inodes} {
			got, err := ConvertLimit(test.expr, r)
			require.NoError(t, err)
			assert.Equal(t, test.want, got, "expr %q resource %s", test.expr, r)
		}
	}
}

func TestConvertLimitMalformed(t *testing.T) {
	for _, expr := range []string{"", "5X", "K", "5KB", "5.5M", "abc", "5 M", "5Mbb", "++5"} {
		_, err := ConvertLimit(expr, Blocks)
		require.Error(t, err, "expr %q", expr)

		var exprErr *ExprError
		require.True(t, errors.As(err, &exprErr), "expr %q", expr)
		assert.Equal(t, expr, exprErr.Value)
	}
}

// A scaled value past the int64 range must be rejected, never wrapped
// into a negative limit.
func TestConvertLimitOverflow(t *testing.T) {
	for _, test := range []struct {
		expr     string
		resource Resource
	}{
		{"9999999999T", Blocks},
		{"9223372036854775807K", Blocks},
		{"99999999T", Inodes},
	} {
		_, err := ConvertLimit(test.expr, test.resource)
		require.Error(t, err, "expr %q", test.expr)

		var exprErr *ExprError
		assert.True(t, errors.As(err, &exprErr), "expr %q", test.expr)
	}

	// largest exactly representable power stays convertible
	got, err := ConvertLimit("1T", Blocks)
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024*1024), got)
}

func TestConvertLimitRankStep(t *testing.T) {
	for _, n := range []int64{1, 3, 17, 1000} {
		k, err := ConvertLimit(fmt.Sprintf("%dK", n), Blocks)
		require.NoError(t, err)
		m, err := ConvertLimit(fmt.Sprintf("%dM", n), Blocks)
		require.NoError(t, err)
		g, err := ConvertLimit(fmt.Sprintf("%dG", n), Blocks)
		require.NoError(t, err)

		assert.Equal(t, k*1024, m)
		assert.Equal(t, m*1024, g)
	}
}
