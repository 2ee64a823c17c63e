// Copyright 2018 qsync Authors. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

package qsync

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var limitPattern = regexp.MustCompile(`^(\+|-)?([0-9]+)([KMGT]b?)?$`)

// ExprError reports a limit expression that does not match the accepted
// grammar. It aborts a run before any command executes.
type ExprError struct {
	Value string
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("unsupported limit expression %q", e.Value)
}

// multiplier and base exponent for a resource's unit table. Blocks are
// 1 KiB units so K is rank 1 with base 1; inode counts are plain counts
// scaled by powers of 1000.
func unitTable(r Resource) (multiplier float64, base int) {
	if r == Inodes {
		return 1000, 0
	}
	return 1024, 1
}

var unitRank = map[byte]int{'K': 1, 'M': 2, 'G': 3, 'T': 4}

// ConvertLimit parses a limit expression into the canonical integer
// unit for the resource: 1 KiB blocks, or an inode count. Accepted
// grammar is an optional sign, digits, and an optional K/M/G/T suffix
// with an optional trailing literal b ("10M" and "10Mb" are the same).
//
// Two legacy behaviors are kept for compatibility with existing
// automation and must not be "fixed":
//
//   - A signed expression bypasses unit scaling entirely: any suffix is
//     discarded and the sign and digits parse as a plain signed
//     integer ("+10M" is 10, not 10485760).
//   - Scaling multiplies through float64 and truncates toward zero, so
//     mantissas beyond 2^53 may lose precision.
//
// A suffixed expression whose scaled value does not fit in an int64 is
// rejected rather than wrapped.
func ConvertLimit(expr string, r Resource) (int64, error) {
	m := limitPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, &ExprError{Value: expr}
	}

	sign, digits, suffix := m[1], m[2], m[3]

	if sign != "" {
		n, err := strconv.ParseInt(sign+digits, 10, 64)
		if err != nil {
			return 0, &ExprError{Value: expr}
		}
		return n, nil
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &ExprError{Value: expr}
	}

	if suffix == "" {
		return n, nil
	}

	multiplier, base := unitTable(r)
	rank := unitRank[suffix[0]]

	scaled := float64(n) * math.Pow(multiplier, float64(rank-base))
	// float64(MaxInt64) is exactly 2^63; anything at or past it would
	// wrap on conversion
	if scaled >= math.MaxInt64 {
		return 0, &ExprError{Value: expr}
	}

	return int64(scaled), nil
}
