// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import "math"

// Missing is the marker stored wherever a score, statistic or
// p-value is undefined. It never contributes to a count, sum, or
// log.
var Missing = math.NaN()

// IsMissing reports whether x is the missing marker.
func IsMissing(x float64) bool {
	return math.IsNaN(x)
}

// present returns the non-missing entries of data, in order. The
// returned slice does not share storage with data.
func present(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, x := range data {
		if !IsMissing(x) {
			out = append(out, x)
		}
	}
	return out
}

// CountPresent returns the number of non-missing entries in data.
func CountPresent(data []float64) int {
	n := 0
	for _, x := range data {
		if !IsMissing(x) {
			n++
		}
	}
	return n
}
