// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BenjaminiHochberg returns the FDR-adjusted q-value for each p-value.
// Missing p-values are excluded from the number of tests and get a
// Missing q-value. q-values are not floored: q >= p holds already.
func BenjaminiHochberg(pvalues []float64) []float64 {
	q := make([]float64, len(pvalues))
	var sorted []float64
	var where []int
	for i, p := range pvalues {
		q[i] = Missing
		if !IsMissing(p) {
			sorted = append(sorted, p)
			where = append(where, i)
		}
	}
	m := len(sorted)
	if m == 0 {
		return q
	}
	inds := make([]int, m)
	floats.Argsort(sorted, inds)
	// Walk from the largest p-value down, keeping the running
	// minimum of p*m/rank so q is monotone in p.
	qmin := 1.0
	for rank := m; rank >= 1; rank-- {
		adj := sorted[rank-1] * float64(m) / float64(rank)
		qmin = math.Min(qmin, adj)
		q[where[inds[rank-1]]] = qmin
	}
	return q
}
