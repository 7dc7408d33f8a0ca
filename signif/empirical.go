// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

type empiricalTest struct {
	base
	epsilon float64
}

func (t *empiricalTest) Name() string {
	return t.est.String() + "-" + Empirical.String()
}

func (t *empiricalTest) Columns() []string {
	return []string{"PVALUE", "QVALUE"}
}

// Compare returns the fraction of non-missing samples that are >=
// observed, floored at epsilon. A missing observed value, or a
// background with no usable samples, yields Missing.
func (t *empiricalTest) Compare(observed float64, samples []float64) float64 {
	if IsMissing(observed) {
		return Missing
	}
	n, ge := 0, 0
	for _, s := range samples {
		if IsMissing(s) {
			continue
		}
		n++
		if s >= observed {
			ge++
		}
	}
	if n == 0 {
		return Missing
	}
	return math.Max(float64(ge)/float64(n), t.epsilon)
}

func (t *empiricalTest) CompareAll(observed []float64, samples [][]float64) ([]float64, error) {
	return compareAll(t.Compare, observed, samples)
}

// Combine applies Fisher's method to each group: X = -2 Σ ln p over
// the k slices with a p-value, and the combined p-value is the upper
// tail of χ² with 2k degrees of freedom at X.
func (t *empiricalTest) Combine(results *Results) (*Combination, error) {
	slices, groups := results.Dims()
	comb := newCombination(groups, t.Columns())
	for g := 0; g < groups; g++ {
		var logsum float64
		k := 0
		for s := 0; s < slices; s++ {
			p := results.At(s, g)
			if IsMissing(p) {
				continue
			}
			logsum += math.Log(math.Max(p, t.epsilon))
			k++
		}
		comb.Slices[g] = k
		if k == 0 {
			comb.Stat[g] = Missing
			comb.PValue[g] = Missing
			continue
		}
		x := -2 * logsum
		comb.Stat[g] = x
		comb.PValue[g] = distuv.ChiSquared{K: float64(2 * k)}.Survival(x)
	}
	comb.QValue = BenjaminiHochberg(comb.PValue)
	return comb, nil
}
