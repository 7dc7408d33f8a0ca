// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type zscoreTest struct {
	base
}

func (t *zscoreTest) Name() string {
	return t.est.String() + "-" + ZScore.String()
}

func (t *zscoreTest) Columns() []string {
	return []string{"ZSCORE", "PVALUE", "QVALUE"}
}

// Compare returns (observed - mean) / sd of the non-missing samples.
// The result is Missing if observed is missing, or the background has
// fewer than two values or zero standard deviation.
func (t *zscoreTest) Compare(observed float64, samples []float64) float64 {
	if IsMissing(observed) {
		return Missing
	}
	vals := present(samples)
	if len(vals) < 2 {
		return Missing
	}
	mean, sd := stat.MeanStdDev(vals, nil)
	if sd == 0 || math.IsNaN(sd) {
		return Missing
	}
	return (observed - mean) / sd
}

func (t *zscoreTest) CompareAll(observed []float64, samples [][]float64) ([]float64, error) {
	return compareAll(t.Compare, observed, samples)
}

// Combine applies Stouffer's method to each group: Z = Σ z / √k over
// the k slices with a z-score, and the combined p-value is the upper
// tail of the standard normal distribution at Z.
func (t *zscoreTest) Combine(results *Results) (*Combination, error) {
	slices, groups := results.Dims()
	comb := newCombination(groups, t.Columns())
	for g := 0; g < groups; g++ {
		var sum float64
		k := 0
		for s := 0; s < slices; s++ {
			z := results.At(s, g)
			if IsMissing(z) {
				continue
			}
			sum += z
			k++
		}
		comb.Slices[g] = k
		if k == 0 {
			comb.Stat[g] = Missing
			comb.PValue[g] = Missing
			continue
		}
		z := sum / math.Sqrt(float64(k))
		comb.Stat[g] = z
		comb.PValue[g] = distuv.UnitNormal.Survival(z)
	}
	comb.QValue = BenjaminiHochberg(comb.PValue)
	return comb, nil
}
