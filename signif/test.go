// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package signif tests whether groups of matrix rows have unusually
// high aggregate scores compared with equal-size random groups, and
// combines the per-slice results into one q-value per group.
package signif

import (
	"fmt"
)

// Epsilon is the smallest p-value reported by the empirical model.
const Epsilon = 1e-20

// Model is the statistical model used to turn an observed aggregate
// and its background samples into a significance value.
type Model int

const (
	// Empirical reports the fraction of background samples >= the
	// observed value, and combines slices with Fisher's method.
	Empirical Model = iota
	// ZScore reports the distance from the background mean in
	// standard deviations, and combines slices with Stouffer's
	// method.
	ZScore
)

var models = []Model{Empirical, ZScore}

func (m Model) String() string {
	switch m {
	case Empirical:
		return "empirical"
	case ZScore:
		return "zscore"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Test is implemented by each estimator/model combination.
type Test interface {
	// Name returns the method name, e.g. "median-zscore".
	Name() string

	// Observed returns the aggregate of the non-missing values of
	// one group in one slice, or Missing if there are none.
	Observed(data []float64) float64

	// Estimator returns the same aggregate computed over a
	// randomly drawn background sample.
	Estimator(sample []float64) float64

	// Compare returns the significance of observed given the
	// background samples for a group of the same size.
	Compare(observed float64, samples []float64) float64

	// CompareAll applies Compare to each group of one slice.
	// samples[g] holds the background for group g.
	CompareAll(observed []float64, samples [][]float64) ([]float64, error)

	// Combine reduces a slices × groups matrix filled by Compare
	// to one result per group.
	Combine(results *Results) (*Combination, error)

	// Columns returns the names of the per-group output values
	// produced by Combine, e.g. PVALUE, QVALUE.
	Columns() []string
}

// New returns the Test for the given estimator and model.
func New(est Estimator, model Model) Test {
	b := base{est: est}
	switch model {
	case Empirical:
		return &empiricalTest{base: b, epsilon: Epsilon}
	case ZScore:
		return &zscoreTest{base: b}
	default:
		panic(fmt.Sprintf("bug: unknown model %d", int(model)))
	}
}

type base struct {
	est Estimator
}

func (b base) Observed(data []float64) float64 {
	return b.est.Aggregate(data)
}

func (b base) Estimator(sample []float64) float64 {
	return b.est.Aggregate(sample)
}

func compareAll(compare func(float64, []float64) float64, observed []float64, samples [][]float64) ([]float64, error) {
	if len(observed) != len(samples) {
		return nil, fmt.Errorf("%w: %d observed values, %d background sample arrays", ErrShape, len(observed), len(samples))
	}
	out := make([]float64, len(observed))
	for g, o := range observed {
		out[g] = compare(o, samples[g])
	}
	return out, nil
}

// Combination holds the per-group result of Combine. Stat is
// Fisher's X for the empirical model and Stouffer's Z for the z-score
// model. Slices is the number of slices that contributed to each
// group; groups with Slices == 0 have Missing Stat, PValue and QValue.
type Combination struct {
	Stat   []float64
	PValue []float64
	QValue []float64
	Slices []int

	columns []string
}

func newCombination(groups int, columns []string) *Combination {
	return &Combination{
		Stat:    make([]float64, groups),
		PValue:  make([]float64, groups),
		Slices:  make([]int, groups),
		columns: columns,
	}
}

// Len returns the number of groups.
func (c *Combination) Len() int {
	return len(c.PValue)
}

// Columns returns the names of the values returned by Values.
func (c *Combination) Columns() []string {
	return c.columns
}

// Values returns the output values for group g, in Columns order.
func (c *Combination) Values(g int) []float64 {
	out := make([]float64, 0, len(c.columns))
	for _, col := range c.columns {
		switch col {
		case "ZSCORE":
			out = append(out, c.Stat[g])
		case "PVALUE":
			out = append(out, c.PValue[g])
		case "QVALUE":
			out = append(out, c.QValue[g])
		}
	}
	return out
}
