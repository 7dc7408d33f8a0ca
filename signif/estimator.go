// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Estimator is the location statistic used to aggregate the scores
// of a group.
type Estimator int

const (
	Mean Estimator = iota
	Median
)

var estimators = []Estimator{Mean, Median}

func (e Estimator) String() string {
	switch e {
	case Mean:
		return "mean"
	case Median:
		return "median"
	default:
		return fmt.Sprintf("Estimator(%d)", int(e))
	}
}

// Aggregate returns the mean or median of the non-missing entries of
// data, or Missing if there are none.
func (e Estimator) Aggregate(data []float64) float64 {
	vals := present(data)
	if len(vals) == 0 {
		return Missing
	}
	switch e {
	case Mean:
		return stat.Mean(vals, nil)
	case Median:
		m, err := stats.Median(vals)
		if err != nil {
			return Missing
		}
		return m
	default:
		panic(fmt.Sprintf("bug: unknown estimator %d", int(e)))
	}
}
