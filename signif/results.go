// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is wrapped by every error caused by mismatched
	// dimensions between observed values, background samples and
	// results.
	ErrShape = errors.New("shape mismatch")

	// ErrFilled is returned when a caller tries to overwrite a
	// results cell that already holds a value.
	ErrFilled = errors.New("results cell already filled")
)

// Results is a slices × groups matrix of per-slice significance
// values. Every cell starts out Missing.
//
// Different goroutines may Fill different slices concurrently. Reads
// (At, Column, Combine) must not start until all writers are done.
type Results struct {
	slices int
	groups int
	data   []float64
}

// NewResults returns a results matrix with all cells set to Missing.
func NewResults(slices, groups int) *Results {
	if slices < 0 || groups < 0 {
		panic(fmt.Sprintf("bug: NewResults(%d, %d)", slices, groups))
	}
	data := make([]float64, slices*groups)
	for i := range data {
		data[i] = Missing
	}
	return &Results{slices: slices, groups: groups, data: data}
}

// Dims returns the number of slices and groups.
func (r *Results) Dims() (slices, groups int) {
	return r.slices, r.groups
}

func (r *Results) At(slice, group int) float64 {
	if slice < 0 || slice >= r.slices || group < 0 || group >= r.groups {
		panic(fmt.Sprintf("bug: Results.At(%d, %d) out of range %dx%d", slice, group, r.slices, r.groups))
	}
	return r.data[slice*r.groups+group]
}

// Set stores one value.
func (r *Results) Set(slice, group int, v float64) error {
	if slice < 0 || slice >= r.slices || group < 0 || group >= r.groups {
		return fmt.Errorf("%w: cell (%d, %d) outside %d slices x %d groups", ErrShape, slice, group, r.slices, r.groups)
	}
	idx := slice*r.groups + group
	if !IsMissing(r.data[idx]) {
		return fmt.Errorf("%w: slice %d group %d", ErrFilled, slice, group)
	}
	r.data[idx] = v
	return nil
}

// Fill stores one value per group for the given slice. values must
// have one entry per group, and the slice row must not have been
// filled already.
func (r *Results) Fill(slice int, values []float64) error {
	if slice < 0 || slice >= r.slices {
		return fmt.Errorf("%w: slice %d outside 0..%d", ErrShape, slice, r.slices-1)
	}
	if len(values) != r.groups {
		return fmt.Errorf("%w: %d values for %d groups", ErrShape, len(values), r.groups)
	}
	row := r.data[slice*r.groups : (slice+1)*r.groups]
	for g, v := range row {
		if !IsMissing(v) {
			return fmt.Errorf("%w: slice %d group %d", ErrFilled, slice, g)
		}
	}
	copy(row, values)
	return nil
}

// Row returns a copy of the values stored for one slice.
func (r *Results) Row(slice int) []float64 {
	out := make([]float64, r.groups)
	copy(out, r.data[slice*r.groups:(slice+1)*r.groups])
	return out
}

// Column returns a copy of the values stored for one group, in slice
// order.
func (r *Results) Column(group int) []float64 {
	out := make([]float64, r.slices)
	for s := range out {
		out[s] = r.data[s*r.groups+group]
	}
	return out
}
