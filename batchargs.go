// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"context"
	"flag"
	"fmt"
	"sync"
)

// batchArgs partitions the slices of a run so they can be computed
// by separate processes and merged later with "combine".
type batchArgs struct {
	batch   int
	batches int
}

func (b *batchArgs) Flags(flags *flag.FlagSet) {
	flags.IntVar(&b.batches, "batches", 1, "number of batches")
	flags.IntVar(&b.batch, "batch", -1, "only do `N`th batch (-1 = all)")
}

func (b *batchArgs) Check() error {
	if b.batches < 1 {
		return fmt.Errorf("invalid -batches=%d, must be >= 1", b.batches)
	}
	if b.batch >= b.batches {
		return fmt.Errorf("invalid -batch=%d, must be < -batches=%d", b.batch, b.batches)
	}
	return nil
}

// RunBatches calls runFunc once per batch (or only for the selected
// batch), concurrently, and returns a slice of return values and the
// first returned error, if any.
func (b *batchArgs) RunBatches(ctx context.Context, runFunc func(context.Context, int) (string, error)) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	outputs := make([]string, b.batches)
	var wg WaitGroup
	for batch := 0; batch < b.batches; batch++ {
		if b.batch >= 0 && b.batch != batch {
			continue
		}
		batch := batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := runFunc(ctx, batch)
			outputs[batch] = out
			if err != nil {
				wg.Error(err)
				cancel()
			}
		}()
	}
	err := wg.Wait()
	if b.batch >= 0 {
		outputs = outputs[b.batch : b.batch+1]
	}
	return outputs, err
}

// Partition returns the part of in that belongs to the given batch.
// Items are assigned in contiguous runs, so concatenating all
// partitions in batch order yields in.
func (b *batchArgs) Partition(in []string, batch int) []string {
	if b.batches <= 1 || batch < 0 {
		return in
	}
	batchsize := (len(in) + b.batches - 1) / b.batches
	start := batchsize * batch
	if start >= len(in) {
		return nil
	}
	out := in[start:]
	if len(out) > batchsize {
		out = out[:batchsize]
	}
	return out
}

// Slice returns the part of in that belongs to the selected batch, or
// all of in if no batch is selected.
func (b *batchArgs) Slice(in []string) []string {
	return b.Partition(in, b.batch)
}

type WaitGroup struct {
	sync.WaitGroup
	err     error
	errOnce sync.Once
}

func (wg *WaitGroup) Error(err error) {
	if err != nil {
		wg.errOnce.Do(func() { wg.err = err })
	}
}

func (wg *WaitGroup) Wait() error {
	wg.WaitGroup.Wait()
	return wg.err
}
