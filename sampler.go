// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/bbglab/oncodrivefm/signif"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/rand"
)

// sampler builds background distributions: for a group of n scores,
// the estimator computed over many random n-subsets of the slice.
type sampler struct {
	test      signif.Test
	samplings int
	seed      uint64
	threads   int
}

// sampleSeed derives the RNG seed for one (slice, size) background
// from the run seed, so each background is reproducible regardless of
// batching and thread scheduling.
func sampleSeed(seed uint64, slice string, size int) uint64 {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%d\x00%s\x00%d", seed, slice, size)))
	return binary.LittleEndian.Uint64(sum[:8])
}

// Background returns, for each requested size, s.samplings estimator
// values computed over random subsets of pool.
func (s *sampler) Background(ctx context.Context, slice string, pool []float64, sizes []int) (map[int][]float64, error) {
	sizes = uniqueSizes(sizes)
	out := make(map[int][]float64, len(sizes))
	var mtx sync.Mutex
	thr := throttle{Max: s.threads}
	for _, size := range sizes {
		size := size
		thr.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(sampleSeed(s.seed, slice, size)))
			bg := s.draw(pool, size, rng)
			mtx.Lock()
			out[size] = bg
			mtx.Unlock()
			return nil
		})
	}
	if err := thr.Wait(); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"slice":     slice,
		"pool":      len(pool),
		"sizes":     len(sizes),
		"samplings": s.samplings,
	}).Debug("background sampling done")
	return out, nil
}

// draw computes s.samplings estimates over random size-subsets of
// pool. Subsets are drawn without replacement, unless size exceeds the
// pool.
func (s *sampler) draw(pool []float64, size int, rng *rand.Rand) []float64 {
	if len(pool) == 0 || size < 1 {
		return nil
	}
	out := make([]float64, s.samplings)
	if size > len(pool) {
		sample := make([]float64, size)
		for i := range out {
			for j := range sample {
				sample[j] = pool[rng.Intn(len(pool))]
			}
			out[i] = s.test.Estimator(sample)
		}
		return out
	}
	// Partial Fisher-Yates shuffle; scratch[:size] is a uniform
	// random subset after each pass.
	scratch := append([]float64(nil), pool...)
	for i := range out {
		for j := 0; j < size; j++ {
			k := j + rng.Intn(len(scratch)-j)
			scratch[j], scratch[k] = scratch[k], scratch[j]
		}
		out[i] = s.test.Estimator(scratch[:size])
	}
	return out
}

func uniqueSizes(sizes []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, n := range sizes {
		if n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
