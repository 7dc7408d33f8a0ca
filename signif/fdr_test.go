// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"math/rand"
	"sort"

	"gopkg.in/check.v1"
)

type fdrSuite struct{}

var _ = check.Suite(&fdrSuite{})

func (s *fdrSuite) TestKnownValues(c *check.C) {
	q := BenjaminiHochberg([]float64{0.01, 0.04, 0.03, 0.005})
	for i, want := range []float64{0.02, 0.04, 0.04, 0.02} {
		c.Check(q[i], Approx, want, 1e-15, check.Commentf("i=%d", i))
	}

	q = BenjaminiHochberg([]float64{0.9, Missing, 0.5})
	c.Check(q[0], Approx, 0.9, 1e-15)
	c.Check(q[1], IsNaN)
	c.Check(q[2], Approx, 0.9, 1e-15)

	c.Check(BenjaminiHochberg(nil), check.HasLen, 0)
	q = BenjaminiHochberg([]float64{Missing, Missing})
	c.Check(q[0], IsNaN)
	c.Check(q[1], IsNaN)
}

func (s *fdrSuite) TestProperties(c *check.C) {
	rnd := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		p := make([]float64, 1+rnd.Intn(300))
		for i := range p {
			p[i] = rnd.Float64() * rnd.Float64()
		}
		q := BenjaminiHochberg(p)
		idx := make([]int, len(p))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(i, j int) bool { return p[idx[i]] < p[idx[j]] })
		for i, j := range idx {
			c.Check(q[j] >= p[j], check.Equals, true)
			c.Check(q[j] <= 1, check.Equals, true)
			if i > 0 {
				c.Check(q[j] >= q[idx[i-1]], check.Equals, true)
			}
		}
	}
}
