// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/check.v1"
)

type computeSuite struct {
	tmpdir string
}

var _ = check.Suite(&computeSuite{})

// SetUpTest writes a 30-row matrix with two slices. In slice A the
// score of row i is i/30; in slice B it is a permutation of the same
// values. Group HIGH holds the top 5 rows of slice A.
func (s *computeSuite) SetUpTest(c *check.C) {
	s.tmpdir = c.MkDir()
	var scores bytes.Buffer
	scores.WriteString("ID\tA\tB\n")
	for i := 0; i < 30; i++ {
		b := strconv.FormatFloat(float64(i*7%30)/30, 'g', -1, 64)
		if i == 3 {
			b = "NA"
		}
		fmt.Fprintf(&scores, "r%d\t%g\t%s\n", i, float64(i)/30, b)
	}
	c.Assert(os.WriteFile(s.tmpdir+"/scores.tsv", scores.Bytes(), 0644), check.IsNil)
	c.Assert(os.WriteFile(s.tmpdir+"/groups.tsv", []byte(`GROUP	ROW
HIGH	r25
HIGH	r26
HIGH	r27
HIGH	r28
HIGH	r29
LOW	r0
LOW	r1
LOW	r2
LOW	r3
LOW	r4
GHOST	nonexistent
SINGLE	r10
`), 0644), check.IsNil)
}

type combinationLine struct {
	n, slices int
	values    []float64
}

func readCombination(c *check.C, fnm string) ([]string, map[string]combinationLine) {
	buf, err := os.ReadFile(fnm)
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	header := strings.Split(lines[0], "\t")
	out := map[string]combinationLine{}
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		c.Assert(fields, check.HasLen, len(header))
		var cl combinationLine
		cl.n, err = strconv.Atoi(fields[1])
		c.Assert(err, check.IsNil)
		cl.slices, err = strconv.Atoi(fields[2])
		c.Assert(err, check.IsNil)
		for _, f := range fields[3:] {
			v, err := parseScore(f)
			c.Assert(err, check.IsNil)
			cl.values = append(cl.values, v)
		}
		out[fields[0]] = cl
	}
	return header, out
}

func (s *computeSuite) TestEmpirical(c *check.C) {
	exited := (&computer{}).RunCommand("compute", []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-groups", s.tmpdir + "/groups.tsv",
		"-method", "Mean-Empirical",
		"-samplings", "2000",
		"-seed", "1",
		"-min-size", "2",
		"-numpy",
		"-output-dir", s.tmpdir,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	header, comb := readCombination(c, s.tmpdir+"/combination.tsv")
	c.Check(header, check.DeepEquals, []string{"ID", "N", "SLICES", "PVALUE", "QVALUE"})
	c.Check(comb, check.HasLen, 4)
	c.Check(comb["HIGH"].n, check.Equals, 5)
	c.Check(comb["HIGH"].slices, check.Equals, 2)
	c.Check(comb["LOW"].n, check.Equals, 5)
	c.Check(comb["LOW"].slices, check.Equals, 2)
	c.Check(comb["HIGH"].values[0] < 0.01, check.Equals, true, check.Commentf("%v", comb["HIGH"]))
	c.Check(comb["LOW"].values[0] > 0.5, check.Equals, true, check.Commentf("%v", comb["LOW"]))
	for _, id := range []string{"HIGH", "LOW"} {
		c.Check(comb[id].values[1] >= comb[id].values[0], check.Equals, true)
	}
	// GHOST resolves to no rows, SINGLE is below -min-size
	c.Check(comb["GHOST"].n, check.Equals, 0)
	c.Check(comb["SINGLE"].n, check.Equals, 1)
	for _, id := range []string{"GHOST", "SINGLE"} {
		c.Check(comb[id].slices, check.Equals, 0)
		c.Check(comb[id].values[0] != comb[id].values[0], check.Equals, true, check.Commentf("%s p-value should be nan", id))
	}

	slices, err := os.ReadFile(s.tmpdir + "/slices.tsv")
	c.Assert(err, check.IsNil)
	c.Check(string(slices), check.Matches, `ID\tN\tA\tB\nHIGH\t5\t[0-9.e-]+\t[0-9.e-]+\nLOW\t5\t[0-9.e-]+\t[0-9.e-]+\nGHOST\t0\tnan\tnan\nSINGLE\t1\tnan\tnan\n`)

	_, err = os.Stat(s.tmpdir + "/combination.npy")
	c.Check(err, check.IsNil)
}

func (s *computeSuite) TestZScore(c *check.C) {
	exited := (&computer{}).RunCommand("compute", []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-groups", s.tmpdir + "/groups.tsv",
		"-method", "median-zscore",
		"-samplings", "500",
		"-seed", "2",
		"-output-dir", s.tmpdir,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	header, comb := readCombination(c, s.tmpdir+"/combination.tsv")
	c.Check(header, check.DeepEquals, []string{"ID", "N", "SLICES", "ZSCORE", "PVALUE", "QVALUE"})
	c.Check(comb["HIGH"].values[0] > 0, check.Equals, true)
	c.Check(comb["LOW"].values[0] < 0, check.Equals, true)
	c.Check(comb["HIGH"].values[1] < comb["LOW"].values[1], check.Equals, true)
}

// Without a groups file every row is its own group, and a single
// score per slice is enough to be tested.
func (s *computeSuite) TestRowGroups(c *check.C) {
	exited := (&computer{}).RunCommand("compute", []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-samplings", "500",
		"-seed", "1",
		"-output-dir", s.tmpdir,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	header, comb := readCombination(c, s.tmpdir+"/combination.tsv")
	c.Check(header, check.DeepEquals, []string{"ID", "N", "SLICES", "PVALUE", "QVALUE"})
	c.Check(comb, check.HasLen, 30)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("r%d", i)
		line := comb[id]
		c.Check(line.n, check.Equals, 1, check.Commentf("%s", id))
		if i == 3 {
			// r3 has no score in slice B
			c.Check(line.slices, check.Equals, 1)
		} else {
			c.Check(line.slices, check.Equals, 2, check.Commentf("%s", id))
		}
		c.Check(line.values[0] == line.values[0], check.Equals, true, check.Commentf("%s p-value is nan", id))
	}
	c.Check(comb["r29"].values[0] < comb["r0"].values[0], check.Equals, true)

	// an explicit -min-size still applies
	exited = (&computer{}).RunCommand("compute", []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-samplings", "100",
		"-seed", "1",
		"-min-size", "2",
		"-output-dir", s.tmpdir,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	_, comb = readCombination(c, s.tmpdir+"/combination.tsv")
	c.Check(comb["r0"].slices, check.Equals, 0)
}

func (s *computeSuite) TestRandomSeed(c *check.C) {
	seen := map[uint64]bool{}
	for i := 0; i < 4; i++ {
		seed := randomSeed()
		c.Check(seed, check.Not(check.Equals), uint64(0))
		seen[seed] = true
	}
	c.Check(seen, check.HasLen, 4)
}

// Computing each batch separately and merging with "combine" gives
// the same result as a single run.
func (s *computeSuite) TestBatchesThenCombine(c *check.C) {
	common := []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-groups", s.tmpdir + "/groups.tsv",
		"-method", "median-empirical",
		"-samplings", "300",
		"-seed", "77",
		"-threads", "2",
		"-output-dir", s.tmpdir,
	}
	exited := (&computer{}).RunCommand("compute", append([]string{"-batches=2"}, common...), nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	for batch := 0; batch < 2; batch++ {
		exited = (&computer{}).RunCommand("compute", append([]string{"-batches=2", fmt.Sprintf("-batch=%d", batch)}, common...), nil, os.Stderr, os.Stderr)
		c.Assert(exited, check.Equals, 0)
	}
	part0, err := os.ReadFile(s.tmpdir + "/slices-0000.tsv")
	c.Assert(err, check.IsNil)
	c.Check(strings.HasPrefix(string(part0), "ID\tN\tA\n"), check.Equals, true)

	var stdout bytes.Buffer
	exited = (&combiner{}).RunCommand("combine", []string{
		"-method", "median-empirical",
		s.tmpdir + "/slices-0000.tsv",
		s.tmpdir + "/slices-0001.tsv",
	}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	full, err := os.ReadFile(s.tmpdir + "/combination.tsv")
	c.Assert(err, check.IsNil)
	c.Check(stdout.String(), check.Equals, string(full))
}

func (s *computeSuite) TestCombineMismatchedTables(c *check.C) {
	c.Assert(os.WriteFile(s.tmpdir+"/a.tsv", []byte("ID\tN\tA\nG1\t2\t0.5\nG2\t2\t0.1\n"), 0644), check.IsNil)
	c.Assert(os.WriteFile(s.tmpdir+"/b.tsv", []byte("ID\tN\tB\nG2\t2\t0.5\nG1\t2\t0.1\n"), 0644), check.IsNil)
	c.Assert(os.WriteFile(s.tmpdir+"/c.tsv", []byte("ID\tN\tA\nG1\t2\t0.5\nG2\t2\t0.1\n"), 0644), check.IsNil)
	var stderr bytes.Buffer
	exited := (&combiner{}).RunCommand("combine", []string{"-method", "mean-empirical", s.tmpdir + "/a.tsv", s.tmpdir + "/b.tsv"}, nil, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `(?ms).*shape mismatch: slice table 1 group 0 is "G2".*`)

	stderr.Reset()
	exited = (&combiner{}).RunCommand("combine", []string{"-method", "mean-empirical", s.tmpdir + "/a.tsv", s.tmpdir + "/c.tsv"}, nil, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `(?ms).*slice "A" appears in more than one table.*`)
}

func (s *computeSuite) TestUnknownMethod(c *check.C) {
	var stderr bytes.Buffer
	exited := (&computer{}).RunCommand("compute", []string{
		"-i", s.tmpdir + "/scores.tsv",
		"-method", "mode-empirical",
	}, nil, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `unknown method "mode-empirical" \(available: mean-empirical, mean-zscore, median-empirical, median-zscore\)\n`)
}

func (s *computeSuite) TestListMethods(c *check.C) {
	var stdout bytes.Buffer
	exited := (&listMethods{}).RunCommand("methods", nil, nil, &stdout, os.Stderr)
	c.Check(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, "mean-empirical\nmean-zscore\nmedian-empirical\nmedian-zscore\n")
}
