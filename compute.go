// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"strings"
	"time"

	"github.com/bbglab/oncodrivefm/signif"
	log "github.com/sirupsen/logrus"
)

type computer struct {
	batchArgs
	test      signif.Test
	minSize   int
	samplings int
	seed      uint64
	threads   int

	matrix  *LabeledMatrix
	groups  *signif.GroupMapping
	results *signif.Results
}

func (cmd *computer) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if errors.Is(err, errUsage) {
		return 2
	} else if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage error")

func (cmd *computer) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	inputFilename := flags.String("i", "", "score matrix `file` (.tsv, .tsv.gz, or .npy)")
	rowNamesFilename := flags.String("row-names", "", "row names `file`, one per line (required for .npy input)")
	sliceNames := flags.String("slice-names", "", "comma-separated slice `names` for .npy columns")
	selectSlices := flags.String("slices", "", "only use these comma-separated `slices`, in this order")
	groupsFilename := flags.String("groups", "", "group definitions tsv `file` (GROUP<tab>ROW); default: one group per row")
	method := flags.String("method", "median-empirical", "significance `method`: "+strings.Join(signif.MethodNames(), ", "))
	outputDir := flags.String("output-dir", ".", "output `directory`")
	writeNpy := flags.Bool("numpy", false, "also write combination.npy")
	flags.IntVar(&cmd.minSize, "min-size", 2, "skip groups with fewer than `N` scores in a slice (without -groups the default is 1)")
	flags.IntVar(&cmd.samplings, "samplings", 10000, "number of background samples per group size")
	flags.Uint64Var(&cmd.seed, "seed", 0, "random seed (0 = choose one and log it)")
	flags.IntVar(&cmd.threads, "threads", 4, "number of concurrent sampling threads per batch")
	cmd.batchArgs.Flags(flags)
	err := flags.Parse(args)
	if err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return errUsage
	} else if flags.NArg() > 0 {
		return fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
	}
	if *inputFilename == "" {
		return errors.New("missing required -i argument")
	}
	if err := cmd.batchArgs.Check(); err != nil {
		return err
	}
	if cmd.samplings < 1 {
		return fmt.Errorf("invalid -samplings=%d, must be >= 1", cmd.samplings)
	}
	if *groupsFilename == "" && !flagIsSet(flags, "min-size") {
		// one group per row: each group has at most one score per slice
		cmd.minSize = 1
	}
	if cmd.minSize < 1 {
		cmd.minSize = 1
	}

	var ok bool
	cmd.test, ok = signif.Lookup(*method)
	if !ok {
		return fmt.Errorf("unknown method %q (available: %s)", *method, strings.Join(signif.MethodNames(), ", "))
	}
	if cmd.seed == 0 {
		cmd.seed = randomSeed()
		log.Infof("using random seed %d", cmd.seed)
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	log.Infof("reading %s", *inputFilename)
	cmd.matrix, err = loadScoreMatrix(*inputFilename, *rowNamesFilename, splitList(*sliceNames))
	if err != nil {
		return err
	}
	if sel := splitList(*selectSlices); sel != nil {
		if err = cmd.matrix.SelectSlices(sel); err != nil {
			return err
		}
	}
	log.WithFields(log.Fields{
		"rows":   len(cmd.matrix.RowNames),
		"slices": cmd.matrix.Slices,
	}).Info("loaded score matrix")

	var defs []signif.GroupDef
	if *groupsFilename == "" {
		defs = rowGroupDefs(cmd.matrix)
	} else {
		log.Infof("reading %s", *groupsFilename)
		defs, err = loadGroupDefs(*groupsFilename)
		if err != nil {
			return err
		}
	}
	cmd.groups, err = signif.NewGroupMapping(cmd.matrix.RowIndex, defs)
	if err != nil {
		return err
	}
	log.Infof("resolved %d groups", cmd.groups.Len())

	cmd.results = signif.NewResults(len(cmd.matrix.Slices), cmd.groups.Len())
	done, err := cmd.RunBatches(context.Background(), cmd.runBatch)
	if err != nil {
		return err
	}
	log.Infof("computed slices %q", done)

	sizes := make([]int, cmd.groups.Len())
	for g, rows := range cmd.groups.Rows {
		sizes[g] = len(rows)
	}
	if cmd.batch >= 0 {
		// Partial run: write only this batch's slices, for a
		// later "combine".
		st := cmd.sliceTable(sizes, cmd.Slice(cmd.matrix.Slices))
		return writeFile(fmt.Sprintf("%s/slices-%04d.tsv", *outputDir, cmd.batch), st.Write)
	}
	st := cmd.sliceTable(sizes, cmd.matrix.Slices)
	if err = writeFile(*outputDir+"/slices.tsv", st.Write); err != nil {
		return err
	}
	comb, err := cmd.test.Combine(cmd.results)
	if err != nil {
		return err
	}
	err = writeFile(*outputDir+"/combination.tsv", func(w io.Writer) error {
		return writeCombination(w, cmd.groups.Names, sizes, comb)
	})
	if err != nil {
		return err
	}
	if *writeNpy {
		return writeCombinationNumpy(*outputDir+"/combination.npy", comb)
	}
	return nil
}

// runBatch computes every slice in the given batch. Each slice fills
// its own row of cmd.results.
func (cmd *computer) runBatch(ctx context.Context, batch int) (string, error) {
	names := cmd.Partition(cmd.matrix.Slices, batch)
	for _, name := range names {
		slice := cmd.sliceIndex(name)
		if err := cmd.computeSlice(ctx, slice); err != nil {
			return "", fmt.Errorf("slice %q: %w", name, err)
		}
	}
	return strings.Join(names, ","), nil
}

func flagIsSet(flags *flag.FlagSet, name string) (set bool) {
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return
}

// randomSeed returns a nonzero seed from the system entropy source,
// falling back to the clock.
func randomSeed() uint64 {
	var buf [8]byte
	seed := uint64(time.Now().UnixNano())
	if _, err := cryptorand.Read(buf[:]); err == nil {
		seed = binary.LittleEndian.Uint64(buf[:])
	}
	if seed == 0 {
		seed = 1
	}
	return seed
}

func (cmd *computer) computeSlice(ctx context.Context, slice int) error {
	name := cmd.matrix.Slices[slice]
	ngroups := cmd.groups.Len()
	observed := make([]float64, ngroups)
	present := make([]int, ngroups)
	for g, rows := range cmd.groups.Rows {
		vals := cmd.matrix.Values(slice, rows)
		present[g] = signif.CountPresent(vals)
		if present[g] < cmd.minSize {
			observed[g] = signif.Missing
			present[g] = 0
			continue
		}
		observed[g] = cmd.test.Observed(vals)
	}
	smp := sampler{
		test:      cmd.test,
		samplings: cmd.samplings,
		seed:      cmd.seed,
		threads:   cmd.threads,
	}
	background, err := smp.Background(ctx, name, cmd.matrix.Pool(slice), present)
	if err != nil {
		return err
	}
	samples := make([][]float64, ngroups)
	for g, n := range present {
		samples[g] = background[n]
	}
	values, err := cmd.test.CompareAll(observed, samples)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"slice":  name,
		"tested": len(present) - countZero(present),
		"groups": ngroups,
	}).Info("slice done")
	return cmd.results.Fill(slice, values)
}

func (cmd *computer) sliceIndex(name string) int {
	for i, s := range cmd.matrix.Slices {
		if s == name {
			return i
		}
	}
	panic("bug: slice not found: " + name)
}

func (cmd *computer) sliceTable(sizes []int, names []string) *sliceTable {
	st := &sliceTable{
		IDs:    cmd.groups.Names,
		N:      sizes,
		Slices: names,
	}
	for _, name := range names {
		st.Values = append(st.Values, cmd.results.Row(cmd.sliceIndex(name)))
	}
	return st
}

func countZero(a []int) int {
	n := 0
	for _, x := range a {
		if x == 0 {
			n++
		}
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
