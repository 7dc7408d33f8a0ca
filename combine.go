// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bbglab/oncodrivefm/signif"
	log "github.com/sirupsen/logrus"
)

// combiner merges slice tables written by separate "compute -batch=N"
// runs and computes the combined significance of each group.
type combiner struct{}

func (cmd *combiner) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	method := flags.String("method", "median-empirical", "significance `method` used to compute the slice tables")
	outputFilename := flags.String("o", "-", "output `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() == 0 {
		err = errors.New("no slice tables given")
		return 2
	}
	test, ok := signif.Lookup(*method)
	if !ok {
		err = fmt.Errorf("unknown method %q (available: %s)", *method, strings.Join(signif.MethodNames(), ", "))
		return 2
	}

	var tables []*sliceTable
	for _, fnm := range flags.Args() {
		var st *sliceTable
		st, err = loadSliceTable(fnm)
		if err != nil {
			return 1
		}
		tables = append(tables, st)
	}
	merged, err := mergeSliceTables(tables)
	if err != nil {
		return 1
	}
	log.Infof("merged %d slice tables: %d slices, %d groups", len(tables), len(merged.Slices), len(merged.IDs))

	results := signif.NewResults(len(merged.Slices), len(merged.IDs))
	for s, values := range merged.Values {
		if err = results.Fill(s, values); err != nil {
			return 1
		}
	}
	comb, err := test.Combine(results)
	if err != nil {
		return 1
	}
	if *outputFilename == "-" {
		err = writeCombination(stdout, merged.IDs, merged.N, comb)
	} else {
		err = writeFile(*outputFilename, func(w io.Writer) error {
			return writeCombination(w, merged.IDs, merged.N, comb)
		})
	}
	if err != nil {
		return 1
	}
	return 0
}

func loadSliceTable(fnm string) (*sliceTable, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSliceTable(f, fnm)
}

// mergeSliceTables concatenates the slice columns of tables that
// list the same groups in the same order.
func mergeSliceTables(tables []*sliceTable) (*sliceTable, error) {
	if len(tables) == 0 {
		return nil, errors.New("no slice tables")
	}
	merged := &sliceTable{IDs: tables[0].IDs, N: tables[0].N}
	seen := map[string]bool{}
	for i, st := range tables {
		if len(st.IDs) != len(merged.IDs) {
			return nil, fmt.Errorf("%w: slice table %d has %d groups, table 0 has %d", signif.ErrShape, i, len(st.IDs), len(merged.IDs))
		}
		for g, id := range st.IDs {
			if id != merged.IDs[g] {
				return nil, fmt.Errorf("%w: slice table %d group %d is %q, table 0 has %q", signif.ErrShape, i, g, id, merged.IDs[g])
			}
		}
		for s, name := range st.Slices {
			if seen[name] {
				return nil, fmt.Errorf("slice %q appears in more than one table", name)
			}
			seen[name] = true
			merged.Slices = append(merged.Slices, name)
			merged.Values = append(merged.Values, st.Values[s])
		}
	}
	return merged, nil
}
