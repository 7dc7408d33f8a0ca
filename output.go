// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bbglab/oncodrivefm/signif"
	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// sliceTable is the per-slice significance of each group, as written
// by "compute" and read by "combine".
type sliceTable struct {
	IDs    []string
	N      []int
	Slices []string
	// Values[slice][group]
	Values [][]float64
}

func formatValue(v float64) string {
	if signif.IsMissing(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (st *sliceTable) Write(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "ID\tN\t%s\n", strings.Join(st.Slices, "\t"))
	for g, id := range st.IDs {
		fmt.Fprintf(bufw, "%s\t%d", id, st.N[g])
		for s := range st.Slices {
			bufw.WriteByte('\t')
			bufw.WriteString(formatValue(st.Values[s][g]))
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

func readSliceTable(rdr io.Reader, fnm string) (*sliceTable, error) {
	st := &sliceTable{}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<26)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if st.Slices == nil {
			if len(fields) < 2 || fields[0] != "ID" || fields[1] != "N" {
				return nil, fmt.Errorf("%s line %d: header does not look right: %q", fnm, lineNum, line)
			}
			st.Slices = fields[2:]
			st.Values = make([][]float64, len(st.Slices))
			continue
		}
		if len(fields) != len(st.Slices)+2 {
			return nil, fmt.Errorf("%s line %d: %d fields, expected %d", fnm, lineNum, len(fields), len(st.Slices)+2)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: N: %w", fnm, lineNum, err)
		}
		st.IDs = append(st.IDs, fields[0])
		st.N = append(st.N, n)
		for s, f := range fields[2:] {
			v, err := parseScore(f)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: cannot parse value %q: %w", fnm, lineNum, f, err)
			}
			st.Values[s] = append(st.Values[s], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if st.Slices == nil {
		return nil, fmt.Errorf("%s: no header line", fnm)
	}
	return st, nil
}

// writeCombination writes one line per group:
// ID, N, SLICES, then the method's output columns.
func writeCombination(w io.Writer, ids []string, sizes []int, comb *signif.Combination) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "ID\tN\tSLICES\t%s\n", strings.Join(comb.Columns(), "\t"))
	for g, id := range ids {
		fmt.Fprintf(bufw, "%s\t%d\t%d", id, sizes[g], comb.Slices[g])
		for _, v := range comb.Values(g) {
			bufw.WriteByte('\t')
			bufw.WriteString(formatValue(v))
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

func writeFile(fnm string, write func(io.Writer) error) error {
	f, err := os.Create(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	log.Infof("writing %s", fnm)
	if err = write(f); err != nil {
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

// writeCombinationNumpy writes a groups × columns float64 array, with
// columns in comb.Columns() order.
func writeCombinationNumpy(fnm string, comb *signif.Combination) error {
	rows, cols := comb.Len(), len(comb.Columns())
	out := make([]float64, 0, rows*cols)
	for g := 0; g < rows; g++ {
		out = append(out, comb.Values(g)...)
	}
	output, err := os.Create(fnm)
	if err != nil {
		return err
	}
	defer output.Close()
	bufw := bufio.NewWriterSize(output, 1<<20)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"filename": fnm,
		"rows":     rows,
		"cols":     cols,
		"columns":  comb.Columns(),
	}).Infof("writing numpy: %s", fnm)
	npw.Shape = []int{rows, cols}
	if err = npw.WriteFloat64(out); err != nil {
		return fmt.Errorf("WriteFloat64: %w", err)
	}
	if err = bufw.Flush(); err != nil {
		return err
	}
	return output.Close()
}
