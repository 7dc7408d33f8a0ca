// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bbglab/oncodrivefm/signif"
	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// LabeledMatrix holds one score per row per slice. Missing scores are
// signif.Missing.
type LabeledMatrix struct {
	RowNames []string
	RowIndex map[string]int
	Slices   []string
	// Data[row][slice]
	Data [][]float64
}

// Values returns the scores of the given rows in one slice.
func (m *LabeledMatrix) Values(slice int, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.Data[row][slice]
	}
	return out
}

// Pool returns the non-missing scores of one slice, in row order.
func (m *LabeledMatrix) Pool(slice int) []float64 {
	out := make([]float64, 0, len(m.Data))
	for _, row := range m.Data {
		if !signif.IsMissing(row[slice]) {
			out = append(out, row[slice])
		}
	}
	return out
}

// SelectSlices keeps only the named slices, in the given order.
func (m *LabeledMatrix) SelectSlices(names []string) error {
	if err := checkUnique(names); err != nil {
		return err
	}
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = -1
		for j, have := range m.Slices {
			if have == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return fmt.Errorf("slice %q not found in matrix (have %q)", name, m.Slices)
		}
	}
	for r, row := range m.Data {
		sel := make([]float64, len(idx))
		for i, j := range idx {
			sel[i] = row[j]
		}
		m.Data[r] = sel
	}
	m.Slices = append([]string(nil), names...)
	return nil
}

func (m *LabeledMatrix) addRow(name string, scores []float64) error {
	if _, dup := m.RowIndex[name]; dup {
		return fmt.Errorf("duplicate row ID %q", name)
	}
	m.RowIndex[name] = len(m.RowNames)
	m.RowNames = append(m.RowNames, name)
	m.Data = append(m.Data, scores)
	return nil
}

func checkUnique(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("duplicate slice name %q", name)
		}
		seen[name] = true
	}
	return nil
}

func parseScore(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "na", "nan", "-", "none":
		return signif.Missing, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("infinite score %q", s)
	}
	return f, nil
}

// readScoreTSV reads a tab-separated score table: a header line
// "ID<TAB>slice1<TAB>slice2...", then one line per row.
func readScoreTSV(rdr io.Reader, fnm string) (*LabeledMatrix, error) {
	m := &LabeledMatrix{RowIndex: map[string]int{}}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<26)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Split(string(bytes.TrimRight(line, "\r")), "\t")
		if m.Slices == nil {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%s line %d: header has %d fields, need ID and at least one slice", fnm, lineNum, len(fields))
			}
			m.Slices = fields[1:]
			if err := checkUnique(m.Slices); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", fnm, lineNum, err)
			}
			continue
		}
		if len(fields) != len(m.Slices)+1 {
			return nil, fmt.Errorf("%s line %d: %d fields, expected %d", fnm, lineNum, len(fields), len(m.Slices)+1)
		}
		scores := make([]float64, len(m.Slices))
		for i, s := range fields[1:] {
			f, err := parseScore(s)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: cannot parse score %q: %w", fnm, lineNum, s, err)
			}
			scores[i] = f
		}
		if err := m.addRow(fields[0], scores); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", fnm, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if m.Slices == nil {
		return nil, fmt.Errorf("%s: no header line", fnm)
	}
	return m, nil
}

// readScoreNumpy reads a 2-D rows × slices numpy array. Row names
// come from rowNames, one per line, and slice names from sliceNames.
func readScoreNumpy(rdr io.Reader, fnm string, rowNames []string, sliceNames []string) (*LabeledMatrix, error) {
	npy, err := gonpy.NewReader(rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if len(npy.Shape) != 2 {
		return nil, fmt.Errorf("%s: shape %v, need 2 dimensions", fnm, npy.Shape)
	}
	rows, cols := npy.Shape[0], npy.Shape[1]
	var data []float64
	switch npy.Dtype {
	case "f8":
		data, err = npy.GetFloat64()
	case "f4":
		var f32 []float32
		f32, err = npy.GetFloat32()
		data = make([]float64, len(f32))
		for i, f := range f32 {
			data[i] = float64(f)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %q", fnm, npy.Dtype)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if len(rowNames) != rows {
		return nil, fmt.Errorf("%s: %d rows, but %d row names", fnm, rows, len(rowNames))
	}
	if sliceNames == nil {
		for i := 0; i < cols; i++ {
			sliceNames = append(sliceNames, fmt.Sprintf("slice%d", i))
		}
	} else if len(sliceNames) != cols {
		return nil, fmt.Errorf("%s: %d columns, but %d slice names", fnm, cols, len(sliceNames))
	} else if err := checkUnique(sliceNames); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"filename":    fnm,
		"rows":        rows,
		"cols":        cols,
		"columnMajor": npy.ColumnMajor,
	}).Info("read numpy score matrix")
	m := &LabeledMatrix{RowIndex: map[string]int{}, Slices: sliceNames}
	for r := 0; r < rows; r++ {
		scores := make([]float64, cols)
		for c := range scores {
			if npy.ColumnMajor {
				scores[c] = data[c*rows+r]
			} else {
				scores[c] = data[r*cols+c]
			}
		}
		if err := m.addRow(rowNames[r], scores); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", fnm, r, err)
		}
	}
	return m, nil
}

func readLines(fnm string) ([]string, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// loadScoreMatrix reads a score matrix from fnm. Files ending in
// ".npy" need a row names file; anything else is read as TSV,
// decompressing if the name ends in ".gz".
func loadScoreMatrix(fnm, rowNamesFilename string, sliceNames []string) (*LabeledMatrix, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.HasSuffix(fnm, ".npy") || strings.HasSuffix(fnm, ".npy.gz") {
		if rowNamesFilename == "" {
			return nil, fmt.Errorf("%s: numpy input requires a row names file", fnm)
		}
		rowNames, err := readLines(rowNamesFilename)
		if err != nil {
			return nil, err
		}
		return readScoreNumpy(bufio.NewReader(f), fnm, rowNames, sliceNames)
	}
	m, err := readScoreTSV(f, fnm)
	if err != nil {
		return nil, err
	}
	return m, f.Close()
}
