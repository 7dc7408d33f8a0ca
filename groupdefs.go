// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bbglab/oncodrivefm/signif"
)

// readGroupDefs reads "GROUP<TAB>ROW" lines. Groups are returned in
// order of first appearance, members in file order. A header line
// whose first field is "GROUP" (any case) is skipped, as are blank
// lines and "#" comments.
func readGroupDefs(rdr io.Reader, fnm string) ([]signif.GroupDef, error) {
	var defs []signif.GroupDef
	index := map[string]int{}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s line %d: %d fields < 2: %q", fnm, lineNum, len(fields), line)
		}
		if lineNum == 1 && strings.EqualFold(fields[0], "GROUP") {
			continue
		}
		group, member := fields[0], fields[1]
		g, ok := index[group]
		if !ok {
			g = len(defs)
			index[group] = g
			defs = append(defs, signif.GroupDef{Name: group})
		}
		defs[g].Members = append(defs[g].Members, member)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return defs, nil
}

func loadGroupDefs(fnm string) ([]signif.GroupDef, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readGroupDefs(f, fnm)
}

// rowGroupDefs returns one single-member group per matrix row, for
// runs without a groups file.
func rowGroupDefs(m *LabeledMatrix) []signif.GroupDef {
	defs := make([]signif.GroupDef, len(m.RowNames))
	for i, name := range m.RowNames {
		defs[i] = signif.GroupDef{Name: name, Members: []string{name}}
	}
	return defs
}
