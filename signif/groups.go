// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"errors"
	"fmt"
)

// GroupDef names a group and lists the row names that belong to it.
type GroupDef struct {
	Name    string
	Members []string
}

// GroupMapping resolves group membership to matrix row indices. It
// is read-only after NewGroupMapping returns.
type GroupMapping struct {
	// Group names, in the order they were defined.
	Names []string
	// Group name => position in Names.
	Index map[string]int
	// Rows[g] lists the matrix row indices of the members of
	// group g that appear in the matrix, in definition order.
	Rows [][]int
}

// NewGroupMapping resolves each group's member names using rowIndex
// (matrix row name => row index). Member names that are not in
// rowIndex are skipped, so a group can resolve to an empty list.
func NewGroupMapping(rowIndex map[string]int, defs []GroupDef) (*GroupMapping, error) {
	if rowIndex == nil {
		return nil, errors.New("group mapping: nil row index")
	}
	gm := &GroupMapping{
		Names: make([]string, 0, len(defs)),
		Index: make(map[string]int, len(defs)),
		Rows:  make([][]int, 0, len(defs)),
	}
	for _, def := range defs {
		if _, dup := gm.Index[def.Name]; dup {
			return nil, fmt.Errorf("group mapping: duplicate group name %q", def.Name)
		}
		rows := make([]int, 0, len(def.Members))
		for _, name := range def.Members {
			if idx, ok := rowIndex[name]; ok {
				rows = append(rows, idx)
			}
		}
		gm.Index[def.Name] = len(gm.Names)
		gm.Names = append(gm.Names, def.Name)
		gm.Rows = append(gm.Rows, rows)
	}
	return gm, nil
}

// Len returns the number of groups.
func (gm *GroupMapping) Len() int {
	return len(gm.Names)
}
