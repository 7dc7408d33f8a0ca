// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package oncodrivefm

import (
	"strings"

	"github.com/bbglab/oncodrivefm/signif"
	"gopkg.in/check.v1"
)

type groupDefsSuite struct{}

var _ = check.Suite(&groupDefsSuite{})

func (s *groupDefsSuite) TestRead(c *check.C) {
	defs, err := readGroupDefs(strings.NewReader(`GROUP	ROW
TP53	ENST01
KRAS	ENST05
# comment

TP53	ENST02	extra
KRAS	ENST04
PTEN	ENST09
`), "groups.tsv")
	c.Assert(err, check.IsNil)
	c.Check(defs, check.DeepEquals, []signif.GroupDef{
		{Name: "TP53", Members: []string{"ENST01", "ENST02"}},
		{Name: "KRAS", Members: []string{"ENST05", "ENST04"}},
		{Name: "PTEN", Members: []string{"ENST09"}},
	})

	_, err = readGroupDefs(strings.NewReader("TP53\n"), "groups.tsv")
	c.Check(err, check.ErrorMatches, `groups.tsv line 1: 1 fields < 2.*`)
}

func (s *groupDefsSuite) TestRowGroups(c *check.C) {
	m, err := readScoreTSV(strings.NewReader("ID\tA\ng1\t1\ng2\t2\n"), "test.tsv")
	c.Assert(err, check.IsNil)
	defs := rowGroupDefs(m)
	c.Check(defs, check.DeepEquals, []signif.GroupDef{
		{Name: "g1", Members: []string{"g1"}},
		{Name: "g2", Members: []string{"g2"}},
	})
	gm, err := signif.NewGroupMapping(m.RowIndex, defs)
	c.Assert(err, check.IsNil)
	c.Check(gm.Rows, check.DeepEquals, [][]int{{0}, {1}})
}
