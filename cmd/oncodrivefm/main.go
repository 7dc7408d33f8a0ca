// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/bbglab/oncodrivefm"

func main() {
	oncodrivefm.Main()
}
