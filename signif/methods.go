// Copyright (C) The OncodriveFM Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package signif

import (
	"sort"
	"strings"
)

type variant struct {
	est   Estimator
	model Model
}

// registry maps each method name to its estimator and model.
var registry = func() map[string]variant {
	reg := map[string]variant{}
	for _, est := range estimators {
		for _, model := range models {
			reg[est.String()+"-"+model.String()] = variant{est, model}
		}
	}
	return reg
}()

// Lookup returns a new Test for the named method. Names are
// case-insensitive. If the name is unknown, ok is false.
func Lookup(name string) (t Test, ok bool) {
	v, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return New(v.est, v.model), true
}

// MethodNames returns the registered method names in sorted order.
func MethodNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
