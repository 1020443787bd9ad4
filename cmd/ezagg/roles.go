// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/aclements/go-ezplot/agg"
	"github.com/kballard/go-shellquote"
)

// parseRole parses a role flag value. The value is split into words
// using shell quoting rules and each word is one expression.
func parseRole(name, val string) (agg.Role, error) {
	words, err := shellquote.Split(val)
	if err != nil {
		return agg.Role{}, fmt.Errorf("role %s: %w", name, err)
	}
	if len(words) == 0 {
		return agg.Role{}, fmt.Errorf("role %s: no expressions", name)
	}
	if len(words) == 1 {
		return agg.Scalar(name, words[0]), nil
	}
	return agg.Vector(name, words...), nil
}
