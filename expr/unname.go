// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"sort"
	"strings"
)

// opsWithEquals are the operators that contain an "=" but are not the
// naming "=" of a "name=expr" string.
var opsWithEquals = []string{"==", ">=", "<=", "!=", "+=", "-=", "*=", "/=", "**=", "%=", "//="}

// Unname splits a variable string of the form "name=expr" into a
// display name and the expression to evaluate.
//
// If s has no naming "=", s is both the name (with spaces removed)
// and the expression. Operators that contain "=", such as "==" or
// ">=", are never mistaken for the naming "=". The expression is
// trimmed of surrounding white space.
//
// Unname returns ok == false for the empty string.
func Unname(s string) (name, expr string, ok bool) {
	if s == "" {
		return "", "", false
	}
	name, expr = unname(s)
	return name, strings.TrimSpace(expr), true
}

func unname(s string) (name, expr string) {
	if !strings.Contains(s, "=") {
		return stripSpaces(s), s
	}

	var present []string
	for _, op := range opsWithEquals {
		if strings.Contains(s, op) {
			present = append(present, op)
		}
	}
	if len(present) == 0 {
		name, expr, _ = strings.Cut(s, "=")
		return stripSpaces(name), expr
	}

	// Mask the operators, longest first so "**=" is not split
	// into "*" and "*=".
	sort.SliceStable(present, func(i, j int) bool {
		return len(present[i]) > len(present[j])
	})
	masked := s
	for i, op := range present {
		masked = strings.ReplaceAll(masked, op, placeholder(i))
	}
	if !strings.Contains(masked, "=") {
		// Every "=" belongs to an operator.
		return stripSpaces(s), s
	}
	name, expr = unname(masked)
	for i, op := range present {
		name = strings.ReplaceAll(name, placeholder(i), op)
		expr = strings.ReplaceAll(expr, placeholder(i), op)
	}
	return name, expr
}

func placeholder(i int) string {
	return "\x00" + string(rune('A'+i)) + "\x00"
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
