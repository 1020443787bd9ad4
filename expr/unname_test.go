// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import "testing"

func TestUnname(t *testing.T) {
	for _, test := range []struct {
		in, name, expr string
	}{
		{"x", "x", "x"},
		{"a=b+c", "a", "b+c"},
		{"a==b", "a==b", "a==b"},
		{"a=b==c", "a", "b==c"},
		{" a =b + c ", "a", "b + c"},
		{"a = b", "a", "b"},
		{"a + b", "a+b", "a + b"},
		{"a=(b==c)&(d>=0)", "a", "(b==c)&(d>=0)"},
		{"a>=b", "a>=b", "a>=b"},
		{"ratio = x <= y", "ratio", "x <= y"},
		{"z=x**=y", "z", "x**=y"},
		{"a=b=c", "a", "b=c"},
		{".index", ".index", ".index"},
	} {
		name, expr, ok := Unname(test.in)
		if !ok || name != test.name || expr != test.expr {
			t.Errorf("Unname(%q) = %q, %q, %v; want %q, %q, true", test.in, name, expr, ok, test.name, test.expr)
		}
	}

	if name, expr, ok := Unname(""); ok || name != "" || expr != "" {
		t.Errorf("Unname(\"\") = %q, %q, %v; want \"\", \"\", false", name, expr, ok)
	}
}
