// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type tag struct{ s string }

func (t tag) String() string { return t.s }

var nan = math.NaN()

func testTable() *table.Table {
	return new(table.Builder).
		Add("a", []int{1, 2, 3}).
		Add("b", []float64{0.5, nan, 2}).
		Add("s", []string{"x", "y", "x"}).
		Add("ok", []bool{true, false, true}).
		Add("iface", []interface{}{1.0, nil, 2}).
		Add("tag", []tag{{"hi"}, {"lo"}, {"hi"}}).
		Add("my col", []float64{10, 20, 30}).
		Done()
}

func TestEval(t *testing.T) {
	inf := math.Inf(1)
	tab := testTable()
	for _, test := range []struct {
		src  string
		want table.Slice
	}{
		{"a", []int{1, 2, 3}},
		{"3", []float64{3, 3, 3}},
		{"a + b", []float64{1.5, nan, 5}},
		{"a * 2", []float64{2, 4, 6}},
		{"a / 0", []float64{inf, inf, inf}},
		{"-a // 2", []float64{-1, -1, -2}},
		{"(a - 4) % 3", []float64{0, 1, 2}},
		{"2 ** 3 ** 2", []float64{512, 512, 512}},
		{"-2 ** 2", []float64{-4, -4, -4}},
		{"a > 1 & s == 'x'", []bool{false, false, true}},
		{"a > 1 and not ok", []bool{false, true, false}},
		{"a == 1 | ~ok", []bool{true, true, false}},
		{"b > 1", []bool{false, false, true}},
		{"s + \"z\"", []string{"xz", "yz", "xz"}},
		{"sqrt(a * a)", []float64{1, 2, 3}},
		{"`a` + 1", []float64{2, 3, 4}},
		{"`my col` / 10", []float64{1, 2, 3}},
		{"ok + 1", []float64{2, 1, 2}},
		{"floor(b)", []float64{0, nan, 2}},

		// Row-at-a-time fallback.
		{"iface", []interface{}{1.0, nil, 2}},
		{"iface * 2", []float64{2, nan, 4}},
		{"iface > 1", []bool{false, false, true}},
		{"tag == 'hi'", []bool{true, false, true}},
		{"tag + '!'", []string{"hi!", "lo!", "hi!"}},
	} {
		e, err := Parse(test.src)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.src, err)
			continue
		}
		got, err := e.Eval(tab)
		if err != nil {
			t.Errorf("%q: %v", test.src, err)
			continue
		}
		if diff := cmp.Diff(test.want, got, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", test.src, diff)
		}
	}
}

func TestEvalCopiesColumn(t *testing.T) {
	col := []int{1, 2, 3}
	tab := new(table.Builder).Add("a", col).Done()
	got, err := Column("a").Eval(tab)
	if err != nil {
		t.Fatal(err)
	}
	got.([]int)[0] = 100
	if col[0] != 1 {
		t.Errorf("modifying result changed input column")
	}
}

func TestEvalErrors(t *testing.T) {
	tab := testTable()
	for _, test := range []struct {
		src, want string
	}{
		{"s * 2", "want number, but s has type string"},
		{"nosuch + 1", "unknown column nosuch"},
		{"nosuch", "unknown column nosuch"},
		{"s < 1", "cannot compare"},
		{"ok < ok", "cannot order"},
	} {
		e, err := Parse(test.src)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.src, err)
			continue
		}
		_, err = e.Eval(tab)
		if err == nil {
			t.Errorf("%q: want error containing %q; got nil", test.src, test.want)
		} else if !strings.Contains(err.Error(), test.want) {
			t.Errorf("%q: want error containing %q; got %v", test.src, test.want, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"a +",
		"(a",
		"a == b == c",
		"foo(a)",
		"'abc",
		"`abc",
		"a $ b",
		"sqrt(a b)",
	} {
		_, err := Parse(src)
		if err == nil {
			t.Errorf("Parse(%q): want error; got nil", src)
			continue
		}
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Parse(%q): want *SyntaxError; got %T", src, err)
		}
	}
}

func TestColumns(t *testing.T) {
	e, err := Parse("a + b * a > log(`my col`)")
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []string{"a", "b", "my col"}, e.Columns(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v; got %v", want, got)
	}
	if _, ok := e.IsColumn(); ok {
		t.Errorf("IsColumn reported true for %s", e)
	}
	if name, ok := Column(".index").IsColumn(); !ok || name != ".index" {
		t.Errorf("Column(\".index\").IsColumn() = %q, %v", name, ok)
	}
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}
	e1, err := c.Parse("a + 1")
	if err != nil {
		t.Fatal(err)
	}
	e2, _ := c.Parse("a + 1")
	if e1 != e2 {
		t.Errorf("second Parse did not return cached expression")
	}
	c.Parse("b")
	c.Parse("c")
	if n := c.Len(); n != 2 {
		t.Errorf("want 2 cached expressions; got %d", n)
	}
	if _, err := c.Parse("a +"); err == nil {
		t.Errorf("want error for malformed expression")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				src := fmt.Sprintf("a * %d", (i+j)%6)
				if _, err := c.Parse(src); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if n := c.Len(); n != 4 {
		t.Errorf("want 4 cached expressions; got %d", n)
	}
}
