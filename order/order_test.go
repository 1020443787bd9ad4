// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/aclements/go-gg/table"
)

func TestSortGroup(t *testing.T) {
	tab := new(table.Builder).
		Add("group", []string{"a", "b", "c", "a"}).
		Add("y", []float64{1, 2, 3, 2}).
		Done()

	for _, test := range []struct {
		ascending bool
		want      Categories
	}{
		// Sums are a=3, b=2, c=3. Ties keep first appearance.
		{true, Categories{{"a", 1}, {"b", 0}, {"c", 2}, {"a", 1}}},
		{false, Categories{{"a", 0}, {"b", 2}, {"c", 1}, {"a", 0}}},
	} {
		got, err := SortGroup(tab, "group", "y", test.ascending)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got.Column("group")) {
			t.Errorf("ascending=%v: want %v; got %v", test.ascending, test.want, got.Column("group"))
		}
	}
}

func TestSortGroupStable(t *testing.T) {
	// Ties keep the existing category order.
	tab := new(table.Builder).
		Add("group", Categories{{"a", 1}, {"b", 2}, {"c", 0}}).
		Add("y", []int{5, 5, 5}).
		Done()
	got, err := SortGroup(tab, "group", "y", true)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []string{"c", "a", "b"}, Levels(got.Column("group")); !reflect.DeepEqual(want, got) {
		t.Errorf("want levels %v; got %v", want, got)
	}
}

func TestSortGroupNaN(t *testing.T) {
	tab := new(table.Builder).
		Add("group", []int{10, 20, 10}).
		Add("y", []float64{math.NaN(), 1, 2}).
		Done()
	got, err := SortGroup(tab, "group", "y", false)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []string{"10", "20"}, Levels(got.Column("group")); !reflect.DeepEqual(want, got) {
		t.Errorf("want levels %v; got %v", want, got)
	}
}

func TestSortGroupAbsent(t *testing.T) {
	tab := new(table.Builder).Add("y", []float64{1}).Done()
	got, err := SortGroup(tab, "group", "y", true)
	if err != nil || got != tab {
		t.Errorf("want unchanged table; got %v, %v", got, err)
	}

	tab = new(table.Builder).Add("group", []string{"a"}).Add("s", []string{"x"}).Done()
	if _, err := SortGroup(tab, "group", "s", true); err == nil {
		t.Errorf("want error for non-numeric value column")
	}
	if _, err := SortGroup(tab, "group", "nosuch", true); err == nil {
		t.Errorf("want error for unknown value column")
	}
}

func TestSortRoles(t *testing.T) {
	tab := new(table.Builder).
		Add("x", []string{"p", "q", "p", "q"}).
		Add("group", []string{"g1", "g1", "g2", "g2"}).
		Add("facet_x", []string{"f1", "f2", "f2", "f2"}).
		Add("y", []float64{1, 10, 2, 20}).
		Done()
	got, err := SortRoles(tab, "y")
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		col  string
		want []string
	}{
		{"x", []string{"q", "p"}},         // p=3, q=30, descending
		{"group", []string{"g1", "g2"}},   // g1=11, g2=22, ascending
		{"facet_x", []string{"f2", "f1"}}, // f1=1, f2=32, descending
	} {
		if got := Levels(got.Column(test.col)); !reflect.DeepEqual(test.want, got) {
			t.Errorf("%s: want levels %v; got %v", test.col, test.want, got)
		}
	}

	// A numeric x is left alone.
	tab = new(table.Builder).Add("x", []float64{2, 1}).Add("y", []float64{1, 2}).Done()
	got, err = SortRoles(tab, "y")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Column("x").([]float64); !ok {
		t.Errorf("numeric x converted to %T", got.Column("x"))
	}
}

func TestCategoriesSort(t *testing.T) {
	cats := Categories{{"b", 1}, {"c", 2}, {"a", 0}}
	sort.Sort(cats)
	if want := (Categories{{"a", 0}, {"b", 1}, {"c", 2}}); !reflect.DeepEqual(want, cats) {
		t.Errorf("want %v; got %v", want, cats)
	}
	if !IsCategorical(cats) || !IsCategorical([]bool{}) || IsCategorical([]int{}) {
		t.Errorf("IsCategorical misclassified a column")
	}
}
