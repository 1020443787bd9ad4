// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package order assigns display orders to categorical columns.
//
// An ordered categorical column is a Categories slice. Because
// Categories implements sort.Interface, go-gg's ordinal scales place
// its values by rank rather than alphabetically.
package order

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// A Category is a value of an ordered categorical column.
type Category struct {
	Label string
	Rank  int
}

func (c Category) String() string {
	return c.Label
}

// Categories is an ordered categorical column. It sorts by rank.
type Categories []Category

func (s Categories) Len() int {
	return len(s)
}

func (s Categories) Less(i, j int) bool {
	return s[i].Rank < s[j].Rank
}

func (s Categories) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// IsCategorical reports whether col holds discrete categories rather
// than quantities: strings, bools, Categories, or arbitrary values in
// an []interface{}.
func IsCategorical(col table.Slice) bool {
	if _, ok := col.(Categories); ok {
		return true
	}
	switch reflect.TypeOf(col).Elem().Kind() {
	case reflect.String, reflect.Bool, reflect.Interface:
		return true
	}
	return false
}

// Levels returns the distinct labels of col. For a Categories column,
// they are in rank order. Otherwise, they are in order of first
// appearance.
func Levels(col table.Slice) []string {
	var levels []string
	ls, _ := index(col)
	for _, l := range ls {
		levels = append(levels, l.label)
	}
	return levels
}

type level struct {
	label string
	base  int // position in the base order
	sum   float64
}

// index returns the distinct labels of col in base order and the
// level of each row.
func index(col table.Slice) ([]*level, []*level) {
	var levels []*level
	byLabel := make(map[string]*level)
	rows := make([]*level, 0)
	add := func(label string, base int) *level {
		l, ok := byLabel[label]
		if !ok {
			l = &level{label: label, base: base}
			byLabel[label] = l
			levels = append(levels, l)
		}
		return l
	}

	if cats, ok := col.(Categories); ok {
		for _, c := range cats {
			rows = append(rows, add(c.Label, c.Rank))
		}
	} else {
		v := reflect.ValueOf(col)
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, add(fmt.Sprint(v.Index(i).Interface()), len(levels)))
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].base < levels[j].base
	})
	return levels, rows
}

// SortGroup replaces column groupCol of t with a Categories column
// whose categories are ranked by the sum of valueCol within each
// category. NaN values of valueCol are ignored. Categories with equal
// sums keep their existing order: their rank if groupCol is already a
// Categories column, and otherwise the order of first appearance.
//
// If t has no column groupCol, SortGroup returns t unchanged.
func SortGroup(t *table.Table, groupCol, valueCol string, ascending bool) (*table.Table, error) {
	col := t.Column(groupCol)
	if col == nil {
		return t, nil
	}
	vcol := t.Column(valueCol)
	if vcol == nil {
		return nil, fmt.Errorf("unknown value column %s", valueCol)
	}
	var vals []float64
	if err := convert(&vals, vcol); err != nil {
		return nil, fmt.Errorf("value column %s: %w", valueCol, err)
	}

	levels, rows := index(col)
	for i, l := range rows {
		if !math.IsNaN(vals[i]) {
			l.sum += vals[i]
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		if ascending {
			return levels[i].sum < levels[j].sum
		}
		return levels[i].sum > levels[j].sum
	})
	for rank, l := range levels {
		l.base = rank
	}

	cats := make(Categories, len(rows))
	for i, l := range rows {
		cats[i] = Category{l.label, l.base}
	}
	return table.NewBuilder(t).Add(groupCol, cats).Done(), nil
}

// SortRoles orders the conventional role columns of an aggregated
// table by the sums of valueCol: x descending if it is categorical,
// group ascending, and facet_x and facet_y descending. Absent columns
// are skipped.
func SortRoles(t *table.Table, valueCol string) (*table.Table, error) {
	var err error
	if x := t.Column("x"); x != nil && IsCategorical(x) {
		if t, err = SortGroup(t, "x", valueCol, false); err != nil {
			return nil, err
		}
	}
	for _, role := range []struct {
		name      string
		ascending bool
	}{
		{"group", true},
		{"facet_x", false},
		{"facet_y", false},
	} {
		if t, err = SortGroup(t, role.name, valueCol, role.ascending); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// convert converts a numeric or bool column to []float64.
func convert(dst *[]float64, col table.Slice) (err error) {
	if bs, ok := col.([]bool); ok {
		*dst = make([]float64, len(bs))
		for i, b := range bs {
			if b {
				(*dst)[i] = 1
			}
		}
		return nil
	}
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("cannot sum values of type %s", reflect.TypeOf(col).Elem())
		}
	}()
	slice.Convert(dst, col)
	return nil
}
