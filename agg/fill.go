// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"github.com/aclements/go-gg/table"
)

// FillGroups returns t extended with a row for every combination of
// the distinct values of the groups columns that does not appear in
// t. The other columns of added rows are missing: NaN if the column is
// numeric, otherwise nil in an []interface{} column.
//
// If every combination already appears, FillGroups returns t.
// Otherwise, rows are ordered by combination, varying the last group
// column fastest, with values in order of first appearance. Rows of t
// that share a combination stay in their original order.
//
// The result has at least as many rows as the product of the number
// of distinct values in each group column.
func FillGroups(t *table.Table, groups ...string) (*table.Table, error) {
	return fillGroups(t, groups, 0, slog.Default())
}

// levels assigns each row of col the index of its value among the
// distinct values of col, in order of first appearance. It returns
// the row indexes and the row of the first appearance of each value.
func levels(col table.Slice) (idx []int, first []int) {
	v := reflect.ValueOf(col)
	idx = make([]int, v.Len())
	seen := make(map[interface{}]int)
	nanLevel := -1
	for i := range idx {
		e := v.Index(i)
		if isMissing(e) && e.Kind() != reflect.Ptr {
			// NaN is never equal to itself, so it can't be
			// a map key. All missing values share a level.
			if nanLevel < 0 {
				nanLevel = len(first)
				first = append(first, i)
			}
			idx[i] = nanLevel
			continue
		}
		key := e.Interface()
		l, ok := seen[key]
		if !ok {
			l = len(first)
			seen[key] = l
			first = append(first, i)
		}
		idx[i] = l
	}
	return idx, first
}

func fillGroups(t *table.Table, groups []string, max int, log *slog.Logger) (*table.Table, error) {
	if len(groups) == 0 {
		return t, nil
	}

	// Index each group column and compute the product size.
	idxs := make([][]int, len(groups))
	firsts := make([][]int, len(groups))
	size := 1
	for i, name := range groups {
		col := t.Column(name)
		if col == nil {
			return nil, fmt.Errorf("unknown group column %s", name)
		}
		idxs[i], firsts[i] = levels(col)
		n := len(firsts[i])
		if n == 0 {
			return t, nil
		}
		if size > math.MaxInt/n {
			return nil, fmt.Errorf("%w: product overflows", ErrFillTooLarge)
		}
		size *= n
	}
	if max > 0 && size > max {
		return nil, fmt.Errorf("%w: %d combinations exceeds limit of %d", ErrFillTooLarge, size, max)
	}
	log.Debug("filling groups", "groups", groups, "combinations", size, "rows", t.Len())

	// Map each combination to the rows that have it, using a
	// mixed-radix key with the first group most significant.
	byKey := make(map[int][]int)
	for row := 0; row < t.Len(); row++ {
		key := 0
		for i := range groups {
			key = key*len(firsts[i]) + idxs[i][row]
		}
		byKey[key] = append(byKey[key], row)
	}
	if len(byKey) == size {
		return t, nil
	}

	// rows[i] is the source row for output row i, or -1 for a
	// missing combination. groupRows[g][i] is the source row of
	// group g's value for output row i.
	var rows []int
	groupRows := make([][]int, len(groups))
	digits := make([]int, len(groups))
	for key := 0; key < size; key++ {
		k := key
		for i := len(groups) - 1; i >= 0; i-- {
			digits[i] = k % len(firsts[i])
			k /= len(firsts[i])
		}
		src := byKey[key]
		if src == nil {
			rows = append(rows, -1)
			for i := range groups {
				groupRows[i] = append(groupRows[i], firsts[i][digits[i]])
			}
			continue
		}
		for _, row := range src {
			rows = append(rows, row)
			for i := range groups {
				groupRows[i] = append(groupRows[i], row)
			}
		}
	}

	isGroup := make(map[string]int)
	for i, name := range groups {
		isGroup[name] = i
	}
	var b table.Builder
	for _, name := range t.Columns() {
		if i, ok := isGroup[name]; ok {
			b.Add(name, withMissing(t.Column(name), groupRows[i]))
		} else {
			b.Add(name, withMissing(t.Column(name), rows))
		}
	}
	return b.Done(), nil
}
