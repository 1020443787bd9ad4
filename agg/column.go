// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"fmt"
	"math"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// isNumeric reports whether t is an integer or floating-point type.
func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isMissing reports whether v is a NaN or a nil interface or pointer.
func isMissing(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(v.Float())
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return true
		}
		if v.Kind() == reflect.Interface {
			return isMissing(v.Elem())
		}
	}
	return false
}

// toFloats converts a column to []float64. Bools become 0 and 1.
// []interface{} columns may hold numbers, bools, and nil, which
// becomes NaN.
func toFloats(col table.Slice) ([]float64, error) {
	switch col := col.(type) {
	case []float64:
		return col, nil
	case []bool:
		out := make([]float64, len(col))
		for i, b := range col {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}

	v := reflect.ValueOf(col)
	if isNumeric(v.Type().Elem()) {
		var out []float64
		slice.Convert(&out, col)
		return out, nil
	}
	if v.Type().Elem().Kind() != reflect.Interface {
		return nil, fmt.Errorf("cannot aggregate values of type %s", v.Type().Elem())
	}
	out := make([]float64, v.Len())
	for i := range out {
		e := v.Index(i)
		if isMissing(e) {
			out[i] = math.NaN()
			continue
		}
		e = e.Elem()
		switch {
		case isNumeric(e.Type()):
			out[i] = e.Convert(reflect.TypeOf(float64(0))).Float()
		case e.Kind() == reflect.Bool:
			if e.Bool() {
				out[i] = 1
			}
		default:
			return nil, fmt.Errorf("cannot aggregate value %v of type %s", e, e.Type())
		}
	}
	return out, nil
}

// selectRows returns a table consisting of the given rows of t.
func selectRows(t *table.Table, rows []int) *table.Table {
	var b table.Builder
	for _, name := range t.Columns() {
		b.Add(name, slice.Select(t.Column(name), rows))
	}
	return b.Done()
}

// dropMissing removes rows of t where any of cols is missing.
func dropMissing(t *table.Table, cols []string) *table.Table {
	var keep []int
	vals := make([]reflect.Value, len(cols))
	for i, name := range cols {
		vals[i] = reflect.ValueOf(t.MustColumn(name))
	}
rows:
	for row := 0; row < t.Len(); row++ {
		for _, v := range vals {
			if isMissing(v.Index(row)) {
				continue rows
			}
		}
		keep = append(keep, row)
	}
	if len(keep) == t.Len() {
		return t
	}
	if keep == nil {
		keep = []int{}
	}
	return selectRows(t, keep)
}

// withMissing returns the rows of col, where a row of -1 is a missing
// value. If any rows are missing, numeric columns become []float64
// with NaN, and other columns become []interface{} with nil.
func withMissing(col table.Slice, rows []int) table.Slice {
	missing := false
	for _, r := range rows {
		if r < 0 {
			missing = true
			break
		}
	}
	if !missing {
		return slice.Select(col, rows)
	}

	v := reflect.ValueOf(col)
	if isNumeric(v.Type().Elem()) {
		var xs []float64
		slice.Convert(&xs, col)
		out := make([]float64, len(rows))
		for i, r := range rows {
			if r < 0 {
				out[i] = math.NaN()
			} else {
				out[i] = xs[r]
			}
		}
		return out
	}
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		if r >= 0 {
			out[i] = v.Index(r).Interface()
		}
	}
	return out
}
