// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

var (
	intsType   = reflect.TypeOf([]int(nil))
	floatsType = reflect.TypeOf([]float64(nil))
)

// column converts decoded values to the most specific column type
// that holds them all. Values must be nil, int64, float64, string,
// bool, time.Time, or time.Duration.
func column(vals []interface{}) table.Slice {
	var nNil, nInt, nFloat, nString, nBool, nTime, nDur int
	for _, v := range vals {
		switch v.(type) {
		case nil:
			nNil++
		case int64:
			nInt++
		case float64:
			nFloat++
		case string:
			nString++
		case bool:
			nBool++
		case time.Time:
			nTime++
		case time.Duration:
			nDur++
		}
	}
	n := len(vals)
	switch {
	case n == 0:
		return []float64{}
	case nInt == n:
		out := make([]int, n)
		for i, v := range vals {
			out[i] = int(v.(int64))
		}
		return out
	case nInt+nFloat > 0 && nInt+nFloat+nNil == n:
		out := make([]float64, n)
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				out[i] = math.NaN()
			case int64:
				out[i] = float64(v)
			case float64:
				out[i] = v
			}
		}
		return out
	case nString == n:
		out := make([]string, n)
		for i, v := range vals {
			out[i] = v.(string)
		}
		return out
	case nBool == n:
		out := make([]bool, n)
		for i, v := range vals {
			out[i] = v.(bool)
		}
		return out
	case nTime == n:
		out := make([]time.Time, n)
		for i, v := range vals {
			out[i] = v.(time.Time)
		}
		return out
	case nDur == n:
		out := make([]time.Duration, n)
		for i, v := range vals {
			out[i] = v.(time.Duration)
		}
		return out
	}
	return append([]interface{}(nil), vals...)
}

func toFloat64s(col table.Slice) []float64 {
	var out []float64
	slice.Convert(&out, col)
	return out
}

// Value returns row i of col as a value suitable for encoding: nil
// for missing values, float64 for finite floating-point values,
// int64 for integers, and bool, string, or time.Time otherwise.
// Values that implement fmt.Stringer are formatted.
func Value(col table.Slice, i int) interface{} {
	v := reflect.ValueOf(col).Index(i)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t
	}
	if s, ok := v.Interface().(fmt.Stringer); ok && v.Type() != reflect.TypeOf(time.Duration(0)) {
		return s.String()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		x := v.Float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint())
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

// Rows returns the rows of t as encodable values.
func Rows(t *table.Table) [][]interface{} {
	cols := t.Columns()
	rows := make([][]interface{}, t.Len())
	for i := range rows {
		rows[i] = make([]interface{}, len(cols))
	}
	for j, name := range cols {
		col := t.MustColumn(name)
		for i := range rows {
			rows[i][j] = Value(col, i)
		}
	}
	return rows
}

// formatValue formats v, as returned by Value, as text.
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
