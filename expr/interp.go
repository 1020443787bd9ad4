// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
)

var (
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	timeType     = reflect.TypeOf(time.Time{})
)

// An interp evaluates an expression one row at a time. It accepts any
// column type whose elements can be viewed as numbers, strings, bools,
// or times, including []interface{} columns with nil for missing
// values. Each value is a float64, string, bool, time.Time, or nil.
type interp struct {
	cols map[string]reflect.Value
}

// evalGeneral evaluates root over t row by row. The type of the
// result is inferred from the values produced.
func evalGeneral(t *table.Table, root node) (table.Slice, error) {
	in := &interp{cols: make(map[string]reflect.Value)}
	for _, name := range columns(root, nil) {
		col := t.Column(name)
		if col == nil {
			return nil, fmt.Errorf("unknown column %s", name)
		}
		in.cols[name] = reflect.ValueOf(col)
	}

	vals := make([]interface{}, t.Len())
	for i := range vals {
		v, err := in.eval(root, i)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		vals[i] = v
	}
	return inferColumn(vals), nil
}

func (in *interp) eval(n node, row int) (interface{}, error) {
	switch n := n.(type) {
	case numLit:
		return n.v, nil
	case strLit:
		return n.v, nil
	case boolLit:
		return n.v, nil
	case colRef:
		return element(in.cols[n.name].Index(row))

	case *unaryExpr:
		x, err := in.eval(n.x, row)
		if err != nil || x == nil {
			return nil, err
		}
		switch n.op {
		case opNot:
			b, err := truth(n.x, x)
			return !b, err
		case opNeg, opPos:
			v, err := number(n.x, x)
			if n.op == opNeg {
				v = -v
			}
			return v, err
		}

	case *binaryExpr:
		x, err := in.eval(n.x, row)
		if err != nil {
			return nil, err
		}
		y, err := in.eval(n.y, row)
		if err != nil {
			return nil, err
		}
		switch {
		case n.op == opAnd || n.op == opOr:
			xb, err := truth(n.x, x)
			if err != nil {
				return nil, err
			}
			yb, err := truth(n.y, y)
			if err != nil {
				return nil, err
			}
			if n.op == opAnd {
				return xb && yb, nil
			}
			return xb || yb, nil
		case n.op.isCompare():
			return compareValues(n, x, y)
		}
		if x == nil || y == nil {
			return nil, nil
		}
		if xs, ok := x.(string); ok && n.op == opAdd {
			if ys, ok := y.(string); ok {
				return xs + ys, nil
			}
		}
		a, err := number(n.x, x)
		if err != nil {
			return nil, err
		}
		b, err := number(n.y, y)
		if err != nil {
			return nil, err
		}
		return arith[n.op](a, b), nil

	case *callExpr:
		if len(n.args) != 1 {
			return nil, fmt.Errorf("%s takes 1 argument, got %d", n.fn, len(n.args))
		}
		x, err := in.eval(n.args[0], row)
		if err != nil || x == nil {
			return nil, err
		}
		v, err := number(n.args[0], x)
		if err != nil {
			return nil, err
		}
		return funcs[n.fn](v), nil
	}
	return nil, fmt.Errorf("unexpected node %s", n)
}

// element returns the expression value of a column element.
func element(v reflect.Value) (interface{}, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Implements(stringerType) && v.Kind() == reflect.Ptr {
			return v.Interface().(fmt.Stringer).String(), nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		if v.Type().Implements(stringerType) {
			return v.Interface().(fmt.Stringer).String(), nil
		}
		return v.String(), nil
	}
	if v.Type() == timeType {
		return v.Interface().(time.Time), nil
	}
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String(), nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type())
}

func typeName(v interface{}) string {
	switch v.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	case time.Time:
		return "time"
	case nil:
		return "missing"
	}
	return fmt.Sprintf("%T", v)
}

func number(src node, v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("want number, but %s has type %s", src, typeName(v))
}

// truth returns the truth value of v. Missing values are false.
func truth(src node, v interface{}) (bool, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	}
	return false, fmt.Errorf("want bool, but %s has type %s", src, typeName(v))
}

func compareValues(n *binaryExpr, x, y interface{}) (interface{}, error) {
	if x == nil || y == nil {
		// Missing values are equal only to each other.
		eq := x == nil && y == nil
		switch n.op {
		case opEq:
			return eq, nil
		case opNe:
			return !eq, nil
		}
		return false, nil
	}

	r, err := compare3(n, x, y)
	if err != nil {
		return nil, err
	}
	if r == unordered {
		// NaN compares false to everything.
		return n.op == opNe, nil
	}
	switch n.op {
	case opEq:
		return r == 0, nil
	case opNe:
		return r != 0, nil
	case opLt:
		return r < 0, nil
	case opLe:
		return r <= 0, nil
	case opGt:
		return r > 0, nil
	}
	return r >= 0, nil
}

const unordered = 2

// compare3 returns -1, 0, or 1 as x is less than, equal to, or
// greater than y, or unordered if either is NaN.
func compare3(n *binaryExpr, x, y interface{}) (int, error) {
	switch a := x.(type) {
	case string:
		if b, ok := y.(string); ok {
			return strings.Compare(a, b), nil
		}
	case time.Time:
		if b, ok := y.(time.Time); ok {
			return a.Compare(b), nil
		}
	}

	xb, xIsBool := x.(bool)
	yb, yIsBool := y.(bool)
	if xIsBool && yIsBool {
		if n.op != opEq && n.op != opNe {
			return 0, fmt.Errorf("cannot order %s of type bool", n.x)
		}
		if xb == yb {
			return 0, nil
		}
		return 1, nil
	}

	a, errA := number(n.x, x)
	b, errB := number(n.y, y)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		case a == b:
			return 0, nil
		}
		return unordered, nil
	}
	return 0, fmt.Errorf("cannot compare %s of type %s with %s of type %s", n.x, typeName(x), n.y, typeName(y))
}

// inferColumn converts vals to the most specific column type that
// holds them all. Missing values force a float64 column (with NaN) or
// an []interface{} column (with nil).
func inferColumn(vals []interface{}) table.Slice {
	var nums, strs, bools, times, missing int
	for _, v := range vals {
		switch v.(type) {
		case float64:
			nums++
		case string:
			strs++
		case bool:
			bools++
		case time.Time:
			times++
		case nil:
			missing++
		}
	}
	switch n := len(vals); {
	case nums+missing == n:
		out := make([]float64, n)
		for i, v := range vals {
			if v == nil {
				out[i] = math.NaN()
			} else {
				out[i] = v.(float64)
			}
		}
		return out
	case strs == n:
		out := make([]string, n)
		for i, v := range vals {
			out[i] = v.(string)
		}
		return out
	case bools == n:
		out := make([]bool, n)
		for i, v := range vals {
			out[i] = v.(bool)
		}
		return out
	case times == n:
		out := make([]time.Time, n)
		for i, v := range vals {
			out[i] = v.(time.Time)
		}
		return out
	}
	return vals
}
