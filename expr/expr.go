// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package expr evaluates column expressions over go-gg tables.
//
// An expression combines column names, number, string, and bool
// literals, arithmetic (+ - * / // % **), comparisons, logical
// operators (& | ~, or their spelled-out forms and, or, not), and the
// math functions abs, sqrt, exp, log, log10, log2, floor, ceil, round,
// sin, cos, and tan. Names that are not identifiers may be quoted with
// backticks.
//
// Expressions are evaluated a whole column at a time. If the
// expression's types cannot be resolved statically (for example, it
// refers to an []interface{} column), evaluation falls back to a
// slower row-at-a-time interpreter.
package expr

import (
	"fmt"
	"reflect"

	"github.com/aclements/go-gg/table"
)

// An Expr is a parsed expression. An Expr is immutable and may be
// evaluated against any number of tables concurrently.
type Expr struct {
	src  string
	root node
}

// Parse parses an expression.
func Parse(src string) (*Expr, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{src, root}, nil
}

// Column returns an expression that refers to the named column,
// regardless of whether name would parse as an expression.
func Column(name string) *Expr {
	return &Expr{name, colRef{name}}
}

// String returns the source text of e.
func (e *Expr) String() string {
	return e.src
}

// Columns returns the names of the columns e refers to, in the order
// they first appear.
func (e *Expr) Columns() []string {
	return columns(e.root, nil)
}

// IsColumn reports whether e is a bare reference to a column and, if
// so, returns the column name.
func (e *Expr) IsColumn() (string, bool) {
	c, ok := e.root.(colRef)
	return c.name, ok
}

// Eval evaluates e over the rows of t and returns the resulting
// column, which has t.Len() elements.
//
// A bare column reference yields a copy of that column with its
// original type. Otherwise the result is a []float64, []bool,
// []string, []time.Time, or []interface{} column.
func (e *Expr) Eval(t *table.Table) (table.Slice, error) {
	if name, ok := e.IsColumn(); ok {
		col := t.Column(name)
		if col == nil {
			return nil, fmt.Errorf("unknown column %s", name)
		}
		return copySlice(col), nil
	}

	out, fastErr := evalFast(t, e.root)
	if fastErr == nil {
		return out, nil
	}
	out, err := evalGeneral(t, e.root)
	if err == nil {
		return out, nil
	}
	return nil, fmt.Errorf("%w (vectorized: %v)", err, fastErr)
}

func copySlice(s table.Slice) table.Slice {
	v := reflect.ValueOf(s)
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)
	return out.Interface()
}
