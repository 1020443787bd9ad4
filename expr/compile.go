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

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// compiler translates a syntax tree into vectorized closures over
// the columns of a single table, type-checking as it goes.
type compiler struct {
	t *table.Table
	n int
}

type vecNode interface {
	// typ returns the type of this node's elements as a string.
	typ() string
	// slice evaluates this node to a table column.
	slice() table.Slice
}

type (
	numberNode func() []float64
	boolNode   func() []bool
	stringNode func() []string
	timeNode   func() []time.Time
)

func (numberNode) typ() string { return "number" }
func (boolNode) typ() string   { return "bool" }
func (stringNode) typ() string { return "string" }
func (timeNode) typ() string   { return "time" }

func (n numberNode) slice() table.Slice { return n() }
func (n boolNode) slice() table.Slice   { return n() }
func (n stringNode) slice() table.Slice { return n() }
func (n timeNode) slice() table.Slice   { return n() }

type compileError struct {
	format string
	a      []interface{}
}

func (e *compileError) Error() string {
	return fmt.Sprintf(e.format, e.a...)
}

// bad panics with a compileError for the given message.
func (c *compiler) bad(format string, a ...interface{}) {
	panic(&compileError{format, a})
}

// evalFast evaluates root over t using typed vectorized closures.
func evalFast(t *table.Table, root node) (out table.Slice, err error) {
	c := &compiler{t, t.Len()}
	var fn vecNode
	func() {
		defer func() {
			err2 := recover()
			if err2, ok := err2.(*compileError); ok {
				err = err2
			} else if err2 != nil {
				panic(err2)
			}
		}()
		fn = c.expr(root)
	}()
	if err != nil {
		return nil, err
	}
	return fn.slice(), nil
}

func (c *compiler) expr(n node) vecNode {
	switch n := n.(type) {
	case numLit:
		v := n.v
		return numberNode(func() []float64 {
			out := make([]float64, c.n)
			for i := range out {
				out[i] = v
			}
			return out
		})
	case strLit:
		v := n.v
		return stringNode(func() []string {
			out := make([]string, c.n)
			for i := range out {
				out[i] = v
			}
			return out
		})
	case boolLit:
		v := n.v
		return boolNode(func() []bool {
			out := make([]bool, c.n)
			for i := range out {
				out[i] = v
			}
			return out
		})
	case colRef:
		return c.column(n.name)
	case *unaryExpr:
		return c.unary(n)
	case *binaryExpr:
		return c.binary(n)
	case *callExpr:
		return c.call(n)
	}
	c.bad("unexpected node %s", n)
	panic("unreachable")
}

func (c *compiler) column(name string) vecNode {
	col := c.t.Column(name)
	if col == nil {
		c.bad("unknown column %s", name)
	}
	switch col := col.(type) {
	case []float64:
		return numberNode(func() []float64 { return col })
	case []string:
		return stringNode(func() []string { return col })
	case []bool:
		return boolNode(func() []bool { return col })
	case []time.Time:
		return timeNode(func() []time.Time { return col })
	}

	et := reflect.TypeOf(col).Elem()
	switch et.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		var xs []float64
		slice.Convert(&xs, col)
		return numberNode(func() []float64 { return xs })
	case reflect.String:
		if et.Implements(stringerType) {
			// A named string type with its own String method
			// may not print as its underlying value.
			break
		}
		var ss []string
		slice.Convert(&ss, col)
		return stringNode(func() []string { return ss })
	case reflect.Bool:
		var bs []bool
		slice.Convert(&bs, col)
		return boolNode(func() []bool { return bs })
	}
	c.bad("column %s has unsupported type %s", name, reflect.TypeOf(col))
	panic("unreachable")
}

// number returns n as a numberNode or panics with a type error.
// Bools are promoted to 0 and 1.
func (c *compiler) number(src node, n vecNode) numberNode {
	switch fn := n.(type) {
	case numberNode:
		return fn
	case boolNode:
		return func() []float64 {
			bs := fn()
			out := make([]float64, len(bs))
			for i, b := range bs {
				if b {
					out[i] = 1
				}
			}
			return out
		}
	}
	c.bad("want number, but %s has type %s", src, n.typ())
	panic("unreachable")
}

// bool returns n as a boolNode or panics with a type error.
func (c *compiler) bool(src node, n vecNode) boolNode {
	fn, ok := n.(boolNode)
	if !ok {
		c.bad("want bool, but %s has type %s", src, n.typ())
	}
	return fn
}

func (c *compiler) unary(n *unaryExpr) vecNode {
	x := c.expr(n.x)
	switch n.op {
	case opNot:
		xb := c.bool(n.x, x)
		return boolNode(func() []bool {
			bs := xb()
			out := make([]bool, len(bs))
			for i, b := range bs {
				out[i] = !b
			}
			return out
		})
	case opNeg:
		xn := c.number(n.x, x)
		return numberNode(func() []float64 {
			return mapNumber(xn(), func(v float64) float64 { return -v })
		})
	case opPos:
		return c.number(n.x, x)
	}
	c.bad("unexpected operator %s", n.op)
	panic("unreachable")
}

func (c *compiler) binary(n *binaryExpr) vecNode {
	x, y := c.expr(n.x), c.expr(n.y)

	switch n.op {
	case opAnd, opOr:
		xb, yb := c.bool(n.x, x), c.bool(n.y, y)
		and := n.op == opAnd
		return boolNode(func() []bool {
			xs, ys := xb(), yb()
			out := make([]bool, len(xs))
			for i := range out {
				if and {
					out[i] = xs[i] && ys[i]
				} else {
					out[i] = xs[i] || ys[i]
				}
			}
			return out
		})
	}

	if n.op.isCompare() {
		return c.compare(n, x, y)
	}

	if n.op == opAdd {
		xs, xok := x.(stringNode)
		ys, yok := y.(stringNode)
		if xok && yok {
			return stringNode(func() []string {
				a, b := xs(), ys()
				out := make([]string, len(a))
				for i := range out {
					out[i] = a[i] + b[i]
				}
				return out
			})
		}
	}

	f := arith[n.op]
	if f == nil {
		c.bad("unexpected operator %s", n.op)
	}
	xn, yn := c.number(n.x, x), c.number(n.y, y)
	return numberNode(func() []float64 {
		a, b := xn(), yn()
		out := make([]float64, len(a))
		for i := range out {
			out[i] = f(a[i], b[i])
		}
		return out
	})
}

var arith = map[op]func(a, b float64) float64{
	opAdd:      func(a, b float64) float64 { return a + b },
	opSub:      func(a, b float64) float64 { return a - b },
	opMul:      func(a, b float64) float64 { return a * b },
	opDiv:      func(a, b float64) float64 { return a / b },
	opFloorDiv: func(a, b float64) float64 { return math.Floor(a / b) },
	opMod:      floorMod,
	opPow:      math.Pow,
}

// floorMod returns a modulo b with the sign of b.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func (c *compiler) compare(n *binaryExpr, x, y vecNode) vecNode {
	if x.typ() != y.typ() {
		// Allow comparing bools with numbers.
		_, xb := x.(boolNode)
		_, yb := y.(boolNode)
		if (xb || yb) && (x.typ() == "number" || y.typ() == "number") {
			x, y = c.number(n.x, x), c.number(n.y, y)
		} else {
			c.bad("cannot compare %s of type %s with %s of type %s", n.x, x.typ(), n.y, y.typ())
		}
	}

	var cmp func(i int) int
	var prep func() int
	switch xf := x.(type) {
	case numberNode:
		yf := y.(numberNode)
		var a, b []float64
		prep = func() int { a, b = xf(), yf(); return len(a) }
		cmp = func(i int) int {
			switch {
			case a[i] < b[i]:
				return -1
			case a[i] > b[i]:
				return 1
			case a[i] == b[i]:
				return 0
			}
			return 2 // unordered
		}
	case stringNode:
		yf := y.(stringNode)
		var a, b []string
		prep = func() int { a, b = xf(), yf(); return len(a) }
		cmp = func(i int) int { return strings.Compare(a[i], b[i]) }
	case timeNode:
		yf := y.(timeNode)
		var a, b []time.Time
		prep = func() int { a, b = xf(), yf(); return len(a) }
		cmp = func(i int) int { return a[i].Compare(b[i]) }
	case boolNode:
		if n.op != opEq && n.op != opNe {
			c.bad("cannot order %s of type bool", n.x)
		}
		yf := y.(boolNode)
		var a, b []bool
		prep = func() int { a, b = xf(), yf(); return len(a) }
		cmp = func(i int) int {
			if a[i] == b[i] {
				return 0
			}
			return 1
		}
	}

	var test func(r int) bool
	switch n.op {
	case opEq:
		test = func(r int) bool { return r == 0 }
	case opNe:
		test = func(r int) bool { return r != 0 }
	case opLt:
		test = func(r int) bool { return r == -1 }
	case opLe:
		test = func(r int) bool { return r == -1 || r == 0 }
	case opGt:
		test = func(r int) bool { return r == 1 }
	case opGe:
		test = func(r int) bool { return r == 1 || r == 0 }
	}
	return boolNode(func() []bool {
		out := make([]bool, prep())
		for i := range out {
			out[i] = test(cmp(i))
		}
		return out
	})
}

func (c *compiler) call(n *callExpr) vecNode {
	f := funcs[n.fn]
	if len(n.args) != 1 {
		c.bad("%s takes 1 argument, got %d", n.fn, len(n.args))
	}
	xn := c.number(n.args[0], c.expr(n.args[0]))
	return numberNode(func() []float64 {
		return mapNumber(xn(), f)
	})
}

// funcs are the functions available to expressions.
var funcs = map[string]func(float64) float64{
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.RoundToEven,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
}

func mapNumber(xs []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}
