// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"strconv"
	"strings"
)

// node is an expression syntax tree node.
type node interface {
	String() string
}

type (
	numLit  struct{ v float64 }
	strLit  struct{ v string }
	boolLit struct{ v bool }
	colRef  struct{ name string }

	unaryExpr struct {
		op op
		x  node
	}

	binaryExpr struct {
		op   op
		x, y node
	}

	callExpr struct {
		fn   string
		args []node
	}
)

type op int

const (
	opAdd op = iota
	opSub
	opMul
	opDiv
	opFloorDiv
	opMod
	opPow
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
	opNot
	opNeg
	opPos
)

var opNames = [...]string{
	opAdd: "+", opSub: "-", opMul: "*", opDiv: "/", opFloorDiv: "//",
	opMod: "%", opPow: "**", opEq: "==", opNe: "!=", opLt: "<",
	opLe: "<=", opGt: ">", opGe: ">=", opAnd: "&", opOr: "|",
	opNot: "~", opNeg: "-", opPos: "+",
}

func (o op) String() string { return opNames[o] }

func (o op) isCompare() bool { return opEq <= o && o <= opGe }

func (n numLit) String() string  { return strconv.FormatFloat(n.v, 'g', -1, 64) }
func (n strLit) String() string  { return strconv.Quote(n.v) }
func (n boolLit) String() string { return strconv.FormatBool(n.v) }

func (n colRef) String() string {
	if isPlainName(n.name) {
		return n.name
	}
	return "`" + n.name + "`"
}

func (n *unaryExpr) String() string { return n.op.String() + n.x.String() }

func (n *binaryExpr) String() string {
	return "(" + n.x.String() + " " + n.op.String() + " " + n.y.String() + ")"
}

func (n *callExpr) String() string {
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = a.String()
	}
	return n.fn + "(" + strings.Join(args, ", ") + ")"
}

func isPlainName(s string) bool {
	toks, err := lex(s)
	return err == nil && len(toks) == 2 && toks[0].kind == tokIdent && toks[0].text == s && !isKeyword(s)
}

func isKeyword(s string) bool {
	switch s {
	case "and", "or", "not", "true", "false", "True", "False":
		return true
	}
	return false
}

// columns appends the names of the columns referenced by n to names.
func columns(n node, names []string) []string {
	switch n := n.(type) {
	case colRef:
		for _, have := range names {
			if have == n.name {
				return names
			}
		}
		return append(names, n.name)
	case *unaryExpr:
		return columns(n.x, names)
	case *binaryExpr:
		return columns(n.y, columns(n.x, names))
	case *callExpr:
		for _, a := range n.args {
			names = columns(a, names)
		}
	}
	return names
}
