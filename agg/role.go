// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"fmt"
	"strings"

	"github.com/aclements/go-ezplot/expr"
)

// IndexExpr is the expression that refers to the row index of the
// input table.
const IndexExpr = ".index"

// DeferredMarker at the start of an expression marks the role as
// deferred.
const DeferredMarker = "@"

// A Role binds an output column name to one or more expressions.
//
// A role with more than one expression is a vector role. It is
// flattened into the roles Name_0, Name_1, and so on.
//
// A deferred role is evaluated after aggregation, against the
// aggregated group and variable columns. This is how to compute, for
// example, a ratio of sums.
type Role struct {
	Name     string
	Exprs    []string
	Deferred bool
}

// Scalar returns a role with a single expression. If expr starts with
// DeferredMarker, the role is deferred.
func Scalar(name, expr string) Role {
	return Role{Name: name, Exprs: []string{expr}}
}

// Vector returns a vector role.
func Vector(name string, exprs ...string) Role {
	return Role{Name: name, Exprs: exprs}
}

// Deferred returns a deferred role with a single expression.
func Deferred(name, expr string) Role {
	return Role{Name: name, Exprs: []string{expr}, Deferred: true}
}

func (r Role) String() string {
	var b strings.Builder
	if r.Deferred {
		b.WriteString(DeferredMarker)
	}
	fmt.Fprintf(&b, "%s=%s", r.Name, strings.Join(r.Exprs, ","))
	return b.String()
}

// A Compiler parses expressions. *expr.Cache is a Compiler.
type Compiler interface {
	Parse(src string) (*expr.Expr, error)
}

// CompilerFunc adapts a function to a Compiler.
type CompilerFunc func(src string) (*expr.Expr, error)

func (f CompilerFunc) Parse(src string) (*expr.Expr, error) {
	return f(src)
}
