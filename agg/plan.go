// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aclements/go-ezplot/expr"
)

// A Step is a single resolved role.
type Step struct {
	// Role is the name of the output column.
	Role string

	// Label is the display name of the role, derived from a
	// "name=expr" expression string.
	Label string

	// Src is the expression text with any name and deferred
	// marker removed.
	Src string

	Expr *expr.Expr

	// Index indicates Expr refers to the row index.
	Index bool

	Deferred bool
}

// A Plan is the resolved, flattened form of a Request's roles.
type Plan struct {
	Groups    []Step
	Immediate []Step
	Deferred  []Step

	vars      []string // variable roles in declared order
	indexCols []string // columns holding the row index
}

// Resolve flattens, names, and compiles the roles of req.
func Resolve(req Request) (*Plan, error) {
	comp := req.Compiler
	if comp == nil {
		comp = CompilerFunc(expr.Parse)
	}
	p := new(Plan)
	seen := make(map[string]bool)
	for _, r := range req.Groups {
		steps, err := p.resolve(r, comp, seen, req.IndexName)
		if err != nil {
			return nil, err
		}
		for _, s := range steps {
			if s.Deferred {
				return nil, usagef("group role %s cannot be deferred", s.Role)
			}
			p.Groups = append(p.Groups, s)
		}
	}
	for _, r := range req.Variables {
		steps, err := p.resolve(r, comp, seen, req.IndexName)
		if err != nil {
			return nil, err
		}
		for _, s := range steps {
			if s.Deferred {
				p.Deferred = append(p.Deferred, s)
			} else {
				p.Immediate = append(p.Immediate, s)
			}
			p.vars = append(p.vars, s.Role)
		}
	}
	return p, nil
}

func (p *Plan) resolve(r Role, comp Compiler, seen map[string]bool, indexName string) ([]Step, error) {
	if r.Name == "" {
		return nil, usagef("role with empty name")
	}
	if len(r.Exprs) == 0 {
		return nil, usagef("role %s has no expressions", r.Name)
	}

	var steps []Step
	for i, src := range r.Exprs {
		s := Step{Role: r.Name, Deferred: r.Deferred}
		if len(r.Exprs) > 1 {
			s.Role = fmt.Sprintf("%s_%d", r.Name, i)
		}
		if seen[s.Role] {
			return nil, usagef("duplicate role %s", s.Role)
		}
		seen[s.Role] = true

		label, text, ok := expr.Unname(strings.TrimSpace(src))
		if !ok {
			return nil, &EvalError{s.Role, src, errors.New("empty expression")}
		}
		if strings.HasPrefix(text, DeferredMarker) {
			s.Deferred = true
			text = strings.TrimSpace(text[len(DeferredMarker):])
			label = strings.TrimPrefix(label, DeferredMarker)
		}
		s.Label, s.Src = label, text

		if text == IndexExpr {
			// The index column takes the index name, or the
			// role name if the index is unnamed.
			col := indexName
			if col == "" {
				col = s.Role
			}
			s.Index = true
			s.Expr = expr.Column(col)
			if !slices.Contains(p.indexCols, col) {
				p.indexCols = append(p.indexCols, col)
			}
			if label == IndexExpr {
				s.Label = col
			}
		} else {
			e, err := comp.Parse(text)
			if err != nil {
				return nil, &EvalError{s.Role, src, err}
			}
			s.Expr = e
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// GroupRoles returns the names of the group columns.
func (p *Plan) GroupRoles() []string {
	var names []string
	for _, s := range p.Groups {
		names = append(names, s.Role)
	}
	return names
}

// VariableRoles returns the names of the variable columns in declared
// order.
func (p *Plan) VariableRoles() []string {
	return append([]string(nil), p.vars...)
}

// Labels returns the display label of every role.
func (p *Plan) Labels() map[string]string {
	labels := make(map[string]string)
	for _, steps := range [][]Step{p.Groups, p.Immediate, p.Deferred} {
		for _, s := range steps {
			labels[s.Role] = s.Label
		}
	}
	return labels
}
