// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agg groups and aggregates tables by column expressions.
//
// A request names a set of group roles and variable roles, each bound
// to an expression over the input table's columns. Aggregate
// evaluates the expressions, groups the rows by the values of the
// group roles, reduces each variable within each group, evaluates any
// deferred variables over the reduced table, and optionally completes
// the table with every combination of observed group values.
//
// Aggregate never modifies its input table.
package agg

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// A Request describes an aggregation.
type Request struct {
	// Groups are the roles to group by, in output order.
	Groups []Role

	// Variables are the roles to aggregate, in output order.
	Variables []Role

	// Func reduces each variable within each group. If Func is
	// nil, rows are not grouped and each row is its own group.
	// Either way, rows with a missing group key are dropped.
	Func Func

	// FillGroups adds a row for every combination of observed
	// group values that does not appear in the aggregated table.
	// Variables in added rows are missing. The size of the result
	// is the product of the number of distinct values of each
	// group.
	FillGroups bool

	// MaxFill, if non-zero, limits the number of rows FillGroups
	// may produce.
	MaxFill int

	// Index labels the rows of the input table for the ".index"
	// expression. If nil, rows are labeled 0, 1, ....
	Index table.Slice

	// IndexName names the index column. If empty, the column
	// takes the name of the role that refers to ".index".
	IndexName string

	// Compiler parses expressions. It defaults to expr.Parse.
	Compiler Compiler

	// Logger receives diagnostics. It defaults to slog.Default().
	Logger *slog.Logger
}

const rowCol = "\x00row"

// Aggregate performs the aggregation described by req on t.
//
// The result has one column per group role, in order, followed by
// one column per variable role, in order. A variable aggregated with
// a record-valued Func is followed by one column per additional
// record field.
func Aggregate(t *table.Table, req Request) (*table.Table, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	plan, err := Resolve(req)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved aggregation",
		"groups", len(plan.Groups), "immediate", len(plan.Immediate), "deferred", len(plan.Deferred))

	cur := t
	if len(plan.indexCols) > 0 {
		idx := req.Index
		if idx == nil {
			rows := make([]int, t.Len())
			for i := range rows {
				rows[i] = i
			}
			idx = rows
		} else if n := reflect.ValueOf(idx).Len(); n != t.Len() {
			return nil, usagef("index has %d labels for %d rows", n, t.Len())
		}
		b := table.NewBuilder(cur)
		for _, col := range plan.indexCols {
			b.Add(col, idx)
		}
		cur = b.Done()
	}

	// Evaluate group and immediate roles. Each role is added to
	// the working table as it is evaluated, so later roles may
	// refer to earlier ones.
	for _, steps := range [][]Step{plan.Groups, plan.Immediate} {
		for _, s := range steps {
			col, err := eval(s, cur)
			if err != nil {
				return nil, err
			}
			cur = table.NewBuilder(cur).Add(s.Role, col).Done()
		}
	}

	// Rows with a missing group key belong to no group, with or
	// without aggregation.
	groups := plan.GroupRoles()
	if len(groups) > 0 {
		n := cur.Len()
		cur = dropMissing(cur, groups)
		if d := n - cur.Len(); d > 0 {
			log.Info("dropped rows with missing group keys", "rows", d)
		}
	}

	var out *table.Table
	var fields map[string][]string
	if req.Func == nil {
		out = project(cur, groups, plan.Immediate)
	} else {
		out, fields, err = group(cur, groups, plan.Immediate, req.Func)
		if err != nil {
			return nil, err
		}
	}

	// Evaluate deferred roles against the aggregated table.
	for _, s := range plan.Deferred {
		for _, name := range s.Expr.Columns() {
			if out.Column(name) == nil {
				return nil, &EvalError{s.Role, s.Src, fmt.Errorf("column %s is not available after aggregation", name)}
			}
		}
		col, err := eval(s, out)
		if err != nil {
			return nil, err
		}
		out = table.NewBuilder(out).Add(s.Role, col).Done()
	}

	// Put variables in declared order.
	var b table.Builder
	for _, name := range groups {
		b.Add(name, out.Column(name))
	}
	for _, name := range plan.vars {
		b.Add(name, out.Column(name))
		for _, f := range fields[name] {
			b.Add(f, out.Column(f))
		}
	}
	out = b.Done()

	if req.FillGroups && len(groups) > 0 {
		out, err = fillGroups(out, groups, req.MaxFill, log)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func eval(s Step, t *table.Table) (table.Slice, error) {
	col, err := s.Expr.Eval(t)
	if err != nil {
		return nil, &EvalError{s.Role, s.Src, err}
	}
	return col, nil
}

// project returns the group and variable columns of t.
func project(t *table.Table, groups []string, vars []Step) *table.Table {
	var b table.Builder
	for _, name := range groups {
		b.Add(name, t.MustColumn(name))
	}
	for _, s := range vars {
		b.Add(s.Role, t.MustColumn(s.Role))
	}
	return b.Done()
}

// group groups t by the groups columns and reduces each variable with
// f. t must have no missing group keys. It returns the reduced table and, for each variable, the names
// of any additional record field columns.
func group(t *table.Table, groups []string, vars []Step, f Func) (*table.Table, map[string][]string, error) {
	var g table.Grouping
	if len(groups) == 0 {
		g = t
	} else {
		rows := make([]int, t.Len())
		for i := range rows {
			rows[i] = i
		}
		t = table.NewBuilder(t).Add(rowCol, rows).Done()
		g = table.GroupBy(t, groups...)
	}
	gids := g.Tables()

	// Take group values from the first row of each group.
	var b table.Builder
	if len(groups) > 0 {
		first := make([]int, len(gids))
		for i, gid := range gids {
			first[i] = g.Table(gid).MustColumn(rowCol).([]int)[0]
		}
		for _, name := range groups {
			b.Add(name, slice.Select(t.MustColumn(name), first))
		}
	}

	fieldNames := f.Fields()
	fields := make(map[string][]string)
	for _, s := range vars {
		cols := make([][]float64, len(fieldNames))
		for i := range cols {
			cols[i] = make([]float64, len(gids))
		}
		for gi, gid := range gids {
			vals, err := reduce(f, g.Table(gid).MustColumn(s.Role))
			if err != nil {
				return nil, nil, &EvalError{s.Role, s.Src, fmt.Errorf("%s: %w", f.Name(), err)}
			}
			for i, v := range vals {
				cols[i][gi] = v
			}
		}
		b.Add(s.Role, cols[0])
		for i, field := range fieldNames[1:] {
			name := field + " " + s.Role
			b.Add(name, cols[i+1])
			fields[s.Role] = append(fields[s.Role], name)
		}
	}
	return b.Done(), fields, nil
}
