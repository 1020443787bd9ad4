// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart prepares the data behind common chart kinds.
//
// Each chart function evaluates the role expressions of a Spec over a
// table and shapes the result into a table with the conventional role
// columns "x", "y", "group", "facet_x", and "facet_y" (only those that
// are bound), ready to be drawn.
package chart

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/bin"
	"github.com/aclements/go-ezplot/expr"
	"github.com/aclements/go-ezplot/order"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// Spec binds the roles of a chart to expressions. Unbound roles are
// empty. Each expression may carry a display name as "name=expr".
type Spec struct {
	X, Y   string
	Group  string
	FacetX string
	FacetY string

	// Func reduces y within each group. If nil, each chart uses
	// its own default.
	Func agg.Func

	// Sort orders the group and facet columns by their y totals.
	Sort bool

	// Position is how groups are arranged: "stack", "dodge", or
	// "overlay". The default depends on the chart.
	Position string

	// Orientation is "vertical" (the default) or "horizontal".
	Orientation string

	// Index, IndexName, MaxFill, Compiler, and Logger are passed
	// through to the aggregation.
	Index     table.Slice
	IndexName string
	MaxFill   int
	Compiler  agg.Compiler
	Logger    *slog.Logger
}

// Data is the prepared data of a chart.
type Data struct {
	// Kind is the chart kind, such as "bar".
	Kind string

	Table *table.Table

	// Names maps each bound role to its display name.
	Names map[string]string

	// XBins and YBins describe the binning of x and y, if any.
	XBins, YBins bin.Result

	// VarBins maps each variable of a variable histogram to its
	// binning.
	VarBins map[string]bin.Result

	// Summary is an additional per-group summary. Box charts
	// store their box statistics here.
	Summary *table.Table

	Position    string
	Orientation string
}

// Roles lists the conventional role columns in output order.
var Roles = []string{"x", "y", "group", "facet_x", "facet_y"}

const rowCol = "\x00row"

type binding struct {
	role, src string
}

func (s *Spec) src(role string) string {
	switch role {
	case "x":
		return s.X
	case "y":
		return s.Y
	case "group":
		return s.Group
	case "facet_x":
		return s.FacetX
	case "facet_y":
		return s.FacetY
	}
	panic("unknown role " + role)
}

// bindings returns the bound roles among roles.
func (s *Spec) bindings(roles ...string) []binding {
	var out []binding
	for _, r := range roles {
		if src := s.src(r); src != "" {
			out = append(out, binding{r, src})
		}
	}
	return out
}

func (s *Spec) require(kind string, roles ...string) error {
	for _, r := range roles {
		if s.src(r) == "" {
			return usagef("%s chart requires %s", kind, r)
		}
	}
	return nil
}

// names returns the display names of bs.
func (s *Spec) names(bs []binding) map[string]string {
	names := make(map[string]string)
	for _, b := range bs {
		if b.src == agg.IndexExpr {
			names[b.role] = s.IndexName
			if s.IndexName == "" {
				names[b.role] = b.role
			}
			continue
		}
		name, _, _ := expr.Unname(b.src)
		names[b.role] = name
	}
	return names
}

func (s *Spec) request(groups, vars []binding, f agg.Func, fill bool) agg.Request {
	req := agg.Request{
		Func:       f,
		FillGroups: fill,
		MaxFill:    s.MaxFill,
		Index:      s.Index,
		IndexName:  s.IndexName,
		Compiler:   s.Compiler,
		Logger:     s.Logger,
	}
	for _, b := range groups {
		req.Groups = append(req.Groups, agg.Scalar(b.role, b.src))
	}
	for _, b := range vars {
		req.Variables = append(req.Variables, agg.Scalar(b.role, b.src))
	}
	return req
}

// rebind returns bindings that refer to the role columns of an
// already evaluated table.
func rebind(bs []binding) []binding {
	out := make([]binding, len(bs))
	for i, b := range bs {
		out[i] = binding{b.role, b.role}
	}
	return out
}

func (s *Spec) fn(def agg.Func) agg.Func {
	if s.Func != nil {
		return s.Func
	}
	return def
}

func usagef(format string, a ...interface{}) error {
	return &agg.UsageError{Msg: fmt.Sprintf(format, a...)}
}

// choose validates an enumerated option, returning def if v is empty.
func choose(what, v, def string, allowed ...string) (string, error) {
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", usagef("unknown %s %q", what, v)
}

func (s *Spec) orientation() (string, error) {
	return choose("orientation", s.Orientation, "vertical", "vertical", "horizontal")
}

// Bar aggregates y by x, group, and facets. The default Func is
// agg.Sum.
func Bar(t *table.Table, s Spec) (*Data, error) {
	if err := s.require("bar", "x", "y"); err != nil {
		return nil, err
	}
	pos, err := choose("position", s.Position, "stack", "stack", "dodge", "overlay")
	if err != nil {
		return nil, err
	}
	orient, err := s.orientation()
	if err != nil {
		return nil, err
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	vars := s.bindings("y")
	out, err := agg.Aggregate(t, s.request(groups, vars, s.fn(agg.Sum), true))
	if err != nil {
		return nil, err
	}
	if s.Sort {
		if out, err = order.SortRoles(out, "y"); err != nil {
			return nil, err
		}
	}
	return &Data{
		Kind:        "bar",
		Table:       reorder(out),
		Names:       s.names(append(groups, vars...)),
		Position:    pos,
		Orientation: orient,
	}, nil
}

// Line aggregates y by x, group, and facets. The default Func is
// agg.Sum.
func Line(t *table.Table, s Spec) (*Data, error) {
	return lineArea("line", t, s)
}

// Area is like Line, but missing y values are 0, as they are in a
// stacked area.
func Area(t *table.Table, s Spec) (*Data, error) {
	return lineArea("area", t, s)
}

func lineArea(kind string, t *table.Table, s Spec) (*Data, error) {
	if err := s.require(kind, "x", "y"); err != nil {
		return nil, err
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	vars := s.bindings("y")
	out, err := agg.Aggregate(t, s.request(groups, vars, s.fn(agg.Sum), true))
	if err != nil {
		return nil, err
	}
	if kind == "area" {
		out = fillZero(out, "y")
	}
	if s.Sort {
		if out, err = sortGroups(out, "y"); err != nil {
			return nil, err
		}
	}
	return &Data{
		Kind:  kind,
		Table: reorder(out),
		Names: s.names(append(groups, vars...)),
	}, nil
}

// Scatter evaluates x and y for every row, without aggregating.
func Scatter(t *table.Table, s Spec) (*Data, error) {
	if err := s.require("scatter", "x", "y"); err != nil {
		return nil, err
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	vars := s.bindings("y")
	out, err := agg.Aggregate(t, s.request(groups, vars, nil, true))
	if err != nil {
		return nil, err
	}
	return &Data{
		Kind:  "scatter",
		Table: reorder(out),
		Names: s.names(append(groups, vars...)),
	}, nil
}

// Box evaluates x and y for every row and summarizes the distribution
// of y for each x, group, and facet with agg.BoxStats. If group is
// bound, the table has an additional "group_x" column that identifies
// each box.
func Box(t *table.Table, s Spec) (*Data, error) {
	if err := s.require("box", "x", "y"); err != nil {
		return nil, err
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	vars := s.bindings("y")
	out, err := agg.Aggregate(t, s.request(groups, vars, nil, true))
	if err != nil {
		return nil, err
	}
	out = reorder(out)

	summary, err := agg.Aggregate(out, s.request(rebind(groups), rebind(vars), agg.BoxStats, false))
	if err != nil {
		return nil, err
	}

	if gcol := out.Column("group"); gcol != nil {
		gv, xv := reflect.ValueOf(gcol), reflect.ValueOf(out.MustColumn("x"))
		gx := make([]string, out.Len())
		for i := range gx {
			gx[i] = fmt.Sprintf("%v_%v", gv.Index(i).Interface(), xv.Index(i).Interface())
		}
		out = table.NewBuilder(out).Add("group_x", gx).Done()
	}
	return &Data{
		Kind:    "box",
		Table:   out,
		Names:   s.names(append(groups, vars...)),
		Summary: summary,
	}, nil
}

// reorder puts the role columns of t in conventional order, followed
// by any other columns.
func reorder(t *table.Table) *table.Table {
	var b table.Builder
	seen := make(map[string]bool)
	for _, r := range Roles {
		if col := t.Column(r); col != nil {
			b.Add(r, col)
			seen[r] = true
		}
	}
	for _, name := range t.Columns() {
		if !seen[name] {
			b.Add(name, t.MustColumn(name))
		}
	}
	return b.Done()
}

// sortGroups orders the group and facet columns of t, but never x.
func sortGroups(t *table.Table, valueCol string) (*table.Table, error) {
	var err error
	for _, r := range []struct {
		name      string
		ascending bool
	}{
		{"group", true},
		{"facet_x", false},
		{"facet_y", false},
	} {
		if t, err = order.SortGroup(t, r.name, valueCol, r.ascending); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// fillZero replaces missing values in numeric column name with 0.
func fillZero(t *table.Table, name string) *table.Table {
	xs, ok := floats(t.MustColumn(name))
	if !ok {
		return t
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		if !math.IsNaN(x) {
			out[i] = x
		}
	}
	return table.NewBuilder(t).Add(name, out).Done()
}

// floats converts a numeric column to a new []float64.
func floats(col table.Slice) ([]float64, bool) {
	switch reflect.TypeOf(col).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
	default:
		return nil, false
	}
	if xs, ok := col.([]float64); ok {
		return append([]float64(nil), xs...), true
	}
	var xs []float64
	slice.Convert(&xs, col)
	return xs, true
}

// groupKeys numbers the distinct combinations of cols in t and
// returns the number of each row. If cols is empty, every row is 0.
func groupKeys(t *table.Table, cols []string) []int {
	keys := make([]int, t.Len())
	if len(cols) == 0 || t.Len() == 0 {
		return keys
	}
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	g := table.GroupBy(table.NewBuilder(t).Add(rowCol, rows).Done(), cols...)
	for k, gid := range g.Tables() {
		for _, r := range g.Table(gid).MustColumn(rowCol).([]int) {
			keys[r] = k
		}
	}
	return keys
}

// present returns the roles among roles that are columns of t.
func present(t *table.Table, roles ...string) []string {
	var out []string
	for _, r := range roles {
		if t.Column(r) != nil {
			out = append(out, r)
		}
	}
	return out
}
