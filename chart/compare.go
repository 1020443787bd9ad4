// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"reflect"

	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/bin"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// CompareSpec describes several y expressions drawn against one x.
type CompareSpec struct {
	Spec

	// Ys are the y expressions. If Ys is empty, Spec.Y is the
	// only y.
	Ys []string
}

// Compare aggregates each of Ys by x and facets and stacks the results
// into a single "y" column. The "group" column holds the display name
// of the y expression each row came from. The default Func is agg.Sum.
//
// With a single y, Compare is like Line and Group may be bound. With
// more than one, Group is taken by the y names and must be unbound.
func Compare(t *table.Table, s CompareSpec) (*Data, error) {
	ys := s.Ys
	if len(ys) == 0 && s.Y != "" {
		ys = []string{s.Y}
	}
	if len(ys) == 0 {
		return nil, usagef("compare chart requires y")
	}
	if len(ys) == 1 {
		s.Y = ys[0]
		return lineArea("compare", t, s.Spec)
	}
	if err := s.require("compare", "x"); err != nil {
		return nil, err
	}
	if s.Group != "" {
		return nil, usagef("compare chart cannot have a group with more than one y")
	}

	groups := s.bindings("x", "facet_x", "facet_y")
	req := s.request(groups, nil, s.fn(agg.Sum), true)
	req.Variables = []agg.Role{agg.Vector("y", ys...)}
	plan, err := agg.Resolve(req)
	if err != nil {
		return nil, err
	}
	labels := plan.Labels()
	out, err := agg.Aggregate(t, req)
	if err != nil {
		return nil, err
	}

	// Stack y_0, y_1, ... one after another.
	n := out.Len()
	rows := make([]int, 0, n*len(ys))
	var vals []float64
	var names []string
	for i := range ys {
		role := fmt.Sprintf("y_%d", i)
		col, ok := floats(out.MustColumn(role))
		if !ok {
			return nil, usagef("compare chart requires numeric %s", role)
		}
		vals = append(vals, col...)
		for r := 0; r < n; r++ {
			rows = append(rows, r)
			names = append(names, labels[role])
		}
	}
	b := new(table.Builder).
		Add("x", slice.Select(out.MustColumn("x"), rows)).
		Add("y", vals).
		Add("group", names)
	for _, k := range present(out, "facet_x", "facet_y") {
		b.Add(k, slice.Select(out.MustColumn(k), rows))
	}

	d := &Data{Kind: "compare", Table: b.Done(), Names: s.names(groups)}
	d.Names["y"] = "value"
	d.Names["group"] = "variable"
	return d, nil
}

// VariableHistSpec describes side-by-side histograms of several
// variables.
type VariableHistSpec struct {
	Spec

	// Xs are the variables to bin. If Xs is empty, Spec.X is the
	// only variable.
	Xs []string

	// W, Bins, BinWidth, and Normalize are as for HistSpec. The
	// bins are computed separately for each variable.
	W         string
	Bins      int
	BinWidth  float64
	Normalize bool
}

// VariableHist bins each of Xs on its own and sums the weights of each
// bin, group, and facet_y. The "facet_x" column holds the display name
// of each variable, so FacetX must be unbound. Normalization is per
// variable, group, and facet_y, using that variable's bin width.
//
// The result has a "w" column in place of a y variable. Data.XBins is
// the binning of the first variable and Data.VarBins has them all.
func VariableHist(t *table.Table, s VariableHistSpec) (*Data, error) {
	xs := s.Xs
	if len(xs) == 0 && s.X != "" {
		xs = []string{s.X}
	}
	if len(xs) == 0 {
		return nil, usagef("varhist chart requires x")
	}
	if s.FacetX != "" {
		return nil, usagef("varhist chart uses facet_x for its variables")
	}
	pos, err := choose("position", s.Position, "stack", "stack", "dodge", "overlay")
	if err != nil {
		return nil, err
	}
	hs := HistSpec{Bins: s.Bins, BinWidth: s.BinWidth}
	w := s.W
	if w == "" {
		w = "1"
	}

	// The variables pass through unaggregated, so a missing value
	// of one variable does not drop the others.
	groups := s.bindings("group", "facet_y")
	req := s.request(groups, []binding{{"w", w}}, nil, false)
	vars := make([]string, len(xs))
	for i, src := range xs {
		vars[i] = fmt.Sprintf("x_%d", i)
		req.Variables = append(req.Variables, agg.Scalar(vars[i], src))
	}
	plan, err := agg.Resolve(req)
	if err != nil {
		return nil, err
	}
	labels := plan.Labels()
	tmp, err := agg.Aggregate(t, req)
	if err != nil {
		return nil, err
	}

	d := &Data{Kind: "varhist", Names: s.names(groups), Position: pos, VarBins: make(map[string]bin.Result)}
	d.Names["x"] = "value"
	if s.W != "" {
		d.Names["w"] = labels["w"]
	}
	d.Names["facet_x"] = "variable"

	keep := present(tmp, "group", "facet_y")
	parts := make([]*table.Table, len(vars))
	for i, v := range vars {
		b := new(table.Builder).Add("x", tmp.MustColumn(v)).Add("w", tmp.MustColumn("w"))
		for _, k := range keep {
			b.Add(k, tmp.MustColumn(k))
		}
		r, vt, err := binColumn(b.Done(), "x", hs.xbins())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", labels[v], err)
		}
		d.VarBins[labels[v]] = r
		if i == 0 {
			d.XBins = r
		}

		gs := append([]binding{{"x", "x"}}, rebind(groups)...)
		out, err := agg.Aggregate(vt, s.request(gs, []binding{{"w", "w"}}, agg.Sum, true))
		if err != nil {
			return nil, err
		}
		out = fillZero(out, "w")
		if s.Normalize {
			out = normalize(out, keep, r.Width)
		}
		facet := make([]string, out.Len())
		for j := range facet {
			facet[j] = labels[v]
		}
		parts[i] = table.NewBuilder(out).Add("facet_x", facet).Done()
	}
	parts = unifyColumn(parts, "x")

	gs := make([]table.Grouping, len(parts))
	for i, p := range parts {
		gs[i] = p
	}
	all := table.Flatten(table.Concat(gs...))
	var b table.Builder
	for _, name := range []string{"x", "w", "group", "facet_x", "facet_y"} {
		if col := all.Column(name); col != nil {
			b.Add(name, col)
		}
	}
	d.Table = b.Done()
	return d, nil
}

// normalize scales the "w" column of t so the weights of each
// combination of keys integrate to 1 over bins of the given width.
func normalize(t *table.Table, keys []string, width float64) *table.Table {
	gk := groupKeys(t, keys)
	ws := t.MustColumn("w").([]float64)
	sums := make(map[int]float64)
	for i, k := range gk {
		sums[k] += ws[i]
	}
	norm := make([]float64, len(ws))
	for i, k := range gk {
		norm[i] = ws[i] / (sums[k] * width)
	}
	return table.NewBuilder(t).Add("w", norm).Done()
}

// unifyColumn converts column name of every table to []interface{} if
// the tables disagree on its type.
func unifyColumn(ts []*table.Table, name string) []*table.Table {
	same := true
	for _, t := range ts[1:] {
		if table.ColType(t, name) != table.ColType(ts[0], name) {
			same = false
		}
	}
	if same {
		return ts
	}
	out := make([]*table.Table, len(ts))
	for i, t := range ts {
		v := reflect.ValueOf(t.MustColumn(name))
		col := make([]interface{}, v.Len())
		for j := range col {
			col[j] = v.Index(j).Interface()
		}
		out[i] = table.NewBuilder(t).Add(name, col).Done()
	}
	return out
}
