// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/bin"
	"github.com/aclements/go-gg/table"
)

// DefaultBins is the default number of histogram and marginal bins.
const DefaultBins = 21

// HistSpec describes a 1-d or, if Y is bound, 2-d histogram.
type HistSpec struct {
	Spec

	// W is the weight of each row. It defaults to 1, so the
	// histogram counts rows.
	W string

	// Bins and BinWidth specify the x bins. At most one may be
	// set. If neither is set, there are DefaultBins bins.
	Bins     int
	BinWidth float64

	// YBins and YBinWidth specify the y bins. If neither is set,
	// y is binned like x.
	YBins     int
	YBinWidth float64

	// Normalize scales the weights of each group and facet so
	// the histogram integrates to 1.
	Normalize bool
}

func (s *HistSpec) xbins() bin.Fixed {
	if s.Bins == 0 && s.BinWidth == 0 {
		return bin.Fixed{Count: DefaultBins}
	}
	return bin.Fixed{Count: s.Bins, Width: s.BinWidth}
}

func (s *HistSpec) ybins() bin.Fixed {
	if s.YBins == 0 && s.YBinWidth == 0 {
		return s.xbins()
	}
	return bin.Fixed{Count: s.YBins, Width: s.YBinWidth}
}

// Hist bins x (and y) and sums the weights of each bin, group, and
// facet. Non-numeric x or y values are not binned and count as bins
// of width 1. Empty bins have weight 0.
//
// The result has a "w" column in place of a y variable.
func Hist(t *table.Table, s HistSpec) (*Data, error) {
	if err := s.require("hist", "x"); err != nil {
		return nil, err
	}
	if s.Y != "" && s.Group != "" {
		return nil, usagef("a 2-d histogram cannot have a group")
	}
	pos, err := choose("position", s.Position, "stack", "stack", "dodge", "overlay")
	if err != nil {
		return nil, err
	}
	w := s.W
	if w == "" {
		w = "1"
	}

	groups := s.bindings("x", "y", "group", "facet_x", "facet_y")
	vars := []binding{{"w", w}}
	tmp, err := agg.Aggregate(t, s.request(groups, vars, nil, false))
	if err != nil {
		return nil, err
	}

	d := &Data{Kind: "hist", Position: pos}
	d.Names = s.names(groups)
	if s.W != "" {
		d.Names["w"] = s.names(vars)["w"]
	}
	d.XBins, tmp, err = binColumn(tmp, "x", s.xbins())
	if err != nil {
		return nil, err
	}
	d.YBins = bin.Result{Count: 1, Width: 1}
	if s.Y != "" {
		d.YBins, tmp, err = binColumn(tmp, "y", s.ybins())
		if err != nil {
			return nil, err
		}
	}

	out, err := agg.Aggregate(tmp, s.request(rebind(groups), rebind(vars), agg.Sum, true))
	if err != nil {
		return nil, err
	}
	out = fillZero(out, "w")

	if s.Normalize {
		out = normalize(out, present(out, "group", "facet_x", "facet_y"), d.XBins.Width*d.YBins.Width)
	}

	var b table.Builder
	for _, name := range []string{"x", "y", "w", "group", "facet_x", "facet_y"} {
		if col := out.Column(name); col != nil {
			b.Add(name, col)
		}
	}
	d.Table = b.Done()
	return d, nil
}

// binColumn bins column name of t if it is numeric. Otherwise, the
// column is left alone and treated as bins of width 1.
func binColumn(t *table.Table, name string, f bin.Fixed) (bin.Result, *table.Table, error) {
	xs, ok := floats(t.MustColumn(name))
	if !ok {
		return bin.Result{Width: 1}, t, nil
	}
	r, err := f.Bin(xs)
	if err != nil {
		return bin.Result{}, nil, err
	}
	return r, table.NewBuilder(t).Add(name, r.X).Done(), nil
}
