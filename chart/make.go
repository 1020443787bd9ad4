// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import "github.com/aclements/go-gg/table"

// Kinds lists the chart kinds accepted by Make.
var Kinds = []string{"bar", "line", "area", "scatter", "box", "hist", "density", "marginal", "compare", "varhist"}

// Options combines the options of every chart kind. Each kind uses
// the options that apply to it and ignores the rest.
type Options struct {
	Spec

	// Histogram options. Bins is also the number of marginal bins.
	W                    string
	Bins                 int
	BinWidth             float64
	YBins                int
	YBinWidth            float64
	Normalize, Quantiles bool

	// Density options.
	Bandwidth float64
	Points    int

	// Xs are the variables of a variable histogram and Ys are the
	// y expressions of a comparison. If empty, X or Y is used.
	Xs, Ys []string
}

// Make prepares a chart of the given kind.
func Make(kind string, t *table.Table, o Options) (*Data, error) {
	switch kind {
	case "bar":
		return Bar(t, o.Spec)
	case "line":
		return Line(t, o.Spec)
	case "area":
		return Area(t, o.Spec)
	case "scatter":
		return Scatter(t, o.Spec)
	case "box":
		return Box(t, o.Spec)
	case "hist":
		return Hist(t, HistSpec{
			Spec:      o.Spec,
			W:         o.W,
			Bins:      o.Bins,
			BinWidth:  o.BinWidth,
			YBins:     o.YBins,
			YBinWidth: o.YBinWidth,
			Normalize: o.Normalize,
		})
	case "density":
		return Density(t, DensitySpec{Spec: o.Spec, Bandwidth: o.Bandwidth, Points: o.Points})
	case "marginal":
		return Marginal(t, MarginalSpec{Spec: o.Spec, Bins: o.Bins, Quantiles: o.Quantiles})
	case "compare":
		return Compare(t, CompareSpec{Spec: o.Spec, Ys: o.Ys})
	case "varhist":
		return VariableHist(t, VariableHistSpec{
			Spec:      o.Spec,
			Xs:        o.Xs,
			W:         o.W,
			Bins:      o.Bins,
			BinWidth:  o.BinWidth,
			Normalize: o.Normalize,
		})
	}
	return nil, usagef("unknown chart kind %q", kind)
}
