// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"math"

	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/bin"
	"github.com/aclements/go-ezplot/order"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
)

// DensitySpec describes a kernel density estimate of x.
type DensitySpec struct {
	Spec

	// Bandwidth is the kernel bandwidth. If 0, it is estimated
	// from each group's samples.
	Bandwidth float64

	// Points is the number of points at which to sample each
	// density. If 0, a default is used.
	Points int

	// SplitGroups samples each group's density over its own range
	// instead of the range of all samples.
	SplitGroups bool
}

// Density estimates the probability density of x for each group and
// facet. The result has an "x" column of sample points and a "y"
// column of densities. NaN values of x are ignored.
func Density(t *table.Table, s DensitySpec) (*Data, error) {
	if err := s.require("density", "x"); err != nil {
		return nil, err
	}
	pos, err := choose("position", s.Position, "overlay", "overlay", "stack")
	if err != nil {
		return nil, err
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	tmp, err := agg.Aggregate(t, s.request(groups, nil, nil, false))
	if err != nil {
		return nil, err
	}
	xs, ok := floats(tmp.MustColumn("x"))
	if !ok {
		return nil, usagef("density chart requires numeric x")
	}
	keys := present(tmp, "group", "facet_x", "facet_y")

	var keep []int
	for i, x := range xs {
		if !math.IsNaN(x) {
			keep = append(keep, i)
		}
	}
	b := new(table.Builder).Add("x", slice.Select(xs, keep))
	for _, k := range keys {
		b.Add(k, slice.Select(tmp.MustColumn(k), keep))
	}
	tmp = b.Done()

	d := &Data{Kind: "density", Names: s.names(groups), Position: pos}
	d.Names["y"] = "density"
	if tmp.Len() == 0 {
		b := new(table.Builder).Add("x", []float64{}).Add("y", []float64{})
		for _, k := range keys {
			b.Add(k, tmp.MustColumn(k))
		}
		d.Table = b.Done()
		return d, nil
	}

	var g table.Grouping = tmp
	if len(keys) > 0 {
		g = table.GroupBy(tmp, keys...)
	}
	dens := ggstat.Density{
		X:         "x",
		N:         s.Points,
		Bandwidth: s.Bandwidth,
		Domain:    kdeDomain{s.Bandwidth, s.SplitGroups},
	}.F(g)
	out := table.MapTables(dens, func(gid table.GroupID, dt *table.Table) *table.Table {
		b := new(table.Builder).
			Add("x", dt.MustColumn("x")).
			Add("y", dt.MustColumn("probability density"))
		src := g.Table(gid)
		first := make([]int, dt.Len())
		for _, k := range keys {
			b.Add(k, slice.Select(src.MustColumn(k), first))
		}
		return b.Done()
	})
	d.Table = table.Flatten(out)
	return d, nil
}

// kdeCut is how many bandwidths past the data a density is sampled.
const kdeCut = 3

// kdeDomain is a ggstat.FunctionDomainer that extends the bounds of
// the data by kdeCut bandwidths on each side. A zero bandwidth is
// estimated per group the way ggstat.Density does.
type kdeDomain struct {
	bandwidth   float64
	splitGroups bool
}

func (r kdeDomain) FunctionDomain(g table.Grouping, col string) func(gid table.GroupID) (min, max float64) {
	bounds := func(gid table.GroupID) (min, max, bw float64) {
		var sample stats.Sample
		slice.Convert(&sample.Xs, g.Table(gid).MustColumn(col))
		min, max = stats.Bounds(sample.Xs)
		bw = r.bandwidth
		if bw == 0 && len(sample.Xs) > 1 {
			bw = stats.BandwidthScott(sample)
		}
		if math.IsNaN(bw) || math.IsInf(bw, 0) {
			bw = 0
		}
		return
	}
	if r.splitGroups {
		return func(gid table.GroupID) (min, max float64) {
			min, max, bw := bounds(gid)
			return min - kdeCut*bw, max + kdeCut*bw
		}
	}
	gmin, gmax, gbw := math.NaN(), math.NaN(), 0.0
	for _, gid := range g.Tables() {
		min, max, bw := bounds(gid)
		if min < gmin || math.IsNaN(gmin) {
			gmin = min
		}
		if max > gmax || math.IsNaN(gmax) {
			gmax = max
		}
		gbw = math.Max(gbw, bw)
	}
	gmin, gmax = gmin-kdeCut*gbw, gmax+kdeCut*gbw
	return func(table.GroupID) (min, max float64) {
		return gmin, gmax
	}
}

// MarginalSpec describes the marginal relationship between a binned x
// and y.
type MarginalSpec struct {
	Spec

	// Bins is the number of x bins. It defaults to DefaultBins.
	Bins int

	// Quantiles bins x into bins holding equal numbers of rows,
	// separately for each group and facet, and labels each bin by
	// the mean of its values. Otherwise, bins are evenly spaced.
	Quantiles bool
}

// Marginal bins x and aggregates y within each bin, group, and facet.
// The default Func is agg.Sum.
func Marginal(t *table.Table, s MarginalSpec) (*Data, error) {
	if err := s.require("marginal", "x", "y"); err != nil {
		return nil, err
	}
	n := s.Bins
	if n == 0 {
		n = DefaultBins
	}
	groups := s.bindings("x", "group", "facet_x", "facet_y")
	vars := s.bindings("y")
	tmp, err := agg.Aggregate(t, s.request(groups, vars, nil, false))
	if err != nil {
		return nil, err
	}
	xs, ok := floats(tmp.MustColumn("x"))
	if !ok {
		return nil, usagef("marginal chart requires numeric x")
	}

	d := &Data{Kind: "marginal", Names: s.names(append(groups, vars...))}
	var binned []float64
	if s.Quantiles {
		keys := groupKeys(tmp, present(tmp, "group", "facet_x", "facet_y"))
		if binned, err = bin.QuantileBy(xs, keys, n); err != nil {
			return nil, err
		}
		d.XBins = bin.Result{X: binned, Count: n}
	} else {
		if d.XBins, err = (bin.Fixed{Count: n}).Bin(xs); err != nil {
			return nil, err
		}
		binned = d.XBins.X
	}
	tmp = table.NewBuilder(tmp).Add("x", binned).Done()

	out, err := agg.Aggregate(tmp, s.request(rebind(groups), rebind(vars), s.fn(agg.Sum), true))
	if err != nil {
		return nil, err
	}
	if s.Sort {
		if out, err = order.SortRoles(out, "y"); err != nil {
			return nil, err
		}
	}
	d.Table = reorder(out)
	return d, nil
}
