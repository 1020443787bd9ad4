// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bin discretizes numeric columns.
//
// Binned values are replaced by a representative value of their bin
// rather than a bin index, so binned columns remain directly
// plottable on a continuous axis.
package bin

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"
)

// ErrBinSpec is returned (wrapped) for an invalid bin specification.
var ErrBinSpec = errors.New("invalid bin specification")

// Fixed specifies uniformly-sized bins. Exactly one of Count and
// Width must be set.
type Fixed struct {
	// Count is the number of bins. The outermost bins are
	// centered on the minimum and maximum values, so Count must
	// be at least 2.
	Count int

	// Width is the width of each bin. The first bin is centered
	// on the minimum value.
	Width float64
}

// A Result is a binned column and the resolved bin shape.
type Result struct {
	X     []float64
	Count int
	Width float64
}

func (f Fixed) check() error {
	switch {
	case f.Count != 0 && f.Width != 0:
		return fmt.Errorf("%w: both bin count and bin width given", ErrBinSpec)
	case f.Count == 0 && f.Width == 0:
		return fmt.Errorf("%w: one of bin count or bin width is required", ErrBinSpec)
	case f.Count < 0 || f.Count == 1:
		return fmt.Errorf("%w: bin count %d must be at least 2", ErrBinSpec, f.Count)
	case f.Width < 0 || math.IsNaN(f.Width) || math.IsInf(f.Width, 0):
		return fmt.Errorf("%w: bin width %v must be positive", ErrBinSpec, f.Width)
	}
	return nil
}

// Bin replaces each value in xs with the center of the bin containing
// it. Bins are the half-open intervals (c-Width/2, c+Width/2] around
// the centers c = min + i*Width, so a value on a boundary belongs to
// the lower bin. The minimum falls in the first bin. Values past the
// last boundary, which can happen when Width does not evenly divide
// the range, fall in the last bin.
//
// NaN values are ignored when computing the range and are NaN in the
// result. If every value is equal, there is a single bin.
func (f Fixed) Bin(xs []float64) (Result, error) {
	if err := f.check(); err != nil {
		return Result{}, err
	}

	min, max := stats.Bounds(dropNaN(xs))
	out := make([]float64, len(xs))
	if math.IsNaN(min) {
		// Nothing but missing values.
		for i := range out {
			out[i] = math.NaN()
		}
		return Result{out, 0, f.Width}, nil
	}

	res := Result{X: out, Count: f.Count, Width: f.Width}
	span := max - min
	switch {
	case span == 0:
		res.Count = 1
		if res.Width == 0 {
			res.Width = 1
		}
	case f.Count != 0:
		res.Width = span / float64(f.Count-1)
	default:
		res.Count = int(math.Floor(span/f.Width)) + 1
	}

	centers := vec.Linspace(min, min+float64(res.Count-1)*res.Width, res.Count)
	lo := min - res.Width/2
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = x
			continue
		}
		b := int(math.Ceil((x-lo)/res.Width)) - 1
		if b < 0 {
			b = 0
		} else if b >= res.Count {
			b = res.Count - 1
		}
		out[i] = centers[b]
	}
	return res, nil
}

// Quantile partitions xs into n bins holding roughly equal numbers of
// values and replaces each value with the mean of the values in its
// bin. The bin edges are the k/n sample quantiles of xs, interpolated
// linearly between closest ranks. Duplicate edges collapse, so there
// may be fewer than n bins. Each bin includes its upper edge, and the
// first also includes its lower edge.
//
// NaN values are ignored when computing edges and are NaN in the
// result.
func Quantile(xs []float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: quantile count %d must be at least 1", ErrBinSpec, n)
	}
	edges := quantileEdges(xs, n)

	nb := len(edges) - 1
	if nb < 1 {
		nb = 1
	}
	idx := make([]int, len(xs))
	sums := make([]float64, nb)
	counts := make([]int, nb)
	for i, x := range xs {
		if math.IsNaN(x) {
			idx[i] = -1
			continue
		}
		b := 0
		if len(edges) > 2 {
			b = sort.SearchFloat64s(edges[1:], x)
			if b >= nb {
				b = nb - 1
			}
		}
		idx[i] = b
		sums[b] += x
		counts[b]++
	}

	out := make([]float64, len(xs))
	for i, b := range idx {
		if b < 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sums[b] / float64(counts[b])
		}
	}
	return out, nil
}

// quantileEdges returns the distinct k/n quantiles of the non-NaN
// values of xs, for k in [0, n].
func quantileEdges(xs []float64, n int) []float64 {
	s := stats.Sample{Xs: dropNaN(xs)}
	if len(s.Xs) == 0 {
		return nil
	}
	s.Sort()
	edges := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		q := linearQuantile(s.Xs, float64(k)/float64(n))
		if len(edges) > 0 && q <= edges[len(edges)-1] {
			continue
		}
		edges = append(edges, q)
	}
	return edges
}

// linearQuantile returns the q'th quantile of sorted xs, interpolating
// linearly between the closest ranks at h = (len(xs)-1)*q.
func linearQuantile(xs []float64, q float64) float64 {
	h := float64(len(xs)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(xs)-1 {
		return xs[len(xs)-1]
	}
	return xs[lo] + (h-float64(lo))*(xs[lo+1]-xs[lo])
}

// QuantileBy is like Quantile, but bins the values of each key
// independently. keys must have the same length as xs.
func QuantileBy(xs []float64, keys []int, n int) ([]float64, error) {
	if len(keys) != len(xs) {
		return nil, fmt.Errorf("%d keys for %d values", len(keys), len(xs))
	}
	rows := make(map[int][]int)
	var order []int
	for i, k := range keys {
		if _, ok := rows[k]; !ok {
			order = append(order, k)
		}
		rows[k] = append(rows[k], i)
	}

	out := make([]float64, len(xs))
	for _, k := range order {
		sub := make([]float64, len(rows[k]))
		for j, i := range rows[k] {
			sub[j] = xs[i]
		}
		binned, err := Quantile(sub, n)
		if err != nil {
			return nil, err
		}
		for j, i := range rows[k] {
			out[i] = binned[j]
		}
	}
	return out, nil
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
