// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"
)

// A Func reduces the values of a variable within a group.
//
// A Func may produce a record of several values per group. The first
// field fills the variable's own column and each further field f is
// stored in a column named "f role" following it.
type Func interface {
	// Name returns the name of the reduction.
	Name() string

	// Fields returns the names of the record fields. It has at
	// least one element.
	Fields() []string

	// Reduce reduces xs, which contains no NaNs, to one value per
	// field.
	Reduce(xs []float64) []float64
}

// A SliceFunc is a Func that can reduce columns of any type, not
// just numbers.
type SliceFunc interface {
	Func
	ReduceSlice(col table.Slice) []float64
}

type scalarFunc struct {
	name string
	f    func(xs []float64) float64
}

func (s scalarFunc) Name() string                  { return s.name }
func (s scalarFunc) Fields() []string              { return []string{s.name} }
func (s scalarFunc) Reduce(xs []float64) []float64 { return []float64{s.f(xs)} }

// Scalar functions.
var (
	Sum    Func = scalarFunc{"sum", vec.Sum}
	Mean   Func = scalarFunc{"mean", stats.Mean}
	Median Func = Quantile(0.5)
	Min    Func = scalarFunc{"min", func(xs []float64) float64 { min, _ := stats.Bounds(xs); return min }}
	Max    Func = scalarFunc{"max", func(xs []float64) float64 { _, max := stats.Bounds(xs); return max }}

	// GeoMean is NaN for groups with non-positive values.
	GeoMean Func = scalarFunc{"geomean", stats.GeoMean}
	// StdDev is the sample standard deviation. It is 0 for a single
	// value.
	StdDev  Func = scalarFunc{"stddev", stdDev}

	// Count counts the non-missing values in each group. It
	// accepts columns of any type.
	Count Func = countFunc{}
)

func stdDev(xs []float64) float64 {
	if len(xs) == 1 {
		return 0
	}
	return stats.StdDev(xs)
}

// Quantile returns a Func that computes the q'th sample quantile.
func Quantile(q float64) Func {
	name := "p" + strconv.FormatFloat(math.Round(q*1e6)/1e4, 'g', -1, 64)
	if q == 0.5 {
		name = "median"
	}
	return scalarFunc{name, func(xs []float64) float64 {
		return stats.Sample{Xs: xs}.Quantile(q)
	}}
}

type countFunc struct{}

func (countFunc) Name() string                  { return "count" }
func (countFunc) Fields() []string              { return []string{"count"} }
func (countFunc) Reduce(xs []float64) []float64 { return []float64{float64(len(xs))} }

func (countFunc) ReduceSlice(col table.Slice) []float64 {
	v := reflect.ValueOf(col)
	n := 0
	for i := 0; i < v.Len(); i++ {
		if !isMissing(v.Index(i)) {
			n++
		}
	}
	return []float64{float64(n)}
}

type recordFunc struct {
	name   string
	fields []string
	f      func(xs []float64) []float64
}

func (r recordFunc) Name() string                  { return r.name }
func (r recordFunc) Fields() []string              { return r.fields }
func (r recordFunc) Reduce(xs []float64) []float64 { return r.f(xs) }

// Record returns a record-valued Func. f must return one value per
// field.
func Record(name string, fields []string, f func(xs []float64) []float64) Func {
	return recordFunc{name, fields, f}
}

// BoxStats summarizes each group for a box plot: the median, the
// first and third quartiles, and the whisker ends, which are the most
// extreme values within 1.5 IQR of the box.
var BoxStats = Record("box", []string{"median", "q1", "q3", "whislo", "whishi"}, boxStats)

func boxStats(xs []float64) []float64 {
	if len(xs) == 0 {
		nan := math.NaN()
		return []float64{nan, nan, nan, nan, nan}
	}
	s := stats.Sample{Xs: append([]float64(nil), xs...)}
	s.Sort()
	q1, med, q3 := s.Quantile(0.25), s.Quantile(0.5), s.Quantile(0.75)
	iqr := q3 - q1
	lo, hi := q1, q3
	for _, x := range s.Xs {
		if x >= q1-1.5*iqr {
			lo = math.Min(lo, x)
			break
		}
	}
	for i := len(s.Xs) - 1; i >= 0; i-- {
		if x := s.Xs[i]; x <= q3+1.5*iqr {
			hi = math.Max(hi, x)
			break
		}
	}
	return []float64{med, q1, q3, lo, hi}
}

// MeanCI returns a Func that computes the mean of each group and its
// confidence interval at the given confidence level, based on the
// sample standard deviation.
func MeanCI(confidence float64) Func {
	return Record("meanci", []string{"mean", "lo", "hi"}, func(xs []float64) []float64 {
		m, lo, hi := stats.MeanCI(xs, confidence)
		return []float64{m, lo, hi}
	})
}

var funcsByName = map[string]Func{
	"sum":     Sum,
	"mean":    Mean,
	"median":  Median,
	"min":     Min,
	"max":     Max,
	"count":   Count,
	"geomean": GeoMean,
	"stddev":  StdDev,
	"std":     StdDev,
	"box":     BoxStats,
	"meanci":  MeanCI(0.95),
}

// Lookup returns the Func with the given name. In addition to the
// names of the Funcs in this package, "pN" is the N'th percentile,
// and the empty string and "none" return a nil Func, which disables
// aggregation.
func Lookup(name string) (Func, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return nil, nil
	}
	if f, ok := funcsByName[name]; ok {
		return f, nil
	}
	if strings.HasPrefix(name, "p") {
		if p, err := strconv.ParseFloat(name[1:], 64); err == nil && 0 <= p && p <= 100 {
			return Quantile(p / 100), nil
		}
	}
	return nil, usagef("unknown aggregation function %q", name)
}

// reduce applies f to col, which must be a numeric column unless f is
// a SliceFunc. NaN values are ignored.
func reduce(f Func, col table.Slice) ([]float64, error) {
	if sf, ok := f.(SliceFunc); ok {
		return sf.ReduceSlice(col), nil
	}
	xs, err := toFloats(col)
	if err != nil {
		return nil, err
	}
	out := f.Reduce(dropNaN(xs))
	if len(out) != len(f.Fields()) {
		return nil, fmt.Errorf("%s returned %d values for %d fields", f.Name(), len(out), len(f.Fields()))
	}
	return out, nil
}

func dropNaN(xs []float64) []float64 {
	out := xs[:0:0]
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
