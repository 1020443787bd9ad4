// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/aclements/go-ezplot/chart"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
)

// plot builds a gg plot of chart data. It returns the plot and the
// number of facet rows and columns.
func plot(d *chart.Data) (*gg.Plot, int, int, error) {
	t := d.Table
	if t.Len() == 0 {
		return nil, 0, 0, errors.New("no data to plot")
	}
	p := gg.NewPlot(t)

	group := ""
	if t.Column("group") != nil {
		group = "group"
	}
	switch d.Kind {
	case "bar":
		// A tile of height y centered on y/2 spans [0, y].
		p.Stat(midpoint{"y", "", "bar mid"})
		p.Add(gg.LayerTiles{X: "x", Y: "bar mid", Height: "y", Fill: group})
		p.SetScale("y", gg.NewLinearScaler().Include(0))

	case "hist", "varhist":
		if t.Column("y") != nil {
			p.Add(gg.LayerTiles{X: "x", Y: "y", Fill: "w"})
			break
		}
		p.Stat(midpoint{"w", "", "bar mid"})
		p.Add(gg.LayerTiles{X: "x", Y: "bar mid", Height: "w", Fill: group})
		p.SetScale("y", gg.NewLinearScaler().Include(0))

	case "line", "density", "marginal", "compare":
		p.Add(gg.LayerLines{X: "x", Y: "y", Color: group})

	case "area":
		p.Add(gg.LayerArea{X: "x", Upper: "y", Fill: group})

	case "scatter", "agg":
		p.Add(gg.LayerPoints{X: "x", Y: "y", Color: group})

	case "box":
		// Boxes span the interquartile range behind the points.
		if d.Summary != nil && d.Summary.Len() > 0 {
			p.SetData(d.Summary)
			p.Stat(midpoint{"q1 y", "q3 y", "box mid"}, spread{"q1 y", "q3 y", "box height"})
			p.Add(gg.LayerTiles{X: "x", Y: "box mid", Height: "box height", Fill: p.Const(color.Gray{192})})
			p.SetData(t)
		}
		p.Add(gg.LayerPoints{X: "x", Y: "y", Color: group})

	default:
		return nil, 0, 0, fmt.Errorf("cannot plot %s data", d.Kind)
	}

	if t.Column("facet_x") != nil {
		p.Add(gg.FacetX{Col: "facet_x"})
	}
	if t.Column("facet_y") != nil {
		p.Add(gg.FacetY{Col: "facet_y"})
	}
	for _, axis := range []string{"x", "y"} {
		if name, ok := d.Names[axis]; ok {
			p.Add(gg.AxisLabel(axis, name))
		}
	}
	return p, facets(t, "facet_y"), facets(t, "facet_x"), nil
}

func facets(t *table.Table, col string) int {
	if t.Column(col) == nil {
		return 1
	}
	return len(table.GroupBy(t, col).Tables())
}

func floatColumn(t *table.Table, col string) []float64 {
	var xs []float64
	slice.Convert(&xs, t.MustColumn(col))
	return xs
}

// midpoint adds column out halfway between columns lo and hi. If hi
// is "", the midpoint is between 0 and lo. Missing values count as 0.
type midpoint struct {
	lo, hi, out string
}

func (s midpoint) F(g table.Grouping) table.Grouping {
	return table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		lo := floatColumn(t, s.lo)
		hi := make([]float64, len(lo))
		if s.hi != "" {
			hi = floatColumn(t, s.hi)
		}
		mid := make([]float64, len(lo))
		for i := range mid {
			mid[i] = (zeroNaN(lo[i]) + zeroNaN(hi[i])) / 2
		}
		return table.NewBuilder(t).Add(s.out, mid).Done()
	})
}

// spread adds column out holding hi - lo.
type spread struct {
	lo, hi, out string
}

func (s spread) F(g table.Grouping) table.Grouping {
	return table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		lo, hi := floatColumn(t, s.lo), floatColumn(t, s.hi)
		d := make([]float64, len(lo))
		for i := range d {
			d[i] = zeroNaN(hi[i]) - zeroNaN(lo[i])
		}
		return table.NewBuilder(t).Add(s.out, d).Done()
	})
}

func zeroNaN(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// writeSVG renders d as an SVG to w. width and height are the size of
// each facet.
func writeSVG(w io.Writer, d *chart.Data, width, height int) error {
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 350
	}
	p, nrows, ncols, err := plot(d)
	if err != nil {
		return err
	}
	if d.Kind != "agg" {
		p.Add(gg.Title(d.Kind))
	}
	return p.WriteSVG(w, width*ncols, height*nrows)
}
