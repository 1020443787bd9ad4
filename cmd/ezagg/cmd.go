// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/chart"
	"github.com/aclements/go-ezplot/order"
	"github.com/aclements/go-ezplot/server"
	"github.com/aclements/go-ezplot/source"
	"github.com/aclements/go-gg/table"
	"github.com/spf13/cobra"
)

// globalFlags are the flags shared by every command.
type globalFlags struct {
	format  string
	out     string
	width   int
	height  int
	verbose int
	maxFill int
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case g.verbose >= 2:
		level = slog.LevelDebug
	case g.verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	g := new(globalFlags)
	root := &cobra.Command{
		Use:           "ezagg",
		Short:         "Aggregate tabular data and prepare chart data",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.format, "format", "f", "", "output `format`: text, pretty, json, csv, arrow, or svg (default pretty on a terminal, otherwise text)")
	pf.StringVarP(&g.out, "output", "o", "", "write output to `file` (default: stdout)")
	pf.IntVar(&g.width, "width", 0, "SVG width per facet column (default 500)")
	pf.IntVar(&g.height, "height", 0, "SVG height per facet row (default 350)")
	pf.CountVarP(&g.verbose, "verbose", "v", "log engine diagnostics (repeat for more)")
	pf.IntVar(&g.maxFill, "max-fill", 1e6, "maximum rows produced by filling groups (0 for unlimited)")

	root.AddCommand(newAggCmd(g))
	for _, kind := range chart.Kinds {
		root.AddCommand(newChartCmd(g, kind))
	}
	root.AddCommand(newServeCmd(g))
	return root
}

type aggFlags struct {
	x, y, group, facetX, facetY string
	vars                        []string
	fn                          string
	fill, sort                  bool
	indexName                   string
}

func newAggCmd(g *globalFlags) *cobra.Command {
	f := new(aggFlags)
	cmd := &cobra.Command{
		Use:   "agg [flags] [files...]",
		Short: "Group by the x, group, and facet roles and aggregate y",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgg(cmd, g, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.x, "x", "x", "", "x role `exprs`")
	fl.StringVarP(&f.y, "y", "y", "", "y role `exprs`")
	fl.StringVarP(&f.group, "group", "g", "", "group role `exprs`")
	fl.StringVar(&f.facetX, "facet-x", "", "facet_x role `exprs`")
	fl.StringVar(&f.facetY, "facet-y", "", "facet_y role `exprs`")
	fl.StringArrayVar(&f.vars, "var", nil, "additional variable `name:exprs` (may be repeated)")
	fl.StringVar(&f.fn, "agg", "sum", "aggregation `function`, or none")
	fl.BoolVar(&f.fill, "fill", false, "add rows for missing group combinations")
	fl.BoolVar(&f.sort, "sort", false, "order categorical roles by y")
	fl.StringVar(&f.indexName, "index-name", "", "label for the .index expression")
	return cmd
}

func runAgg(cmd *cobra.Command, g *globalFlags, f *aggFlags, args []string) error {
	fn, err := agg.Lookup(f.fn)
	if err != nil {
		return err
	}
	req := agg.Request{
		Func:       fn,
		FillGroups: f.fill,
		MaxFill:    g.maxFill,
		IndexName:  f.indexName,
		Logger:     g.logger(cmd),
	}
	for _, r := range []struct{ name, val string }{
		{"x", f.x}, {"group", f.group}, {"facet_x", f.facetX}, {"facet_y", f.facetY},
	} {
		if r.val == "" {
			continue
		}
		role, err := parseRole(r.name, r.val)
		if err != nil {
			return err
		}
		req.Groups = append(req.Groups, role)
	}
	if f.y != "" {
		role, err := parseRole("y", f.y)
		if err != nil {
			return err
		}
		req.Variables = append(req.Variables, role)
	}
	for _, v := range f.vars {
		name, exprs, ok := strings.Cut(v, ":")
		if !ok || name == "" {
			return fmt.Errorf("--var %q: want name:exprs", v)
		}
		role, err := parseRole(name, exprs)
		if err != nil {
			return err
		}
		req.Variables = append(req.Variables, role)
	}
	if len(req.Groups) == 0 && len(req.Variables) == 0 {
		return errors.New("no roles given; use -x, -y, -g, --facet-x, --facet-y, or --var")
	}

	t, err := load(cmd.Context(), args)
	if err != nil {
		return err
	}
	out, err := agg.Aggregate(t, req)
	if err != nil {
		return err
	}
	if f.sort && f.y != "" {
		if out, err = sortAgg(out); err != nil {
			return err
		}
	}
	plan, err := agg.Resolve(req)
	if err != nil {
		return err
	}
	return g.write(cmd, &chart.Data{Kind: "agg", Table: out, Names: plan.Labels()})
}

// sortAgg orders the roles of an aggregated table by y, using the
// first component if y is a vector role.
func sortAgg(t *table.Table) (*table.Table, error) {
	if t.Column("y") != nil {
		return order.SortRoles(t, "y")
	}
	return order.SortRoles(t, "y_0")
}

func newChartCmd(g *globalFlags, kind string) *cobra.Command {
	var (
		o      chart.Options
		fn     string
		noSort bool
	)
	cmd := &cobra.Command{
		Use:   kind + " [flags] [files...]",
		Short: "Prepare " + kind + " chart data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fn != "" {
				f, err := agg.Lookup(fn)
				if err != nil {
					return err
				}
				o.Func = f
			}
			// Comparisons and variable histograms take a
			// list of expressions for one role.
			var err error
			switch kind {
			case "compare":
				if o.Ys, err = exprList("y", &o.Y); err != nil {
					return err
				}
			case "varhist":
				if o.Xs, err = exprList("x", &o.X); err != nil {
					return err
				}
			}
			o.Sort = !noSort
			o.MaxFill = g.maxFill
			o.Logger = g.logger(cmd)
			t, err := load(cmd.Context(), args)
			if err != nil {
				return err
			}
			d, err := chart.Make(kind, t, o)
			if err != nil {
				return err
			}
			return g.write(cmd, d)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&o.X, "x", "x", "", "x `expr`")
	fl.StringVarP(&o.Y, "y", "y", "", "y `expr`")
	fl.StringVarP(&o.Group, "group", "g", "", "group `expr`")
	fl.StringVar(&o.FacetX, "facet-x", "", "facet_x `expr`")
	fl.StringVar(&o.FacetY, "facet-y", "", "facet_y `expr`")
	fl.StringVar(&o.IndexName, "index-name", "", "label for the .index expression")

	switch kind {
	case "bar", "line", "area", "marginal", "compare":
		fl.StringVar(&fn, "agg", "", "aggregation `function` (default depends on the chart)")
		fl.BoolVar(&noSort, "no-sort", false, "keep categorical roles in order of appearance")
	}
	switch kind {
	case "bar", "hist", "density", "varhist":
		fl.StringVar(&o.Position, "position", "", "bar `position`: stack, dodge, or overlay")
	}
	switch kind {
	case "bar", "box":
		fl.StringVar(&o.Orientation, "orientation", "", "vertical or horizontal")
	}
	switch kind {
	case "hist":
		fl.StringVarP(&o.W, "w", "w", "", "weight `expr`")
		fl.IntVar(&o.Bins, "bins", 0, "number of x bins")
		fl.Float64Var(&o.BinWidth, "bin-width", 0, "width of x bins")
		fl.IntVar(&o.YBins, "y-bins", 0, "number of y bins")
		fl.Float64Var(&o.YBinWidth, "y-bin-width", 0, "width of y bins")
		fl.BoolVar(&o.Normalize, "normalize", false, "normalize weights to a density")
	case "varhist":
		fl.StringVarP(&o.W, "w", "w", "", "weight `expr`")
		fl.IntVar(&o.Bins, "bins", 0, "number of bins per variable")
		fl.Float64Var(&o.BinWidth, "bin-width", 0, "width of bins")
		fl.BoolVar(&o.Normalize, "normalize", false, "normalize each variable's weights to a density")
	case "marginal":
		fl.IntVar(&o.Bins, "bins", 0, "number of x bins")
		fl.BoolVar(&o.Quantiles, "quantiles", false, "use quantile bins within each group")
	case "density":
		fl.Float64Var(&o.Bandwidth, "bandwidth", 0, "kernel bandwidth (default Scott's rule)")
		fl.IntVar(&o.Points, "points", 0, "number of points to evaluate")
	}
	return cmd
}

// exprList splits the role flag *val into its expressions and clears
// it.
func exprList(role string, val *string) ([]string, error) {
	if *val == "" {
		return nil, nil
	}
	r, err := parseRole(role, *val)
	if err != nil {
		return nil, err
	}
	*val = ""
	return r.Exprs, nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr      string
		cacheSize int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := g.logger(cmd)
			s, err := server.New(server.Config{Logger: log, CacheSize: cacheSize, MaxFill: g.maxFill})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			hs := &http.Server{Addr: addr, Handler: s}
			errc := make(chan error, 1)
			go func() { errc <- hs.ListenAndServe() }()
			log.Warn("serving", "addr", addr)
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return hs.Shutdown(sctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen `address`")
	cmd.Flags().IntVar(&cacheSize, "cache", 1024, "number of compiled expressions to cache")
	return cmd
}

func load(ctx context.Context, args []string) (*table.Table, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return source.Load(ctx, args...)
}
