// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server serves aggregations and chart data over HTTP.
//
// Requests carry their data inline as JSON, either as an array of
// records or as a {"columns": [...], "rows": [[...], ...]} object,
// and responses use the same columnar form.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aclements/go-ezplot/agg"
	"github.com/aclements/go-ezplot/bin"
	"github.com/aclements/go-ezplot/chart"
	"github.com/aclements/go-ezplot/expr"
	"github.com/aclements/go-ezplot/source"
	"github.com/aclements/go-gg/table"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config configures a Server.
type Config struct {
	// Logger receives request logs and engine diagnostics. It
	// defaults to slog.Default().
	Logger *slog.Logger

	// CacheSize is the number of compiled expressions to keep.
	// It defaults to 1024.
	CacheSize int

	// MaxFill limits the rows produced by filling groups. It
	// defaults to 1e6.
	MaxFill int

	// BodyLimit limits request bodies, in echo's size syntax. It
	// defaults to "32M".
	BodyLimit string
}

// A Server is an HTTP handler for the aggregation API.
type Server struct {
	e       *echo.Echo
	log     *slog.Logger
	cache   *expr.Cache
	maxFill int
}

// New returns a new Server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 1024
	}
	if cfg.MaxFill == 0 {
		cfg.MaxFill = 1e6
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "32M"
	}
	cache, err := expr.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Server{log: cfg.Logger, cache: cache, maxFill: cfg.MaxFill}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goccySerializer{}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			s.log.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok\n")
	})
	api := e.Group("/api")
	api.POST("/aggregate", s.aggregate)
	api.POST("/chart/:kind", s.chart)
	s.e = e
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// A Role is the JSON form of an agg.Role. Exactly one of Expr and
// Exprs should be set.
type Role struct {
	Name     string   `json:"name"`
	Expr     string   `json:"expr,omitempty"`
	Exprs    []string `json:"exprs,omitempty"`
	Deferred bool     `json:"deferred,omitempty"`
}

// AggregateRequest is the body of POST /api/aggregate.
type AggregateRequest struct {
	Data       json.RawMessage `json:"data"`
	Groups     []Role          `json:"groups"`
	Variables  []Role          `json:"variables"`
	Agg        string          `json:"agg"`
	FillGroups bool            `json:"fill_groups"`
}

// ChartRequest is the body of POST /api/chart/:kind.
type ChartRequest struct {
	Data        json.RawMessage `json:"data"`
	X           string          `json:"x"`
	Y           string          `json:"y"`
	Group       string          `json:"group"`
	FacetX      string          `json:"facet_x"`
	FacetY      string          `json:"facet_y"`
	Agg         string          `json:"agg"`
	Sort        *bool           `json:"sort"`
	Position    string          `json:"position"`
	Orientation string          `json:"orientation"`
	W           string          `json:"w"`
	Bins        int             `json:"bins"`
	BinWidth    float64         `json:"bin_width"`
	YBins       int             `json:"y_bins"`
	YBinWidth   float64         `json:"y_bin_width"`
	Normalize   bool            `json:"normalize"`
	Quantiles   bool            `json:"quantiles"`
	Bandwidth   float64         `json:"bandwidth"`
	Points      int             `json:"points"`

	// Xs are the variables of a varhist chart and Ys the y
	// expressions of a compare chart.
	Xs []string `json:"xs"`
	Ys []string `json:"ys"`
}

// A Response is a table in columnar form.
type Response struct {
	Columns []string          `json:"columns"`
	Rows    [][]interface{}   `json:"rows"`
	Names   map[string]string `json:"names,omitempty"`
	Summary *Response         `json:"summary,omitempty"`
}

func newResponse(t *table.Table) *Response {
	return &Response{Columns: t.Columns(), Rows: source.Rows(t)}
}

// badRequest marks an error caused by the request.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func (s *Server) readData(raw json.RawMessage) (*table.Table, error) {
	if len(raw) == 0 {
		return nil, badRequest{errors.New("missing data")}
	}
	t, err := source.Read(bytes.NewReader(raw), source.JSON)
	if err != nil {
		return nil, badRequest{fmt.Errorf("data: %w", err)}
	}
	return t, nil
}

func (s *Server) aggregate(c echo.Context) error {
	var req AggregateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	t, err := s.readData(req.Data)
	if err != nil {
		return err
	}
	f, err := agg.Lookup(req.Agg)
	if err != nil {
		return err
	}
	ar := agg.Request{
		Func:       f,
		FillGroups: req.FillGroups,
		MaxFill:    s.maxFill,
		Compiler:   s.cache,
		Logger:     s.log,
	}
	for _, r := range req.Groups {
		ar.Groups = append(ar.Groups, r.role())
	}
	for _, r := range req.Variables {
		ar.Variables = append(ar.Variables, r.role())
	}
	start := time.Now()
	out, err := agg.Aggregate(t, ar)
	if err != nil {
		return err
	}
	s.log.Debug("aggregated", "rows", t.Len(), "groups", out.Len(), "elapsed", time.Since(start))

	plan, err := agg.Resolve(ar)
	if err != nil {
		return err
	}
	resp := newResponse(out)
	resp.Names = plan.Labels()
	return c.JSON(http.StatusOK, resp)
}

func (r Role) role() agg.Role {
	exprs := r.Exprs
	if r.Expr != "" {
		exprs = append([]string{r.Expr}, exprs...)
	}
	return agg.Role{Name: r.Name, Exprs: exprs, Deferred: r.Deferred}
}

func (s *Server) chart(c echo.Context) error {
	var req ChartRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	t, err := s.readData(req.Data)
	if err != nil {
		return err
	}
	var f agg.Func
	if req.Agg != "" {
		if f, err = agg.Lookup(req.Agg); err != nil {
			return err
		}
	}
	o := chart.Options{
		Spec: chart.Spec{
			X:           req.X,
			Y:           req.Y,
			Group:       req.Group,
			FacetX:      req.FacetX,
			FacetY:      req.FacetY,
			Func:        f,
			Sort:        req.Sort == nil || *req.Sort,
			Position:    req.Position,
			Orientation: req.Orientation,
			MaxFill:     s.maxFill,
			Compiler:    s.cache,
			Logger:      s.log,
		},
		W:         req.W,
		Bins:      req.Bins,
		BinWidth:  req.BinWidth,
		YBins:     req.YBins,
		YBinWidth: req.YBinWidth,
		Normalize: req.Normalize,
		Quantiles: req.Quantiles,
		Bandwidth: req.Bandwidth,
		Points:    req.Points,
		Xs:        req.Xs,
		Ys:        req.Ys,
	}
	d, err := chart.Make(c.Param("kind"), t, o)
	if err != nil {
		return err
	}
	resp := newResponse(d.Table)
	resp.Names = d.Names
	if d.Summary != nil {
		resp.Summary = newResponse(d.Summary)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleError reports err as a JSON {"error": ...} object. Errors in
// the request are reported as 400 Bad Request.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	var usage *agg.UsageError
	var eval *agg.EvalError
	var bad badRequest
	switch {
	case errors.As(err, &he):
		code = he.Code
		if he.Internal != nil {
			err = he.Internal
		} else {
			err = fmt.Errorf("%v", he.Message)
		}
	case errors.As(err, &usage), errors.As(err, &eval), errors.As(err, &bad),
		errors.Is(err, bin.ErrBinSpec), errors.Is(err, agg.ErrFillTooLarge):
		code = http.StatusBadRequest
	}
	if code >= 500 {
		s.log.Error("internal error", "uri", c.Request().RequestURI, "err", err)
	}
	if err := c.JSON(code, map[string]string{"error": err.Error()}); err != nil {
		s.log.Error("writing error response", "err", err)
	}
}

// goccySerializer is an echo.JSONSerializer that uses goccy/go-json.
type goccySerializer struct{}

func (goccySerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (goccySerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
