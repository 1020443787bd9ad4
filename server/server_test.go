// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

const salesData = `[
	{"region": "east", "product": "a", "sales": 1},
	{"region": "west", "product": "a", "sales": 2},
	{"region": "east", "product": "b", "sales": 3},
	{"region": "west", "product": "b", "sales": 4},
	{"region": "east", "product": "a", "sales": 5}
]`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func post(t *testing.T, s *Server, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func decode(t *testing.T, body []byte) *Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return &resp
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAggregate(t *testing.T) {
	s := newTestServer(t)
	code, body := post(t, s, "/api/aggregate", `{
		"data": `+salesData+`,
		"groups": [{"name": "x", "expr": "region"}],
		"variables": [{"name": "y", "expr": "total = sales"}, {"name": "share", "expr": "@y / 5"}],
		"agg": "sum"
	}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	resp := decode(t, body)
	want := &Response{
		Columns: []string{"x", "y", "share"},
		Rows:    [][]interface{}{{"east", 9.0, 1.8}, {"west", 6.0, 1.2}},
		Names:   map[string]string{"x": "region", "y": "total", "share": "y/5"},
	}
	if diff := cmp.Diff(want, resp, floatApprox); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

var floatApprox = cmp.Comparer(func(a, b float64) bool {
	d := a - b
	return -1e-9 < d && d < 1e-9
})

func TestAggregateFill(t *testing.T) {
	s := newTestServer(t)
	code, body := post(t, s, "/api/aggregate", `{
		"data": {"columns": ["a", "b", "v"], "rows": [["p", "u", 1], ["q", "w", 2]]},
		"groups": [{"name": "a", "expr": "a"}, {"name": "b", "expr": "b"}],
		"variables": [{"name": "v", "expr": "v"}],
		"agg": "sum",
		"fill_groups": true
	}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	resp := decode(t, body)
	want := [][]interface{}{{"p", "u", 1.0}, {"p", "w", nil}, {"q", "u", nil}, {"q", "w", 2.0}}
	if diff := cmp.Diff(want, resp.Rows); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestChart(t *testing.T) {
	s := newTestServer(t)
	code, body := post(t, s, "/api/chart/bar", `{
		"data": `+salesData+`,
		"x": "region",
		"y": "sales",
		"group": "product",
		"position": "dodge"
	}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	resp := decode(t, body)
	want := &Response{
		Columns: []string{"x", "y", "group"},
		Rows: [][]interface{}{
			{"east", 6.0, "a"},
			{"east", 3.0, "b"},
			{"west", 2.0, "a"},
			{"west", 4.0, "b"},
		},
		Names: map[string]string{"x": "region", "y": "sales", "group": "product"},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestChartCompare(t *testing.T) {
	s := newTestServer(t)
	code, body := post(t, s, "/api/chart/compare", `{
		"data": `+salesData+`,
		"x": "region",
		"ys": ["sales", "double = sales * 2"]
	}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	want := &Response{
		Columns: []string{"x", "y", "group"},
		Rows: [][]interface{}{
			{"east", 9.0, "sales"},
			{"west", 6.0, "sales"},
			{"east", 18.0, "double"},
			{"west", 12.0, "double"},
		},
		Names: map[string]string{"x": "region", "y": "value", "group": "variable"},
	}
	if diff := cmp.Diff(want, decode(t, body)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestChartBox(t *testing.T) {
	s := newTestServer(t)
	code, body := post(t, s, "/api/chart/box", `{"data": `+salesData+`, "x": "region", "y": "sales"}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	resp := decode(t, body)
	if resp.Summary == nil {
		t.Fatal("missing summary")
	}
	if want := []string{"x", "y", "q1 y", "q3 y", "whislo y", "whishi y"}; !cmp.Equal(want, resp.Summary.Columns) {
		t.Errorf("summary columns: want %v; got %v", want, resp.Summary.Columns)
	}
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	for _, test := range []struct {
		path, body string
		code       int
		msg        string
	}{
		{"/api/aggregate", `{"data": [{"a": 1}], "variables": [{"name": "y", "expr": "a"}], "agg": "nope"}`, 400, "unknown aggregation"},
		{"/api/aggregate", `{"data": [{"a": 1}], "variables": [{"name": "y", "expr": "a +"}], "agg": "sum"}`, 400, "y"},
		{"/api/aggregate", `{"variables": [{"name": "y", "expr": "a"}]}`, 400, "missing data"},
		{"/api/aggregate", `{"data": 3}`, 400, "data"},
		{"/api/aggregate", `{"data": `, 400, ""},
		{"/api/chart/pie", `{"data": [{"a": 1}], "x": "a"}`, 400, "unknown chart kind"},
		{"/api/chart/hist", `{"data": [{"a": 1}]}`, 400, ""},
		{"/api/nothing", `{}`, 404, ""},
	} {
		code, body := post(t, s, test.path, test.body)
		if code != test.code {
			t.Errorf("%s %s: want status %d; got %d: %s", test.path, test.body, test.code, code, body)
			continue
		}
		var e struct{ Error string }
		if err := json.Unmarshal(body, &e); err != nil {
			t.Errorf("%s %s: decoding error %s: %v", test.path, test.body, body, err)
			continue
		}
		if !strings.Contains(e.Error, test.msg) {
			t.Errorf("%s %s: want error containing %q; got %q", test.path, test.body, test.msg, e.Error)
		}
	}
}
