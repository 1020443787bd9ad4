// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var nan = math.NaN()

// tableDiff returns a description of the differences between want and
// got, or "" if they are the same.
func tableDiff(want, got *table.Table) string {
	if !reflect.DeepEqual(want.Columns(), got.Columns()) {
		return "columns: want " + strings.Join(want.Columns(), ",") + "; got " + strings.Join(got.Columns(), ",")
	}
	var b strings.Builder
	for _, name := range want.Columns() {
		if diff := cmp.Diff(want.Column(name), got.Column(name), cmpopts.EquateNaNs()); diff != "" {
			b.WriteString("column " + name + " (-want +got):\n" + diff)
		}
	}
	return b.String()
}

func TestResolve(t *testing.T) {
	plan, err := Resolve(Request{
		Groups: []Role{Scalar("group", "g")},
		Variables: []Role{
			Scalar("y", "a"),
			Scalar("w", "@a/b"),
			Vector("v", "a", "total = a*2", "b"),
			Scalar("x", ".index"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	srcs := func(steps []Step) map[string]string {
		m := make(map[string]string)
		for _, s := range steps {
			m[s.Role] = s.Src
		}
		return m
	}
	if want, got := map[string]string{"group": "g"}, srcs(plan.Groups); !reflect.DeepEqual(want, got) {
		t.Errorf("groups: want %v; got %v", want, got)
	}
	wantImm := map[string]string{"y": "a", "v_0": "a", "v_1": "a*2", "v_2": "b", "x": ".index"}
	if got := srcs(plan.Immediate); !reflect.DeepEqual(wantImm, got) {
		t.Errorf("immediate: want %v; got %v", wantImm, got)
	}
	if want, got := map[string]string{"w": "a/b"}, srcs(plan.Deferred); !reflect.DeepEqual(want, got) {
		t.Errorf("deferred: want %v; got %v", want, got)
	}
	if want, got := []string{"y", "w", "v_0", "v_1", "v_2", "x"}, plan.VariableRoles(); !reflect.DeepEqual(want, got) {
		t.Errorf("variable order: want %v; got %v", want, got)
	}
	labels := plan.Labels()
	if labels["v_1"] != "total" || labels["w"] != "a/b" || labels["x"] != "x" {
		t.Errorf("unexpected labels %v", labels)
	}
}

func TestResolveErrors(t *testing.T) {
	for _, test := range []struct {
		name  string
		req   Request
		usage bool
	}{
		{"collision", Request{Groups: []Role{Scalar("x", "a")}, Variables: []Role{Scalar("x", "b")}}, true},
		{"vector collision", Request{Variables: []Role{Vector("y", "a", "b"), Scalar("y_1", "c")}}, true},
		{"empty name", Request{Variables: []Role{Scalar("", "a")}}, true},
		{"no exprs", Request{Variables: []Role{{Name: "y"}}}, true},
		{"deferred group", Request{Groups: []Role{Scalar("x", "@a")}}, true},
		{"malformed", Request{Variables: []Role{Scalar("y", "a +")}}, false},
		{"empty expr", Request{Variables: []Role{Scalar("y", "")}}, false},
	} {
		_, err := Resolve(test.req)
		var uerr *UsageError
		var eerr *EvalError
		switch {
		case err == nil:
			t.Errorf("%s: want error; got nil", test.name)
		case test.usage && !errors.As(err, &uerr):
			t.Errorf("%s: want *UsageError; got %T: %v", test.name, err, err)
		case !test.usage && !errors.As(err, &eerr):
			t.Errorf("%s: want *EvalError; got %T: %v", test.name, err, err)
		}
	}
}

func TestDeferred(t *testing.T) {
	tab := new(table.Builder).
		Add("g", []string{"p", "p", "q", "q"}).
		Add("a", []int{1, 2, 3, 4}).
		Add("b", []int{1, 4, 1, 3}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("group", "g")},
		Variables: []Role{Scalar("num", "a"), Scalar("den", "b"), Scalar("ratio", "@num/den")},
		Func:      Sum,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("group", []string{"p", "q"}).
		Add("num", []float64{3, 7}).
		Add("den", []float64{5, 4}).
		Add("ratio", []float64{0.6, 1.75}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
}

func TestDeferredUnavailable(t *testing.T) {
	tab := new(table.Builder).Add("a", []int{1, 2}).Add("b", []int{3, 4}).Done()
	_, err := Aggregate(tab, Request{
		Variables: []Role{Scalar("y", "a"), Deferred("r", "b/y")},
		Func:      Sum,
	})
	var eerr *EvalError
	if !errors.As(err, &eerr) || eerr.Role != "r" || !strings.Contains(err.Error(), "not available") {
		t.Errorf("want *EvalError for r about unavailable column; got %v", err)
	}
}

func salesTable(extra bool) *table.Table {
	dates := []string{"d1", "d1", "d2", "d2", "d3", "d3", "d1"}
	regions := []string{"east", "west", "east", "west", "east", "west", "east"}
	sales := []float64{1, 2, 3, 4, 5, 6, 10}
	if extra {
		dates = append(dates, "d4")
		regions = append(regions, "east")
		sales = append(sales, 7)
	}
	return new(table.Builder).
		Add("date", dates).
		Add("region", regions).
		Add("sales", sales).
		Done()
}

func TestEndToEnd(t *testing.T) {
	req := Request{
		Groups:     []Role{Scalar("x", "date"), Scalar("group", "region")},
		Variables:  []Role{Scalar("y", "sales")},
		Func:       Sum,
		FillGroups: true,
	}

	got, err := Aggregate(salesTable(false), req)
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []string{"d1", "d1", "d2", "d2", "d3", "d3"}).
		Add("group", []string{"east", "west", "east", "west", "east", "west"}).
		Add("y", []float64{11, 2, 3, 4, 5, 6}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Errorf("complete groups:\n%s", diff)
	}

	got, err = Aggregate(salesTable(true), req)
	if err != nil {
		t.Fatal(err)
	}
	want = new(table.Builder).
		Add("x", []string{"d1", "d1", "d2", "d2", "d3", "d3", "d4", "d4"}).
		Add("group", []string{"east", "west", "east", "west", "east", "west", "east", "west"}).
		Add("y", []float64{11, 2, 3, 4, 5, 6, 7, nan}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Errorf("incomplete groups:\n%s", diff)
	}

	req.MaxFill = 6
	if _, err := Aggregate(salesTable(true), req); !errors.Is(err, ErrFillTooLarge) {
		t.Errorf("want ErrFillTooLarge; got %v", err)
	}
}

func TestFillGroups(t *testing.T) {
	tab := new(table.Builder).
		Add("A", []string{"a1", "a1", "a2"}).
		Add("B", []string{"b1", "b2", "b1"}).
		Add("v", []int{1, 2, 3}).
		Add("s", []string{"x", "y", "z"}).
		Done()
	got, err := FillGroups(tab, "A", "B")
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("A", []string{"a1", "a1", "a2", "a2"}).
		Add("B", []string{"b1", "b2", "b1", "b2"}).
		Add("v", []float64{1, 2, 3, nan}).
		Add("s", []interface{}{"x", "y", "z", nil}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}

	if _, err := FillGroups(tab, "nosuch"); err == nil {
		t.Errorf("want error for unknown group column")
	}
}

func TestPassThrough(t *testing.T) {
	tab := new(table.Builder).
		Add("a", []int{3, 1, 2}).
		Add("b", []float64{1, 2, 3}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", "a")},
		Variables: []Role{Scalar("y", "b*2")},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []int{3, 1, 2}).
		Add("y", []float64{2, 4, 6}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
	if !reflect.DeepEqual(tab.Column("a"), []int{3, 1, 2}) {
		t.Errorf("input table modified")
	}
}

func TestIndex(t *testing.T) {
	tab := new(table.Builder).Add("v", []float64{5, 6, 7}).Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", ".index")},
		Variables: []Role{Scalar("y", "v")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(want, got.Column("x")) {
		t.Errorf("want x %v; got %v", want, got.Column("x"))
	}

	got, err = Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", ".index")},
		Variables: []Role{Scalar("y", "v")},
		Func:      Sum,
		Index:     []string{"r0", "r1", "r0"},
		IndexName: "run",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []string{"r0", "r1"}).
		Add("y", []float64{12, 6}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}

	// An unnamed index takes the role name.
	for _, test := range []struct{ indexName, want string }{{"", "x"}, {"run", "run"}} {
		plan, err := Resolve(Request{Groups: []Role{Scalar("x", ".index")}, IndexName: test.indexName})
		if err != nil {
			t.Fatal(err)
		}
		if got := plan.Labels()["x"]; got != test.want {
			t.Errorf("IndexName %q: want label %q; got %q", test.indexName, test.want, got)
		}
	}

	_, err = Aggregate(tab, Request{
		Groups: []Role{Scalar("x", ".index")},
		Index:  []string{"r0"},
	})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Errorf("want *UsageError for short index; got %v", err)
	}
}

func TestMissingKeys(t *testing.T) {
	tab := new(table.Builder).
		Add("g", []float64{1, nan, 1, 2}).
		Add("v", []float64{1, 2, 3, nan}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", "g")},
		Variables: []Role{Scalar("y", "v"), Scalar("n", "v")},
		Func:      Mean,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []float64{1, 2}).
		Add("y", []float64{2, nan}).
		Add("n", []float64{2, nan}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
}

func TestNoGroups(t *testing.T) {
	tab := new(table.Builder).Add("v", []int{1, 2, 3}).Done()
	got, err := Aggregate(tab, Request{
		Variables: []Role{Vector("y", "v", "v*v")},
		Func:      Sum,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("y_0", []float64{6}).
		Add("y_1", []float64{14}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
}

func TestRecordFunc(t *testing.T) {
	tab := new(table.Builder).
		Add("g", []string{"a", "a", "a", "b"}).
		Add("v", []float64{1, 2, 3, 10}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", "g")},
		Variables: []Role{Scalar("y", "v"), Scalar("n", "v")},
		Func:      Record("range", []string{"min", "max"}, func(xs []float64) []float64 { return []float64{xs[0], xs[len(xs)-1]} }),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []string{"a", "b"}).
		Add("y", []float64{1, 10}).
		Add("max y", []float64{3, 10}).
		Add("n", []float64{1, 10}).
		Add("max n", []float64{3, 10}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}

	got, err = Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", "g")},
		Variables: []Role{Scalar("y", "v")},
		Func:      BoxStats,
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"x", "y", "q1 y", "q3 y", "whislo y", "whishi y"}; !reflect.DeepEqual(want, got.Columns()) {
		t.Errorf("want columns %v; got %v", want, got.Columns())
	}
	if want := []float64{2, 10}; !cmp.Equal(want, got.Column("y"), cmpopts.EquateApprox(0, 1e-12)) {
		t.Errorf("want medians %v; got %v", want, got.Column("y"))
	}
}

func TestCount(t *testing.T) {
	tab := new(table.Builder).
		Add("g", []string{"a", "a", "b"}).
		Add("s", []string{"x", "y", "z"}).
		Add("i", []interface{}{1, nil, "q"}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:    []Role{Scalar("x", "g")},
		Variables: []Role{Scalar("n", "s"), Scalar("m", "i")},
		Func:      Count,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := new(table.Builder).
		Add("x", []string{"a", "b"}).
		Add("n", []float64{2, 1}).
		Add("m", []float64{1, 1}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
}

func TestAggregateErrors(t *testing.T) {
	tab := new(table.Builder).
		Add("a", []int{1, 2}).
		Add("s", []string{"x", "y"}).
		Done()
	for _, test := range []struct {
		name, role, want string
		req              Request
	}{
		{"unknown column", "y", "unknown column", Request{Variables: []Role{Scalar("y", "nosuch+1")}, Func: Sum}},
		{"non-numeric", "y", "cannot aggregate", Request{Variables: []Role{Scalar("y", "s")}, Func: Sum}},
		{"bad group", "x", "unknown column", Request{Groups: []Role{Scalar("x", "nosuch")}}},
	} {
		_, err := Aggregate(tab, test.req)
		var eerr *EvalError
		if !errors.As(err, &eerr) {
			t.Errorf("%s: want *EvalError; got %v", test.name, err)
			continue
		}
		if eerr.Role != test.role || !strings.Contains(err.Error(), test.want) {
			t.Errorf("%s: want error for role %s containing %q; got %v", test.name, test.role, test.want, err)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"sum", "Mean", "median", "min", "max", "count", "geomean", "std", "box", "meanci"} {
		f, err := Lookup(name)
		if err != nil || f == nil {
			t.Errorf("Lookup(%q) = %v, %v", name, f, err)
		}
	}
	if f, err := Lookup("p90"); err != nil || f.Name() != "p90" {
		t.Errorf("Lookup(\"p90\") = %v, %v", f, err)
	}
	if f, err := Lookup(""); err != nil || f != nil {
		t.Errorf("Lookup(\"\") = %v, %v; want nil, nil", f, err)
	}
	var uerr *UsageError
	if _, err := Lookup("bogus"); !errors.As(err, &uerr) {
		t.Errorf("Lookup(\"bogus\"): want *UsageError; got %v", err)
	}
}

func TestScalarFuncs(t *testing.T) {
	for _, test := range []struct {
		f    Func
		xs   []float64
		want float64
	}{
		{Sum, []float64{1, 2, 3}, 6},
		{Mean, []float64{1, 2, 3}, 2},
		{Median, []float64{3, 1, 2}, 2},
		{Min, []float64{3, 1, 2}, 1},
		{Max, []float64{3, 1, 2}, 3},
		{StdDev, []float64{2, 4}, math.Sqrt2},
		{StdDev, []float64{5}, 0},
	} {
		got := test.f.Reduce(test.xs)
		if len(got) != 1 || math.Abs(got[0]-test.want) > 1e-9 {
			t.Errorf("%s(%v) = %v; want %v", test.f.Name(), test.xs, got, test.want)
		}
	}
}

func TestPassThroughMissingKeys(t *testing.T) {
	tab := new(table.Builder).
		Add("g", []float64{1, nan, 2}).
		Add("h", []string{"a", "b", "b"}).
		Add("v", []float64{1, 2, 3}).
		Done()
	got, err := Aggregate(tab, Request{
		Groups:     []Role{Scalar("x", "g"), Scalar("group", "h")},
		Variables:  []Role{Scalar("y", "v")},
		FillGroups: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// The row with a NaN key is dropped before filling, so NaN
	// is not a level of x.
	want := new(table.Builder).
		Add("x", []float64{1, 1, 2, 2}).
		Add("group", []string{"a", "b", "a", "b"}).
		Add("y", []float64{1, nan, nan, 3}).
		Done()
	if diff := tableDiff(want, got); diff != "" {
		t.Error(diff)
	}
}
