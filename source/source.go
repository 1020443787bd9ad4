// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source reads and writes tables in common data formats.
//
// Numeric columns are []int when every value is an integer and
// []float64 otherwise, with NaN for missing values. Other columns
// with missing values are []interface{} with nil for missing values.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/aclements/go-gg/table"
	"golang.org/x/sync/errgroup"
)

// A Format is a table file format.
type Format int

const (
	CSV Format = iota
	JSON
	Parquet
	Arrow
	// Bench is the Go benchmark result format. Each result line
	// is a row with the benchmark name, its configuration, and one
	// column per unit.
	Bench
)

var formatNames = []string{
	CSV:     "csv",
	JSON:    "json",
	Parquet: "parquet",
	Arrow:   "arrow",
	Bench:   "bench",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format with the given name.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(name)
	for f, n := range formatNames {
		if n == name {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", name)
}

// FormatOf returns the format of path based on its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".parquet", ".pq":
		return Parquet, nil
	case ".arrow", ".arrows", ".ipc":
		return Arrow, nil
	case ".bench", ".txt":
		return Bench, nil
	}
	return 0, fmt.Errorf("%s: cannot determine format from extension", path)
}

// Read reads a table in format f from r.
func Read(r io.Reader, f Format) (*table.Table, error) {
	switch f {
	case CSV:
		return readCSV(r)
	case JSON:
		return readJSON(r)
	case Parquet:
		// Parquet needs random access.
		ra, ok := r.(io.ReaderAt)
		var size int64
		if s, isSeeker := r.(io.Seeker); ok && isSeeker {
			var err error
			if size, err = s.Seek(0, io.SeekEnd); err != nil {
				return nil, err
			}
		} else {
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, err
			}
			ra, size = bytes.NewReader(data), int64(len(data))
		}
		return readParquet(ra, size)
	case Arrow:
		return readArrow(r)
	case Bench:
		return readBench(r)
	}
	return nil, fmt.Errorf("cannot read format %s", f)
}

// Write writes t to w in format f. Only CSV, JSON, and Arrow can be
// written.
func Write(w io.Writer, t *table.Table, f Format) error {
	switch f {
	case CSV:
		return writeCSV(w, t)
	case JSON:
		return writeJSON(w, t)
	case Arrow:
		return writeArrow(w, t)
	}
	return fmt.Errorf("cannot write format %s", f)
}

// Open reads the table in path, which is in the format given by its
// extension. A path of "-" reads CSV from standard input.
func Open(path string) (*table.Table, error) {
	if path == "-" {
		return Read(os.Stdin, CSV)
	}
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	t, err := Read(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads each path concurrently and concatenates the tables in
// order. The tables must have the same columns with the same types,
// except that integer and floating-point columns may be mixed.
func Load(ctx context.Context, paths ...string) (*table.Table, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	tabs := make([]*table.Table, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(-1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Open(path)
			tabs[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(tabs) == 1 {
		return tabs[0], nil
	}
	return concat(paths, tabs)
}

func concat(paths []string, tabs []*table.Table) (*table.Table, error) {
	cols := tabs[0].Columns()
	for i, t := range tabs[1:] {
		if !reflect.DeepEqual(cols, t.Columns()) {
			return nil, fmt.Errorf("%s has columns %v, but %s has columns %v", paths[0], cols, paths[i+1], t.Columns())
		}
	}

	// Unify column types.
	gs := make([]table.Grouping, len(tabs))
	for i := range tabs {
		gs[i] = tabs[i]
	}
	for _, col := range cols {
		typ := reflect.TypeOf(tabs[0].MustColumn(col))
		same, numeric := true, true
		for _, t := range tabs {
			ct := reflect.TypeOf(t.MustColumn(col))
			same = same && ct == typ
			numeric = numeric && (ct == intsType || ct == floatsType)
		}
		if same {
			continue
		}
		if !numeric {
			return nil, fmt.Errorf("column %s has type %s in %s, which is incompatible with other inputs", col, typ, paths[0])
		}
		for i, t := range tabs {
			gs[i] = table.NewBuilder(gs[i].(*table.Table)).Add(col, toFloat64s(t.MustColumn(col))).Done()
		}
	}
	return table.Flatten(table.Concat(gs...)), nil
}
