// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ezagg aggregates tabular data and prepares chart data.
//
// ezagg reads CSV, JSON, Parquet, Arrow, and Go benchmark files,
// chosen by file extension. With no file arguments, it reads CSV from
// standard input. Multiple inputs are concatenated.
//
// The agg command groups by the x, group, and facet roles and reduces
// the y role and any extra variables:
//
//	ezagg agg -x region -y sales --agg mean sales.csv
//
// Role values are space-separated lists of expressions. A role with
// more than one expression is a vector role. Quote expressions that
// contain spaces:
//
//	ezagg agg -x region -y "'total = sales' cost" sales.csv
//
// The chart commands (bar, line, area, scatter, box, hist, density, and
// marginal) prepare the data for a chart of that kind. With --format
// svg, they also render it.
//
// The serve command serves the same operations over HTTP.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetPrefix("ezagg: ")
	log.SetFlags(0)

	if err := newRootCmd().Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
