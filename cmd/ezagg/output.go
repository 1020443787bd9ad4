// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aclements/go-ezplot/chart"
	"github.com/aclements/go-ezplot/source"
	"github.com/aclements/go-gg/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// write writes d to the output selected by the global flags.
func (g *globalFlags) write(cmd *cobra.Command, d *chart.Data) (err error) {
	w := cmd.OutOrStdout()
	if g.out != "" {
		f, ferr := os.Create(g.out)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	format := g.format
	if format == "" {
		format = "text"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "pretty"
		}
	}
	switch format {
	case "text":
		table.Fprint(w, d.Table)
		if d.Summary != nil {
			fmt.Fprintln(w)
			table.Fprint(w, d.Summary)
		}
		return nil
	case "pretty":
		writePretty(w, d.Table)
		if d.Summary != nil {
			writePretty(w, d.Summary)
		}
		return nil
	case "svg":
		return writeSVG(w, d, g.width, g.height)
	}
	f, err := source.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("unknown output format %q", format)
	}
	return source.Write(w, d.Table, f)
}

func writePretty(w io.Writer, t *table.Table) {
	tw := prettytable.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(prettytable.StyleRounded)
	cols := t.Columns()
	header := make(prettytable.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	tw.AppendHeader(header)
	for _, row := range source.Rows(t) {
		for i, v := range row {
			if v == nil {
				row[i] = ""
			}
		}
		tw.AppendRow(prettytable.Row(row))
	}
	tw.Render()
}
