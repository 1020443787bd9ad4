// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
)

// missingText are the cells that denote a missing number.
var missingText = map[string]bool{"": true, "NA": true, "N/A": true, "NaN": true, "nan": true, "null": true}

func readCSV(r io.Reader) (*table.Table, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing CSV header")
	}
	t := table.TableFromStrings(rows[0], rows[1:], true)

	// TableFromStrings leaves columns with missing numbers as
	// strings.
	b := table.NewBuilder(t)
	for _, name := range t.Columns() {
		if strs, ok := t.MustColumn(name).([]string); ok {
			if xs, ok := parseMissing(strs); ok {
				b.Add(name, xs)
			}
		}
	}
	return b.Done(), nil
}

// parseMissing parses strs as numbers if every cell is either a
// number or missing and at least one is a number.
func parseMissing(strs []string) ([]float64, bool) {
	xs := make([]float64, len(strs))
	found := false
	for i, s := range strs {
		s = strings.TrimSpace(s)
		if missingText[s] {
			xs[i] = math.NaN()
			continue
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		xs[i], found = x, true
	}
	return xs, found
}

func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for _, row := range Rows(t) {
		for i, v := range row {
			rec[i] = formatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
