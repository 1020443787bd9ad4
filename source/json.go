// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"io"
	"sort"

	"github.com/aclements/go-gg/table"
	"github.com/goccy/go-json"
)

// A Columnar is the JSON form of a table written by Write.
type Columnar struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// readJSON reads either a Columnar object or an array of records.
// The columns of records are sorted by name.
func readJSON(r io.Reader) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []interface{}:
		return fromRecords(v)
	case map[string]interface{}:
		cols, ok1 := v["columns"].([]interface{})
		rows, ok2 := v["rows"].([]interface{})
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("JSON object must have columns and rows")
		}
		return fromColumnar(cols, rows)
	}
	return nil, fmt.Errorf("JSON table must be an array of records or an object")
}

func fromRecords(recs []interface{}) (*table.Table, error) {
	seen := make(map[string]bool)
	var names []string
	for i, rec := range recs {
		m, ok := rec.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		for k := range m {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	var b table.Builder
	for _, name := range names {
		vals := make([]interface{}, len(recs))
		for i, rec := range recs {
			v, err := jsonValue(rec.(map[string]interface{})[name])
			if err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i, name, err)
			}
			vals[i] = v
		}
		b.Add(name, column(vals))
	}
	return b.Done(), nil
}

func fromColumnar(cols, rows []interface{}) (*table.Table, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		s, ok := c.(string)
		if !ok {
			return nil, fmt.Errorf("column name %v is not a string", c)
		}
		names[i] = s
	}
	vals := make([][]interface{}, len(names))
	for i, row := range rows {
		r, ok := row.([]interface{})
		if !ok || len(r) != len(names) {
			return nil, fmt.Errorf("row %d must be an array of %d values", i, len(names))
		}
		for j, v := range r {
			v, err := jsonValue(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, names[j], err)
			}
			vals[j] = append(vals[j], v)
		}
	}
	var b table.Builder
	for j, name := range names {
		b.Add(name, column(vals[j]))
	}
	return b.Done(), nil
}

func jsonValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	}
	return nil, fmt.Errorf("unsupported value %v", v)
}

func writeJSON(w io.Writer, t *table.Table) error {
	return json.NewEncoder(w).Encode(Columnar{t.Columns(), Rows(t)})
}
