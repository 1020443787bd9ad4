// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/parquet-go/parquet-go"
)

// readParquet reads a Parquet file with a flat schema.
func readParquet(r io.ReaderAt, size int64) (*table.Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}
	schema := pf.Schema()
	paths := schema.Columns()
	leaves := make([]parquet.LeafColumn, len(paths))
	for i, path := range paths {
		if len(path) != 1 {
			return nil, fmt.Errorf("nested column %s is not supported", strings.Join(path, "."))
		}
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("column %s not found", path[0])
		}
		leaves[i] = leaf
	}

	vals := make([][]interface{}, len(paths))
	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					c := v.Column()
					vals[c] = append(vals[c], parquetValue(leaves[c], v))
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		rows.Close()
	}

	var b table.Builder
	for i, path := range paths {
		b.Add(path[0], column(vals[i]))
	}
	return b.Done(), nil
}

func parquetValue(leaf parquet.LeafColumn, v parquet.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	typ := leaf.Node.Type()
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		if lt := typ.LogicalType(); lt != nil && lt.Timestamp != nil {
			unit := lt.Timestamp.Unit
			switch {
			case unit.Millis != nil:
				return time.UnixMilli(v.Int64()).UTC()
			case unit.Micros != nil:
				return time.UnixMicro(v.Int64()).UTC()
			default:
				return time.Unix(0, v.Int64()).UTC()
			}
		}
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	}
	return string(v.ByteArray())
}
