// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// readArrow reads an Arrow IPC stream.
func readArrow(r io.Reader) (*table.Table, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	fields := rdr.Schema().Fields()
	vals := make([][]interface{}, len(fields))
	for rdr.Next() {
		rec := rdr.Record()
		for j := range fields {
			arr := rec.Column(j)
			for i := 0; i < arr.Len(); i++ {
				v, err := arrowValue(arr, i)
				if err != nil {
					return nil, fmt.Errorf("column %s: %w", fields[j].Name, err)
				}
				vals[j] = append(vals[j], v)
			}
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, err
	}

	var b table.Builder
	for j, f := range fields {
		b.Add(f.Name, column(vals[j]))
	}
	return b.Done(), nil
}

func arrowValue(arr arrow.Array, i int) (interface{}, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(i))
	}
	return nil, fmt.Errorf("unsupported type %s", arr.DataType())
}

// writeArrow writes t as a single-record Arrow IPC stream.
func writeArrow(w io.Writer, t *table.Table) error {
	mem := memory.DefaultAllocator
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, len(cols))
	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()
	for j, name := range cols {
		arr := arrowArray(mem, t.MustColumn(name), t.Len())
		fields[j] = arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		arrays[j] = arr
	}
	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(t.Len()))
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}

// arrowArray converts col to an Arrow array. The array type is
// chosen from the values: numbers become int64 or float64, times
// become nanosecond timestamps, and anything else becomes strings.
func arrowArray(mem memory.Allocator, col table.Slice, n int) arrow.Array {
	vals := make([]interface{}, n)
	for i := range vals {
		vals[i] = Value(col, i)
	}
	switch c := column(vals).(type) {
	case []int:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, v := range c {
			b.Append(int64(v))
		}
		return b.NewArray()
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range c {
			if math.IsNaN(v) {
				b.AppendNull()
			} else {
				b.Append(v)
			}
		}
		return b.NewArray()
	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(c, nil)
		return b.NewArray()
	case []time.Time:
		b := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"})
		defer b.Release()
		for _, v := range c {
			b.Append(arrow.Timestamp(v.UnixNano()))
		}
		return b.NewArray()
	}
	b := array.NewStringBuilder(mem)
	defer b.Release()
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(formatValue(v))
		}
	}
	return b.NewArray()
}
