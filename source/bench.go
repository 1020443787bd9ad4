// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"bufio"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aclements/go-gg/table"
)

// The benchmark format is specified at
// https://github.com/golang/proposal/blob/master/design/14313-benchmark-format.md

// A benchResult is a single benchmark result line.
type benchResult struct {
	name       string
	iterations int
	config     map[string]string
	units      map[string]float64
}

var configRe = regexp.MustCompile(`^(\p{Ll}[^\p{Lu}\s\x85\xa0\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}]*):(?:[ \t]+(.*))?$`)

// readBench reads a benchmark results file into a table with a
// "name" column, one column per configuration key, an "iterations"
// column, and one column per unit.
func readBench(r io.Reader) (*table.Table, error) {
	var results []*benchResult
	config := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := configRe.FindStringSubmatch(line); m != nil {
			config[m[1]] = m[2]
			continue
		}
		if strings.HasPrefix(line, "Benchmark") {
			if b := parseBenchLine(line, config); b != nil {
				results = append(results, b)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return benchTable(results), nil
}

func parseBenchLine(line string, config map[string]string) *benchResult {
	f := strings.Fields(line)
	if len(f) < 4 {
		return nil
	}
	if f[0] != "Benchmark" {
		next, _ := utf8.DecodeRuneInString(f[0][len("Benchmark"):])
		if !unicode.IsUpper(next) {
			return nil
		}
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n <= 0 {
		return nil
	}

	b := &benchResult{
		iterations: n,
		config:     make(map[string]string),
		units:      make(map[string]float64),
	}
	for k, v := range config {
		b.config[k] = v
	}

	// Strip the GOMAXPROCS suffix, then split out sub-benchmark keys.
	name := strings.TrimPrefix(f[0], "Benchmark")
	if i := strings.LastIndex(name, "-"); i >= 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			b.config["gomaxprocs"] = name[i+1:]
			name = name[:i]
		}
	}
	parts := strings.Split(name, "/")
	b.name = parts[0]
	for _, part := range parts[1:] {
		if k, v, ok := strings.Cut(part, ":"); ok {
			b.config[k] = v
		}
	}
	if _, ok := b.config["gomaxprocs"]; !ok {
		b.config["gomaxprocs"] = "1"
	}

	for i := 2; i+2 <= len(f); i += 2 {
		val, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			continue
		}
		b.units[f[i+1]] = val
	}
	return b
}

// configParsers parse configuration values, in priority order. A
// configuration key uses the first parser that accepts all of its
// values, or is a string column if none do.
var configParsers = []func(string) (interface{}, error){
	func(s string) (interface{}, error) { v, err := strconv.ParseInt(s, 10, 64); return v, err },
	func(s string) (interface{}, error) { return strconv.ParseFloat(s, 64) },
	func(s string) (interface{}, error) { return time.ParseDuration(s) },
}

func benchTable(results []*benchResult) *table.Table {
	keys, units := map[string]bool{}, map[string]bool{}
	names := make([]string, len(results))
	iters := make([]int, len(results))
	for i, b := range results {
		names[i], iters[i] = b.name, b.iterations
		for k := range b.config {
			keys[k] = true
		}
		for u := range b.units {
			units[u] = true
		}
	}

	tab := new(table.Builder).Add("name", names)
	for _, key := range sorted(keys) {
		tab.Add(key, configColumn(results, key))
	}
	tab.Add("iterations", iters)
	for _, unit := range sorted(units) {
		xs := make([]float64, len(results))
		for i, b := range results {
			if v, ok := b.units[unit]; ok {
				xs[i] = v
			} else {
				xs[i] = math.NaN()
			}
		}
		tab.Add(unit, xs)
	}
	return tab.Done()
}

func configColumn(results []*benchResult, key string) table.Slice {
	vals := make([]interface{}, len(results))
parsers:
	for _, parse := range configParsers {
		for i, b := range results {
			raw, ok := b.config[key]
			if !ok {
				vals[i] = nil
				continue
			}
			v, err := parse(raw)
			if err != nil {
				continue parsers
			}
			vals[i] = v
		}
		return column(vals)
	}
	for i, b := range results {
		if raw, ok := b.config[key]; ok {
			vals[i] = raw
		} else {
			vals[i] = nil
		}
	}
	return column(vals)
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
