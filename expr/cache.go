// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	lru "github.com/hashicorp/golang-lru"
)

// A Cache is a fixed-size cache of parsed expressions. It is safe for
// concurrent use.
type Cache struct {
	lru *lru.Cache
}

// NewCache returns a cache that holds up to size expressions.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{c}, nil
}

// Parse is like the package-level Parse, but returns a cached Expr
// if src was parsed recently.
func (c *Cache) Parse(src string) (*Expr, error) {
	if e, ok := c.lru.Get(src); ok {
		return e.(*Expr), nil
	}
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.lru.Add(src, e)
	return e, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	return c.lru.Len()
}
