// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agg

import (
	"errors"
	"fmt"
)

// An EvalError reports a failure to compile or evaluate a role's
// expression.
type EvalError struct {
	Role string
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Role, e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// A UsageError reports a request that is malformed independent of
// the data it is applied to.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usagef(format string, a ...interface{}) error {
	return &UsageError{fmt.Sprintf(format, a...)}
}

// ErrFillTooLarge is returned (wrapped) when completing the groups of
// a table would produce more rows than permitted.
var ErrFillTooLarge = errors.New("too many group combinations to fill")
