// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	pos  int // byte offset in source
	text string
	num  float64 // for tokNumber

	// quoted is set for a `quoted` name, which is never a keyword.
	quoted bool
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

// Operators, longest first.
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "~", "!",
}

// lex splits src into tokens.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
			continue

		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
			continue
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
			continue
		case r == ',':
			toks = append(toks, token{kind: tokComma, pos: i, text: ","})
			i++
			continue

		case r == '\'' || r == '"':
			end := strings.IndexRune(src[i+1:], r)
			if end < 0 {
				return nil, &SyntaxError{src, i, "unterminated string"}
			}
			toks = append(toks, token{kind: tokString, pos: i, text: src[i+1 : i+1+end]})
			i += end + 2
			continue

		case r == '`':
			// Quoted column name, which may contain any character.
			end := strings.IndexByte(src[i+1:], '`')
			if end < 0 {
				return nil, &SyntaxError{src, i, "unterminated quoted name"}
			}
			toks = append(toks, token{kind: tokIdent, pos: i, text: src[i+1 : i+1+end], quoted: true})
			i += end + 2
			continue

		case r == '.' || r >= '0' && r <= '9':
			if r == '.' && !(i+1 < len(src) && isDigit(src[i+1])) {
				// A leading dot starts a name such as ".index".
				break
			}
			j := scanNumber(src, i)
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, &SyntaxError{src, i, fmt.Sprintf("bad number %q", src[i:j])}
			}
			toks = append(toks, token{kind: tokNumber, pos: i, text: src[i:j], num: v})
			i = j
			continue
		}

		if isNameStart(r) {
			j := i + size
			for j < len(src) {
				r, size := utf8.DecodeRuneInString(src[j:])
				if !isNameStart(r) && !unicode.IsDigit(r) {
					break
				}
				j += size
			}
			toks = append(toks, token{kind: tokIdent, pos: i, text: src[i:j]})
			i = j
			continue
		}

		op := ""
		for _, o := range operators {
			if strings.HasPrefix(src[i:], o) {
				op = o
				break
			}
		}
		if op == "" {
			return nil, &SyntaxError{src, i, fmt.Sprintf("unexpected %q", r)}
		}
		toks = append(toks, token{kind: tokOp, pos: i, text: op})
		i += len(op)
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func scanNumber(src string, i int) int {
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		i++
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r)
}

// A SyntaxError reports a malformed expression.
type SyntaxError struct {
	Src string
	Pos int // byte offset in Src
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q at offset %d: %s", e.Src, e.Pos, e.Msg)
}
