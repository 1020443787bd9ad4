// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import "fmt"

type parser struct {
	src  string
	toks []token
	pos  int
}

// parse parses src into a syntax tree.
func parse(src string) (n node, err error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	defer func() {
		if e, ok := recover().(*SyntaxError); ok {
			n, err = nil, e
		} else if e != nil {
			panic(e)
		}
	}()
	if p.peek().kind == tokEOF {
		p.fail(p.peek(), "empty expression")
	}
	n = p.or()
	if t := p.peek(); t.kind != tokEOF {
		p.fail(t, "unexpected %s", t)
	}
	return n, nil
}

func (p *parser) fail(t token, format string, a ...interface{}) {
	panic(&SyntaxError{p.src, t.pos, fmt.Sprintf(format, a...)})
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// accept consumes the next token if it is one of the operators or
// keywords in texts.
func (p *parser) accept(texts ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp && (t.kind != tokIdent || t.quoted) {
		return "", false
	}
	for _, text := range texts {
		if t.text == text {
			p.pos++
			return text, true
		}
	}
	return "", false
}

func (p *parser) or() node {
	x := p.and()
	for {
		if _, ok := p.accept("|", "||", "or"); !ok {
			return x
		}
		x = &binaryExpr{opOr, x, p.and()}
	}
}

func (p *parser) and() node {
	x := p.not()
	for {
		if _, ok := p.accept("&", "&&", "and"); !ok {
			return x
		}
		x = &binaryExpr{opAnd, x, p.not()}
	}
}

func (p *parser) not() node {
	if _, ok := p.accept("~", "!", "not"); ok {
		return &unaryExpr{opNot, p.not()}
	}
	return p.compare()
}

var compareOps = map[string]op{
	"==": opEq, "!=": opNe, "<": opLt, "<=": opLe, ">": opGt, ">=": opGe,
}

func (p *parser) compare() node {
	x := p.sum()
	if t := p.peek(); t.kind == tokOp {
		if o, ok := compareOps[t.text]; ok {
			p.next()
			x = &binaryExpr{o, x, p.sum()}
			if t := p.peek(); t.kind == tokOp {
				if _, ok := compareOps[t.text]; ok {
					p.fail(t, "chained comparison")
				}
			}
		}
	}
	return x
}

func (p *parser) sum() node {
	x := p.product()
	for {
		text, ok := p.accept("+", "-")
		if !ok {
			return x
		}
		o := opAdd
		if text == "-" {
			o = opSub
		}
		x = &binaryExpr{o, x, p.product()}
	}
}

var productOps = map[string]op{"*": opMul, "/": opDiv, "//": opFloorDiv, "%": opMod}

func (p *parser) product() node {
	x := p.unary()
	for {
		t := p.peek()
		o, ok := productOps[t.text]
		if t.kind != tokOp || !ok {
			return x
		}
		p.next()
		x = &binaryExpr{o, x, p.unary()}
	}
}

func (p *parser) unary() node {
	if text, ok := p.accept("-", "+"); ok {
		x := p.unary()
		if lit, ok := x.(numLit); ok {
			if text == "-" {
				lit.v = -lit.v
			}
			return lit
		}
		if text == "-" {
			return &unaryExpr{opNeg, x}
		}
		return &unaryExpr{opPos, x}
	}
	return p.power()
}

func (p *parser) power() node {
	x := p.primary()
	if _, ok := p.accept("**"); ok {
		// Right associative, and binds tighter than a unary
		// operator on its left.
		return &binaryExpr{opPow, x, p.unary()}
	}
	return x
}

func (p *parser) primary() node {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numLit{t.num}
	case tokString:
		return strLit{t.text}
	case tokLParen:
		x := p.or()
		if c := p.next(); c.kind != tokRParen {
			p.fail(c, "expected ) but found %s", c)
		}
		return x
	case tokIdent:
		if t.quoted {
			return colRef{t.text}
		}
		switch t.text {
		case "true", "True":
			return boolLit{true}
		case "false", "False":
			return boolLit{false}
		}
		if p.peek().kind != tokLParen {
			return colRef{t.text}
		}
		p.next()
		call := &callExpr{fn: t.text}
		if _, ok := funcs[t.text]; !ok {
			p.fail(t, "unknown function %s", t.text)
		}
		if p.peek().kind == tokRParen {
			p.next()
			return call
		}
		for {
			call.args = append(call.args, p.or())
			c := p.next()
			if c.kind == tokRParen {
				return call
			}
			if c.kind != tokComma {
				p.fail(c, "expected , or ) but found %s", c)
			}
		}
	}
	p.fail(t, "unexpected %s", t)
	panic("unreachable")
}
