package mathparser

import (
	"errors"
	"strconv"
	"strings"
)

// Expr = Sum | Product | Power | Call | Atom | '(' Expr ')' | '[' Expr ']' | '{' Expr '}' | '<' Expr '>'
// Sum = [ '+' | '-' ] Expr { ( '+' | '-' ) Expr }
// Product = [ '*' | '/' ] Expr { ( '*' | '/' ) Expr }
// Power = [ '^' ] Expr { '^' Expr }
// Call = name '(' [ Expr { ',' Expr } ] ')'
// Atom = "" | "null" | number | name
//
// Operators are found only outside brackets, trying the loosest level first.
// A sign directly after '*', '/', or '^' is part of the following operand.

// Parse parses text into a node graph. Names which are not parameters declared
// with Locals resolve to variables of ctx, which are created as needed. The
// only error is *UnknownFunctionError, when a call names a function and arity
// that are not known. A known name with the wrong number of arguments, like
// pi(1), is such an error rather than an undefined call. Text that makes no sense otherwise degenerates into
// variables or undefined constants rather than failing.
func (ctx *Context) Parse(text string, opts ...ParseOption) (*Node, error) {
	p := parsectx{ctx: ctx}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	return p.parse(text)
}

func (p *parsectx) parse(text string) (*Node, error) {
	text = strings.TrimSpace(text)
	for IsWrapped(text, OpenBrackets, CloseBrackets) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	for lv := Sum; lv <= Power; lv++ {
		parts, lead := splitLevel(text, lv)
		if len(parts) < 2 && !lead {
			continue
		}
		if len(parts) == 1 && isNumber(text) {
			continue
		}
		elems := make([]*Node, len(parts))
		for i, pt := range parts {
			item, err := p.parse(pt.text)
			if err != nil {
				return nil, err
			}
			elems[i] = NewElement(item, pt.neg, pt.recip)
		}
		return NewExpression(lv, elems...), nil
	}

	if IsCallShaped(text) {
		return p.parsecall(text)
	}
	return p.parseatom(text), nil
}

func (p *parsectx) parsecall(text string) (*Node, error) {
	name, argtext := callParts(text)
	fn, ok := p.lookup(FuncKey{Name: name, Arity: len(argtext)})
	if !ok {
		return nil, &UnknownFunctionError{Name: name, Arity: len(argtext)}
	}
	args := make([]*Node, len(argtext))
	for i, a := range argtext {
		n, err := p.parse(a)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return NewCall(fn, args...), nil
}

func (p *parsectx) parseatom(text string) *Node {
	if text == "" || text == "null" {
		return Const(Undefined)
	}
	if x, err := strconv.ParseFloat(text, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		// ParseFloat returns ±Inf for out-of-range literals, which is what
		// we want.
		return Const(Num(x))
	}
	if i, ok := p.locals[text]; ok {
		return NewParam(text, i)
	}
	return p.ctx.Var(text)
}

// isNumber returns whether text is a number literal.
func isNumber(text string) bool {
	_, err := strconv.ParseFloat(text, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}
