package mathparser

import (
	"math"
	"strconv"
	"strings"
)

// Number is a real number that may be undefined. The zero value is undefined.
type Number struct {
	x  float64
	ok bool
}

// Undefined is the undefined Number.
var Undefined Number

// Num returns a defined Number with the value x.
func Num(x float64) Number {
	return Number{x: x, ok: true}
}

// Float64 returns the value of n and whether it is defined.
func (n Number) Float64() (float64, bool) {
	return n.x, n.ok
}

// Defined returns whether n has a value.
func (n Number) Defined() bool {
	return n.ok
}

func (n Number) String() string {
	if !n.ok {
		return "undefined"
	}
	return strconv.FormatFloat(n.x, 'g', -1, 64)
}

// Level is the precedence level of a node. Lower levels bind more loosely.
type Level int8

const (
	// Sum is the level of addition and subtraction.
	Sum Level = iota
	// Product is the level of multiplication and division.
	Product
	// Power is the level of exponentiation.
	Power
	// Atom is the level of every node that is not an Expression. As a
	// rendering context, it parenthesizes every compound operand.
	Atom

	// top is the rendering context of a whole expression, which never needs
	// parentheses.
	top Level = -1
)

func (lv Level) String() string {
	switch lv {
	case Sum:
		return "sum"
	case Product:
		return "product"
	case Power:
		return "power"
	case Atom:
		return "atom"
	}
	return "Level(" + strconv.Itoa(int(lv)) + ")"
}

// Kind identifies the type of a node.
type Kind int8

const (
	KindNone  Kind = iota
	KindConst      // constant, possibly undefined
	KindVar        // reference to a variable in a Context
	KindParam      // reference to a parameter of a user function
	KindElem       // sign and reciprocal modifiers around an item
	KindExpr       // elements combined at one level
	KindCall       // function call
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindConst:
		return "Const"
	case KindVar:
		return "Var"
	case KindParam:
		return "Param"
	case KindElem:
		return "Elem"
	case KindExpr:
		return "Expr"
	case KindCall:
		return "Call"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// VarID identifies a variable within a Context and its clones.
type VarID int

// Node is a node in the graph of a parsed expression. Nodes are immutable once
// built. Variable nodes refer to their variables by ID, so the value of a
// variable node depends on the Context used to evaluate it.
type Node struct {
	kind  Kind
	level Level

	// num is the value of a constant.
	num Number
	// name is the name of a variable or parameter.
	name string
	// id is the ID of a variable.
	id VarID
	// idx is the frame index of a parameter.
	idx int

	// neg and recip are the modifiers of an element, and item is the node
	// they modify.
	neg   bool
	recip bool
	item  *Node

	// elems is the list of elements of an expression.
	elems []*Node

	// fn and args are the function and arguments of a call.
	fn   Functional
	args []*Node
}

// Const creates a constant node.
func Const(v Number) *Node {
	return &Node{kind: KindConst, level: Atom, num: v}
}

// NewParam creates a node referring to the parameter at index idx of the
// function whose body contains it.
func NewParam(name string, idx int) *Node {
	return &Node{kind: KindParam, level: Atom, name: name, idx: idx}
}

// NewElement creates an element node. The value of an element is the value of
// its item, negated if neg is true and then inverted if recip is true.
func NewElement(item *Node, neg, recip bool) *Node {
	return &Node{kind: KindElem, level: Atom, item: item, neg: neg, recip: recip}
}

// NewExpression creates an expression node combining elems at the given
// level. Any node among elems that is not an element is wrapped in one with
// no modifiers. Panics if lv is not Sum, Product, or Power.
func NewExpression(lv Level, elems ...*Node) *Node {
	if lv < Sum || lv > Power {
		panic("mathparser: invalid expression level " + lv.String())
	}
	n := &Node{kind: KindExpr, level: lv, elems: make([]*Node, len(elems))}
	for i, e := range elems {
		if e == nil || e.kind != KindElem {
			e = NewElement(e, false, false)
		}
		n.elems[i] = e
	}
	return n
}

// NewCall creates a node calling fn with the given arguments.
func NewCall(fn Functional, args ...*Node) *Node {
	return &Node{kind: KindCall, level: Atom, fn: fn, args: args}
}

// Kind returns the kind of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// Level returns the precedence level of the node.
func (n *Node) Level() Level {
	return n.level
}

// Name returns the name of a variable or parameter node, or the name of the
// function of a call node.
func (n *Node) Name() string {
	if n.kind == KindCall {
		if n.fn == nil {
			return ""
		}
		return n.fn.Name()
	}
	return n.name
}

// Value returns the value of a constant node. It is undefined for all other
// kinds; use Context.Eval to evaluate them.
func (n *Node) Value() Number {
	if n.kind != KindConst {
		return Undefined
	}
	return n.num
}

// Modifiers returns the negative and reciprocal flags of an element node.
func (n *Node) Modifiers() (neg, recip bool) {
	return n.neg, n.recip
}

// Item returns the node modified by an element node.
func (n *Node) Item() *Node {
	return n.item
}

// Elements returns the elements of an expression node. The caller must not
// modify the returned slice.
func (n *Node) Elements() []*Node {
	return n.elems
}

// Func returns the function of a call node.
func (n *Node) Func() Functional {
	return n.fn
}

// Args returns the arguments of a call node. The caller must not modify the
// returned slice.
func (n *Node) Args() []*Node {
	return n.args
}

// String renders the node as text which parses to an equivalent node.
func (n *Node) String() string {
	var b strings.Builder
	n.fmt(&b, top)
	return b.String()
}

// Render renders the node as an operand appearing in the context of an
// expression at level ctx. Compound nodes which bind no tighter than ctx are
// parenthesized, so rendering with Atom parenthesizes any compound node.
func (n *Node) Render(ctx Level) string {
	var b strings.Builder
	n.fmt(&b, ctx)
	return b.String()
}

func (n *Node) fmt(b *strings.Builder, ctx Level) {
	if n == nil {
		b.WriteString("null")
		return
	}
	switch n.kind {
	case KindConst:
		x, ok := n.num.Float64()
		if !ok {
			b.WriteString("null")
			return
		}
		if math.Signbit(x) && ctx != top {
			b.WriteByte('(')
			b.WriteString(fmtnum(x))
			b.WriteByte(')')
			return
		}
		b.WriteString(fmtnum(x))
	case KindVar, KindParam:
		b.WriteString(n.name)
	case KindElem:
		n.fmtelem(b, ctx)
	case KindExpr:
		switch len(n.elems) {
		case 0:
			b.WriteString("null")
		case 1:
			n.elems[0].fmtelem(b, ctx)
		default:
			if ctx >= n.level {
				b.WriteByte('(')
				n.fmtexpr(b)
				b.WriteByte(')')
				return
			}
			n.fmtexpr(b)
		}
	case KindCall:
		if n.fn == nil {
			b.WriteString("null")
		} else {
			b.WriteString(n.fn.Name())
		}
		b.WriteByte('(')
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b, top)
		}
		b.WriteByte(')')
	default:
		panic("mathparser: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// fmtelem writes an element with its modifiers. Modifiers always enclose the
// element in parentheses.
func (n *Node) fmtelem(b *strings.Builder, ctx Level) {
	if n.kind != KindElem {
		n.fmt(b, ctx)
		return
	}
	if !n.neg && !n.recip {
		n.item.fmt(b, ctx)
		return
	}
	b.WriteByte('(')
	if n.neg {
		b.WriteByte('-')
		ctx = Atom
	}
	if n.recip {
		b.WriteString("1/")
		if !n.neg {
			ctx = Product
		}
	}
	n.item.fmt(b, ctx)
	b.WriteByte(')')
}

// fmtexpr writes the elements of an expression joined by its operators.
func (n *Node) fmtexpr(b *strings.Builder) {
	switch n.level {
	case Sum:
		n.elems[0].fmtelem(b, Sum)
		for _, e := range n.elems[1:] {
			if e.neg {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
			if e.recip {
				b.WriteString("(1/")
				e.item.fmt(b, Product)
				b.WriteByte(')')
				continue
			}
			e.item.fmt(b, Sum)
		}
	case Product:
		n.elems[0].fmtelem(b, Product)
		for _, e := range n.elems[1:] {
			if e.recip {
				b.WriteByte('/')
			} else {
				b.WriteByte('*')
			}
			if e.neg {
				b.WriteString("(-")
				e.item.fmt(b, Atom)
				b.WriteByte(')')
				continue
			}
			e.item.fmt(b, Product)
		}
	case Power:
		for i, e := range n.elems {
			if i > 0 {
				b.WriteByte('^')
			}
			e.fmtelem(b, Power)
		}
	}
}

// fmtnum formats a finite or infinite number without an exponent, so that the
// text never contains a sign that could be read as an operator.
func fmtnum(x float64) string {
	if math.IsInf(x, 1) {
		return "Inf"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
