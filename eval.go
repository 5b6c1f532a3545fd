package mathparser

import (
	"log/slog"
	"math"
	"slices"
	"strings"
)

// Context holds the variables and functions that parsed expressions refer to.
// It is not safe to use a Context concurrently. Create contexts with
// NewContext; the zero Context has no functions and a maximum depth of zero, so
// it only parses and evaluates variables and constants.
type Context struct {
	vars  []variable
	names map[string]VarID
	funcs map[FuncKey]Functional

	prec     uint
	maxDepth int
	depth    int

	log *slog.Logger
}

// variable is a named cell in a context's arena.
type variable struct {
	name string
	// node is the canonical node referring to the variable.
	node *Node
	// link is the node the variable resolves to, or nil if it has none.
	link *Node
	// busy is set while the variable is being evaluated.
	busy bool
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  float64
	}
	varsopt       map[string]float64
	ctxfunc       struct{ fn Functional }
	precopt       uint
	depthopt      int
	logopt        struct{ log *slog.Logger }
	nobuiltinsopt struct{}
)

func (varopt) ctxOption()        {}
func (varsopt) ctxOption()       {}
func (ctxfunc) ctxOption()       {}
func (precopt) ctxOption()       {}
func (depthopt) ctxOption()      {}
func (logopt) ctxOption()        {}
func (nobuiltinsopt) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val float64) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]float64) ContextOption {
	return varsopt(vars)
}

// SetFunc registers a function in the context, replacing any function with the
// same name and arity.
func SetFunc(fn Functional) ContextOption {
	return ctxfunc{fn}
}

// Prec sets the precision in bits of calculations done by arbitrary-precision
// built-in functions. Results are always rounded to float64.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// MaxDepth sets the maximum depth of nested user function calls.
func MaxDepth(depth int) ContextOption {
	return depthopt(depth)
}

// Logger sets the logger that receives debug messages about changes to the
// context and evaluation failures. By default, nothing is logged.
func Logger(log *slog.Logger) ContextOption {
	return logopt{log}
}

// NoBuiltins removes the built-in functions from the context. Functions set in
// the same call to NewContext or Clone are kept.
func NoBuiltins() ContextOption {
	return nobuiltinsopt{}
}

// NewContext creates a new context with the built-in functions. If no precision
// is given, the default is 64. If no maximum depth is given, the default is
// 256.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{
		funcs:    builtins(),
		prec:     64,
		maxDepth: 256,
		log:      slog.New(slog.DiscardHandler),
	}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it. Nodes parsed
// with ctx evaluate the same way with the clone, but changes to variables and
// functions in either context do not affect the other.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		vars:     slices.Clone(ctx.vars),
		names:    make(map[string]VarID, len(ctx.names)),
		funcs:    make(map[FuncKey]Functional, len(ctx.funcs)),
		prec:     ctx.prec,
		maxDepth: ctx.maxDepth,
		log:      ctx.log,
	}
	for k, v := range ctx.names {
		n.names[k] = v
	}
	for k, v := range ctx.funcs {
		n.funcs[k] = v
	}
	for i := range n.vars {
		n.vars[i].busy = false
	}
	// Remove built-ins first so that functions given alongside NoBuiltins
	// survive regardless of option order.
	for _, opt := range opts {
		if _, ok := opt.(nobuiltinsopt); ok {
			for k, fn := range n.funcs {
				if _, ok := fn.(*Builtin); ok {
					delete(n.funcs, k)
				}
			}
			break
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.Set(opt.name, Num(opt.val))
		case varsopt:
			for k, v := range opt {
				n.Set(k, Num(v))
			}
		case ctxfunc:
			n.Register(opt.fn)
		case precopt:
			n.prec = uint(opt)
		case depthopt:
			n.maxDepth = int(opt)
		case logopt:
			n.log = opt.log
			if n.log == nil {
				n.log = slog.New(slog.DiscardHandler)
			}
		case nobuiltinsopt:
			// Already done. Do nothing.
		default:
			panic("mathparser: unknown option type")
		}
	}
	return &n
}

// Var returns the node referring to the named variable, creating the variable
// with no value if it does not exist. Every call with the same name returns
// the same node.
func (ctx *Context) Var(name string) *Node {
	if id, ok := ctx.names[name]; ok {
		return ctx.vars[id].node
	}
	if ctx.names == nil {
		ctx.names = make(map[string]VarID)
	}
	id := VarID(len(ctx.vars))
	n := &Node{kind: KindVar, level: Atom, name: name, id: id}
	ctx.vars = append(ctx.vars, variable{name: name, node: n})
	ctx.names[name] = id
	ctx.logger().Debug("new variable", slog.String("name", name), slog.Int("id", int(id)))
	return n
}

// logger returns the context's logger, or a discarding one if it has none.
func (ctx *Context) logger() *slog.Logger {
	if ctx.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ctx.log
}

// Lookup returns the node referring to the named variable, if it exists.
func (ctx *Context) Lookup(name string) (*Node, bool) {
	id, ok := ctx.names[name]
	if !ok {
		return nil, false
	}
	return ctx.vars[id].node, true
}

// Set sets the value of a variable, creating it if needed. Returns ctx for
// chaining.
func (ctx *Context) Set(name string, value Number) *Context {
	return ctx.SetLink(name, Const(value))
}

// SetLink makes a variable an alias of a node, creating the variable if
// needed. The variable's value follows the node's value as other variables
// change. A nil node removes the variable's value. Returns ctx for chaining.
func (ctx *Context) SetLink(name string, n *Node) *Context {
	id := ctx.Var(name).id
	ctx.vars[id].link = n
	return ctx
}

// Link returns the node to which a variable resolves. The result is nil if the
// variable does not exist or has no value.
func (ctx *Context) Link(name string) *Node {
	id, ok := ctx.names[name]
	if !ok {
		return nil
	}
	return ctx.vars[id].link
}

// Definition returns the node that defines n. For a variable, that is its
// link; every other node defines itself.
func (ctx *Context) Definition(n *Node) *Node {
	if n == nil || n.kind != KindVar {
		return n
	}
	if int(n.id) >= len(ctx.vars) {
		return nil
	}
	return ctx.vars[n.id].link
}

// Vars returns the names of the variables in the context in sorted order.
func (ctx *Context) Vars() []string {
	r := make([]string, 0, len(ctx.vars))
	for _, v := range ctx.vars {
		r = append(r, v.name)
	}
	slices.Sort(r)
	return r
}

// Prec returns the precision to which arbitrary-precision built-in functions
// are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// MaxDepth returns the maximum depth of nested user function calls.
func (ctx *Context) MaxDepth() int {
	return ctx.maxDepth
}

// Eval evaluates a node. Missing values evaluate to Undefined without error.
// The result is an error only if a variable depends on itself, giving
// *CycleError, or user function calls nest too deeply, giving *DepthError.
func (ctx *Context) Eval(n *Node) (Number, error) {
	return ctx.eval(n, nil)
}

// eval evaluates a node with the given parameter values.
func (ctx *Context) eval(n *Node, frame []Number) (Number, error) {
	if n == nil {
		return Undefined, nil
	}
	switch n.kind {
	case KindConst:
		return n.num, nil
	case KindParam:
		if n.idx < 0 || n.idx >= len(frame) {
			return Undefined, nil
		}
		return frame[n.idx], nil
	case KindVar:
		return ctx.evalvar(n.id)
	case KindElem:
		v, err := ctx.eval(n.item, frame)
		x, ok := v.Float64()
		if err != nil || !ok {
			return Undefined, err
		}
		if n.neg {
			x = -x
		}
		if n.recip {
			x = 1 / x
		}
		return Num(x), nil
	case KindExpr:
		return ctx.evalexpr(n, frame)
	case KindCall:
		if n.fn == nil || len(n.args) != len(n.fn.ArgumentNames()) {
			return Undefined, nil
		}
		args := make([]Number, len(n.args))
		for i, a := range n.args {
			if a == nil {
				return Undefined, nil
			}
			v, err := ctx.eval(a, frame)
			if err != nil {
				return Undefined, err
			}
			args[i] = v
		}
		return n.fn.Calculate(ctx, args)
	default:
		panic("mathparser: invalid node kind " + n.kind.String())
	}
}

// evalvar evaluates a variable through its link.
func (ctx *Context) evalvar(id VarID) (Number, error) {
	if id < 0 || int(id) >= len(ctx.vars) {
		return Undefined, nil
	}
	v := ctx.vars[id]
	if v.link == nil {
		return Undefined, nil
	}
	if v.busy {
		ctx.logger().Debug("variable cycle", slog.String("name", v.name))
		return Undefined, &CycleError{Name: v.name}
	}
	ctx.vars[id].busy = true
	defer func() { ctx.vars[id].busy = false }()
	// Links are parsed outside any function, so they never see parameters.
	return ctx.eval(v.link, nil)
}

// evalexpr folds the elements of an expression. Any undefined element makes
// the whole expression undefined.
func (ctx *Context) evalexpr(n *Node, frame []Number) (Number, error) {
	switch len(n.elems) {
	case 0:
		return Undefined, nil
	case 1:
		return ctx.eval(n.elems[0], frame)
	}
	vals := make([]float64, len(n.elems))
	for i, e := range n.elems {
		v, err := ctx.eval(e, frame)
		x, ok := v.Float64()
		if err != nil || !ok {
			return Undefined, err
		}
		vals[i] = x
	}
	var r float64
	switch n.level {
	case Sum:
		r = 0
		for _, x := range vals {
			r += x
		}
	case Product:
		r = 1
		for _, x := range vals {
			r *= x
		}
	case Power:
		// Exponentiation is right-associative.
		r = vals[len(vals)-1]
		for i := len(vals) - 2; i >= 0; i-- {
			r = math.Pow(vals[i], r)
		}
	default:
		return Undefined, nil
	}
	return Num(r), nil
}

// EvalString is a shortcut to parse and evaluate a string expression in a new
// context.
func EvalString(src string, opts ...ContextOption) (Number, error) {
	ctx := NewContext(opts...)
	n, err := ctx.Parse(src)
	if err != nil {
		return Undefined, err
	}
	return ctx.Eval(n)
}

// String lists the variables in the context with their definitions, one per
// line, in sorted order.
func (ctx *Context) String() string {
	var b strings.Builder
	for _, name := range ctx.Vars() {
		b.WriteString(name)
		b.WriteString(" := ")
		ctx.Link(name).fmt(&b, top)
		b.WriteByte('\n')
	}
	return b.String()
}
