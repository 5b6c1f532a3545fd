package mathparser

import (
	"cmp"
	"log/slog"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Functional is a function from reals to reals with a fixed list of named
// parameters.
type Functional interface {
	// Name returns the name by which calls refer to the function.
	Name() string
	// ArgumentNames returns the names of the parameters in order. Its length
	// is the arity of the function.
	ArgumentNames() []string
	// Calculate evaluates the function. If len(args) is not the arity, the
	// result is Undefined. Built-ins also give Undefined for defined arguments
	// outside their domains, like sqrt(-1) or asin(2). The error is non-nil only if evaluation fails
	// outright, as with *CycleError or *DepthError.
	Calculate(ctx *Context, args []Number) (Number, error)
}

// FuncKey identifies a function in a context by name and arity, so that
// functions of different arities may share a name.
type FuncKey struct {
	Name  string
	Arity int
}

func (k FuncKey) String() string {
	return k.Name + "/" + strconv.Itoa(k.Arity)
}

// KeyOf returns the key for a function.
func KeyOf(fn Functional) FuncKey {
	return FuncKey{Name: fn.Name(), Arity: len(fn.ArgumentNames())}
}

// CalculateNamed evaluates fn with arguments given by parameter name. A name
// that is not a parameter of fn makes the result Undefined. Parameters missing
// from args are passed as Undefined.
func CalculateNamed(ctx *Context, fn Functional, args map[string]Number) (Number, error) {
	names := fn.ArgumentNames()
	for k := range args {
		if !slices.Contains(names, k) {
			return Undefined, nil
		}
	}
	vals := make([]Number, len(names))
	for i, name := range names {
		vals[i] = args[name]
	}
	return fn.Calculate(ctx, vals)
}

// Register adds a function to the context, replacing any function with the
// same name and arity. Returns ctx for chaining.
func (ctx *Context) Register(fn Functional) *Context {
	k := KeyOf(fn)
	if ctx.funcs == nil {
		ctx.funcs = make(map[FuncKey]Functional)
	}
	if _, ok := ctx.funcs[k]; ok {
		ctx.logger().Debug("replace function", slog.String("func", k.String()))
	} else {
		ctx.logger().Debug("new function", slog.String("func", k.String()))
	}
	ctx.funcs[k] = fn
	return ctx
}

// Func returns the function in the context with the given name and arity.
func (ctx *Context) Func(name string, arity int) (Functional, bool) {
	fn, ok := ctx.funcs[FuncKey{Name: name, Arity: arity}]
	return fn, ok
}

// Funcs returns the keys of the functions in the context, sorted by name and
// then by arity.
func (ctx *Context) Funcs() []FuncKey {
	r := make([]FuncKey, 0, len(ctx.funcs))
	for k := range ctx.funcs {
		r = append(r, k)
	}
	slices.SortFunc(r, func(a, b FuncKey) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Arity, b.Arity))
	})
	return r
}

// Define parses body as a function of the given parameters and registers it
// in the context under name. The body may call the function being defined.
func (ctx *Context) Define(name string, params []string, body string) (*Function, error) {
	fn := &Function{name: name, params: slices.Clone(params)}
	b, err := ctx.Parse(body, Locals(params...), ParseFunc(fn))
	if err != nil {
		return nil, err
	}
	fn.body = b
	ctx.Register(fn)
	return fn, nil
}

// Function is a user-defined function. Each call evaluates the body with a
// fresh binding of the parameters, so calls may nest and recurse.
type Function struct {
	name   string
	params []string
	body   *Node
}

// NewFunction creates a function from a body built with NewParam nodes.
func NewFunction(name string, params []string, body *Node) *Function {
	return &Function{name: name, params: slices.Clone(params), body: body}
}

// Name returns the name of the function.
func (f *Function) Name() string {
	return f.name
}

// ArgumentNames returns a copy of the parameter names of the function.
func (f *Function) ArgumentNames() []string {
	return slices.Clone(f.params)
}

// Behavior returns the body of the function.
func (f *Function) Behavior() *Node {
	return f.body
}

// Calculate evaluates the body of the function with args bound to its
// parameters.
func (f *Function) Calculate(ctx *Context, args []Number) (Number, error) {
	if len(args) != len(f.params) || f.body == nil {
		return Undefined, nil
	}
	if ctx.depth >= ctx.maxDepth {
		ctx.logger().Debug("call depth exceeded", slog.String("func", f.name), slog.Int("depth", ctx.depth))
		return Undefined, &DepthError{Func: f.name, Depth: ctx.depth}
	}
	ctx.depth++
	defer func() { ctx.depth-- }()
	return ctx.eval(f.body, slices.Clone(args))
}

// String renders the function definition, like "f(x, y) = x*y".
func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.name)
	b.WriteByte('(')
	b.WriteString(strings.Join(f.params, ", "))
	b.WriteString(") = ")
	f.body.fmt(&b, top)
	return b.String()
}

// Builtin is a function implemented in Go.
type Builtin struct {
	name   string
	params []string
	f      func(ctx *Context, args []float64) Number
}

// NewBuiltin creates a function of the given parameters. f receives exactly
// one value for each parameter; if any argument is undefined, the result is
// Undefined without calling f.
func NewBuiltin(name string, params []string, f func(ctx *Context, args []float64) Number) *Builtin {
	return &Builtin{name: name, params: slices.Clone(params), f: f}
}

// Name returns the name of the function.
func (b *Builtin) Name() string {
	return b.name
}

// ArgumentNames returns a copy of the parameter names of the function.
func (b *Builtin) ArgumentNames() []string {
	return slices.Clone(b.params)
}

// Calculate evaluates the function.
func (b *Builtin) Calculate(ctx *Context, args []Number) (Number, error) {
	if len(args) != len(b.params) {
		return Undefined, nil
	}
	xs := make([]float64, len(args))
	for i, a := range args {
		x, ok := a.Float64()
		if !ok {
			return Undefined, nil
		}
		xs[i] = x
	}
	return b.f(ctx, xs), nil
}

// String renders the function signature, like "sin(x) = built-in".
func (b *Builtin) String() string {
	return b.name + "(" + strings.Join(b.params, ", ") + ") = built-in"
}

// Monadic wraps a float64 function of one variable x into a Builtin. A NaN
// result from a number is undefined.
func Monadic(name string, f func(float64) float64) *Builtin {
	return NewBuiltin(name, []string{"x"}, func(_ *Context, x []float64) Number {
		y := f(x[0])
		if math.IsNaN(y) && !math.IsNaN(x[0]) {
			return Undefined
		}
		return Num(y)
	})
}

// BigMonadic wraps an arbitrary-precision function of one variable x into a
// Builtin. f must set out to its result and is called with in and out at the
// context's precision; its return value is ignored. If f is called on an
// argument outside its domain, it should panic with big.ErrNaN, which makes
// the result Undefined. Arguments which are zero or not finite go to approx
// instead, as do arguments for which approx gives zero, infinity, or NaN. A NaN
// result from a number is undefined.
func BigMonadic(name string, f func(out, in *big.Float) *big.Float, approx func(float64) float64) *Builtin {
	return NewBuiltin(name, []string{"x"}, func(ctx *Context, x []float64) Number {
		return bigcall(ctx, x[0], f, approx)
	})
}

func bigcall(ctx *Context, x float64, f func(out, in *big.Float) *big.Float, approx func(float64) float64) (r Number) {
	// Zero and overflowing results come from approx.
	if y := approx(x); x == 0 || y == 0 || math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsNaN(x) || math.IsNaN(y) {
		if math.IsNaN(y) && !math.IsNaN(x) {
			return Undefined
		}
		return Num(y)
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if _, ok := p.(big.ErrNaN); !ok {
			panic(p)
		}
		r = Undefined
	}()
	in := new(big.Float).SetPrec(ctx.Prec()).SetFloat64(x)
	out := new(big.Float).SetPrec(ctx.Prec())
	f(out, in)
	y, _ := out.Float64()
	return Num(y)
}

// Niladic wraps an arbitrary-precision constant into a Builtin of no
// parameters. f must set out to its result at out's precision; its return
// value is ignored.
func Niladic(name string, f func(out *big.Float) *big.Float) *Builtin {
	return NewBuiltin(name, nil, func(ctx *Context, _ []float64) Number {
		out := new(big.Float).SetPrec(ctx.Prec())
		f(out)
		y, _ := out.Float64()
		return Num(y)
	})
}

// builtins returns a new table of the built-in functions.
func builtins() map[FuncKey]Functional {
	fns := []Functional{
		Monadic("sin", math.Sin),
		Monadic("cos", math.Cos),
		Monadic("tan", math.Tan),
		Monadic("asin", math.Asin),
		Monadic("acos", math.Acos),
		Monadic("atan", math.Atan),
		Monadic("sinh", math.Sinh),
		Monadic("cosh", math.Cosh),
		Monadic("tanh", math.Tanh),
		Monadic("asinh", math.Asinh),
		Monadic("acosh", math.Acosh),
		Monadic("atanh", math.Atanh),
		Monadic("rad", func(x float64) float64 { return x * math.Pi / 180 }),
		Monadic("deg", func(x float64) float64 { return x * 180 / math.Pi }),
		Monadic("abs", math.Abs),
		NewBuiltin("sign", []string{"x"}, sign),
		Monadic("floor", math.Floor),
		Monadic("ceiling", math.Ceil),
		Monadic("round", math.RoundToEven),

		BigMonadic("exp", bigfloat.Exp, math.Exp),
		BigMonadic("ln", bigfloat.Log, math.Log),
		BigMonadic("sqrt", (*big.Float).Sqrt, math.Sqrt),
		BigMonadic("log", log10, math.Log10),
		NewBuiltin("log", []string{"x", "b"}, logb),

		Niladic("pi", bigfloat.Pi),
		Niladic("e", func(out *big.Float) *big.Float {
			var one big.Float
			one.SetPrec(out.Prec()).SetFloat64(1)
			return bigfloat.Exp(out, &one)
		}),
	}
	m := make(map[FuncKey]Functional, len(fns))
	for _, fn := range fns {
		m[KeyOf(fn)] = fn
	}
	return m
}

func sign(_ *Context, x []float64) Number {
	switch {
	case math.IsNaN(x[0]):
		return Undefined
	case x[0] > 0:
		return Num(1)
	case x[0] < 0:
		return Num(-1)
	}
	return Num(0)
}

func log10(out, in *big.Float) *big.Float {
	bigfloat.Log(out, in)
	in.SetFloat64(10)
	bigfloat.Log(in, in)
	return out.Quo(out, in)
}

// logb computes the logarithm of x to base b.
func logb(ctx *Context, args []float64) Number {
	x := bigcall(ctx, args[0], bigfloat.Log, math.Log)
	b := bigcall(ctx, args[1], bigfloat.Log, math.Log)
	lx, ok := x.Float64()
	if !ok {
		return Undefined
	}
	lb, ok := b.Float64()
	if !ok {
		return Undefined
	}
	if r := lx / lb; !math.IsNaN(r) {
		return Num(r)
	}
	return Undefined
}
