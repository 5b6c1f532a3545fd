package mathparser

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		name string
		n    Number
		x    float64
		ok   bool
		s    string
	}{
		{"zero-value", Number{}, 0, false, "undefined"},
		{"undefined", Undefined, 0, false, "undefined"},
		{"zero", Num(0), 0, true, "0"},
		{"frac", Num(1.5), 1.5, true, "1.5"},
		{"neg", Num(-2), -2, true, "-2"},
		{"big", Num(1e21), 1e21, true, "1e+21"},
		{"inf", Num(math.Inf(1)), math.Inf(1), true, "+Inf"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			x, ok := c.n.Float64()
			if x != c.x || ok != c.ok {
				t.Errorf("wrong value: want %g %t, got %g %t", c.x, c.ok, x, ok)
			}
			if c.n.Defined() != c.ok {
				t.Errorf("Defined is %t", c.n.Defined())
			}
			if s := c.n.String(); s != c.s {
				t.Errorf("wrong string: want %q, got %q", c.s, s)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ctx := NewContext()
	a, b := ctx.Var("a"), ctx.Var("b")
	num := func(x float64) *Node { return Const(Num(x)) }
	cases := []struct {
		name string
		n    *Node
		ctx  Level
		want string
	}{
		{"const", num(1.25), Sum, "1.25"},
		{"const-neg", num(-3), Sum, "(-3)"},
		{"const-undef", Const(Undefined), Atom, "null"},
		{"const-inf", num(math.Inf(1)), Sum, "Inf"},
		{"const-neg-inf", num(math.Inf(-1)), Product, "(-Inf)"},
		{"const-large", num(1e21), Sum, "1000000000000000000000"},
		{"const-small", num(0.000125), Sum, "0.000125"},
		{"var", a, Atom, "a"},
		{"sum-atom", NewExpression(Sum, a, b), Atom, "(a + b)"},
		{"sum-sum", NewExpression(Sum, a, b), Sum, "(a + b)"},
		{"sum-product", NewExpression(Sum, a, b), Product, "(a + b)"},
		{"product-sum", NewExpression(Product, a, b), Sum, "a*b"},
		{"product-product", NewExpression(Product, a, b), Product, "(a*b)"},
		{"power-product", NewExpression(Power, a, b), Product, "a^b"},
		{"power-power", NewExpression(Power, a, b), Power, "(a^b)"},
		{"empty", NewExpression(Sum), Atom, "null"},
		{"single", NewExpression(Product, a), Atom, "a"},
		{"single-neg", NewExpression(Sum, NewElement(a, true, false)), Sum, "(-a)"},
		{"elem-neg", NewElement(a, true, false), Sum, "(-a)"},
		{"elem-recip", NewElement(a, false, true), Sum, "(1/a)"},
		{"elem-both", NewElement(a, true, true), Sum, "(-1/a)"},
		{"elem-plain", NewElement(NewExpression(Sum, a, b), false, false), Product, "(a + b)"},
		{"elem-recip-sum", NewElement(NewExpression(Sum, a, b), false, true), Sum, "(1/(a + b))"},
		{"elem-recip-product", NewElement(NewExpression(Product, a, b), false, true), Sum, "(1/(a*b))"},
		{"elem-recip-power", NewElement(NewExpression(Power, a, b), false, true), Sum, "(1/a^b)"},
		{"elem-neg-power", NewElement(NewExpression(Power, a, b), true, false), Sum, "(-(a^b))"},
		{"elem-neg-const", NewElement(num(-2), true, false), Sum, "(-(-2))"},
		{"call-nil", NewCall(nil), Atom, "null()"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.n.Render(c.ctx); got != c.want {
				t.Errorf("wrong render: want %q, got %q", c.want, got)
			}
		})
	}
}

func TestString(t *testing.T) {
	ctx := NewContext()
	a, b, c := ctx.Var("a"), ctx.Var("b"), ctx.Var("c")
	sin, _ := ctx.Func("sin", 1)
	log, _ := ctx.Func("log", 2)
	cases := []struct {
		name string
		n    *Node
		want string
	}{
		{"const-neg", Const(Num(-4)), "-4"},
		{"sum", NewExpression(Sum, a, NewElement(b, true, false), c), "a - b + c"},
		{"sum-recip", NewExpression(Sum, a, NewElement(b, false, true)), "a + (1/b)"},
		{"sum-both", NewExpression(Sum, a, NewElement(b, true, true)), "a - (1/b)"},
		{"sum-first-neg", NewExpression(Sum, NewElement(a, true, false), b), "(-a) + b"},
		{"sum-nested", NewExpression(Sum, a, NewElement(NewExpression(Sum, b, c), true, false)), "a - (b + c)"},
		{"sum-product", NewExpression(Sum, a, NewExpression(Product, b, c)), "a + b*c"},
		{"sum-neg-const", NewExpression(Sum, a, Const(Num(-3))), "a + (-3)"},
		{"product", NewExpression(Product, a, NewElement(b, false, true), c), "a/b*c"},
		{"product-neg", NewExpression(Product, a, NewElement(b, true, false)), "a*(-b)"},
		{"product-both", NewExpression(Product, a, NewElement(b, true, true)), "a/(-b)"},
		{"product-neg-sum", NewExpression(Product, a, NewElement(NewExpression(Sum, b, c), true, false)), "a*(-(b + c))"},
		{"product-sum", NewExpression(Product, NewExpression(Sum, a, b), c), "(a + b)*c"},
		{"product-power", NewExpression(Product, a, NewExpression(Power, b, c)), "a*b^c"},
		{"power", NewExpression(Power, a, b, c), "a^b^c"},
		{"power-left", NewExpression(Power, NewExpression(Power, a, b), c), "(a^b)^c"},
		{"power-neg", NewExpression(Power, NewElement(a, true, false), b), "(-a)^b"},
		{"call", NewCall(sin, NewExpression(Sum, a, b)), "sin(a + b)"},
		{"call2", NewCall(log, a, Const(Num(-2))), "log(a, -2)"},
		{"call-in-power", NewExpression(Power, NewCall(sin, a), b), "sin(a)^b"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.n.String(); got != c.want {
				t.Errorf("wrong string: want %q, got %q", c.want, got)
			}
		})
	}
}

// gen generates random node graphs.
type gen struct {
	rng  *rand.Rand
	vars []*Node
	fns  []Functional
}

func (g *gen) node(depth int) *Node {
	if depth <= 0 || g.rng.IntN(4) == 0 {
		return g.leaf()
	}
	if g.rng.IntN(5) == 0 {
		fn := g.fns[g.rng.IntN(len(g.fns))]
		args := make([]*Node, len(fn.ArgumentNames()))
		for i := range args {
			args[i] = g.node(depth - 1)
		}
		return NewCall(fn, args...)
	}
	lv := Level(g.rng.IntN(3))
	elems := make([]*Node, 1+g.rng.IntN(3))
	for i := range elems {
		elems[i] = NewElement(g.node(depth-1), g.rng.IntN(4) == 0, g.rng.IntN(4) == 0)
	}
	return NewExpression(lv, elems...)
}

func (g *gen) leaf() *Node {
	if g.rng.IntN(3) == 0 {
		return g.vars[g.rng.IntN(len(g.vars))]
	}
	x := float64(g.rng.IntN(20)) / 4
	if g.rng.IntN(3) == 0 {
		x = -x
	}
	return Const(Num(x))
}

// near reports whether two results are equal within a relative tolerance,
// treating undefined and NaN results as equal to themselves.
func near(a, b Number, tol float64) bool {
	x, ok := a.Float64()
	y, ok2 := b.Float64()
	switch {
	case ok != ok2:
		return false
	case !ok:
		return true
	case math.IsNaN(x) || math.IsNaN(y):
		return math.IsNaN(x) && math.IsNaN(y)
	case math.IsInf(x, 0) || math.IsInf(y, 0):
		return x == y
	}
	return math.Abs(x-y) <= tol*max(1, math.Abs(x), math.Abs(y))
}

func TestRoundTrip(t *testing.T) {
	ctx := NewContext(SetVars(map[string]float64{"x": 1.5, "y": -2, "z": 0.25}))
	f, err := ctx.Define("f", []string{"a", "b"}, "a*b - a")
	if err != nil {
		t.Fatal(err)
	}
	g := gen{
		rng:  rand.New(rand.NewPCG(1, 2)),
		vars: []*Node{ctx.Var("x"), ctx.Var("y"), ctx.Var("z")},
		fns:  []Functional{f},
	}
	for _, name := range []string{"sin", "abs", "floor"} {
		fn, _ := ctx.Func(name, 1)
		g.fns = append(g.fns, fn)
	}
	for i := 0; i < 2000; i++ {
		n := g.node(4)
		want, err := ctx.Eval(n)
		if err != nil {
			t.Fatalf("evaluating %v: %v", n, err)
		}
		s := n.String()
		m, err := ctx.Parse(s)
		if err != nil {
			t.Fatalf("reparsing %q: %v", s, err)
		}
		got, err := ctx.Eval(m)
		if err != nil {
			t.Fatalf("evaluating reparsed %q: %v", s, err)
		}
		if !near(want, got, 1e-9) {
			t.Errorf("%q: graph gives %v, reparse %v gives %v", s, want, m, got)
		}
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add("1+2*3")
	f.Add("-x^2")
	f.Add("a - -b/(c+d)")
	f.Add("sin(x)^-1")
	f.Add("((1)/(2))")
	f.Add("(0()*)*0")
	f.Add("-)-\x16(0")
	f.Fuzz(func(t *testing.T, s string) {
		ctx := NewContext(SetVar("x", 2))
		n, err := ctx.Parse(s)
		if err != nil {
			return
		}
		for _, v := range ctx.Vars() {
			if !IsName(v) {
				return
			}
		}
		want, err := ctx.Eval(n)
		if err != nil {
			return
		}
		r := n.String()
		m, err := ctx.Parse(r)
		if err != nil {
			t.Fatalf("%q renders as %q which fails to parse: %v", s, r, err)
		}
		got, err := ctx.Eval(m)
		if err != nil {
			t.Fatalf("%q renders as %q which fails to evaluate: %v", s, r, err)
		}
		if !near(want, got, 1e-9) {
			t.Errorf("%q gives %v but its rendering %q gives %v", s, want, r, got)
		}
	})
}
