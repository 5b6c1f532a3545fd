package mathparser_test

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/expr-lang/expr"

	"github.com/zephyrtronium/mathparser"
)

// arith generates arithmetic over digits which means the same thing to
// mathparser and to expr. Divisors are nonzero digits so that neither side
// sees a division by a result that is zero in one and tiny in the other.
func arith(rng *rand.Rand, b *strings.Builder, depth int) {
	if depth <= 0 || rng.IntN(4) == 0 {
		b.WriteString(strconv.Itoa(rng.IntN(10)))
		return
	}
	paren := rng.IntN(2) == 0
	if paren {
		b.WriteByte('(')
	}
	arith(rng, b, depth-1)
	switch rng.IntN(4) {
	case 0:
		b.WriteString(" + ")
		arith(rng, b, depth-1)
	case 1:
		b.WriteString(" - ")
		arith(rng, b, depth-1)
	case 2:
		b.WriteString(" * ")
		arith(rng, b, depth-1)
	case 3:
		b.WriteString(" / ")
		b.WriteString(strconv.Itoa(1 + rng.IntN(9)))
	}
	if paren {
		b.WriteByte(')')
	}
}

func TestExprOracle(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	ctx := mathparser.NewContext()
	for i := 0; i < 1000; i++ {
		var b strings.Builder
		arith(rng, &b, 4)
		src := b.String()
		program, err := expr.Compile(src, expr.Env(map[string]any{}))
		if err != nil {
			t.Fatalf("expr can't compile %q: %v", src, err)
		}
		out, err := expr.Run(program, map[string]any{})
		if err != nil {
			t.Fatalf("expr can't run %q: %v", src, err)
		}
		var want float64
		switch out := out.(type) {
		case int:
			want = float64(out)
		case float64:
			want = out
		default:
			t.Fatalf("expr gave %T for %q", out, src)
		}
		n, err := ctx.Parse(src)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", src, err)
		}
		r, err := ctx.Eval(n)
		if err != nil {
			t.Fatalf("failed to evaluate %q: %v", src, err)
		}
		got, ok := r.Float64()
		if !ok {
			t.Fatalf("%q is undefined", src)
		}
		if math.Abs(got-want) > 1e-9*max(1, math.Abs(want)) {
			t.Errorf("%q: expr gives %g, got %g", src, want, got)
		}
	}
}
