package mathparser

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type (
	localsopt []string
	funcopt   struct {
		fn Functional
	}
)

// parsectx holds general data for parsing.
type parsectx struct {
	// ctx is the context whose variables and functions names resolve to.
	ctx *Context
	// locals maps parameter names to their frame indices. Locals shadow
	// variables of the same name.
	locals map[string]int
	// funcs holds functions visible to this parse only. They shadow functions
	// in the context with the same name and arity.
	funcs map[FuncKey]Functional
}

// Locals declares parameter names for parsing the body of a user function.
// Each name parses to a parameter node whose index is the name's position in
// names, rather than to a variable. Later options override earlier ones.
func Locals(names ...string) ParseOption {
	return localsopt(names)
}

func (o localsopt) parseOption(p parsectx) parsectx {
	p.locals = make(map[string]int, len(o))
	for i, name := range o {
		p.locals[name] = i
	}
	return p
}

// ParseFunc makes a function available to a single parse without registering
// it in the context.
func ParseFunc(fn Functional) ParseOption {
	return funcopt{fn}
}

func (o funcopt) parseOption(p parsectx) parsectx {
	m := make(map[FuncKey]Functional, len(p.funcs)+1)
	for k, v := range p.funcs {
		m[k] = v
	}
	m[KeyOf(o.fn)] = o.fn
	p.funcs = m
	return p
}

// lookup finds the function for a call key.
func (p *parsectx) lookup(k FuncKey) (Functional, bool) {
	if fn, ok := p.funcs[k]; ok {
		return fn, true
	}
	return p.ctx.Func(k.Name, k.Arity)
}
