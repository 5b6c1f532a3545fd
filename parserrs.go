package mathparser

import "strconv"

// UnknownFunctionError is an error indicating a call to a function name with
// an arity that is not in the function table.
type UnknownFunctionError struct {
	// Name is the name of the function that was called.
	Name string
	// Arity is the number of arguments in the call.
	Arity int
}

func (err *UnknownFunctionError) Error() string {
	return "unknown function " + strconv.Quote(err.Name) + " with " + plural(err.Arity, "argument")
}

// CycleError is an error indicating that evaluating a variable required the
// value of the same variable, e.g. after x := x + 1.
type CycleError struct {
	// Name is the variable that was reached again.
	Name string
}

func (err *CycleError) Error() string {
	return "variable " + strconv.Quote(err.Name) + " depends on itself"
}

// DepthError is an error indicating that user function calls nested beyond
// the maximum depth of the context.
type DepthError struct {
	// Func is the name of the function whose call exceeded the limit.
	Func string
	// Depth is the call depth at which evaluation stopped.
	Depth int
}

func (err *DepthError) Error() string {
	return "calls nested " + strconv.Itoa(err.Depth) + " deep calling " + strconv.Quote(err.Func)
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}
