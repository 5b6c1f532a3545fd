// Package mathparser parses algebraic expressions into graphs of nodes which
// can be evaluated and rendered back to text.
//
// Parsing finds the operators of the loosest precedence level outside any
// brackets and recurses on the operands, so "2+3*4" is a sum of 2 and a
// product, and "2^3^2" is 2^(3^2). Any of "()", "[]", "{}", and "<>" group.
// Subtraction and division are modifiers on the operand that follows the
// operator: "a-b/c" is a sum of a and the negation of a product of b and the
// reciprocal of c.
//
// Names which are not numbers are variables of a Context. A variable may hold
// a value or alias any other node, including expressions mentioning other
// variables, and evaluation always reads the current definitions. Evaluation
// never fails because something is missing; instead the result is Undefined.
//
// Functions are looked up by name and number of arguments when parsing, so a
// call to an unknown function is the only parse error. Contexts start with
// built-in functions like sin, sqrt, log, and pi, and Define adds functions
// written as expressions of their parameters.
package mathparser
