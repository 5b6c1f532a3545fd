package mathparser

import (
	"slices"
	"strings"
)

// Bracket characters recognized by the parser. The byte at each index of
// OpenBrackets pairs with the byte at the same index of CloseBrackets, but
// depth tracking treats every opener and every closer alike.
const (
	OpenBrackets  = "([{<"
	CloseBrackets = ")]}>"
)

// Split splits text on any byte of delims that occurs outside brackets.
// Runs between delimiters are returned in order; empty runs are dropped, so
// leading, trailing, or repeated delimiters never produce empty strings.
func Split(text, delims, opens, closes string) []string {
	var r []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(opens, c) >= 0 {
			depth++
		}
		if depth == 0 && strings.IndexByte(delims, c) >= 0 {
			if i > start {
				r = append(r, text[start:i])
			}
			start = i + 1
		}
		if strings.IndexByte(closes, c) >= 0 {
			depth--
		}
	}
	if start < len(text) {
		r = append(r, text[start:])
	}
	return r
}

// IsWrapped reports whether the entirety of text is enclosed by a single
// bracket pair, as in "(a+b)" but not "(a)+(b)".
func IsWrapped(text, opens, closes string) bool {
	if len(text) < 2 {
		return false
	}
	if strings.IndexByte(opens, text[0]) < 0 || strings.IndexByte(closes, text[len(text)-1]) < 0 {
		return false
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case strings.IndexByte(opens, c) >= 0:
			depth++
		case strings.IndexByte(closes, c) >= 0:
			depth--
		}
		if depth <= 0 && i < len(text)-1 {
			return false
		}
	}
	return depth == 0
}

// IsCallShaped reports whether text looks like a function call, i.e. a name
// followed by a bracketed argument list.
func IsCallShaped(text string) bool {
	if len(text) < 3 {
		return false
	}
	return strings.IndexByte(CloseBrackets, text[len(text)-1]) >= 0 &&
		strings.IndexByte(OpenBrackets, text[0]) < 0 &&
		strings.ContainsAny(text, OpenBrackets)
}

// CallKey returns the function table key that call-shaped text would look up.
// The name is the text before the first opening bracket, and the arity is the
// number of non-empty comma-separated arguments inside the brackets. Commas
// nested in further brackets do not separate arguments.
func CallKey(text string) FuncKey {
	name, args := callParts(text)
	return FuncKey{Name: name, Arity: len(args)}
}

// SplitDefinition splits a function definition like "f(x, y) = x*y" into the
// function name, the parameter names, and the body text. ok is false if text
// has no '=' or the left side is not a name applied to distinct names.
func SplitDefinition(text string) (name string, params []string, body string, ok bool) {
	lhs, body, found := strings.Cut(text, "=")
	lhs = strings.TrimSpace(lhs)
	if !found || !IsCallShaped(lhs) {
		return "", nil, "", false
	}
	name, params = callParts(lhs)
	if !IsName(name) {
		return "", nil, "", false
	}
	for i, p := range params {
		if !IsName(p) || slices.Contains(params[:i], p) {
			return "", nil, "", false
		}
	}
	return name, params, strings.TrimSpace(body), true
}

// IsName reports whether text parses as a bare variable name. Names may
// contain spaces and most punctuation, but not operators, brackets, commas,
// or the characters ":=$".
func IsName(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" || isNumber(text) {
		return false
	}
	return !strings.ContainsAny(text, "+-*/^,:=$"+OpenBrackets+CloseBrackets)
}

// callParts splits call-shaped text into its function name and argument texts.
func callParts(text string) (string, []string) {
	i := strings.IndexAny(text, OpenBrackets)
	if i < 0 {
		return strings.TrimSpace(text), nil
	}
	name := strings.TrimSpace(text[:i])
	var inner string
	if len(text)-1 > i {
		inner = text[i+1 : len(text)-1]
	}
	var args []string
	for _, a := range Split(inner, ",", OpenBrackets, CloseBrackets) {
		a = strings.TrimSpace(a)
		if a != "" {
			args = append(args, a)
		}
	}
	return name, args
}

// part is one operand found by splitLevel along with the modifiers implied by
// the operators before it.
type part struct {
	text  string
	neg   bool
	recip bool
}

// operators returns the operator characters of a precedence level.
func operators(lv Level) string {
	switch lv {
	case Sum:
		return "+-"
	case Product:
		return "*/"
	case Power:
		return "^"
	}
	return ""
}

// splitLevel splits text at the operators of lv that occur outside brackets.
// Each part carries the modifiers of the operators that precede it; a run of
// operators with nothing but whitespace between them combines, so "a - -b"
// adds b. lead reports whether any operator precedes the first part.
func splitLevel(text string, lv Level) (parts []part, lead bool) {
	ops := operators(lv)
	var cur part
	depth, start := 0, 0
	flush := func(end int) {
		s := strings.TrimSpace(text[start:end])
		if s == "" {
			return
		}
		cur.text = s
		parts = append(parts, cur)
		cur = part{}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(OpenBrackets, c) >= 0 {
			depth++
		}
		if depth == 0 && strings.IndexByte(ops, c) >= 0 && splits(text[start:i], c, lv) {
			flush(i)
			if len(parts) == 0 {
				lead = true
			}
			cur.neg = cur.neg != (c == '-')
			cur.recip = cur.recip != (c == '/')
			start = i + 1
		}
		if strings.IndexByte(CloseBrackets, c) >= 0 {
			depth--
		}
	}
	flush(len(text))
	return parts, lead
}

// splits reports whether the operator c following run separates operands.
// A sign directly after another operator or after the exponent marker of a
// number literal belongs to the operand that follows it.
func splits(run string, c byte, lv Level) bool {
	if lv != Sum {
		return true
	}
	t := strings.TrimSpace(run)
	if t == "" {
		return true
	}
	switch t[len(t)-1] {
	case '*', '/', '^':
		return false
	}
	return !exponentMarker(run)
}

// exponentMarker reports whether run ends with the mantissa and exponent
// marker of a number literal in scientific notation, like "2*1.5e".
func exponentMarker(run string) bool {
	n := len(run)
	if n < 2 || run[n-1] != 'e' && run[n-1] != 'E' {
		return false
	}
	i, digits := n-1, 0
	for i > 0 {
		c := run[i-1]
		if c >= '0' && c <= '9' {
			digits++
		} else if c != '.' {
			break
		}
		i--
	}
	if digits == 0 {
		return false
	}
	if i == 0 {
		return true
	}
	c := run[i-1]
	return !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}
