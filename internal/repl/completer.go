package repl

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/zephyrtronium/mathparser"
)

// maxSuggestions is the most names Suggest returns.
const maxSuggestions = 3

// isWordBoundary reports whether c separates names for completion.
func isWordBoundary(c byte) bool {
	return strings.IndexByte("+-*/^,=:$ \t"+mathparser.OpenBrackets+mathparser.CloseBrackets, c) >= 0
}

// funcNames returns the distinct names of the functions in the context.
func (s *Shell) funcNames() []string {
	var r []string
	for _, k := range s.ctx.Funcs() {
		if len(r) == 0 || r[len(r)-1] != k.Name {
			r = append(r, k.Name)
		}
	}
	return r
}

// Suggest returns up to three functions with names similar to name, best match
// first, written as name/arity.
func (s *Shell) Suggest(name string) []string {
	matches := fuzzy.Find(name, s.funcNames())
	var r []string
	for _, m := range matches {
		for _, k := range s.ctx.Funcs() {
			if k.Name == m.Str {
				r = append(r, k.String())
			}
		}
		if len(r) >= maxSuggestions {
			return r[:maxSuggestions]
		}
	}
	return r
}

// Complete returns completions of the last word of line among the names of
// variables and functions, ranked by fuzzy match. Function names are completed
// with an opening parenthesis.
func (s *Shell) Complete(line string) []string {
	start := len(line)
	for start > 0 && !isWordBoundary(line[start-1]) {
		start--
	}
	word := line[start:]
	if word == "" {
		return nil
	}
	var cands []string
	for _, v := range s.ctx.Vars() {
		// Words end at spaces.
		if !strings.ContainsAny(v, " \t") {
			cands = append(cands, v)
		}
	}
	fns := s.funcNames()
	cands = append(cands, fns...)
	var r []string
	for _, m := range fuzzy.Find(word, cands) {
		c := line[:start] + m.Str
		if slices.Contains(fns, m.Str) {
			c += "("
		}
		if !slices.Contains(r, c) {
			r = append(r, c)
		}
	}
	return r
}
