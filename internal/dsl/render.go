package dsl

import (
	"math/rand"
	"regexp"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Render replaces {{name}} placeholders with the display form of the bound
// value. Placeholders naming unbound symbols are left as written.
func Render(text string, symbols *SymbolTable) string {
	if text == "" || symbols == nil {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := symbols.Lookup(name); ok {
			return v.String()
		}
		return m
	})
}

// Placeholders returns the distinct names referenced by text, in order of
// first appearance.
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Execute parses and runs src against a fresh symbol table.
func Execute(src string, rng *rand.Rand) (*SymbolTable, error) {
	prog, err := ParseSource(src)
	if err != nil {
		return nil, err
	}
	ev := NewEvaluator(nil, rng)
	if _, err := ev.Run(prog); err != nil {
		return nil, err
	}
	return ev.Symbols(), nil
}
