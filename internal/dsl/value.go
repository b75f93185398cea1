package dsl

import (
	"math"
	"sort"
	"strconv"
)

// Epsilon is the numeric tolerance used for equality, ordering ties, the
// numeric form of `!` and the domain guards of the trig builtins.
const Epsilon = 1e-9

// ValueType is the dynamic type tag of a Value.
type ValueType int

const (
	TypeNumber ValueType = iota
	TypeBool
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeString:
		return "string"
	}
	return "unknown"
}

// Value is a tagged union over number, boolean and string.
type Value struct {
	typ ValueType
	num float64
	b   bool
	str string
}

func Number(f float64) Value { return Value{typ: TypeNumber, num: f} }
func Bool(b bool) Value      { return Value{typ: TypeBool, b: b} }
func String(s string) Value  { return Value{typ: TypeString, str: s} }

func (v Value) Type() ValueType { return v.typ }

// AsNumber returns the payload when v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.typ == TypeNumber }

// AsBool returns the payload when v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsString returns the payload when v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.typ == TypeString }

// String renders the value the way templates display it: integral numbers
// without a fractional part, other numbers in the shortest exact form.
func (v Value) String() string {
	switch v.typ {
	case TypeNumber:
		return FormatNumber(v.num)
	case TypeBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// FormatNumber prints f without exponent notation and without trailing zeros.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0" // folds -0
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// approxEqual applies the shared epsilon.
func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// SymbolTable maps identifier names to values. Bindings are write-once.
type SymbolTable struct {
	vars map[string]Value
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{vars: map[string]Value{}}
}

// Define binds name to v. Rebinding an existing name is a DuplicateAssignment
// error and leaves the table unchanged.
func (s *SymbolTable) Define(name string, v Value, pos Position) error {
	if _, exists := s.vars[name]; exists {
		return newError(DuplicateAssignment, pos, "variable %q is already assigned and cannot be reassigned", name)
	}
	s.vars[name] = v
	return nil
}

// Lookup returns the value bound to name.
func (s *SymbolTable) Lookup(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Len returns the number of bound names.
func (s *SymbolTable) Len() int { return len(s.vars) }

// Names returns the bound names in sorted order.
func (s *SymbolTable) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strings returns every binding in its display form.
func (s *SymbolTable) Strings() map[string]string {
	out := make(map[string]string, len(s.vars))
	for name, v := range s.vars {
		out[name] = v.String()
	}
	return out
}
