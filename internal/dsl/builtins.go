package dsl

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

type callContext struct {
	name string
	pos  Position
	rng  *rand.Rand
}

func (c *callContext) typeErr(i int, want ValueType, got Value) error {
	return newError(TypeError, c.pos, "%s: argument %d must be a %s, got %s", c.name, i+1, want, got.Type())
}

func (c *callContext) domainErr(format string, args ...interface{}) error {
	return newError(DomainError, c.pos, c.name+": "+format, args...)
}

func (c *callContext) argErr(format string, args ...interface{}) error {
	return newError(ArgumentError, c.pos, c.name+": "+format, args...)
}

// numbers checks that every argument is a number and returns the payloads.
func (c *callContext) numbers(args []Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, ok := a.AsNumber()
		if !ok {
			return nil, c.typeErr(i, TypeNumber, a)
		}
		out[i] = f
	}
	return out, nil
}

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	call    func(c *callContext, args []Value) (Value, error)
}

func (b builtin) arity() string {
	switch {
	case b.maxArgs < 0:
		return "at least " + strconv.Itoa(b.minArgs) + " argument(s)"
	case b.minArgs == b.maxArgs:
		return strconv.Itoa(b.minArgs) + " argument(s)"
	default:
		return strconv.Itoa(b.minArgs) + " to " + strconv.Itoa(b.maxArgs) + " arguments"
	}
}

// numeric wraps a fixed-arity function over numbers.
func numeric(n int, fn func(c *callContext, x []float64) (float64, error)) builtin {
	return builtin{minArgs: n, maxArgs: n, call: func(c *callContext, args []Value) (Value, error) {
		xs, err := c.numbers(args)
		if err != nil {
			return Value{}, err
		}
		r, err := fn(c, xs)
		if err != nil {
			return Value{}, err
		}
		return Number(r), nil
	}}
}

func pure(f func(float64) float64) builtin {
	return numeric(1, func(_ *callContext, x []float64) (float64, error) { return f(x[0]), nil })
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"bool":   {minArgs: 1, maxArgs: 1, call: toBool},
		"number": {minArgs: 1, maxArgs: 1, call: toNumber},
		"string": {minArgs: 1, maxArgs: 1, call: func(_ *callContext, args []Value) (Value, error) {
			return String(args[0].String()), nil
		}},

		"rand":   numeric(2, randInt),
		"rrand":  numeric(2, randFloat),
		"choice": {minArgs: 1, maxArgs: -1, call: choice},
		"round":  {minArgs: 1, maxArgs: 2, call: round},

		"sin": pure(math.Sin),
		"cos": pure(math.Cos),
		"tan": numeric(1, func(c *callContext, x []float64) (float64, error) {
			if math.Abs(math.Cos(x[0])) <= Epsilon {
				return 0, c.domainErr("undefined where cos(x) is 0")
			}
			return math.Tan(x[0]), nil
		}),
		"sec": numeric(1, func(c *callContext, x []float64) (float64, error) {
			cos := math.Cos(x[0])
			if math.Abs(cos) <= Epsilon {
				return 0, c.domainErr("undefined where cos(x) is 0")
			}
			return 1 / cos, nil
		}),
		"csc": numeric(1, func(c *callContext, x []float64) (float64, error) {
			sin := math.Sin(x[0])
			if math.Abs(sin) <= Epsilon {
				return 0, c.domainErr("undefined where sin(x) is 0")
			}
			return 1 / sin, nil
		}),
		"cot": numeric(1, func(c *callContext, x []float64) (float64, error) {
			sin := math.Sin(x[0])
			if math.Abs(sin) <= Epsilon {
				return 0, c.domainErr("undefined where sin(x) is 0")
			}
			return math.Cos(x[0]) / sin, nil
		}),
		"arcsin": numeric(1, func(c *callContext, x []float64) (float64, error) {
			v, err := unitInterval(c, x[0])
			if err != nil {
				return 0, err
			}
			return math.Asin(v), nil
		}),
		"arccos": numeric(1, func(c *callContext, x []float64) (float64, error) {
			v, err := unitInterval(c, x[0])
			if err != nil {
				return 0, err
			}
			return math.Acos(v), nil
		}),
		"arctan": pure(math.Atan),
		"atan2": numeric(2, func(c *callContext, x []float64) (float64, error) {
			if math.Abs(x[0]) <= Epsilon && math.Abs(x[1]) <= Epsilon {
				return 0, c.domainErr("undefined when both arguments are 0")
			}
			return math.Atan2(x[0], x[1]), nil
		}),

		"abs":   pure(math.Abs),
		"floor": pure(math.Floor),
		"ceil":  pure(math.Ceil),
		"sqrt": numeric(1, func(c *callContext, x []float64) (float64, error) {
			if x[0] < -Epsilon {
				return 0, c.domainErr("negative argument %s", FormatNumber(x[0]))
			}
			return math.Sqrt(math.Max(x[0], 0)), nil
		}),
		"ln": numeric(1, func(c *callContext, x []float64) (float64, error) {
			if x[0] <= Epsilon {
				return 0, c.domainErr("argument must be positive, got %s", FormatNumber(x[0]))
			}
			return math.Log(x[0]), nil
		}),
		"pow": numeric(2, func(c *callContext, x []float64) (float64, error) {
			r := math.Pow(x[0], x[1])
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return 0, c.domainErr("pow(%s, %s) is not a finite number", FormatNumber(x[0]), FormatNumber(x[1]))
			}
			return r, nil
		}),
	}
}

// BuiltinNames lists the callable function names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toBool(c *callContext, args []Value) (Value, error) {
	v := args[0]
	switch v.Type() {
	case TypeBool:
		return v, nil
	case TypeNumber:
		return Bool(math.Abs(v.num) > Epsilon), nil
	}
	return Value{}, newError(TypeError, c.pos, "bool: cannot convert a string to boolean")
}

func toNumber(c *callContext, args []Value) (Value, error) {
	v := args[0]
	switch v.Type() {
	case TypeNumber:
		return v, nil
	case TypeBool:
		if v.b {
			return Number(1), nil
		}
		return Number(0), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, c.argErr("%q is not a number", v.str)
	}
	return Number(f), nil
}

func randInt(c *callContext, x []float64) (float64, error) {
	if !finite(x[0]) || !finite(x[1]) {
		return 0, c.argErr("bounds must be finite")
	}
	lo, hi := math.Ceil(x[0]), math.Floor(x[1])
	if lo > hi {
		return 0, c.argErr("empty integer range [%s, %s]", FormatNumber(x[0]), FormatNumber(x[1]))
	}
	// Int63n takes the span as a positive int64
	if hi-lo >= math.MaxInt64 {
		return 0, c.argErr("integer range [%s, %s] is too wide", FormatNumber(lo), FormatNumber(hi))
	}
	span := int64(hi-lo) + 1
	return lo + float64(c.rng.Int63n(span)), nil
}

func randFloat(c *callContext, x []float64) (float64, error) {
	from, to := x[0], x[1]
	if !finite(from) || !finite(to) || math.IsInf(to-from, 0) {
		return 0, c.argErr("bounds must be finite")
	}
	if from > to {
		return 0, c.argErr("lower bound %s is greater than upper bound %s", FormatNumber(from), FormatNumber(to))
	}
	return from + c.rng.Float64()*(to-from), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func choice(c *callContext, args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, c.argErr("needs at least one option")
	}
	return args[c.rng.Intn(len(args))], nil
}

func round(c *callContext, args []Value) (Value, error) {
	xs, err := c.numbers(args)
	if err != nil {
		return Value{}, err
	}
	digits := 0.0
	if len(xs) == 2 {
		digits = xs[1]
		if !approxEqual(digits, math.Round(digits)) {
			return Value{}, c.argErr("digit count must be an integer, got %s", FormatNumber(digits))
		}
		digits = math.Round(digits)
		if digits < 0 || digits > 15 {
			return Value{}, c.argErr("digit count must be between 0 and 15, got %s", FormatNumber(digits))
		}
	}
	scale := math.Pow(10, digits)
	return Number(math.Round(xs[0]*scale) / scale), nil
}

// unitInterval accepts values within Epsilon of [-1, 1] and clamps them.
func unitInterval(c *callContext, x float64) (float64, error) {
	if x < -1-Epsilon || x > 1+Epsilon {
		return 0, c.domainErr("argument %s is outside [-1, 1]", FormatNumber(x))
	}
	return math.Max(-1, math.Min(1, x)), nil
}
