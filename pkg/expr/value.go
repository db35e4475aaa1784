package expr

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is the sum type the evaluator operates on.
// Goal thresholds and reward values are numeric, conditions are boolean,
// template fragments are strings.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Int wraps an int64 as a Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64 as a Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool wraps a bool as a Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string as a Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the runtime type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat returns the numeric value widened to float64.
// Calling it on a non-numeric value is a programming error and returns 0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	default:
		return 0
	}
}

// AsInt returns the numeric value narrowed to int64 (floats are truncated).
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		return 0
	}
}

// AsBool returns the boolean value, or false for non-bool values.
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsString returns the string value, or "" for non-string values.
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Display renders the value the way template substitution does:
// integers without a decimal point, floats in shortest form.
func (v Value) Display() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		// Render whole floats like ints so "level*2.0" reads as "4", not "4.000000".
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

// Params is the parameter environment for one evaluation.
// Unbound identifier lookups fail the evaluation.
type Params map[string]Value
