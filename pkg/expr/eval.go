package expr

import (
	"fmt"
	"strings"
)

// Parameter names bound by the progress engine when a condition is
// evaluated against a candidate value row.
const (
	ParamVariableName = "variable_name"
	ParamKey          = "key"
	ParamLevel        = "level"
)

func (n *numberLit) Eval(Params) (Value, error) { return n.val, nil }

func (n *stringLit) Eval(Params) (Value, error) { return String(n.s), nil }

func (n *boolLit) Eval(Params) (Value, error) { return Bool(n.b), nil }

func (n *ident) Eval(params Params) (Value, error) {
	v, ok := params[n.name]
	if !ok {
		return Value{}, fmt.Errorf("unbound identifier %q", n.name)
	}
	return v, nil
}

func (n *unary) Eval(params Params) (Value, error) {
	x, err := n.x.Eval(params)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case tokenMinus:
		switch x.Kind() {
		case KindInt:
			return Int(-x.AsInt()), nil
		case KindFloat:
			return Float(-x.AsFloat()), nil
		}
		return Value{}, fmt.Errorf("cannot negate %s", x.Kind())
	case tokenNot:
		if x.Kind() != KindBool {
			return Value{}, fmt.Errorf("cannot apply not to %s", x.Kind())
		}
		return Bool(!x.AsBool()), nil
	}
	return Value{}, fmt.Errorf("unknown unary operator")
}

func (n *binary) Eval(params Params) (Value, error) {
	// Short-circuit boolean connectives before evaluating the right side.
	if n.op == tokenAnd || n.op == tokenOr {
		x, err := n.x.Eval(params)
		if err != nil {
			return Value{}, err
		}
		if x.Kind() != KindBool {
			return Value{}, fmt.Errorf("left operand of %s is %s, want bool", boolOpName(n.op), x.Kind())
		}
		if n.op == tokenAnd && !x.AsBool() {
			return Bool(false), nil
		}
		if n.op == tokenOr && x.AsBool() {
			return Bool(true), nil
		}
		y, err := n.y.Eval(params)
		if err != nil {
			return Value{}, err
		}
		if y.Kind() != KindBool {
			return Value{}, fmt.Errorf("right operand of %s is %s, want bool", boolOpName(n.op), y.Kind())
		}
		return Bool(y.AsBool()), nil
	}

	x, err := n.x.Eval(params)
	if err != nil {
		return Value{}, err
	}
	y, err := n.y.Eval(params)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case tokenEq:
		return Bool(valuesEqual(x, y)), nil
	case tokenNeq:
		return Bool(!valuesEqual(x, y)), nil
	case tokenLt, tokenLeq, tokenGt, tokenGeq:
		return compareOrdered(n.op, x, y)
	case tokenPlus:
		if x.Kind() == KindString && y.Kind() == KindString {
			return String(x.AsString() + y.AsString()), nil
		}
		return arith(n.op, x, y)
	case tokenMinus, tokenStar, tokenSlash, tokenPercent:
		return arith(n.op, x, y)
	}
	return Value{}, fmt.Errorf("unknown binary operator")
}

func boolOpName(op tokenType) string {
	if op == tokenAnd {
		return "and"
	}
	return "or"
}

// valuesEqual implements ==. Numeric kinds compare by value, so 2 == 2.0.
// Values of incomparable kinds are unequal rather than an error.
func valuesEqual(x, y Value) bool {
	if x.IsNumeric() && y.IsNumeric() {
		return x.AsFloat() == y.AsFloat()
	}
	if x.Kind() != y.Kind() {
		return false
	}
	switch x.Kind() {
	case KindBool:
		return x.AsBool() == y.AsBool()
	case KindString:
		return x.AsString() == y.AsString()
	}
	return false
}

func compareOrdered(op tokenType, x, y Value) (Value, error) {
	var less, equal bool
	switch {
	case x.IsNumeric() && y.IsNumeric():
		less = x.AsFloat() < y.AsFloat()
		equal = x.AsFloat() == y.AsFloat()
	case x.Kind() == KindString && y.Kind() == KindString:
		less = x.AsString() < y.AsString()
		equal = x.AsString() == y.AsString()
	default:
		return Value{}, fmt.Errorf("cannot order %s and %s", x.Kind(), y.Kind())
	}

	switch op {
	case tokenLt:
		return Bool(less), nil
	case tokenLeq:
		return Bool(less || equal), nil
	case tokenGt:
		return Bool(!less && !equal), nil
	case tokenGeq:
		return Bool(!less), nil
	}
	return Value{}, fmt.Errorf("unknown comparison")
}

func arith(op tokenType, x, y Value) (Value, error) {
	if !x.IsNumeric() || !y.IsNumeric() {
		return Value{}, fmt.Errorf("cannot apply arithmetic to %s and %s", x.Kind(), y.Kind())
	}

	if op == tokenPercent {
		if x.Kind() != KindInt || y.Kind() != KindInt {
			return Value{}, fmt.Errorf("modulo requires integer operands")
		}
		if y.AsInt() == 0 {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		return Int(x.AsInt() % y.AsInt()), nil
	}

	if op == tokenSlash {
		if y.AsFloat() == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		// Division always widens so thresholds like level/2 behave predictably.
		return Float(x.AsFloat() / y.AsFloat()), nil
	}

	if x.Kind() == KindInt && y.Kind() == KindInt {
		a, b := x.AsInt(), y.AsInt()
		switch op {
		case tokenPlus:
			return Int(a + b), nil
		case tokenMinus:
			return Int(a - b), nil
		case tokenStar:
			return Int(a * b), nil
		}
	}

	a, b := x.AsFloat(), y.AsFloat()
	switch op {
	case tokenPlus:
		return Float(a + b), nil
	case tokenMinus:
		return Float(a - b), nil
	case tokenStar:
		return Float(a * b), nil
	}
	return Value{}, fmt.Errorf("unknown arithmetic operator")
}

// Evaluate parses and evaluates src in one step.
func Evaluate(src string, params Params) (Value, error) {
	node, err := Parse(src)
	if err != nil {
		return Value{}, err
	}
	return node.Eval(params)
}

// EvaluateCondition evaluates a goal condition against one value row.
// variable_name and key are unbound at rule definition time and bound here.
func EvaluateCondition(condition, variableName, key string) (bool, error) {
	v, err := Evaluate(condition, Params{
		ParamVariableName: String(variableName),
		ParamKey:          String(key),
	})
	if err != nil {
		return false, err
	}
	if v.Kind() != KindBool {
		return false, fmt.Errorf("condition evaluated to %s, want bool", v.Kind())
	}
	return v.AsBool(), nil
}

// EvaluateValue evaluates a numeric expression such as a goal threshold
// ("level*100") or a reward amount. The result must be numeric.
func EvaluateValue(src string, params Params) (Value, error) {
	v, err := Evaluate(src, params)
	if err != nil {
		return Value{}, err
	}
	if !v.IsNumeric() {
		return Value{}, fmt.Errorf("expression evaluated to %s, want number", v.Kind())
	}
	return v, nil
}

// EvaluateString renders a reward or property value string.
//
// Three cases, in order:
//  1. src parses as a whole expression: the evaluated result is rendered
//     ("level*10" with level=2 becomes "20").
//  2. src contains {expr} segments: each segment is evaluated and substituted
//     ("Reach {level*100} points" becomes "Reach 200 points").
//  3. otherwise src is literal text and returned unchanged.
//
// A bare identifier that is not bound in params is treated as literal text,
// so plain values like "gold_badge" pass through.
func EvaluateString(src string, params Params) (string, error) {
	if src == "" {
		return "", nil
	}

	if node, err := Parse(src); err == nil {
		v, evalErr := node.Eval(params)
		if evalErr == nil {
			return v.Display(), nil
		}
		if _, bare := node.(*ident); bare {
			return src, nil
		}
		return "", evalErr
	}

	if !strings.ContainsRune(src, '{') {
		return src, nil
	}
	return substituteTemplate(src, params)
}

func substituteTemplate(src string, params Params) (string, error) {
	var sb strings.Builder
	rest := src
	for {
		open := strings.IndexRune(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:open])
		rest = rest[open+1:]

		closing := strings.IndexRune(rest, '}')
		if closing < 0 {
			return "", fmt.Errorf("unterminated substitution in %q", src)
		}
		v, err := Evaluate(rest[:closing], params)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.Display())
		rest = rest[closing+1:]
	}
}
