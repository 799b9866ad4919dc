package executor

import (
	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// evalExpr evaluates e against r under s, supporting the computed-UPDATE
// expression grammar: literals, identifiers, NOT, AND/OR,
// comparisons (-> Boolean), arithmetic (+ - * /) with integer/float
// promotion, and string concatenation via +.
func evalExpr(e kadeql.Expr, s *schema.TableSchema, r row.Row) (value.Value, error) {
	switch n := e.(type) {
	case *kadeql.Literal:
		return literalValue(n)
	case *kadeql.Ident:
		idx := s.ColumnIndex(n.Name)
		if idx < 0 {
			return value.Value{}, status.InvalidArgumentf("executor: unknown column %q", n.Name)
		}
		return r.At(idx), nil
	case *kadeql.UnaryExpr:
		return evalUnary(n, s, r)
	case *kadeql.BinaryExpr:
		return evalBinary(n, s, r)
	default:
		return value.Value{}, status.InvalidArgumentf("executor: unsupported expression shape")
	}
}

func evalUnary(n *kadeql.UnaryExpr, s *schema.TableSchema, r row.Row) (value.Value, error) {
	operand, err := evalExpr(n.Operand, s, r)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case kadeql.UnaryNot:
		b, err := operand.AsBool()
		if err != nil {
			return value.Value{}, status.InvalidArgumentf("executor: NOT requires a boolean: %v", err)
		}
		return value.NewBoolean(!b), nil
	case kadeql.UnaryPos:
		return operand, nil
	case kadeql.UnaryNeg:
		switch operand.Type() {
		case value.Integer:
			return value.NewInteger(-operand.RawInt()), nil
		case value.Float:
			return value.NewFloat(-operand.RawFloat()), nil
		default:
			return value.Value{}, status.InvalidArgumentf("executor: unary - requires a number")
		}
	default:
		return value.Value{}, status.InvalidArgumentf("executor: unsupported unary operator")
	}
}

func evalBinary(n *kadeql.BinaryExpr, s *schema.TableSchema, r row.Row) (value.Value, error) {
	switch n.Op {
	case kadeql.OpAnd, kadeql.OpOr:
		l, err := evalExpr(n.Left, s, r)
		if err != nil {
			return value.Value{}, err
		}
		lb, err := l.AsBool()
		if err != nil {
			return value.Value{}, status.InvalidArgumentf("executor: AND/OR requires booleans: %v", err)
		}
		rt, err := evalExpr(n.Right, s, r)
		if err != nil {
			return value.Value{}, err
		}
		rb, err := rt.AsBool()
		if err != nil {
			return value.Value{}, status.InvalidArgumentf("executor: AND/OR requires booleans: %v", err)
		}
		if n.Op == kadeql.OpAnd {
			return value.NewBoolean(lb && rb), nil
		}
		return value.NewBoolean(lb || rb), nil
	case kadeql.OpEq, kadeql.OpNe, kadeql.OpLt, kadeql.OpLe, kadeql.OpGt, kadeql.OpGe:
		l, err := evalExpr(n.Left, s, r)
		if err != nil {
			return value.Value{}, err
		}
		rt, err := evalExpr(n.Right, s, r)
		if err != nil {
			return value.Value{}, err
		}
		cmp := l.Compare(rt)
		var result bool
		switch n.Op {
		case kadeql.OpEq:
			result = cmp == 0
		case kadeql.OpNe:
			result = cmp != 0
		case kadeql.OpLt:
			result = cmp < 0
		case kadeql.OpLe:
			result = cmp <= 0
		case kadeql.OpGt:
			result = cmp > 0
		case kadeql.OpGe:
			result = cmp >= 0
		}
		return value.NewBoolean(result), nil
	case kadeql.OpAdd, kadeql.OpSub, kadeql.OpMul, kadeql.OpDiv:
		return evalArith(n, s, r)
	default:
		return value.Value{}, status.InvalidArgumentf("executor: unsupported binary operator")
	}
}

func evalArith(n *kadeql.BinaryExpr, s *schema.TableSchema, r row.Row) (value.Value, error) {
	l, err := evalExpr(n.Left, s, r)
	if err != nil {
		return value.Value{}, err
	}
	rt, err := evalExpr(n.Right, s, r)
	if err != nil {
		return value.Value{}, err
	}

	if n.Op == kadeql.OpAdd && (l.Type() == value.String || rt.Type() == value.String) {
		return value.NewString(l.ToString() + rt.ToString()), nil
	}

	bothInt := l.Type() == value.Integer && rt.Type() == value.Integer
	if bothInt && n.Op != kadeql.OpDiv {
		li, rv := l.RawInt(), rt.RawInt()
		switch n.Op {
		case kadeql.OpAdd:
			return value.NewInteger(li + rv), nil
		case kadeql.OpSub:
			return value.NewInteger(li - rv), nil
		case kadeql.OpMul:
			return value.NewInteger(li * rv), nil
		}
	}

	lf, err := l.AsFloat()
	if err != nil {
		return value.Value{}, status.InvalidArgumentf("executor: arithmetic requires numbers: %v", err)
	}
	rf, err := rt.AsFloat()
	if err != nil {
		return value.Value{}, status.InvalidArgumentf("executor: arithmetic requires numbers: %v", err)
	}
	switch n.Op {
	case kadeql.OpAdd:
		return value.NewFloat(lf + rf), nil
	case kadeql.OpSub:
		return value.NewFloat(lf - rf), nil
	case kadeql.OpMul:
		return value.NewFloat(lf * rf), nil
	case kadeql.OpDiv:
		if rf == 0 {
			return value.Value{}, status.InvalidArgumentf("executor: division by zero")
		}
		return value.NewFloat(lf / rf), nil
	default:
		return value.Value{}, status.InvalidArgumentf("executor: unsupported arithmetic operator")
	}
}
