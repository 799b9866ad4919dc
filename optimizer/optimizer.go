// Package optimizer lowers KadeQL boolean expressions to predicate.Predicate
// trees and simplifies them: NOT pushdown, De Morgan, flattening, constant
// folding and deterministic dedup.
package optimizer

import (
	"github.com/kadedb/kadedb/kadeql"
	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
	"github.com/kadedb/kadedb/value"
)

// Build lowers a KadeQL boolean expression to a Predicate. A nil expr
// lowers to the "always true" constant And([]). Comparisons of the shape
// identifier op literal (or literal op identifier, operator reversed)
// become Comparison nodes; literal-vs-literal comparisons fold at build
// time into the true/false constants. Any other shape is InvalidArgument.
func Build(e kadeql.Expr) (*predicate.Predicate, error) {
	if e == nil {
		return predicate.And(), nil
	}
	switch n := e.(type) {
	case *kadeql.BinaryExpr:
		switch n.Op {
		case kadeql.OpAnd:
			l, err := Build(n.Left)
			if err != nil {
				return nil, err
			}
			r, err := Build(n.Right)
			if err != nil {
				return nil, err
			}
			return predicate.And(l, r), nil
		case kadeql.OpOr:
			l, err := Build(n.Left)
			if err != nil {
				return nil, err
			}
			r, err := Build(n.Right)
			if err != nil {
				return nil, err
			}
			return predicate.Or(l, r), nil
		case kadeql.OpEq, kadeql.OpNe, kadeql.OpLt, kadeql.OpLe, kadeql.OpGt, kadeql.OpGe:
			return buildComparison(n)
		}
		return nil, status.InvalidArgumentf("optimizer: unsupported expression shape for a predicate")
	case *kadeql.UnaryExpr:
		if n.Op == kadeql.UnaryNot {
			child, err := Build(n.Operand)
			if err != nil {
				return nil, err
			}
			return predicate.Not(child), nil
		}
		return nil, status.InvalidArgumentf("optimizer: unsupported expression shape for a predicate")
	case *kadeql.BetweenExpr:
		col, ok := n.Operand.(*kadeql.Ident)
		if !ok {
			return nil, status.InvalidArgumentf("optimizer: BETWEEN requires an identifier operand")
		}
		lowLit, ok := n.Low.(*kadeql.Literal)
		if !ok {
			return nil, status.InvalidArgumentf("optimizer: BETWEEN bounds must be literals")
		}
		highLit, ok := n.High.(*kadeql.Literal)
		if !ok {
			return nil, status.InvalidArgumentf("optimizer: BETWEEN bounds must be literals")
		}
		lowVal, err := literalValue(lowLit)
		if err != nil {
			return nil, err
		}
		highVal, err := literalValue(highLit)
		if err != nil {
			return nil, err
		}
		return predicate.And(
			predicate.Comparison(col.Name, predicate.Ge, lowVal),
			predicate.Comparison(col.Name, predicate.Le, highVal),
		), nil
	default:
		return nil, status.InvalidArgumentf("optimizer: unsupported expression shape for a predicate")
	}
}

func literalValue(lit *kadeql.Literal) (value.Value, error) {
	switch lit.Kind {
	case kadeql.LitInteger:
		return value.NewInteger(lit.Int), nil
	case kadeql.LitFloat:
		return value.NewFloat(lit.Flt), nil
	case kadeql.LitString:
		return value.NewString(lit.Str), nil
	case kadeql.LitBoolean:
		return value.NewBoolean(lit.Bool), nil
	case kadeql.LitNull:
		return value.NewNull(), nil
	default:
		return value.Value{}, status.InvalidArgumentf("optimizer: unknown literal kind")
	}
}

func invertBinOp(op kadeql.BinaryOp) predicate.Op {
	switch op {
	case kadeql.OpEq:
		return predicate.Eq
	case kadeql.OpNe:
		return predicate.Ne
	case kadeql.OpLt:
		return predicate.Lt
	case kadeql.OpLe:
		return predicate.Le
	case kadeql.OpGt:
		return predicate.Gt
	case kadeql.OpGe:
		return predicate.Ge
	default:
		return predicate.Eq
	}
}

func buildComparison(n *kadeql.BinaryExpr) (*predicate.Predicate, error) {
	leftIdent, leftIsIdent := n.Left.(*kadeql.Ident)
	rightIdent, rightIsIdent := n.Right.(*kadeql.Ident)
	leftLit, leftIsLit := n.Left.(*kadeql.Literal)
	rightLit, rightIsLit := n.Right.(*kadeql.Literal)

	op := invertBinOp(n.Op)

	switch {
	case leftIsIdent && rightIsLit:
		v, err := literalValue(rightLit)
		if err != nil {
			return nil, err
		}
		return predicate.Comparison(leftIdent.Name, op, v), nil
	case leftIsLit && rightIsIdent:
		v, err := literalValue(leftLit)
		if err != nil {
			return nil, err
		}
		return predicate.Comparison(rightIdent.Name, op.Reverse(), v), nil
	case leftIsLit && rightIsLit:
		lv, err := literalValue(leftLit)
		if err != nil {
			return nil, err
		}
		rv, err := literalValue(rightLit)
		if err != nil {
			return nil, err
		}
		if op.Test(lv.Compare(rv)) {
			return predicate.And(), nil
		}
		return predicate.Or(), nil
	default:
		return nil, status.InvalidArgumentf("optimizer: unsupported comparison shape")
	}
}

// Simplify rewrites p into an equivalent, smaller/canonical Predicate:
// double-negation elimination, comparison negation, De Morgan's laws,
// And/Or flattening, true/false absorption, and deterministic dedup of
// children. Simplify is a pure function with no global state; applying
// it twice is idempotent.
func Simplify(p *predicate.Predicate) *predicate.Predicate {
	if p == nil {
		return predicate.And()
	}
	switch p.Kind {
	case predicate.KindComparison:
		return predicate.Comparison(p.Column, p.Op, p.RHS)
	case predicate.KindNot:
		return simplifyNot(p)
	case predicate.KindAnd:
		return simplifyAssoc(p, predicate.KindAnd)
	case predicate.KindOr:
		return simplifyAssoc(p, predicate.KindOr)
	default:
		return p
	}
}

func simplifyNot(p *predicate.Predicate) *predicate.Predicate {
	if len(p.Children) == 0 {
		return predicate.Or() // Not([]) = false
	}
	child := Simplify(p.Children[0])
	switch child.Kind {
	case predicate.KindNot:
		if len(child.Children) == 0 {
			return predicate.And() // Not(Not([])) = Not(false) = true
		}
		return Simplify(child.Children[0])
	case predicate.KindComparison:
		return predicate.Comparison(child.Column, child.Op.Invert(), child.RHS)
	case predicate.KindAnd:
		negated := make([]*predicate.Predicate, len(child.Children))
		for i, c := range child.Children {
			negated[i] = Simplify(predicate.Not(c))
		}
		return simplifyAssoc(predicate.Or(negated...), predicate.KindOr)
	case predicate.KindOr:
		negated := make([]*predicate.Predicate, len(child.Children))
		for i, c := range child.Children {
			negated[i] = Simplify(predicate.Not(c))
		}
		return simplifyAssoc(predicate.And(negated...), predicate.KindAnd)
	default:
		return predicate.Not(child)
	}
}

// simplifyAssoc simplifies an And/Or node: recursively simplify children,
// flatten nested nodes of the same kind, apply identity/absorption with
// the true/false constants, and dedup by structural key.
func simplifyAssoc(p *predicate.Predicate, kind predicate.Kind) *predicate.Predicate {
	var flat []*predicate.Predicate
	for _, c := range p.Children {
		sc := Simplify(c)
		if sc.Kind == kind {
			flat = append(flat, sc.Children...)
		} else {
			flat = append(flat, sc)
		}
	}

	isTrue := func(x *predicate.Predicate) bool { return predicate.IsTrueConstant(x) }
	isFalse := func(x *predicate.Predicate) bool { return predicate.IsFalseConstant(x) }

	var kept []*predicate.Predicate
	if kind == predicate.KindAnd {
		for _, c := range flat {
			if isFalse(c) {
				return predicate.Or() // And containing false => false
			}
			if isTrue(c) {
				continue
			}
			kept = append(kept, c)
		}
	} else {
		for _, c := range flat {
			if isTrue(c) {
				return predicate.And() // Or containing true => true
			}
			if isFalse(c) {
				continue
			}
			kept = append(kept, c)
		}
	}

	kept = dedup(kept)

	if len(kept) == 0 {
		if kind == predicate.KindAnd {
			return predicate.And()
		}
		return predicate.Or()
	}
	if len(kept) == 1 {
		return kept[0]
	}
	if kind == predicate.KindAnd {
		return predicate.And(kept...)
	}
	return predicate.Or(kept...)
}

// dedup drops structurally-equal children, keeping the first occurrence
// of each distinct key; deterministic since structuralKey is a pure
// function of the child's shape.
func dedup(ps []*predicate.Predicate) []*predicate.Predicate {
	seen := make(map[string]bool, len(ps))
	out := make([]*predicate.Predicate, 0, len(ps))
	for _, p := range ps {
		key := structuralKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func structuralKey(p *predicate.Predicate) string {
	if p == nil {
		return "nil"
	}
	switch p.Kind {
	case predicate.KindComparison:
		return "cmp:" + p.Column + ":" + p.Op.String() + ":" + p.RHS.ToString() + ":" + p.RHS.Type().String()
	case predicate.KindAnd, predicate.KindOr, predicate.KindNot:
		key := kindName(p.Kind) + "("
		for i, c := range p.Children {
			if i > 0 {
				key += ","
			}
			key += structuralKey(c)
		}
		return key + ")"
	default:
		return "?"
	}
}

func kindName(k predicate.Kind) string {
	switch k {
	case predicate.KindAnd:
		return "and"
	case predicate.KindOr:
		return "or"
	case predicate.KindNot:
		return "not"
	default:
		return "cmp"
	}
}

// ValidateColumns walks p and reports InvalidArgument for the first
// Comparison whose column is not present in s. Called once per statement,
// after Simplify and before the executor asks storage to apply the
// operation.
func ValidateColumns(s *schema.TableSchema, p *predicate.Predicate) error {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case predicate.KindComparison:
		if _, ok := s.FindColumn(p.Column); !ok {
			return status.InvalidArgumentf("optimizer: unknown column %q", p.Column)
		}
		return nil
	default:
		for _, c := range p.Children {
			if err := ValidateColumns(s, c); err != nil {
				return err
			}
		}
		return nil
	}
}
