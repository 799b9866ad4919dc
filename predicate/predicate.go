// Package predicate implements KadeDB's shared filter tree (comparisons
// combined with And/Or/Not) and its evaluation against a Row (via
// Predicate) or a Document (via DocPredicate).
package predicate

import "github.com/kadedb/kadedb/value"

// Op is a comparison operator.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

// Invert returns the operator that negates o: Lt<->Ge, Le<->Gt, Eq<->Ne.
func (o Op) Invert() Op {
	switch o {
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Ge:
		return Lt
	case Le:
		return Gt
	case Gt:
		return Le
	default:
		return o
	}
}

// Reverse returns the operator for swapped operands (value op column
// becomes column op' value).
func (o Op) Reverse() Op {
	switch o {
	case Lt:
		return Gt
	case Gt:
		return Lt
	case Le:
		return Ge
	case Ge:
		return Le
	default:
		return o
	}
}

// Test applies o to cmp, the result of Value.Compare(lhs, rhs).
func (o Op) Test(cmp int) bool {
	switch o {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	default:
		return false
	}
}

// Kind identifies a Predicate node's shape.
type Kind int

const (
	KindComparison Kind = iota
	KindAnd
	KindOr
	KindNot
)

// Predicate is a tree of comparisons combined with And/Or/Not, evaluated
// against a Row in a TableSchema. Comparison nodes carry Column/Op/RHS;
// And/Or carry Children; Not carries 0 or 1 Children.
type Predicate struct {
	Kind     Kind
	Column   string
	Op       Op
	RHS      value.Value
	Children []*Predicate
}

// Comparison builds a leaf node testing column op rhs.
func Comparison(column string, op Op, rhs value.Value) *Predicate {
	return &Predicate{Kind: KindComparison, Column: column, Op: op, RHS: rhs}
}

// And builds an And node. And([]) evaluates to true.
func And(children ...*Predicate) *Predicate {
	return &Predicate{Kind: KindAnd, Children: children}
}

// Or builds an Or node. Or([]) evaluates to false.
func Or(children ...*Predicate) *Predicate {
	return &Predicate{Kind: KindOr, Children: children}
}

// Not builds a Not node over 0 or 1 children. Not([]) evaluates to false.
func Not(child ...*Predicate) *Predicate {
	return &Predicate{Kind: KindNot, Children: child}
}

// IsTrueConstant reports whether p is the canonical "always true" shape,
// And([]).
func IsTrueConstant(p *Predicate) bool {
	return p != nil && p.Kind == KindAnd && len(p.Children) == 0
}

// IsFalseConstant reports whether p is the canonical "always false" shape,
// Or([]).
func IsFalseConstant(p *Predicate) bool {
	return p != nil && p.Kind == KindOr && len(p.Children) == 0
}
