package predicate

import "github.com/kadedb/kadedb/value"

// DocPredicate is identical in shape to Predicate but references a
// document field name instead of a table column.
type DocPredicate struct {
	Kind     Kind
	Field    string
	Op       Op
	RHS      value.Value
	Children []*DocPredicate
}

// DocComparison builds a leaf node testing field op rhs.
func DocComparison(field string, op Op, rhs value.Value) *DocPredicate {
	return &DocPredicate{Kind: KindComparison, Field: field, Op: op, RHS: rhs}
}

// DocAnd builds an And node. DocAnd() evaluates to true.
func DocAnd(children ...*DocPredicate) *DocPredicate {
	return &DocPredicate{Kind: KindAnd, Children: children}
}

// DocOr builds an Or node. DocOr() evaluates to false.
func DocOr(children ...*DocPredicate) *DocPredicate {
	return &DocPredicate{Kind: KindOr, Children: children}
}

// DocNot builds a Not node over 0 or 1 children. DocNot() evaluates to false.
func DocNot(child ...*DocPredicate) *DocPredicate {
	return &DocPredicate{Kind: KindNot, Children: child}
}
