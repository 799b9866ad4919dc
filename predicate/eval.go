package predicate

import (
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
)

// Eval evaluates p against r, a row aligned to s. And([])=true, Or([])=
// false, Not([])=false. A Comparison whose column is unknown in s reports
// InvalidArgument; a Comparison whose referenced cell is null evaluates to
// false (never an error).
func Eval(s *schema.TableSchema, r row.Row, p *Predicate) (bool, error) {
	if p == nil {
		return true, nil
	}
	switch p.Kind {
	case KindComparison:
		idx := s.ColumnIndex(p.Column)
		if idx < 0 {
			return false, status.InvalidArgumentf("predicate: unknown column %q", p.Column)
		}
		cell := r.At(idx)
		if cell.IsNull() {
			return false, nil
		}
		return p.Op.Test(cell.Compare(p.RHS)), nil
	case KindAnd:
		for _, c := range p.Children {
			ok, err := Eval(s, r, c)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case KindOr:
		for _, c := range p.Children {
			ok, err := Eval(s, r, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case KindNot:
		if len(p.Children) == 0 {
			return false, nil
		}
		ok, err := Eval(s, r, p.Children[0])
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, status.Internalf("predicate: unknown node kind %d", p.Kind)
	}
}

// EvalDoc is Eval's document-store analogue: field lookups against d,
// validated against s.
func EvalDoc(s *schema.DocumentSchema, d row.Document, p *DocPredicate) (bool, error) {
	if p == nil {
		return true, nil
	}
	switch p.Kind {
	case KindComparison:
		if s != nil && !s.HasField(p.Field) {
			return false, status.InvalidArgumentf("predicate: unknown field %q", p.Field)
		}
		cell, present := d[p.Field]
		if !present || cell.IsNull() {
			return false, nil
		}
		return p.Op.Test(cell.Compare(p.RHS)), nil
	case KindAnd:
		for _, c := range p.Children {
			ok, err := EvalDoc(s, d, c)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case KindOr:
		for _, c := range p.Children {
			ok, err := EvalDoc(s, d, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case KindNot:
		if len(p.Children) == 0 {
			return false, nil
		}
		ok, err := EvalDoc(s, d, p.Children[0])
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, status.Internalf("predicate: unknown node kind %d", p.Kind)
	}
}
