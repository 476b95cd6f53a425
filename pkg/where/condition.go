package where

import (
	"fmt"

	"github.com/pthm/quarry/internal/sqldsl"
)

// Where is an ordered sequence of conditions combined with OR.
// An empty Where places no restriction on the result.
type Where []Condition

// Condition is an ordered list of field entries combined with AND.
type Condition struct {
	Entries []Entry
}

// Entry restricts one field.
type Entry struct {
	Field string
	Value Value
}

// Value is the right-hand side of an entry: a Literal, an Ops list or a
// nested Condition addressing a related entity.
type Value interface {
	isValue()
}

// Literal compares the field for equality with V.
type Literal struct {
	V any
}

// Ops applies one or more operators to the same field, combined with AND.
type Ops []Op

func (Literal) isValue()   {}
func (Ops) isValue()       {}
func (Condition) isValue() {}

// Op is one typed operator application.
type Op interface {
	Operator() Operator
}

type (
	// Any matches when the field equals any element of Values.
	Any struct{ Values []any }
	// Between matches the closed range [Low, High]. Bounds are never swapped.
	Between struct{ Low, High any }
	// Eq matches equality.
	Eq struct{ Value any }
	// ILike is a case-insensitive pattern match.
	ILike struct{ Pattern string }
	// In matches set membership.
	In struct{ Values []any }
	// IsNull tests for NULL when Null is true and NOT NULL otherwise.
	IsNull struct{ Null bool }
	// Lt is a strict upper bound.
	Lt struct{ Value any }
	// Lte is an inclusive upper bound.
	Lte struct{ Value any }
	// Like is a pattern match.
	Like struct{ Pattern string }
	// Gt is a strict lower bound.
	Gt struct{ Value any }
	// Gte is an inclusive lower bound.
	Gte struct{ Value any }
	// Not negates a literal, an operator list or a nested condition.
	Not struct{ Value Value }
	// Raw is an SQL escape hatch. The token {{column}} is replaced by the
	// qualified column; without it SQL is the whole predicate. A list in
	// Args is expanded to one placeholder per element when bound.
	Raw struct {
		SQL  string
		Args []any
	}
)

func (Any) Operator() Operator     { return OpAny }
func (Between) Operator() Operator { return OpBetween }
func (Eq) Operator() Operator      { return OpEq }
func (ILike) Operator() Operator   { return OpILike }
func (In) Operator() Operator      { return OpIn }
func (IsNull) Operator() Operator  { return OpIsNull }
func (Lt) Operator() Operator      { return OpLt }
func (Lte) Operator() Operator     { return OpLte }
func (Like) Operator() Operator    { return OpLike }
func (Gt) Operator() Operator      { return OpGt }
func (Gte) Operator() Operator     { return OpGte }
func (Not) Operator() Operator     { return OpNot }
func (Raw) Operator() Operator     { return OpRaw }

// ColumnToken is replaced by the qualified column inside Raw SQL.
const ColumnToken = "{{column}}"

// Field builds an entry. v may be a Value, a single Op, a []Op, or any other
// value, which is taken as a literal.
func Field(name string, v any) Entry {
	switch x := v.(type) {
	case Value:
		return Entry{Field: name, Value: x}
	case Op:
		return Entry{Field: name, Value: Ops{x}}
	case []Op:
		return Entry{Field: name, Value: Ops(x)}
	default:
		return Entry{Field: name, Value: Literal{V: v}}
	}
}

// All builds a condition from entries.
func All(entries ...Entry) Condition {
	return Condition{Entries: entries}
}

// AnyOf builds a Where matching any of the given conditions.
func AnyOf(conds ...Condition) Where {
	return Where(conds)
}

// IsEmpty reports whether the condition has no entries.
func (c Condition) IsEmpty() bool { return len(c.Entries) == 0 }

// IsEmpty reports whether w places no restriction: it has no conditions, or
// one of its alternatives is itself empty.
func (w Where) IsEmpty() bool {
	if len(w) == 0 {
		return true
	}
	for _, c := range w {
		if c.IsEmpty() {
			return true
		}
	}
	return false
}

// Relations returns the names of nested relations referenced at the top level
// of any alternative, in first-seen order.
func (w Where) Relations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range w {
		for _, e := range c.Entries {
			if _, ok := e.Value.(Condition); ok && !seen[e.Field] {
				seen[e.Field] = true
				out = append(out, e.Field)
			}
		}
	}
	return out
}

// Validate checks field identifiers and operator argument shapes of values
// built in code. Parsed conditions are already valid.
func (w Where) Validate() error {
	for _, c := range w {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single condition.
func (c Condition) Validate() error {
	for _, e := range c.Entries {
		if err := sqldsl.CheckColumn(e.Field); err != nil {
			return fmt.Errorf("field: %w", err)
		}
		if err := validateValue(e.Field, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(field string, v Value) error {
	switch x := v.(type) {
	case nil:
		return fmt.Errorf("%w: field %q has no value", ErrInvalidCondition, field)
	case Literal:
		return nil
	case Ops:
		if len(x) == 0 {
			return fmt.Errorf("%w: field %q has an empty operator list", ErrInvalidCondition, field)
		}
		for _, op := range x {
			if err := validateOp(field, op); err != nil {
				return err
			}
		}
		return nil
	case Condition:
		if x.IsEmpty() {
			return fmt.Errorf("%w: field %q has an empty nested condition", ErrInvalidCondition, field)
		}
		return x.Validate()
	default:
		return fmt.Errorf("%w: field %q has unsupported value %T", ErrInvalidCondition, field, v)
	}
}

func validateOp(field string, op Op) error {
	switch x := op.(type) {
	case nil:
		return fmt.Errorf("%w: nil operator on field %q", ErrUnsupportedOperator, field)
	case Not:
		return validateValue(field, x.Value)
	case Raw:
		if x.SQL == "" {
			return fmt.Errorf("%w: field %q has empty %s", ErrInvalidCondition, field, OpRaw)
		}
		return nil
	case Any, Between, Eq, ILike, In, IsNull, Lt, Lte, Like, Gt, Gte:
		return nil
	default:
		return fmt.Errorf("%w: %T on field %q", ErrUnsupportedOperator, op, field)
	}
}
