package where

import (
	"fmt"
	"sort"
	"strings"
)

// OperatorPrefix marks a mapping key as an operator rather than a field name.
const OperatorPrefix = "$"

// Operator names one entry of the closed operator vocabulary, spelled the way
// it appears in the external condition form.
type Operator string

// The operator vocabulary.
const (
	OpAny     Operator = "$any"
	OpBetween Operator = "$between"
	OpEq      Operator = "$eq"
	OpILike   Operator = "$iLike"
	OpIn      Operator = "$in"
	OpIsNull  Operator = "$isNull"
	OpLt      Operator = "$lt"
	OpLte     Operator = "$lte"
	OpLike    Operator = "$like"
	OpGt      Operator = "$gt"
	OpGte     Operator = "$gte"
	OpNot     Operator = "$not"
	OpRaw     Operator = "$raw"
)

// Shape is the argument shape an operator accepts.
type Shape int

const (
	// ShapeScalar is a single non-collection value.
	ShapeScalar Shape = iota
	// ShapePair is an ordered (low, high) pair.
	ShapePair
	// ShapeList is an ordered sequence of scalars.
	ShapeList
	// ShapeBool is a boolean flag.
	ShapeBool
	// ShapeString is SQL text or a match pattern.
	ShapeString
	// ShapeValue is a literal, an operator object or a nested condition.
	ShapeValue
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapePair:
		return "pair"
	case ShapeList:
		return "list"
	case ShapeBool:
		return "boolean"
	case ShapeString:
		return "string"
	case ShapeValue:
		return "value"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

var vocabulary = map[Operator]Shape{
	OpAny:     ShapeList,
	OpBetween: ShapePair,
	OpEq:      ShapeScalar,
	OpILike:   ShapeString,
	OpIn:      ShapeList,
	OpIsNull:  ShapeBool,
	OpLt:      ShapeScalar,
	OpLte:     ShapeScalar,
	OpLike:    ShapeString,
	OpGt:      ShapeScalar,
	OpGte:     ShapeScalar,
	OpNot:     ShapeValue,
	OpRaw:     ShapeString,
}

// ParseOperator resolves an operator key. Keys without the operator prefix
// or outside the vocabulary fail with ErrUnsupportedOperator.
func ParseOperator(key string) (Operator, error) {
	op := Operator(key)
	if _, ok := vocabulary[op]; !ok || !strings.HasPrefix(key, OperatorPrefix) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, key)
	}
	return op, nil
}

// Shape returns the argument shape of the operator.
func (o Operator) Shape() Shape {
	return vocabulary[o]
}

func (o Operator) String() string { return string(o) }

// Vocabulary lists every supported operator in lexical order.
func Vocabulary() []Operator {
	ops := make([]Operator, 0, len(vocabulary))
	for op := range vocabulary {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// isOperatorKey reports whether a mapping key is operator-shaped.
func isOperatorKey(key string) bool {
	return strings.HasPrefix(key, OperatorPrefix)
}
