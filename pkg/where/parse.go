package where

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pthm/quarry/internal/sqldsl"
)

// Parse decodes a condition document. Both YAML and JSON are accepted; field
// order is preserved as written. A mapping is a single condition, a sequence
// is a list of alternatives, and an empty or null document is an empty Where.
//
// Every value is classified once here: a mapping whose keys all carry the
// operator prefix is an operator object, a mapping without any is a nested
// condition, and anything else is a literal.
func Parse(data []byte) (Where, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	if len(doc.Content) == 0 {
		return Where{}, nil
	}
	return parseWhere(doc.Content[0])
}

// FromValue converts an already decoded value (as produced by encoding/json
// into any) into a Where. Map keys are visited in sorted order.
func FromValue(v any) (Where, error) {
	if v == nil {
		return Where{}, nil
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	return parseWhere(&node)
}

func parseWhere(node *yaml.Node) (Where, error) {
	node = resolve(node)
	switch node.Kind {
	case yaml.MappingNode:
		c, err := parseCondition(node)
		if err != nil {
			return nil, err
		}
		if c.IsEmpty() {
			return Where{}, nil
		}
		return Where{c}, nil
	case yaml.SequenceNode:
		w := make(Where, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nil, nodeErr(item, "alternative must be an object")
			}
			c, err := parseCondition(item)
			if err != nil {
				return nil, err
			}
			w = append(w, c)
		}
		return w, nil
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return Where{}, nil
		}
	}
	return nil, nodeErr(node, "condition must be an object or a list of objects")
}

func parseCondition(node *yaml.Node) (Condition, error) {
	c := Condition{Entries: make([]Entry, 0, len(node.Content)/2)}
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := resolve(node.Content[i]), node.Content[i+1]
		field := key.Value
		if isOperatorKey(field) {
			if _, err := ParseOperator(field); err != nil {
				return Condition{}, err
			}
			return Condition{}, nodeErr(key, "operator %s must be nested under a field", field)
		}
		if err := sqldsl.CheckColumn(field); err != nil {
			return Condition{}, fmt.Errorf("line %d: %w", key.Line, err)
		}
		if seen[field] {
			return Condition{}, nodeErr(key, "duplicate field %q", field)
		}
		seen[field] = true
		v, err := parseValue(field, val)
		if err != nil {
			return Condition{}, err
		}
		c.Entries = append(c.Entries, Entry{Field: field, Value: v})
	}
	return c, nil
}

func parseValue(field string, node *yaml.Node) (Value, error) {
	node = resolve(node)
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := decodeScalar(node)
		if err != nil {
			return nil, err
		}
		return Literal{V: v}, nil
	case yaml.MappingNode:
		if len(node.Content) == 0 {
			return nil, nodeErr(node, "field %q has an empty object", field)
		}
		ops, fields := 0, 0
		for i := 0; i < len(node.Content); i += 2 {
			key := node.Content[i]
			if isOperatorKey(key.Value) {
				if _, err := ParseOperator(key.Value); err != nil {
					return nil, fmt.Errorf("line %d: field %q: %w", key.Line, field, err)
				}
				ops++
			} else {
				fields++
			}
		}
		switch {
		case fields == 0:
			return parseOps(field, node)
		case ops == 0:
			nested, err := parseCondition(node)
			if err != nil {
				return nil, err
			}
			return nested, nil
		default:
			return nil, nodeErr(node, "field %q mixes operators and nested fields", field)
		}
	case yaml.SequenceNode:
		return nil, nodeErr(node, "field %q has a list value, use %s", field, OpIn)
	}
	return nil, nodeErr(node, "field %q has an unsupported value", field)
}

func parseOps(field string, node *yaml.Node) (Ops, error) {
	ops := make(Ops, 0, len(node.Content)/2)
	seen := make(map[Operator]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, arg := node.Content[i], resolve(node.Content[i+1])
		op, err := ParseOperator(key.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: field %q: %w", key.Line, field, err)
		}
		if seen[op] {
			return nil, nodeErr(key, "field %q repeats %s", field, op)
		}
		seen[op] = true
		parsed, err := parseOp(field, op, arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, parsed)
	}
	return ops, nil
}

func parseOp(field string, op Operator, arg *yaml.Node) (Op, error) {
	switch op.Shape() {
	case ShapePair:
		vals, err := decodeList(field, op, arg)
		if err != nil {
			return nil, err
		}
		if len(vals) != 2 {
			return nil, nodeErr(arg, "field %q: %s takes exactly two values, got %d", field, op, len(vals))
		}
		return Between{Low: vals[0], High: vals[1]}, nil
	case ShapeList:
		vals, err := decodeList(field, op, arg)
		if err != nil {
			return nil, err
		}
		if op == OpAny {
			return Any{Values: vals}, nil
		}
		return In{Values: vals}, nil
	case ShapeBool:
		var b bool
		if arg.Kind != yaml.ScalarNode || arg.ShortTag() != "!!bool" {
			return nil, nodeErr(arg, "field %q: %s takes a boolean", field, op)
		}
		if err := arg.Decode(&b); err != nil {
			return nil, nodeErr(arg, "field %q: %s: %v", field, op, err)
		}
		return IsNull{Null: b}, nil
	case ShapeString:
		if op == OpRaw {
			return parseRaw(field, arg)
		}
		if arg.Kind != yaml.ScalarNode || arg.ShortTag() == "!!null" {
			return nil, nodeErr(arg, "field %q: %s takes a pattern string", field, op)
		}
		if op == OpILike {
			return ILike{Pattern: arg.Value}, nil
		}
		return Like{Pattern: arg.Value}, nil
	case ShapeValue:
		inner, err := parseValue(field, arg)
		if err != nil {
			return nil, err
		}
		return Not{Value: inner}, nil
	}

	if arg.Kind != yaml.ScalarNode {
		return nil, nodeErr(arg, "field %q: %s takes a single value", field, op)
	}
	v, err := decodeScalar(arg)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpEq:
		return Eq{Value: v}, nil
	case OpLt:
		return Lt{Value: v}, nil
	case OpLte:
		return Lte{Value: v}, nil
	case OpGt:
		return Gt{Value: v}, nil
	default:
		return Gte{Value: v}, nil
	}
}

// parseRaw accepts either SQL text or an object {sql: ..., args: [...]}.
func parseRaw(field string, arg *yaml.Node) (Op, error) {
	if arg.Kind == yaml.ScalarNode && arg.ShortTag() != "!!null" && arg.Value != "" {
		return Raw{SQL: arg.Value}, nil
	}
	if arg.Kind != yaml.MappingNode {
		return nil, nodeErr(arg, "field %q: %s takes SQL text", field, OpRaw)
	}
	var doc struct {
		SQL  string `yaml:"sql"`
		Args []any  `yaml:"args"`
	}
	if err := arg.Decode(&doc); err != nil {
		return nil, nodeErr(arg, "field %q: %s: %v", field, OpRaw, err)
	}
	if doc.SQL == "" {
		return nil, nodeErr(arg, "field %q: %s requires sql", field, OpRaw)
	}
	return Raw{SQL: doc.SQL, Args: doc.Args}, nil
}

func decodeList(field string, op Operator, node *yaml.Node) ([]any, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, nodeErr(node, "field %q: %s takes a list", field, op)
	}
	vals := make([]any, 0, len(node.Content))
	for _, item := range node.Content {
		item = resolve(item)
		if item.Kind != yaml.ScalarNode {
			return nil, nodeErr(item, "field %q: %s elements must be scalars", field, op)
		}
		v, err := decodeScalar(item)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func decodeScalar(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, nodeErr(node, "%v", err)
	}
	return v, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func nodeErr(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidCondition, node.Line, fmt.Sprintf(format, args...))
}
