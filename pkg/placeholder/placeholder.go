// Package placeholder converts between the placeholder styles used along the
// query pipeline.
//
// Query builders emit positional ? markers. Rewrite turns those into named
// placeholders (:value0, :...value1) so a rendered subquery can be embedded
// in another statement and bound independently of its position. Bind is the
// last step before execution: it turns a statement mixing positional markers
// and named placeholders into the driver's format, expanding list bindings.
package placeholder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// NamePrefix is the stem of generated parameter names.
const NamePrefix = "value"

// Named is SQL with named placeholders and the values bound to them.
type Named struct {
	SQL        string
	Parameters map[string]any
}

// Rewrite replaces the i-th positional marker (counting from zero, left to
// right) with :value{i}, or :...value{i} when params[i] is a list, and
// returns the bindings under the same names.
//
// SQL without markers is returned unchanged with no bindings. Otherwise the
// marker count must equal len(params). Rewrite is not idempotent; a
// statement must be rewritten exactly once.
func Rewrite(sql string, params []any) (Named, error) {
	toks := tokenize(sql)
	markers := 0
	for _, t := range toks {
		if t.kind == tokMarker {
			markers++
		}
	}
	if markers == 0 {
		return Named{SQL: sql, Parameters: map[string]any{}}, nil
	}
	if markers != len(params) {
		return Named{}, fmt.Errorf("%w: %d markers, %d parameters", ErrParameterCountMismatch, markers, len(params))
	}

	var b strings.Builder
	b.Grow(len(sql) + markers*8)
	named := make(map[string]any, markers)
	i := 0
	for _, t := range toks {
		if t.kind != tokMarker {
			b.WriteString(t.text)
			continue
		}
		name := NamePrefix + strconv.Itoa(i)
		if IsList(params[i]) {
			b.WriteString(":..." + name)
		} else {
			b.WriteString(":" + name)
		}
		named[name] = params[i]
		i++
	}
	return Named{SQL: b.String(), Parameters: named}, nil
}

// IsList reports whether v binds as a list of values. Byte slices are scalars.
func IsList(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}
