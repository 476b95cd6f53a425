package placeholder

import (
	"fmt"
	"reflect"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Bind renders sql for a driver. Positional markers consume positional in
// order; :name takes named[name]; :...name expands named[name] into one
// marker per element. A positional list is expanded the same way, so a list
// binds identically before and after Rewrite. The result uses format's placeholders (sq.Question
// when format is nil). :: casts and quoted text are left alone.
func Bind(sql string, positional []any, named map[string]any, format sq.PlaceholderFormat) (string, []any, error) {
	if format == nil {
		format = sq.Question
	}
	// Formats other than ? treat ?? as an escaped literal question mark.
	escape := format != sq.Question

	var (
		b    strings.Builder
		args = make([]any, 0, len(positional)+len(named))
		pos  int
	)
	for _, t := range tokenize(sql) {
		switch t.kind {
		case tokText:
			if escape {
				b.WriteString(strings.ReplaceAll(t.text, "?", "??"))
			} else {
				b.WriteString(t.text)
			}
		case tokQuestion:
			if escape {
				b.WriteString("??")
			} else {
				b.WriteString("?")
			}
		case tokMarker:
			if pos >= len(positional) {
				return "", nil, fmt.Errorf("%w: more markers than %d positional parameters",
					ErrParameterCountMismatch, len(positional))
			}
			v := positional[pos]
			pos++
			if !IsList(v) {
				b.WriteString("?")
				args = append(args, v)
				continue
			}
			elems := expand(v)
			if len(elems) == 0 {
				return "", nil, fmt.Errorf("%w: positional parameter %d", ErrEmptyListBinding, pos-1)
			}
			b.WriteString(sq.Placeholders(len(elems)))
			args = append(args, elems...)
		case tokNamed:
			v, ok := named[t.name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrUnknownParameter, t.name)
			}
			b.WriteString("?")
			args = append(args, v)
		case tokNamedList:
			v, ok := named[t.name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrUnknownParameter, t.name)
			}
			elems := expand(v)
			if len(elems) == 0 {
				return "", nil, fmt.Errorf("%w: %s", ErrEmptyListBinding, t.name)
			}
			b.WriteString(sq.Placeholders(len(elems)))
			args = append(args, elems...)
		}
	}
	if pos != len(positional) {
		return "", nil, fmt.Errorf("%w: %d markers, %d positional parameters",
			ErrParameterCountMismatch, pos, len(positional))
	}

	out, err := format.ReplacePlaceholders(b.String())
	if err != nil {
		return "", nil, fmt.Errorf("bind: %w", err)
	}
	return out, args, nil
}

// expand flattens a list binding. Non-list values bind as a single element.
func expand(v any) []any {
	if !IsList(v) {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
