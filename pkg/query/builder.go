// Package query builds SELECT statements over registered entities and
// composes paginated queries that eager-load relations.
//
// Builder is an immutable value: every mutator returns a new Builder and
// leaves its receiver untouched, so partially built queries can be shared
// and extended concurrently. Errors raised while building (unknown
// relations, invalid identifiers) are carried along and reported when the
// statement is rendered.
package query

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pthm/quarry/internal/sqldsl"
	"github.com/pthm/quarry/pkg/placeholder"
	"github.com/pthm/quarry/pkg/schema"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts ASC or DESC in any case. Empty means ASC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: direction %q", ErrInvalidOrder, s)
}

type joinKind int

const (
	innerJoin joinKind = iota
	leftJoin
)

type join struct {
	kind   joinKind
	clause sqldsl.Join
}

// Builder is an immutable SELECT builder scoped to one entity and alias.
type Builder struct {
	registry  *schema.Registry
	entity    schema.Entity
	alias     string
	dialect   Dialect
	columns   []string
	relations []string
	joins     []join
	where     []sq.Sqlizer
	order     []string
	limit     uint64
	offset    uint64
	hasLimit  bool
	hasOffset bool
	params    map[string]any
	err       error
}

func newBuilder(reg *schema.Registry, d Dialect, entity, alias string) Builder {
	b := Builder{registry: reg, alias: alias, dialect: d}
	e, err := reg.Entity(entity)
	if err != nil {
		b.err = err
		return b
	}
	b.entity = e
	if err := sqldsl.CheckIdent(alias); err != nil {
		b.err = fmt.Errorf("alias: %w", err)
	}
	return b
}

// Entity returns the entity the builder selects from.
func (b Builder) Entity() schema.Entity { return b.entity }

// Alias returns the alias of the base table.
func (b Builder) Alias() string { return b.alias }

// Dialect returns the dialect used by Statement.
func (b Builder) Dialect() Dialect { return b.dialect }

// Err returns the first error recorded while building.
func (b Builder) Err() error { return b.err }

// Parameters returns a copy of the named parameters set on the builder.
func (b Builder) Parameters() map[string]any {
	return maps.Clone(b.params)
}

func (b Builder) fail(err error) Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Where replaces all predicates with pred.
func (b Builder) Where(pred sq.Sqlizer) Builder {
	if pred == nil {
		b.where = nil
		return b
	}
	b.where = []sq.Sqlizer{pred}
	return b
}

// AndWhere adds a predicate combined with AND.
func (b Builder) AndWhere(pred sq.Sqlizer) Builder {
	if pred == nil {
		return b
	}
	b.where = append(slices.Clip(b.where), pred)
	return b
}

// OrderBy replaces the sort order. Columns without a qualifier are
// qualified with the builder alias.
func (b Builder) OrderBy(column string, dir Direction) Builder {
	b.order = nil
	return b.AddOrderBy(column, dir)
}

// AddOrderBy appends a sort key.
func (b Builder) AddOrderBy(column string, dir Direction) Builder {
	if err := sqldsl.CheckColumn(column); err != nil {
		return b.fail(fmt.Errorf("order: %w", err))
	}
	d, err := ParseDirection(string(dir))
	if err != nil {
		return b.fail(err)
	}
	key := sqldsl.Column(b.alias, column).SQL() + " " + string(d)
	b.order = append(slices.Clip(b.order), key)
	return b
}

// Limit caps the number of rows.
func (b Builder) Limit(n uint64) Builder {
	b.limit, b.hasLimit = n, true
	return b
}

// Offset skips rows.
func (b Builder) Offset(n uint64) Builder {
	b.offset, b.hasOffset = n, true
	return b
}

// Select replaces the whole projection, including columns added by
// LeftJoinAndSelect. Columns without a qualifier are qualified with the
// builder alias.
func (b Builder) Select(columns ...string) Builder {
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := sqldsl.CheckColumn(c); err != nil {
			return b.fail(fmt.Errorf("select: %w", err))
		}
		cols = append(cols, sqldsl.Column(b.alias, c).SQL())
	}
	b.columns = cols
	return b
}

// InnerJoin joins source, a table name or parenthesized subquery, under
// alias. alias and on are SQL text and are not validated; named parameters
// they use must be supplied with SetParameters.
func (b Builder) InnerJoin(source, alias, on string) Builder {
	j := join{kind: innerJoin, clause: sqldsl.Join{
		Table: sqldsl.TableRef{Name: source, Alias: alias},
		On:    sqldsl.Raw{Text: on},
	}}
	b.joins = append(slices.Clip(b.joins), j)
	return b
}

// LeftJoinAndSelect left-joins a relation of the entity under the relation's
// name and adds the related columns to the projection.
func (b Builder) LeftJoinAndSelect(relation string) Builder {
	if b.err != nil {
		return b
	}
	if slices.Contains(b.relations, relation) {
		return b
	}
	rel, err := b.entity.Relation(relation)
	if err != nil {
		return b.fail(err)
	}
	target, err := b.registry.Entity(rel.Target)
	if err != nil {
		return b.fail(err)
	}

	joins := slices.Clip(b.joins)
	for _, c := range relationJoins(b.alias, rel, target) {
		joins = append(joins, join{kind: leftJoin, clause: c})
	}
	b.joins = joins
	b.relations = append(slices.Clip(b.relations), relation)
	return b
}

// SetParameters merges named parameters into the builder.
func (b Builder) SetParameters(params map[string]any) Builder {
	merged := make(map[string]any, len(b.params)+len(params))
	maps.Copy(merged, b.params)
	maps.Copy(merged, params)
	b.params = merged
	return b
}

// projection is the explicit selection, or every column of the base entity
// followed by every column of each joined relation.
func (b Builder) projection() []string {
	if len(b.columns) > 0 {
		return b.columns
	}
	cols := entityColumns(b.alias, b.entity)
	for _, name := range b.relations {
		rel, _ := b.entity.Relation(name)
		target, _ := b.registry.Entity(rel.Target)
		cols = append(cols, entityColumns(rel.Name, target)...)
	}
	return cols
}

// entityColumns selects each known column as <alias>_<column>, or alias.*
// when the entity does not list its columns.
func entityColumns(alias string, e schema.Entity) []string {
	if !e.HasColumns() {
		return []string{alias + ".*"}
	}
	cols := make([]string, 0, len(e.Columns))
	for _, c := range e.Columns {
		cols = append(cols, sqldsl.SelectAs(sqldsl.Col{Table: alias, Column: c}, alias+"_"+c).SQL())
	}
	return cols
}

func (b Builder) build() (sq.SelectBuilder, error) {
	if b.err != nil {
		return sq.SelectBuilder{}, b.err
	}
	q := sq.Select(b.projection()...).
		From(sqldsl.TableAs(b.entity.Table, b.alias).TableSQL())
	for _, j := range b.joins {
		switch j.kind {
		case innerJoin:
			q = q.InnerJoin(j.clause.SQL(), j.clause.Args()...)
		case leftJoin:
			q = q.LeftJoin(j.clause.SQL(), j.clause.Args()...)
		}
	}
	for _, pred := range b.where {
		q = q.Where(pred)
	}
	if len(b.order) > 0 {
		q = q.OrderBy(b.order...)
	}
	if b.hasLimit {
		q = q.Limit(b.limit)
	} else if b.hasOffset && b.dialect.OffsetNeedsLimit {
		q = q.Limit(math.MaxInt64)
	}
	if b.hasOffset {
		q = q.Offset(b.offset)
	}
	return q, nil
}

// SQLAndPositionalParameters renders the statement with ? markers for the
// builder's own predicates. Named placeholders introduced through joins are
// left in place.
func (b Builder) SQLAndPositionalParameters() (string, []any, error) {
	q, err := b.build()
	if err != nil {
		return "", nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("render %s: %w", b.entity.Name, err)
	}
	return sql, args, nil
}

// Statement renders the statement for the builder's dialect, binding both
// positional and named parameters.
func (b Builder) Statement() (string, []any, error) {
	sql, args, err := b.SQLAndPositionalParameters()
	if err != nil {
		return "", nil, err
	}
	return placeholder.Bind(sql, args, b.params, b.dialect.Format)
}
