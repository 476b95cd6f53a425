package query

import (
	"fmt"
	"strings"

	"github.com/pthm/quarry/internal/sqldsl"
	"github.com/pthm/quarry/pkg/placeholder"
	"github.com/pthm/quarry/pkg/schema"
	"github.com/pthm/quarry/pkg/where"
)

// BaseAlias is the alias of the paginated entity.
const BaseAlias = "self"

// innerAlias is reserved in SQL, so it is always quoted.
var innerAlias = sqldsl.QuoteIdent("inner")

// Order is one sort key.
type Order struct {
	Column    string
	Direction Direction
}

// Options describes a page of entities.
type Options struct {
	// Select replaces the projection. Unqualified columns refer to the base entity.
	Select []string
	// Relations to eager-load with left joins.
	Relations []string
	// InnerJoinKey is the base column that ties the page subquery to the
	// outer query. Required when Relations is not empty.
	InnerJoinKey string
	Order        []Order
	Offset       uint64
	Limit        uint64
	Where        where.Where
}

// Composer builds queries over the entities of a registry.
type Composer struct {
	registry *schema.Registry
	dialect  Dialect
}

// NewComposer returns a composer rendering for dialect.
func NewComposer(reg *schema.Registry, dialect Dialect) *Composer {
	return &Composer{registry: reg, dialect: dialect}
}

// Registry returns the composer's entity registry.
func (c *Composer) Registry() *schema.Registry { return c.registry }

// QueryBuilder returns an empty builder for entity under alias.
func (c *Composer) QueryBuilder(entity, alias string) Builder {
	return newBuilder(c.registry, c.dialect, entity, alias)
}

// Paginate builds a query for one page of entity.
//
// Without relations the filter, order, limit and offset apply directly to
// the base query. With relations the page is first selected by a subquery
// over the join key alone, which is inner-joined back to the base table
// before the relations are left-joined, so LIMIT and OFFSET count entities
// rather than joined rows. Ordering and filtering then apply only to the
// subquery; the outer rows come back in the database's join order.
func (c *Composer) Paginate(entity string, opts Options) (Builder, error) {
	if len(opts.Relations) > 0 && opts.InnerJoinKey == "" {
		return Builder{}, fmt.Errorf("paginate %s: %w", entity, ErrMissingJoinKey)
	}

	base := c.QueryBuilder(entity, BaseAlias)
	if err := base.Err(); err != nil {
		return Builder{}, fmt.Errorf("paginate %s: %w", entity, err)
	}
	for _, name := range opts.Relations {
		if _, err := base.Entity().Relation(name); err != nil {
			return Builder{}, fmt.Errorf("paginate %s: %w", entity, err)
		}
	}

	if len(opts.Relations) == 0 {
		q, err := c.page(base, opts)
		if err != nil {
			return Builder{}, err
		}
		return c.project(q, opts)
	}

	key := opts.InnerJoinKey
	if err := sqldsl.CheckIdent(key); err != nil {
		return Builder{}, fmt.Errorf("paginate %s: join key: %w", entity, err)
	}
	for _, o := range opts.Order {
		if strings.Contains(o.Column, ".") && !strings.HasPrefix(o.Column, BaseAlias+".") {
			return Builder{}, fmt.Errorf("paginate %s: %w: %q is not a column of the base entity",
				entity, ErrInvalidOrder, o.Column)
		}
	}

	sub, err := c.page(base.Select(key), opts)
	if err != nil {
		return Builder{}, err
	}
	subSQL, subArgs, err := sub.SQLAndPositionalParameters()
	if err != nil {
		return Builder{}, fmt.Errorf("paginate %s: %w", entity, err)
	}
	named, err := placeholder.Rewrite(subSQL, subArgs)
	if err != nil {
		return Builder{}, fmt.Errorf("paginate %s: %w", entity, err)
	}

	on := sqldsl.Eq{
		Left:  sqldsl.Col{Table: innerAlias, Column: key},
		Right: sqldsl.Col{Table: BaseAlias, Column: key},
	}
	q := base.
		InnerJoin(sqldsl.Subquery{Query: named.SQL}.TableSQL(), innerAlias, on.SQL()).
		SetParameters(named.Parameters)
	for _, name := range opts.Relations {
		q = q.LeftJoinAndSelect(name)
	}
	return c.project(q, opts)
}

func (c *Composer) project(q Builder, opts Options) (Builder, error) {
	if len(opts.Select) > 0 {
		q = q.Select(opts.Select...)
	}
	if err := q.Err(); err != nil {
		return Builder{}, fmt.Errorf("paginate %s: %w", q.Entity().Name, err)
	}
	return q, nil
}

// page applies filter, order, limit and offset to q.
func (c *Composer) page(q Builder, opts Options) (Builder, error) {
	if !opts.Where.IsEmpty() {
		pred, err := where.Compile(opts.Where,
			where.WithTable(q.Alias()),
			where.WithRelationResolver(existsResolver(c.registry, q.Entity(), q.Alias())),
		)
		if err != nil {
			return Builder{}, fmt.Errorf("paginate %s: %w", q.Entity().Name, err)
		}
		q = q.Where(pred)
	}
	for _, o := range opts.Order {
		q = q.AddOrderBy(o.Column, o.Direction)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Err(); err != nil {
		return Builder{}, fmt.Errorf("paginate %s: %w", q.Entity().Name, err)
	}
	return q, nil
}
