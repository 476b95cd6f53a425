package query

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/pthm/quarry/internal/sqldsl"
	"github.com/pthm/quarry/pkg/schema"
	"github.com/pthm/quarry/pkg/where"
)

// relationJoins returns the join clauses that attach rel to the owner alias.
// The relation is always aliased by its name; a many-to-many junction table
// is aliased by Relation.JunctionAlias.
func relationJoins(owner string, rel schema.Relation, target schema.Entity) []sqldsl.Join {
	if rel.Kind != schema.ManyToMany {
		return []sqldsl.Join{{
			Table: sqldsl.TableAs(target.Table, rel.Name),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: rel.Name, Column: rel.TargetColumn},
				Right: sqldsl.Col{Table: owner, Column: rel.LocalColumn},
			},
		}}
	}
	ja := rel.JunctionAlias()
	return []sqldsl.Join{
		{
			Table: sqldsl.TableAs(rel.Junction.Table, ja),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: ja, Column: rel.Junction.LocalColumn},
				Right: sqldsl.Col{Table: owner, Column: rel.LocalColumn},
			},
		},
		{
			Table: sqldsl.TableAs(target.Table, rel.Name),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: rel.Name, Column: rel.TargetColumn},
				Right: sqldsl.Col{Table: ja, Column: rel.Junction.TargetColumn},
			},
		},
	}
}

// existsResolver attaches nested conditions on a relation as a correlated
// EXISTS subquery, so filtering on related rows never multiplies owner rows.
func existsResolver(reg *schema.Registry, owner schema.Entity, alias string) where.RelationResolver {
	return func(relation string, pred sq.Sqlizer) (sq.Sqlizer, error) {
		rel, err := owner.Relation(relation)
		if err != nil {
			return nil, err
		}
		target, err := reg.Entity(rel.Target)
		if err != nil {
			return nil, err
		}

		joins := relationJoins(alias, rel, target)
		// The first join correlates with the owner; any second one reaches the
		// target through the junction.
		first := joins[0]
		q := sq.Select("1").From(first.Table.TableSQL())
		for _, j := range joins[1:] {
			q = q.InnerJoin(j.SQL())
		}
		q = q.Where(first.On.SQL()).Where(pred)

		sql, args, err := q.ToSql()
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", relation, err)
		}
		return sq.Expr("EXISTS ("+sql+")", args...), nil
	}
}
