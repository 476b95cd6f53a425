package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm/quarry/pkg/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		schema.Entity{
			Name:    "user",
			Table:   "users",
			Columns: []string{"id", "name", "email"},
			Relations: []schema.Relation{
				{Name: "posts", Kind: schema.OneToMany, Target: "post", TargetColumn: "author_id"},
				{Name: "roles", Kind: schema.ManyToMany, Target: "role", Junction: &schema.Junction{
					Table: "user_roles", LocalColumn: "user_id", TargetColumn: "role_id",
				}},
			},
		},
		schema.Entity{
			Name:    "post",
			Table:   "posts",
			Columns: []string{"id", "author_id", "title"},
			Relations: []schema.Relation{
				{Name: "author", Kind: schema.ManyToOne, Target: "user", LocalColumn: "author_id"},
			},
		},
		schema.Entity{Name: "role", Table: "roles", PrimaryKey: "role_id"},
	)
	require.NoError(t, err)
	return reg
}
