// Package schema describes the entities a query can target and the relations
// that can be eager-loaded alongside them.
//
// The query composer never guesses table or join columns: every entity,
// column and relation it renders comes from a Registry, and every name in a
// Registry has passed identifier validation. Registries are built in code
// with NewRegistry or loaded from a YAML or JSON document:
//
//	entities:
//	  - name: user
//	    table: users
//	    primaryKey: id
//	    columns: [id, name, email]
//	    relations:
//	      - name: posts
//	        kind: one-to-many
//	        target: post
//	        targetColumn: author_id
//	      - name: roles
//	        kind: many-to-many
//	        target: role
//	        junction:
//	          table: user_roles
//	          localColumn: user_id
//	          targetColumn: role_id
//
// # Join Columns
//
// For every kind except many-to-many a relation joins as
//
//	<relation>.<TargetColumn> = self.<LocalColumn>
//
// LocalColumn defaults to the owner's primary key for one-to-many and
// one-to-one relations, and TargetColumn defaults to the target's primary key
// for many-to-one relations. Many-to-many relations go through a junction
// table whose LocalColumn references the owner and whose TargetColumn
// references the target.
package schema

// Kind is the cardinality of a relation.
type Kind string

const (
	OneToMany  Kind = "one-to-many"
	ManyToOne  Kind = "many-to-one"
	OneToOne   Kind = "one-to-one"
	ManyToMany Kind = "many-to-many"
)

// FansOut reports whether joining the relation can multiply owner rows.
func (k Kind) FansOut() bool {
	return k == OneToMany || k == ManyToMany
}

// Entity is a queryable table.
type Entity struct {
	Name       string     `json:"name"`
	Table      string     `json:"table,omitempty"`
	PrimaryKey string     `json:"primaryKey,omitempty"`
	Columns    []string   `json:"columns,omitempty"`
	Relations  []Relation `json:"relations,omitempty"`
}

// Relation links an entity to a target entity.
type Relation struct {
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	Target       string    `json:"target"`
	LocalColumn  string    `json:"localColumn,omitempty"`
	TargetColumn string    `json:"targetColumn,omitempty"`
	Junction     *Junction `json:"junction,omitempty"`
}

// Junction is the link table of a many-to-many relation.
type Junction struct {
	Table        string `json:"table"`
	LocalColumn  string `json:"localColumn"`
	TargetColumn string `json:"targetColumn"`
}

// JunctionAlias is the alias under which a relation's junction table is joined.
func (r Relation) JunctionAlias() string {
	return r.Name + "__junction"
}

// Relation looks up a relation by name.
func (e Entity) Relation(name string) (Relation, error) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, nil
		}
	}
	return Relation{}, unknownRelation(e.Name, name)
}

// HasColumns reports whether the entity lists its columns explicitly.
func (e Entity) HasColumns() bool {
	return len(e.Columns) > 0
}
