package schema

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Registry holds validated entity definitions. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	entities map[string]Entity
	order    []string
}

// Document is the on-disk form of a registry.
type Document struct {
	Entities []Entity `json:"entities"`
}

// NewRegistry applies defaults to the given entities, validates them and
// returns a registry.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		e = withDefaults(e)
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entity %q", ErrInvalidSchema, e.Name)
		}
		r.entities[e.Name] = e
		r.order = append(r.order, e.Name)
	}
	// Relation defaults may refer to any entity, so they run once all are known.
	for _, name := range r.order {
		e := r.entities[name]
		e.Relations = append([]Relation(nil), e.Relations...)
		for i := range e.Relations {
			e.Relations[i] = r.relationDefaults(e, e.Relations[i])
		}
		r.entities[name] = e
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes a YAML or JSON registry document.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return NewRegistry(doc.Entities...)
}

// Load reads and parses a registry document from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Entity looks up an entity by name.
func (r *Registry) Entity(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// Entities returns all entities in definition order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}

// Document returns the registry in its on-disk form, defaults applied.
func (r *Registry) Document() Document {
	return Document{Entities: r.Entities()}
}

// Marshal renders the registry as YAML.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(r.Document())
}

func withDefaults(e Entity) Entity {
	if e.Table == "" {
		e.Table = e.Name
	}
	if e.PrimaryKey == "" {
		e.PrimaryKey = "id"
	}
	return e
}

func (r *Registry) relationDefaults(owner Entity, rel Relation) Relation {
	target, ok := r.entities[rel.Target]
	switch rel.Kind {
	case OneToMany, OneToOne:
		if rel.LocalColumn == "" {
			rel.LocalColumn = owner.PrimaryKey
		}
	case ManyToOne:
		if rel.TargetColumn == "" && ok {
			rel.TargetColumn = target.PrimaryKey
		}
	case ManyToMany:
		if rel.LocalColumn == "" {
			rel.LocalColumn = owner.PrimaryKey
		}
		if rel.TargetColumn == "" && ok {
			rel.TargetColumn = target.PrimaryKey
		}
	}
	return rel
}
