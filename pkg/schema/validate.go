package schema

import (
	"fmt"

	"github.com/pthm/quarry/internal/sqldsl"
)

// validate checks every identifier and relation in the registry. Errors name
// the offending entity and relation.
func (r *Registry) validate() error {
	for _, name := range r.order {
		e := r.entities[name]
		if err := validateEntity(e); err != nil {
			return err
		}
		seen := make(map[string]bool, len(e.Relations))
		for _, rel := range e.Relations {
			if seen[rel.Name] {
				return fmt.Errorf("%w: entity %q: duplicate relation %q", ErrInvalidSchema, e.Name, rel.Name)
			}
			seen[rel.Name] = true
			if err := r.validateRelation(e, rel); err != nil {
				return fmt.Errorf("%w: entity %q relation %q: %w", ErrInvalidSchema, e.Name, rel.Name, err)
			}
		}
	}
	return nil
}

func validateEntity(e Entity) error {
	for _, id := range []string{e.Name, e.Table, e.PrimaryKey} {
		if err := sqldsl.CheckIdent(id); err != nil {
			return fmt.Errorf("%w: entity %q: %w", ErrInvalidSchema, e.Name, err)
		}
	}
	cols := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if err := sqldsl.CheckIdent(c); err != nil {
			return fmt.Errorf("%w: entity %q column: %w", ErrInvalidSchema, e.Name, err)
		}
		if cols[c] {
			return fmt.Errorf("%w: entity %q: duplicate column %q", ErrInvalidSchema, e.Name, c)
		}
		cols[c] = true
	}
	if e.HasColumns() && !cols[e.PrimaryKey] {
		return fmt.Errorf("%w: entity %q: primary key %q not among columns", ErrInvalidSchema, e.Name, e.PrimaryKey)
	}
	return nil
}

func (r *Registry) validateRelation(owner Entity, rel Relation) error {
	if err := sqldsl.CheckIdent(rel.Name); err != nil {
		return err
	}
	switch rel.Name {
	case "self", "inner":
		return fmt.Errorf("name %q is reserved", rel.Name)
	}
	switch rel.Kind {
	case OneToMany, ManyToOne, OneToOne, ManyToMany:
	default:
		return fmt.Errorf("unknown kind %q", rel.Kind)
	}
	if _, ok := r.entities[rel.Target]; !ok {
		return fmt.Errorf("target: %w: %q", ErrUnknownEntity, rel.Target)
	}
	if rel.LocalColumn == "" || rel.TargetColumn == "" {
		return fmt.Errorf("%s relation needs localColumn and targetColumn", rel.Kind)
	}
	for _, c := range []string{rel.LocalColumn, rel.TargetColumn} {
		if err := sqldsl.CheckIdent(c); err != nil {
			return err
		}
	}

	if rel.Kind != ManyToMany {
		if rel.Junction != nil {
			return fmt.Errorf("%s relation cannot have a junction", rel.Kind)
		}
		return nil
	}
	j := rel.Junction
	if j == nil {
		return fmt.Errorf("%s relation needs a junction", rel.Kind)
	}
	for _, id := range []string{j.Table, j.LocalColumn, j.TargetColumn} {
		if err := sqldsl.CheckIdent(id); err != nil {
			return fmt.Errorf("junction: %w", err)
		}
	}
	return nil
}
