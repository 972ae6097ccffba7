package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
)

// Generator is a compilation step.
type Generator interface {
	Run(ctx context.Context, r *Registry) error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, r *Registry) error

func (f GeneratorFunc) Run(ctx context.Context, r *Registry) error {
	return f(ctx, r)
}

// TableName derives the default table of role: plural snake case.
func TableName(role string) string {
	return inflect.Underscore(inflect.Pluralize(role))
}

// ResetTables drops the desired schemas of a previous compilation.
type ResetTables struct{}

func (ResetTables) Run(_ context.Context, r *Registry) error {
	for name := range r.schemas {
		delete(r.schemas, name)
	}
	return nil
}

// Embeddings registers embeddable definitions.
type Embeddings struct{}

func (Embeddings) Run(_ context.Context, r *Registry) error {
	for _, def := range r.definitions {
		if def.Kind != KindEmbedding {
			continue
		}
		if _, ok := r.embeddings[def.Role]; ok {
			return fmt.Errorf("embedding %q is already registered", def.Role)
		}
		r.embeddings[def.Role] = def.clone()
	}
	return nil
}

// Entities registers entity definitions with their defaults applied.
type Entities struct{}

func (Entities) Run(_ context.Context, r *Registry) error {
	for _, src := range r.definitions {
		if src.Kind != KindEntity {
			continue
		}
		def := src.clone()
		db, err := r.Database(def)
		if err != nil {
			return err
		}
		def.Database = db.Name
		if def.Table == "" {
			def.Table = TableName(def.Role)
		}
		for i, col := range def.Columns {
			if base, _, err := abstractType(col.Type); err == nil && isPrimaryType(base) {
				def.Columns[i].Primary = true
			}
		}
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// TableInheritance stores entities extending another one in the table of
// the root entity, told apart by a discriminator column.
type TableInheritance struct{}

func (TableInheritance) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		if def.Extends == "" {
			continue
		}
		if _, ok := r.entities[def.Extends]; !ok {
			return fmt.Errorf("entity %q extends unknown entity %q", role, def.Extends)
		}
		r.parents[role] = def.Extends
	}
	for _, role := range r.order {
		if _, ok := r.parents[role]; !ok {
			continue
		}
		rootRole := r.Root(role)
		if rootRole == role {
			return fmt.Errorf("entity %q: inheritance cycle", role)
		}
		def, root := r.entities[role], r.entities[rootRole]
		def.Table = root.Table
		def.Database = root.Database
		if root.Discriminator == "" {
			root.Discriminator = DefaultDiscriminator
		}
		def.Discriminator = root.Discriminator
		var inherited Columns
		for _, col := range root.Columns {
			if _, ok := def.Columns.Get(col.Field); !ok {
				inherited = append(inherited, col)
			}
		}
		def.Columns = append(inherited, def.Columns...)
	}
	return nil
}

// MergeColumns copies the columns of embeddables into their entities.
type MergeColumns struct{}

func (MergeColumns) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		for _, e := range def.Embeddings {
			emb, ok := r.embeddings[e.Role]
			if !ok {
				return fmt.Errorf("entity %q embeds unknown embedding %q", role, e.Role)
			}
			prefix := e.Prefix
			if prefix == "" {
				prefix = inflect.Underscore(e.Role) + "_"
			}
			for _, col := range emb.Columns {
				colName := col.ColumnName()
				col.Field = prefix + col.Field
				col.Column = prefix + colName
				col.Primary = false
				if _, ok := def.Columns.Get(col.Field); ok {
					return fmt.Errorf("entity %q: embedded field %q collides with a column", role, col.Field)
				}
				def.Columns = append(def.Columns, col)
			}
		}
	}
	return nil
}

// GenerateRelations resolves relation keys and adds missing key columns.
type GenerateRelations struct{}

func (GenerateRelations) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		for i := range def.Relations {
			rel := &def.Relations[i]
			target, ok := r.entities[rel.Target]
			if !ok {
				return fmt.Errorf("relation %q of %q: unknown target %q", rel.Name, role, rel.Target)
			}
			if target.Database != def.Database {
				return fmt.Errorf("relation %q of %q: target %q lives in another database", rel.Name, role, rel.Target)
			}
			switch rel.Type {
			case BelongsTo:
				if err := resolveKeys(rel, target, def, rel.Name); err != nil {
					return fmt.Errorf("relation %q of %q: %w", rel.Name, role, err)
				}
			case HasOne, HasMany:
				if err := resolveKeys(rel, def, target, role); err != nil {
					return fmt.Errorf("relation %q of %q: %w", rel.Name, role, err)
				}
			default:
				return fmt.Errorf("relation %q of %q: unknown type %q", rel.Name, role, rel.Type)
			}
		}
	}
	return nil
}

// resolveKeys fills the keys of rel where owner holds the referenced primary
// key and holder holds the referencing column named after prefix.
func resolveKeys(rel *Relation, owner, holder *Definition, prefix string) error {
	ownerKey, holderKey := &rel.OuterKey, &rel.InnerKey
	if rel.Type != BelongsTo {
		ownerKey, holderKey = &rel.InnerKey, &rel.OuterKey
	}
	if *ownerKey == "" {
		pk := primaryFields(owner)
		if len(pk) != 1 {
			return fmt.Errorf("%q needs exactly one primary key to be referenced", owner.Role)
		}
		*ownerKey = pk[0]
	}
	ref, ok := owner.Columns.Get(*ownerKey)
	if !ok {
		return fmt.Errorf("%q has no field %q", owner.Role, *ownerKey)
	}
	if *holderKey == "" {
		*holderKey = inflect.Underscore(prefix) + "_" + ref.ColumnName()
	}
	if _, ok := holder.Columns.Get(*holderKey); !ok {
		holder.Columns = append(holder.Columns, Column{
			Field:    *holderKey,
			Type:     keyType(ref.Type),
			Nullable: rel.Nullable,
		})
	}
	return nil
}

func primaryFields(def *Definition) []string {
	var fields []string
	for _, col := range def.Columns {
		if col.Primary {
			fields = append(fields, col.Field)
		}
	}
	return fields
}

// GenerateModifiers computes the columns behaviors maintain.
type GenerateModifiers struct{}

func (GenerateModifiers) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		var mods Columns
		for _, b := range def.Behaviors {
			switch b {
			case BehaviorTimestamps:
				mods = append(mods,
					Column{Field: "createdAt", Column: "created_at", Type: TypeDatetime},
					Column{Field: "updatedAt", Column: "updated_at", Type: TypeDatetime, Nullable: true},
				)
			case BehaviorSoftDelete:
				mods = append(mods, Column{Field: "deletedAt", Column: "deleted_at", Type: TypeDatetime, Nullable: true})
			default:
				return fmt.Errorf("entity %q: unknown behavior %q", role, b)
			}
		}
		if len(mods) > 0 {
			r.modifiers[role] = mods
		}
	}
	return nil
}

// ValidateEntities checks the registry is complete enough to render.
type ValidateEntities struct{}

func (ValidateEntities) Run(_ context.Context, r *Registry) error {
	var errs []string
	for _, role := range r.order {
		def := r.entities[role]
		if def.Table == "" {
			errs = append(errs, fmt.Sprintf("%s: empty table", role))
		}
		if len(primaryFields(def)) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no primary key", role))
		}
		seen := map[string]string{}
		for _, col := range def.Columns {
			if _, err := castOf(col.Type); err != nil {
				errs = append(errs, fmt.Sprintf("%s.%s: %v", role, col.Field, err))
			}
			if other, ok := seen[col.ColumnName()]; ok {
				errs = append(errs, fmt.Sprintf("%s: fields %q and %q share column %q", role, other, col.Field, col.ColumnName()))
			}
			seen[col.ColumnName()] = col.Field
		}
		for _, idx := range def.Indexes {
			if len(idx.Columns) == 0 {
				errs = append(errs, fmt.Sprintf("%s: index without columns", role))
			}
			for _, field := range idx.Columns {
				if _, ok := def.Columns.Get(field); !ok {
					errs = append(errs, fmt.Sprintf("%s: index on unknown field %q", role, field))
				}
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid entities:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// GenerateTypecast records the cast rule of every field.
type GenerateTypecast struct{}

func (GenerateTypecast) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		rules := make(map[string]string)
		for _, col := range append(append(Columns(nil), def.Columns...), r.modifiers[role]...) {
			cast, err := castOf(col.Type)
			if err != nil {
				return fmt.Errorf("entity %q field %q: %w", role, col.Field, err)
			}
			rules[col.Field] = cast
		}
		r.typecast[role] = rules
	}
	return nil
}
