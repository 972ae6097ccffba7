package schema

import (
	"context"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
)

func renderColumn(dialect string, col Column) (*schema.Column, error) {
	t, attrs, err := columnType(dialect, col)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", col.Field, err)
	}
	c := &schema.Column{
		Name:  col.ColumnName(),
		Type:  &schema.ColumnType{Type: t, Null: col.Nullable && !col.Primary},
		Attrs: attrs,
	}
	if col.Default != "" {
		c.Default = &schema.RawExpr{X: col.Default}
	}
	return c, nil
}

// RenderTables renders the table of every root entity. Columns of entities
// stored in the same table are added as nullable.
type RenderTables struct{}

func (RenderTables) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		if r.Parent(role) != "" {
			continue
		}
		def := r.entities[role]
		db, err := r.Database(def)
		if err != nil {
			return err
		}
		name := db.Table(def.Table)
		s := r.Schema(db.Name)
		if _, ok := s.Table(name); ok {
			return fmt.Errorf("entity %q: table %q is rendered twice", role, name)
		}
		table := schema.NewTable(name)
		var pk []*schema.Column
		add := func(col Column, forceNull bool) error {
			if _, ok := table.Column(col.ColumnName()); ok {
				return nil
			}
			if forceNull {
				col.Nullable = true
			}
			c, err := renderColumn(db.Dialect, col)
			if err != nil {
				return fmt.Errorf("entity %q: %w", role, err)
			}
			table.AddColumns(c)
			if col.Primary {
				pk = append(pk, c)
			}
			return nil
		}
		for _, col := range def.Columns {
			if err := add(col, false); err != nil {
				return err
			}
		}
		if def.Discriminator != "" {
			if err := add(Column{Field: def.Discriminator, Type: TypeString, Size: 64, Nullable: true}, false); err != nil {
				return err
			}
		}
		for _, child := range r.order {
			if child == role || r.Root(child) != role {
				continue
			}
			for _, col := range r.entities[child].Columns {
				if err := add(col, true); err != nil {
					return err
				}
			}
		}
		for _, c := range table.Columns {
			if col, ok := uniqueColumn(def, r, role, c.Name); ok && !col.Primary {
				table.AddIndexes(schema.NewUniqueIndex(name+"_"+c.Name+"_unique").AddColumns(c))
			}
		}
		if len(pk) > 0 {
			table.SetPrimaryKey(schema.NewPrimaryKey(pk...))
		}
		s.AddTables(table)
	}
	return nil
}

// uniqueColumn finds a unique column named column in role or its children.
func uniqueColumn(def *Definition, r *Registry, role, column string) (Column, bool) {
	for _, candidate := range append([]*Definition{def}, children(r, role)...) {
		for _, col := range candidate.Columns {
			if col.ColumnName() == column && col.Unique {
				return col, true
			}
		}
	}
	return Column{}, false
}

func children(r *Registry, role string) []*Definition {
	var defs []*Definition
	for _, child := range r.order {
		if child != role && r.Root(child) == role {
			defs = append(defs, r.entities[child])
		}
	}
	return defs
}

// relationKey returns the entity holding the key column of rel and the
// entity it references, with both column names.
func relationKey(r *Registry, def *Definition, rel Relation) (holder, owner *Definition, column, ref string) {
	target := r.entities[rel.Target]
	if rel.Type == BelongsTo {
		holder, owner = def, target
		column, ref = rel.InnerKey, rel.OuterKey
	} else {
		holder, owner = target, def
		column, ref = rel.OuterKey, rel.InnerKey
	}
	if c, ok := holder.Columns.Get(column); ok {
		column = c.ColumnName()
	}
	if c, ok := owner.Columns.Get(ref); ok {
		ref = c.ColumnName()
	}
	return holder, owner, column, ref
}

func hasIndexOn(table *schema.Table, column string) bool {
	if table.PrimaryKey != nil && len(table.PrimaryKey.Parts) > 0 && table.PrimaryKey.Parts[0].C != nil && table.PrimaryKey.Parts[0].C.Name == column {
		return true
	}
	for _, idx := range table.Indexes {
		if len(idx.Parts) > 0 && idx.Parts[0].C != nil && idx.Parts[0].C.Name == column {
			return true
		}
	}
	return false
}

// RenderRelations indexes the key columns of relations.
type RenderRelations struct{}

func (RenderRelations) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		for _, rel := range def.Relations {
			holder, _, column, _ := relationKey(r, def, rel)
			table, ok := r.Table(holder)
			if !ok {
				return fmt.Errorf("relation %q of %q: table of %q is not rendered", rel.Name, role, holder.Role)
			}
			c, ok := table.Column(column)
			if !ok {
				return fmt.Errorf("relation %q of %q: column %q missing", rel.Name, role, column)
			}
			if hasIndexOn(table, column) {
				continue
			}
			table.AddIndexes(schema.NewIndex(table.Name + "_" + column + "_index").AddColumns(c))
		}
	}
	return nil
}

// RenderModifiers adds behavior columns to tables.
type RenderModifiers struct{}

func (RenderModifiers) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		mods, ok := r.modifiers[role]
		if !ok {
			continue
		}
		def := r.entities[role]
		table, ok := r.Table(def)
		if !ok {
			return fmt.Errorf("entity %q: table is not rendered", role)
		}
		db, err := r.Database(def)
		if err != nil {
			return err
		}
		for _, col := range mods {
			if _, ok := table.Column(col.ColumnName()); ok {
				continue
			}
			// Rows of sibling entities never fill these.
			if r.Root(role) != role {
				col.Nullable = true
			}
			c, err := renderColumn(db.Dialect, col)
			if err != nil {
				return fmt.Errorf("entity %q: %w", role, err)
			}
			table.AddColumns(c)
		}
	}
	return nil
}

// ForeignKeys adds a foreign key per relation.
type ForeignKeys struct{}

func (ForeignKeys) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		for _, rel := range def.Relations {
			holder, owner, column, ref := relationKey(r, def, rel)
			table, ok := r.Table(holder)
			if !ok {
				return fmt.Errorf("relation %q of %q: table of %q is not rendered", rel.Name, role, holder.Role)
			}
			refTable, ok := r.Table(owner)
			if !ok {
				return fmt.Errorf("relation %q of %q: table of %q is not rendered", rel.Name, role, owner.Role)
			}
			c, ok := table.Column(column)
			if !ok {
				return fmt.Errorf("relation %q of %q: column %q missing", rel.Name, role, column)
			}
			refColumn, ok := refTable.Column(ref)
			if !ok {
				return fmt.Errorf("relation %q of %q: column %q missing", rel.Name, role, ref)
			}
			symbol := table.Name + "_" + column + "_fk"
			if _, ok := table.ForeignKey(symbol); ok {
				continue
			}
			onDelete := schema.NoAction
			switch {
			case rel.Cascade:
				onDelete = schema.Cascade
			case rel.Nullable:
				onDelete = schema.SetNull
			}
			table.AddForeignKeys(schema.NewForeignKey(symbol).
				AddColumns(c).
				SetRefTable(refTable).
				AddRefColumns(refColumn).
				SetOnDelete(onDelete).
				SetOnUpdate(schema.NoAction))
		}
	}
	return nil
}

// MergeIndexes adds the indexes declared on entities.
type MergeIndexes struct{}

func (MergeIndexes) Run(_ context.Context, r *Registry) error {
	for _, role := range r.order {
		def := r.entities[role]
		if len(def.Indexes) == 0 {
			continue
		}
		table, ok := r.Table(def)
		if !ok {
			return fmt.Errorf("entity %q: table is not rendered", role)
		}
		for _, idx := range def.Indexes {
			var cols []*schema.Column
			var names []string
			for _, field := range idx.Columns {
				col, _ := def.Columns.Get(field)
				c, ok := table.Column(col.ColumnName())
				if !ok {
					return fmt.Errorf("entity %q: index column %q missing", role, field)
				}
				cols = append(cols, c)
				names = append(names, c.Name)
			}
			name := idx.Name
			if name == "" {
				name = table.Name + "_index_" + strings.Join(names, "_")
			}
			if _, ok := table.Index(name); ok {
				continue
			}
			table.AddIndexes(schema.NewIndex(name).SetUnique(idx.Unique).AddColumns(cols...))
		}
	}
	return nil
}
