package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/migrator"
)

// CompiledRelation is a relation with its keys resolved.
type CompiledRelation struct {
	Type     string `msgpack:"type" yaml:"type"`
	Target   string `msgpack:"target" yaml:"target"`
	InnerKey string `msgpack:"inner_key" yaml:"innerKey"`
	OuterKey string `msgpack:"outer_key" yaml:"outerKey"`
	Nullable bool   `msgpack:"nullable" yaml:"nullable"`
	Cascade  bool   `msgpack:"cascade" yaml:"cascade"`
}

// Entity is the compiled form of an entity.
type Entity struct {
	Role          string                      `msgpack:"role" yaml:"role"`
	Database      string                      `msgpack:"database" yaml:"database"`
	Table         string                      `msgpack:"table" yaml:"table"`
	PrimaryKeys   []string                    `msgpack:"primary_keys" yaml:"primaryKeys"`
	Columns       map[string]string           `msgpack:"columns" yaml:"columns"`
	Typecast      map[string]string           `msgpack:"typecast" yaml:"typecast"`
	Relations     map[string]CompiledRelation `msgpack:"relations" yaml:"relations"`
	Parent        string                      `msgpack:"parent" yaml:"parent"`
	Discriminator string                      `msgpack:"discriminator" yaml:"discriminator"`
	Behaviors     []string                    `msgpack:"behaviors" yaml:"behaviors"`
}

// Schema is the compiled schema keyed by role.
type Schema map[string]*Entity

// Roles lists the roles in the schema, sorted.
func (s Schema) Roles() []string {
	roles := make([]string, 0, len(s))
	for role := range s {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Merge returns a copy of s where entities of other replace those with the
// same role.
func (s Schema) Merge(other Schema) Schema {
	merged := make(Schema, len(s)+len(other))
	for role, e := range s {
		merged[role] = e
	}
	for role, e := range other {
		if e.Role == "" {
			e.Role = role
		}
		merged[role] = e
	}
	return merged
}

// PipelineConfig selects the optional steps of Pipeline.
type PipelineConfig struct {
	Property *enum.SchemaProperty
	// MigrationsEnabled gates GenerateMigrations.
	MigrationsEnabled bool
	Repository        migrator.Repository
	Extra             []Generator
}

// Pipeline returns the generators in the order they run.
func Pipeline(cfg PipelineConfig) []Generator {
	generators := []Generator{
		ResetTables{},
		Embeddings{},
		Entities{},
		TableInheritance{},
		MergeColumns{},
		GenerateRelations{},
		GenerateModifiers{},
		ValidateEntities{},
		RenderTables{},
		RenderRelations{},
		RenderModifiers{},
		ForeignKeys{},
		MergeIndexes{},
		GenerateTypecast{},
	}
	if cfg.Property != nil {
		switch *cfg.Property {
		case enum.SyncTables:
			generators = append(generators, SyncTables{})
		case enum.GenerateMigrations:
			if cfg.MigrationsEnabled && cfg.Repository != nil {
				generators = append(generators, GenerateMigrations{Repository: cfg.Repository})
			}
		}
	}
	return append(generators, cfg.Extra...)
}

// Compiler runs generators over a registry.
type Compiler struct {
	logE *logrus.Entry
}

// NewCompiler creates a Compiler.
func NewCompiler(logE *logrus.Entry) *Compiler {
	return &Compiler{logE: log.OrDiscard(logE)}
}

// Compile runs generators in order and returns the compiled schema.
func (c *Compiler) Compile(ctx context.Context, r *Registry, generators []Generator) (Schema, error) {
	for _, g := range generators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.logE.WithField("generator", fmt.Sprintf("%T", g)).Debug("running schema generator")
		if err := g.Run(ctx, r); err != nil {
			return nil, fmt.Errorf("%T: %w", g, err)
		}
	}
	return c.build(r), nil
}

func (c *Compiler) build(r *Registry) Schema {
	s := make(Schema, len(r.order))
	for _, role := range r.order {
		def := r.entities[role]
		table := def.Table
		if db, err := r.Database(def); err == nil {
			table = db.Table(def.Table)
		}
		e := &Entity{
			Role:          role,
			Database:      def.Database,
			Table:         table,
			PrimaryKeys:   primaryFields(def),
			Columns:       make(map[string]string),
			Typecast:      r.typecast[role],
			Relations:     make(map[string]CompiledRelation),
			Parent:        r.Parent(role),
			Discriminator: def.Discriminator,
			Behaviors:     def.Behaviors,
		}
		for _, col := range def.Columns {
			e.Columns[col.Field] = col.ColumnName()
		}
		for _, col := range r.modifiers[role] {
			e.Columns[col.Field] = col.ColumnName()
		}
		for _, rel := range def.Relations {
			e.Relations[rel.Name] = CompiledRelation{
				Type:     rel.Type,
				Target:   rel.Target,
				InnerKey: rel.InnerKey,
				OuterKey: rel.OuterKey,
				Nullable: rel.Nullable,
				Cascade:  rel.Cascade,
			}
		}
		s[role] = e
	}
	return s
}
