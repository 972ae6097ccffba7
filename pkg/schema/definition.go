// Package schema compiles YAML entity definitions into database tables and
// the runtime schema the ORM reads.
//
// Definitions go through a fixed pipeline of generators operating on a
// Registry. The render steps build ariga.io/atlas schemas per database, which
// are then either synced to the database or turned into migrations.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind of a definition.
const (
	KindEntity    = "entity"
	KindEmbedding = "embedding"
)

// Relation types.
const (
	BelongsTo = "belongsTo"
	HasOne    = "hasOne"
	HasMany   = "hasMany"
)

// Behaviors add columns maintained by the ORM.
const (
	BehaviorTimestamps = "timestamps"
	BehaviorSoftDelete = "soft_delete"
)

// DefaultDiscriminator is the column telling apart entities sharing a table.
const DefaultDiscriminator = "_type"

// Definition describes an entity or an embeddable.
type Definition struct {
	Kind          string      `yaml:"kind"`
	Role          string      `yaml:"role"`
	Table         string      `yaml:"table"`
	Database      string      `yaml:"database"`
	Extends       string      `yaml:"extends"`
	Discriminator string      `yaml:"discriminator"`
	Columns       Columns     `yaml:"columns"`
	Embeddings    []Embedding `yaml:"embeddings"`
	Relations     Relations   `yaml:"relations"`
	Indexes       []Index     `yaml:"indexes"`
	Behaviors     []string    `yaml:"behaviors"`

	// Source is the file the definition came from.
	Source string `yaml:"-"`
}

// Column maps an entity field to a table column.
type Column struct {
	Field    string `yaml:"-"`
	Type     string `yaml:"type"`
	Column   string `yaml:"column"`
	Nullable bool   `yaml:"nullable"`
	Primary  bool   `yaml:"primary"`
	Size     int    `yaml:"size"`
	Default  string `yaml:"default"`
	Unique   bool   `yaml:"unique"`
}

// ColumnName returns the table column, defaulting to the field name.
func (c Column) ColumnName() string {
	if c.Column != "" {
		return c.Column
	}
	return c.Field
}

// Columns keeps the order fields were declared in.
type Columns []Column

// UnmarshalYAML reads a mapping of field names to column definitions. A
// scalar value is shorthand for the type.
func (c *Columns) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping", value.Line)
	}
	cols := make(Columns, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var col Column
		if val.Kind == yaml.ScalarNode {
			col.Type = val.Value
		} else if err := val.Decode(&col); err != nil {
			return err
		}
		col.Field = key.Value
		cols = append(cols, col)
	}
	*c = cols
	return nil
}

// Get returns the column for field.
func (c Columns) Get(field string) (Column, bool) {
	for _, col := range c {
		if col.Field == field {
			return col, true
		}
	}
	return Column{}, false
}

// Embedding places the columns of an embeddable into an entity.
type Embedding struct {
	Role   string `yaml:"role"`
	Prefix string `yaml:"prefix"`
}

// Relation links two entities.
type Relation struct {
	Name     string `yaml:"-"`
	Type     string `yaml:"type"`
	Target   string `yaml:"target"`
	InnerKey string `yaml:"innerKey"`
	OuterKey string `yaml:"outerKey"`
	Nullable bool   `yaml:"nullable"`
	Cascade  bool   `yaml:"cascade"`
}

// Relations keeps the order relations were declared in.
type Relations []Relation

func (r *Relations) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: relations must be a mapping", value.Line)
	}
	rels := make(Relations, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var rel Relation
		if err := value.Content[i+1].Decode(&rel); err != nil {
			return err
		}
		rel.Name = value.Content[i].Value
		rels = append(rels, rel)
	}
	*r = rels
	return nil
}

// Index over entity fields.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

// HasBehavior reports whether name is enabled on the definition.
func (d *Definition) HasBehavior(name string) bool {
	for _, b := range d.Behaviors {
		if b == name {
			return true
		}
	}
	return false
}

// clone returns a deep enough copy for generators to mutate.
func (d *Definition) clone() *Definition {
	c := *d
	c.Columns = append(Columns(nil), d.Columns...)
	c.Embeddings = append([]Embedding(nil), d.Embeddings...)
	c.Relations = append(Relations(nil), d.Relations...)
	c.Indexes = append([]Index(nil), d.Indexes...)
	c.Behaviors = append([]string(nil), d.Behaviors...)
	return &c
}

// abstractType splits "string(64)" into "string" and 64.
func abstractType(t string) (string, int, error) {
	t = strings.TrimSpace(t)
	open := strings.Index(t, "(")
	if open < 0 {
		return t, 0, nil
	}
	if !strings.HasSuffix(t, ")") {
		return "", 0, fmt.Errorf("malformed type %q", t)
	}
	arg := strings.TrimSpace(t[open+1 : len(t)-1])
	if i := strings.Index(arg, ","); i >= 0 {
		arg = strings.TrimSpace(arg[:i])
	}
	size, err := strconv.Atoi(arg)
	if err != nil {
		return "", 0, fmt.Errorf("malformed type %q: %w", t, err)
	}
	return strings.TrimSpace(t[:open]), size, nil
}
