package schema

import (
	"fmt"
	"sort"

	"ariga.io/atlas/sql/schema"
	"github.com/sirupsen/logrus"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/log"
)

// Registry is the state generators share while compiling.
type Registry struct {
	dbs  dbal.Provider
	logE *logrus.Entry

	definitions []*Definition

	embeddings map[string]*Definition
	entities   map[string]*Definition
	order      []string

	// parents maps a child role to the role owning its table.
	parents map[string]string
	// modifiers holds behavior columns per role.
	modifiers map[string]Columns
	typecast  map[string]map[string]string

	// schemas holds the desired atlas schema per database alias.
	schemas map[string]*schema.Schema
}

// NewRegistry creates a Registry for definitions. Databases are resolved
// through dbs.
func NewRegistry(dbs dbal.Provider, definitions []*Definition, logE *logrus.Entry) *Registry {
	return &Registry{
		dbs:         dbs,
		logE:        log.OrDiscard(logE),
		definitions: definitions,
		embeddings:  make(map[string]*Definition),
		entities:    make(map[string]*Definition),
		parents:     make(map[string]string),
		modifiers:   make(map[string]Columns),
		typecast:    make(map[string]map[string]string),
		schemas:     make(map[string]*schema.Schema),
	}
}

// Definitions returns the definitions as located.
func (r *Registry) Definitions() []*Definition {
	return r.definitions
}

// Roles lists registered entities in registration order.
func (r *Registry) Roles() []string {
	return append([]string(nil), r.order...)
}

// Entity returns the working definition of role.
func (r *Registry) Entity(role string) (*Definition, bool) {
	def, ok := r.entities[role]
	return def, ok
}

// Embedding returns the embeddable registered as role.
func (r *Registry) Embedding(role string) (*Definition, bool) {
	def, ok := r.embeddings[role]
	return def, ok
}

// Register adds an entity. Generators may call it to contribute entities.
func (r *Registry) Register(def *Definition) error {
	if _, ok := r.entities[def.Role]; ok {
		return fmt.Errorf("entity %q is already registered", def.Role)
	}
	r.entities[def.Role] = def
	r.order = append(r.order, def.Role)
	return nil
}

// Parent returns the role whose table role is stored in.
func (r *Registry) Parent(role string) string {
	return r.parents[role]
}

// Root follows parents up to the entity owning the table.
func (r *Registry) Root(role string) string {
	seen := map[string]bool{}
	for {
		parent, ok := r.parents[role]
		if !ok || seen[role] {
			return role
		}
		seen[role] = true
		role = parent
	}
}

// Database resolves the dbal database of an entity.
func (r *Registry) Database(def *Definition) (*dbal.Database, error) {
	db, err := r.dbs.Database(def.Database)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", def.Role, err)
	}
	return db, nil
}

// Schema returns the desired atlas schema of a database, creating it.
func (r *Registry) Schema(database string) *schema.Schema {
	s, ok := r.schemas[database]
	if !ok {
		s = schema.New(database)
		r.schemas[database] = s
	}
	return s
}

// Databases lists the databases having a desired schema, sorted.
func (r *Registry) Databases() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns the rendered table of an entity.
func (r *Registry) Table(def *Definition) (*schema.Table, bool) {
	db, err := r.Database(def)
	if err != nil {
		return nil, false
	}
	s, ok := r.schemas[db.Name]
	if !ok {
		return nil, false
	}
	return s.Table(db.Table(def.Table))
}

// Typecast returns the cast rules computed for role.
func (r *Registry) Typecast(role string) map[string]string {
	return r.typecast[role]
}
