package enum

import (
	"fmt"
	"strings"
)

// SchemaProperty selects the optional last step of schema compilation.
type SchemaProperty int

const (
	SyncTables SchemaProperty = iota
	GenerateMigrations
)

func (p SchemaProperty) String() string {
	switch p {
	case SyncTables:
		return "sync_tables"
	case GenerateMigrations:
		return "generate_migrations"
	default:
		return fmt.Sprintf("SchemaProperty(%d)", int(p))
	}
}

// ParseSchemaProperty parses the configured property. An empty value means no
// property is set and returns nil.
func ParseSchemaProperty(s string) (*SchemaProperty, error) {
	var p SchemaProperty
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil //nolint:nilnil
	case "0", "sync_tables", "synctables":
		p = SyncTables
	case "1", "generate_migrations", "generatemigrations":
		p = GenerateMigrations
	default:
		return nil, fmt.Errorf("schema property must be one of: sync_tables (0), generate_migrations (1), got %q", s)
	}
	return &p, nil
}
