// Package migrator runs, rolls back and scaffolds SQL migrations kept as single
// files with up and down sections. Executed migrations are tracked per database
// in a table you choose.
package migrator

// Config holds settings for migrations.
type Config struct {
	// Directory holds the migration files.
	Directory string `mapstructure:"directory" yaml:"directory"`

	// Table is the name of the migrations table.
	Table string `mapstructure:"table" yaml:"table"`

	// Namespace is written into new migration files and lets several
	// applications share a directory.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`

	// SeedDirectory holds seed files.
	SeedDirectory string `mapstructure:"seed-directory" yaml:"seed-directory"`

	// ValidateChecksums refuses to run when an executed migration changed on disk.
	ValidateChecksums bool `mapstructure:"validate_checksums" yaml:"validate_checksums"`

	// Newline is the line ending ("LF", "CR" or "CRLF") checksums normalize to.
	Newline string `mapstructure:"newline" yaml:"newline"`
}

// DefaultConfig provides default values for configuration.
var DefaultConfig = Config{
	Table:     "migrations",
	Namespace: "Migration",
}

// withDefaults fills unset values from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = DefaultConfig.Table
	}
	if c.Namespace == "" {
		c.Namespace = DefaultConfig.Namespace
	}
	return c
}
