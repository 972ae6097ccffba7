package command

import (
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/naming"
)

const CreateMigrationShort = "Create an empty migration"

// NewCreateMigration scaffolds a migration in the configured directory.
func NewCreateMigration(m migrator.Interface, fs afero.Fs, now func() time.Time) *cobra.Command {
	var database string
	cmd := &cobra.Command{
		Use:   enum.GenerateMigration.String() + " migrationName",
		Short: CreateMigrationShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !naming.IsPascalCase(name) {
				return fail(cmd, "Invalid migration name. Use PascalCase format.")
			}
			cfg, err := m.Config()
			if err != nil {
				return fail(cmd, "Failed to create migration: "+err.Error())
			}
			path, err := migrator.CreateMigration(fs, cfg.Directory, cfg.Namespace, name, database, now())
			if err != nil {
				return fail(cmd, "Failed to create migration: "+err.Error())
			}
			style(cmd).Success("Migration created: " + path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&database, "database", "b", "", "Database the migration runs against (default database when empty)")
	return cmd
}
