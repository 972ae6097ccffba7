package command

import (
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/service"
)

const (
	MigrateShort  = "Run all pending migrations"
	RollbackShort = "Roll back the last migration"
)

// NewMigrate runs every pending migration.
func NewMigrate(svc *service.MigratorService) *cobra.Command {
	return &cobra.Command{
		Use:   enum.RunMigration.String(),
		Short: MigrateShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := style(cmd)
			out.Section("Starting Migration Process")
			if err := svc.Migrate(cmd.Context(), out.Writeln); err != nil {
				return fail(cmd, "An error occurred during migration: "+err.Error())
			}
			out.Success("Migration successful")
			return nil
		},
	}
}

// NewRollback rolls back the last executed migration.
func NewRollback(svc *service.MigratorService) *cobra.Command {
	return &cobra.Command{
		Use:   enum.RollbackMigration.String(),
		Short: RollbackShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := style(cmd)
			m, err := svc.Rollback(cmd.Context())
			if err != nil {
				return fail(cmd, "An error occurred during rollback: "+err.Error())
			}
			if m == nil {
				out.Note("No executed migration to roll back.")
				return nil
			}
			out.Writeln("Rolled back " + m.Name)
			out.Success("Migration rollback successful")
			return nil
		},
	}
}
