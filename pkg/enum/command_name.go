// Package enum holds the small closed sets of names shared by the CLI and the
// container wiring.
package enum

// CommandName is the registered name of a CLI command.
type CommandName string

const (
	GenerateMigration CommandName = "cycle:migrator:create"
	RollbackMigration CommandName = "cycle:migrator:rollback"
	RunMigration      CommandName = "cycle:migrator:run"
	ClearCache        CommandName = "cycle:cache:clear"
	GenerateSeed      CommandName = "cycle:seed:create"
	RunSeed           CommandName = "cycle:seed:run"
)

// CommandNames returns every command name in declaration order.
func CommandNames() []CommandName {
	return []CommandName{
		GenerateMigration,
		RollbackMigration,
		RunMigration,
		ClearCache,
		GenerateSeed,
		RunSeed,
	}
}

func (n CommandName) String() string {
	return string(n)
}
