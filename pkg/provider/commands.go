package provider

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/command"
	"github.com/bcomnes/cyclekit/pkg/enum"
)

var shorts = map[enum.CommandName]string{
	enum.RunMigration:      command.MigrateShort,
	enum.RollbackMigration: command.RollbackShort,
	enum.GenerateMigration: command.CreateMigrationShort,
	enum.GenerateSeed:      command.CreateSeedShort,
	enum.RunSeed:           command.RunSeedShort,
	enum.ClearCache:        command.ClearCacheShort,
}

// Commands builds the commands of cli in declaration order. A command whose
// service fails to build is replaced by one reporting the failure when run.
func Commands(i do.Injector, cli CLI) []*cobra.Command {
	var cmds []*cobra.Command
	for _, name := range enum.CommandNames() {
		svc, ok := cli.Commands[name]
		if !ok {
			continue
		}
		cmd, err := Invoke[*cobra.Command](i, svc)
		if err != nil {
			cmd = command.Failing(name, shorts[name], err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
