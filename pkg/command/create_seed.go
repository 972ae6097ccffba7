package command

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/naming"
	"github.com/bcomnes/cyclekit/pkg/seed"
)

const CreateSeedShort = "Create a seed file"

// NewCreateSeed scaffolds a seed in dir.
func NewCreateSeed(fs afero.Fs, dir string) *cobra.Command {
	var database string
	cmd := &cobra.Command{
		Use:   enum.GenerateSeed.String() + " [seed]",
		Short: CreateSeedShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return fail(cmd, "Seed name is required.")
			}
			name := args[0]
			if !naming.IsPascalCase(name) {
				return fail(cmd, "Invalid seed name. Use PascalCase format.")
			}
			path, err := seed.CreateSeed(fs, dir, name, database)
			if err != nil {
				return fail(cmd, "Failed to create seed: "+err.Error())
			}
			style(cmd).Success("Seed created: " + path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database the seed runs against (default database when empty)")
	return cmd
}
