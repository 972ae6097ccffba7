package command

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/seed"
	"github.com/bcomnes/cyclekit/pkg/service"
)

const RunSeedShort = "Run one seed or every seed"

// NewRunSeed runs the seed given as argument or --seed, or every seed when
// none is given. --directory replaces dir when it exists.
func NewRunSeed(svc *service.MigratorService, fs afero.Fs, dir string, registry *seed.Registry) *cobra.Command {
	var name, directory string
	cmd := &cobra.Command{
		Use:   enum.RunSeed.String() + " [seed]",
		Short: RunSeedShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] != "" {
				name = args[0]
			}
			seedDir := dir
			if directory != "" {
				if ok, _ := afero.DirExists(fs, directory); ok {
					seedDir = directory
				}
			}
			loader := seed.NewLoader(fs, seedDir, registry)
			if name != "" {
				return runSingleSeed(cmd, svc, loader, name)
			}
			return runAllSeeds(cmd, svc, loader)
		},
	}
	cmd.Flags().StringVarP(&name, "seed", "s", "", "Seed to run")
	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Directory to load seeds from")
	return cmd
}

// runSeed loads and runs name, printing the outcome.
func runSeed(cmd *cobra.Command, svc *service.MigratorService, loader *seed.Loader, name string) bool {
	out := style(cmd)
	out.Section("Running seed: " + name)
	s, err := loader.Load(name)
	switch {
	case errors.Is(err, seed.ErrInvalidName):
		out.Error("Invalid seed name. Use PascalCase format.")
		return false
	case errors.Is(err, seed.ErrNotFound):
		out.Error(fmt.Sprintf("Seed file \"%s\" not found in directory \"%s\".", name, loader.Directory()))
		return false
	case err != nil:
		out.Error(fmt.Sprintf("Failed to load seed \"%s\": %v", name, err))
		return false
	}
	if err := svc.Seed(cmd.Context(), s); err != nil {
		out.Error(fmt.Sprintf("Seed \"%s\" failed: %v", name, err))
		return false
	}
	out.Success(fmt.Sprintf("Seed \"%s\" executed successfully.", name))
	return true
}

func runSingleSeed(cmd *cobra.Command, svc *service.MigratorService, loader *seed.Loader, name string) error {
	if !runSeed(cmd, svc, loader, name) {
		return ErrFailure
	}
	return nil
}

func runAllSeeds(cmd *cobra.Command, svc *service.MigratorService, loader *seed.Loader) error {
	names, err := loader.Names()
	if err != nil {
		return fail(cmd, err.Error())
	}
	if len(names) == 0 {
		style(cmd).Warning(fmt.Sprintf("No seed files found in directory \"%s\".", loader.Directory()))
		return nil
	}
	var succeeded, failed int
	for _, name := range names {
		if runSeed(cmd, svc, loader, name) {
			succeeded++
		} else {
			failed++
		}
	}
	if failed > 0 {
		return fail(cmd, fmt.Sprintf("Seed execution completed with errors. %d succeeded, %d failed.", succeeded, failed))
	}
	style(cmd).Success(fmt.Sprintf("All %d seeds executed successfully.", succeeded))
	return nil
}
