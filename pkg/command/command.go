// Package command implements the cycle CLI commands on top of cobra.
package command

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/bcomnes/cyclekit/pkg/console"
	"github.com/bcomnes/cyclekit/pkg/enum"
)

// ErrFailure is returned by commands after they printed why they failed.
var ErrFailure = errors.New("command failed")

func style(cmd *cobra.Command) *console.Style {
	return console.New(cmd.OutOrStdout())
}

// fail prints msg as an error block and returns ErrFailure.
func fail(cmd *cobra.Command, msg string) error {
	style(cmd).Error(msg)
	return ErrFailure
}

// Failing returns a command that reports err when run. It stands in for
// commands whose dependencies could not be built.
func Failing(name enum.CommandName, short string, err error) *cobra.Command {
	return &cobra.Command{
		Use:   name.String(),
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fail(cmd, err.Error())
		},
	}
}
