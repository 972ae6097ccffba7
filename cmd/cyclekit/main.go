// SPDX-License-Identifier: MIT

// Package main provides cyclekit, the command-line front end of the cycle
// services: migrations, seeds and the schema cache.
//
// # Synopsis
//
//	cyclekit [--config file] [--log-level level] <command> [arguments]
//
// # Global flags
//
//	--config string     Configuration file. Defaults to $CYCLEKIT_CONFIG, then
//	                    cyclekit.{yaml,yml,json,toml} in the working directory.
//	--log-level string  debug, info, warn or error (default $CYCLEKIT_LOG_LEVEL or info).
//
// # Environment
//
//	CYCLE_MIGRATIONS_DISABLED  When truthy, migration and seed commands are not registered.
//
// Command output goes to stdout, logs go to stderr. The exit status is 1 when
// a command fails.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/suzuki-shunsuke/logrus-error/logerr"

	"github.com/bcomnes/cyclekit"
	"github.com/bcomnes/cyclekit/pkg/command"
	"github.com/bcomnes/cyclekit/pkg/config"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/provider"
)

const envLogLevel = "CYCLEKIT_LOG_LEVEL"

var versionString = cyclekit.Version + " (" + cyclekit.GitCommit + ")"

func main() {
	logE := log.New(versionString)
	if err := core(logE, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, command.ErrFailure) {
			os.Exit(1)
		}
		logerr.WithError(logE, err).Fatal("cyclekit failed")
	}
}

func core(logE *logrus.Entry, args []string, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var configPath, logLevel string
	root := &cobra.Command{
		Use:           "cyclekit",
		Short:         "Run migrations, seeds and schema cache commands",
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv(envLogLevel), "log level (debug, info, warn, error)")
	root.SetArgs(args)
	root.SetOut(stdout)

	// Global flags decide which commands exist, so read them before the
	// command tree is built.
	root.FParseErrWhitelist.UnknownFlags = true
	root.InitDefaultHelpFlag()
	root.InitDefaultVersionFlag()
	if err := root.ParseFlags(args); err != nil {
		return err
	}
	if err := log.SetLevel(logE, logLevel); err != nil {
		return err
	}
	cfg, err := config.Load(afero.NewOsFs(), configPath)
	if err != nil {
		return err
	}
	logE.WithField("config", configPath).Debug("loaded configuration")

	injector := do.New()
	defer func() {
		_ = injector.Shutdown()
	}()
	do.ProvideNamedValue[any](injector, provider.ServiceConfig, cfg)

	p := provider.New(logE)
	pc := p.Config()
	provider.Register(injector, pc)
	root.AddCommand(provider.Commands(injector, pc.CLI)...)

	return root.ExecuteContext(ctx)
}
