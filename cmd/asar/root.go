package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meigma/asar/internal/config"
)

var version = "0.1.0-dev"

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:           "asar",
		Short:         "Create, inspect, and extract asar archives",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "defaults file (.toml, .yaml, .yml or .json)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log debug output to stderr")

	root.AddCommand(
		newPackCmd(a),
		newListCmd(a),
		newExtractFileCmd(a),
		newExtractCmd(a),
		newPushCmd(a),
		newPullCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if a.configFile == "" {
		return nil
	}
	cfg, err := config.LoadFile(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("loaded config", "file", a.configFile)
	return nil
}

// changed reports whether the named flag was set on the command line.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
