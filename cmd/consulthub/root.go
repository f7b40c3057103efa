package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"consulthub/internal/platform/config"
	"consulthub/internal/platform/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "consulthub",
		Short:         "Multi-tenant HR consultancy platform core",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.New(cfg.LogLevel)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newRelayCommand(a),
		newBootstrapOperatorCommand(a),
	)
	return root
}
