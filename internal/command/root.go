// Package command contains the CLI command constructors.
package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/invoicer/config"
	"github.com/kbukum/invoicer/internal/app"
	"github.com/kbukum/invoicer/version"
)

const serviceName = "invoicer"

type configKey struct{}

// RootCommand instantiates the root command with all sub-commands bound.
func RootCommand() *cobra.Command {
	var configFile, envFile string
	cmd := &cobra.Command{
		Use:          serviceName + " [command] [flags]",
		Short:        "Client, product and invoice API with JWT authentication",
		Version:      version.Get().Short(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, envFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to the configuration file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file")

	cmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)
	return cmd
}

func loadConfig(configFile, envFile string) (*app.Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return cfg, nil
}

func configFrom(ctx context.Context) *app.Config {
	cfg, _ := ctx.Value(configKey{}).(*app.Config)
	return cfg
}
