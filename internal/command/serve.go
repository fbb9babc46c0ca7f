package command

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/invoicer/internal/app"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(configFrom(cmd.Context()))
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

func migrateCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(configFrom(cmd.Context()))
			if err != nil {
				return err
			}
			return a.Migrate(cmd.Context(), steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "apply n migrations, or roll back n when negative (0 applies all)")
	return cmd
}
