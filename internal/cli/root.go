package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions flags globales de todos los comandos.
type RootOptions struct {
	LogLevel string // sobrescribe LOG_LEVEL si no está vacío
}

// NewRootCommand crea el comando raíz. Sin subcomando arranca el servidor.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "reservas",
		Short:         "API de reservas temporales de stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "nivel de log (trace|debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}
