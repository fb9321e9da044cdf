package cli

import (
	"fmt"

	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres/migrations"
	"github.com/spf13/cobra"
)

// NewMigrateCommand crea el comando migrate.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == "memory" {
				return fmt.Errorf("migrate requiere STORAGE_DRIVER=postgres")
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("conexión a PostgreSQL: %w", err)
			}
			defer pool.Close()

			applied, err := migrations.Apply(ctx, pool)
			if err != nil {
				return err
			}
			log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
			return nil
		},
	}
}
