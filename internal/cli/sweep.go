package cli

import (
	"fmt"

	"github.com/jhoicas/reservas-api/internal/application/stock"
	"github.com/spf13/cobra"
)

// NewSweepCommand crea el comando sweep: un barrido único, pensado para cron.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Elimina las reservas vencidas y termina",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if stats {
				st, err := a.stock.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "active=%d expired=%d total=%d\n", st.Active, st.Expired, st.Total)
				return nil
			}

			sweeper := stock.NewBackgroundSweeper(a.stock, 0, a.locker, a.log.Component("sweeper"))
			n, swept, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			if !swept {
				fmt.Fprintln(cmd.OutOrStdout(), "otra réplica está barriendo; nada que hacer")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned=%d\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "solo mostrar conteos, sin eliminar")
	return cmd
}
