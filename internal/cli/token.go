package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/pkg/jwt"
	"github.com/spf13/cobra"
)

// NewTokenCommand crea el comando token: emite un JWT firmado con JWT_SECRET (operación y pruebas locales).
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para un usuario y rol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if role != jwt.RoleAdmin && role != jwt.RoleCustomer {
				return fmt.Errorf("rol inválido %q: admin | customer", role)
			}
			if userID == "" {
				userID = uuid.NewString()
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user_id del token (por defecto uno aleatorio)")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "rol: admin | customer")
	return cmd
}
