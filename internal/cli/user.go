package cli

import (
	"fmt"

	"github.com/jhoicas/reservas-api/internal/application/auth"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/spf13/cobra"
)

// NewUserCommand crea el comando user con el subcomando create (alta del primer admin).
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administra usuarios",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in dto.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario con email y password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := auth.NewAuthUseCase(a.users, a.cfg.JWT, 0).RegisterUser(ctx, in)
			if err != nil {
				return fmt.Errorf("crear usuario: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%s email=%s role=%s\n", out.ID, out.Email, out.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre visible")
	cmd.Flags().StringVar(&in.Role, "role", "admin", "rol: admin | customer")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
