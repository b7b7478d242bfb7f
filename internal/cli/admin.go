package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// NewCreateAdminCommand crea una cuenta con rol admin (no existe registro público para ese rol).
func NewCreateAdminCommand(opts *RootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea un usuario administrador",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(password) < 6 {
				return fmt.Errorf("la contraseña debe tener al menos 6 caracteres")
			}
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			user, _, err := b.Accounts.Signup(cmd.Context(), auth.SignupInput{
				Name: name, Email: email, Password: password, Role: entity.RoleAdmin,
			})
			if errors.Is(err, domain.ErrEmailAlreadyExists) {
				return fmt.Errorf("el email %s ya está registrado", email)
			}
			if err != nil {
				return fmt.Errorf("crear admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin creado: id=%d email=%s\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrador", "nombre visible")
	cmd.Flags().StringVar(&email, "email", "", "email de acceso")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (mínimo 6 caracteres)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
