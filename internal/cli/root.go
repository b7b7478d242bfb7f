// Package cli comandos de operación de RescueBox: migraciones, alta de administradores
// y utilidades de contraseñas y tokens.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
	"github.com/jhoicas/rescuebox-api/pkg/config"
)

// Backend dependencias de los comandos que necesitan la base de datos.
type Backend struct {
	Accounts usecase.AccountCreator
	Migrate  func(ctx context.Context) ([]string, error)
	Close    func()
}

// Opener abre el backend bajo demanda; solo lo invocan los comandos que lo usan.
type Opener func(ctx context.Context) (*Backend, error)

// RootOptions flags globales y dependencias compartidas.
type RootOptions struct {
	Secret string // secreto JWT; vacío = JWT_SECRET de la configuración

	open Opener
}

// NewRootCommand crea el comando raíz.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "rescuebox",
		Short:         "RescueBox - herramientas de operación",
		Long:          "Comandos de soporte para la API de RescueBox: migraciones, administradores, contraseñas y tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", "", "secreto JWT (por defecto JWT_SECRET)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand())
	cmd.AddCommand(NewCheckTokenCommand(opts))
	return cmd
}

func (o *RootOptions) jwtSecret() (string, error) {
	if o.Secret != "" {
		return o.Secret, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.JWT.Secret, nil
}

func (o *RootOptions) backend(ctx context.Context) (*Backend, error) {
	b, err := o.open(ctx)
	if err != nil {
		return nil, err
	}
	if b.Close == nil {
		b.Close = func() {}
	}
	return b, nil
}
