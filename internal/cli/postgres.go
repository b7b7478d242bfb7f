package cli

import (
	"context"
	"os"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/postgres"
	"github.com/jhoicas/rescuebox-api/pkg/config"
	"github.com/jhoicas/rescuebox-api/pkg/logger"
)

// PostgresOpener abre el pool con la configuración del entorno (viper).
func PostgresOpener(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout queda para la salida de los comandos
	logger.New(logger.Config{Env: cfg.App.Env, Level: "info", Output: os.Stderr})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	accounts := auth.NewAuthUseCase(
		postgres.NewUserRepository(pool),
		postgres.NewStoreRepository(pool),
		postgres.NewTxRunner(pool),
		auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer},
	)
	return &Backend{
		Accounts: accounts,
		Migrate: func(ctx context.Context) ([]string, error) {
			return postgres.Migrate(ctx, pool)
		},
		Close: pool.Close,
	}, nil
}
