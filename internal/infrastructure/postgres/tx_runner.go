package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ reservation.TxRunner = (*TxRunner)(nil)
var _ auth.SignupTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunReservation ejecuta fn con repos de cajas y reservas atados a una misma tx.
// Si fn devuelve error, el stock descontado vuelve a su valor.
func (r *TxRunner) RunReservation(ctx context.Context, fn func(
	boxes repository.BoxRepository,
	reservations repository.ReservationRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewBoxRepository(tx), NewReservationRepository(tx))
	})
}

// RunSignup crea usuario y tienda (si aplica) de forma atómica.
func (r *TxRunner) RunSignup(ctx context.Context, fn func(
	users repository.UserRepository,
	stores repository.StoreRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewUserRepository(tx), NewStoreRepository(tx))
	})
}
