package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ repository.BoxRepository = (*BoxRepo)(nil)

// BoxRepo implementación del puerto BoxRepository sobre PostgreSQL (usable con pool o tx).
type BoxRepo struct {
	q Querier
}

// NewBoxRepository construye el adaptador de persistencia para cajas.
func NewBoxRepository(q Querier) *BoxRepo {
	return &BoxRepo{q: q}
}

const boxColumns = `b.id, b.store_id, b.nombre, b.descripcion, b.precio_normal, b.precio_descuento, b.stock,
		b.fecha_creacion, b.fecha_vencimiento, b.is_flash, b.horario_inicio, b.horario_fin`

func scanBox(row pgx.Row, b *entity.Box, extra ...any) error {
	dest := []any{
		&b.ID, &b.StoreID, &b.Name, &b.Description, &b.NormalPrice, &b.DiscountPrice, &b.Stock,
		&b.CreatedAt, &b.ExpiresAt, &b.IsFlash, &b.WindowStart, &b.WindowEnd,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create inserta la caja y sus líneas en una misma transacción.
func (r *BoxRepo) Create(ctx context.Context, box *entity.Box) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create box: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO boxes (store_id, nombre, descripcion, precio_normal, precio_descuento, stock,
			fecha_vencimiento, is_flash, horario_inicio, horario_fin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, fecha_creacion`
	err = tx.QueryRow(ctx, query,
		box.StoreID, box.Name, box.Description, box.NormalPrice, box.DiscountPrice, box.Stock,
		box.ExpiresAt, box.IsFlash, box.WindowStart, box.WindowEnd,
	).Scan(&box.ID, &box.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: stock o precio inválido", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert box: %w", err)
	}

	for _, l := range box.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO box_products (box_id, product_id, cantidad, fecha_consumo)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (box_id, product_id) DO UPDATE SET cantidad = box_products.cantidad + EXCLUDED.cantidad`,
			box.ID, l.ProductID, l.Quantity, l.ConsumeUntil,
		)
		if err != nil {
			return fmt.Errorf("insert box product %d: %w", l.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create box: %w", err)
	}
	return nil
}

// GetByID obtiene la caja sin líneas.
func (r *BoxRepo) GetByID(ctx context.Context, id int64) (*entity.Box, error) {
	var b entity.Box
	err := scanBox(r.q.QueryRow(ctx, `SELECT `+boxColumns+` FROM boxes b WHERE b.id = $1`, id), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get box: %w", err)
	}
	return &b, nil
}

// GetDetail obtiene la caja con datos de tienda y líneas.
func (r *BoxRepo) GetDetail(ctx context.Context, id int64) (*repository.BoxListing, error) {
	query := `SELECT ` + boxColumns + `, COALESCE(s.nombre, ''), COALESCE(s.direccion, '')
		FROM boxes b LEFT JOIN stores s ON s.id = b.store_id
		WHERE b.id = $1`
	var l repository.BoxListing
	err := scanBox(r.q.QueryRow(ctx, query, id), &l.Box, &l.StoreName, &l.StoreAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get box detail: %w", err)
	}
	lines, err := r.Lines(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Box.Lines = lines
	return &l, nil
}

// ListPublic cajas visibles para clientes: con stock y no vencidas.
func (r *BoxRepo) ListPublic(ctx context.Context, now time.Time) ([]repository.BoxListing, error) {
	query := `SELECT ` + boxColumns + `, COALESCE(s.nombre, ''), COALESCE(s.direccion, '')
		FROM boxes b LEFT JOIN stores s ON s.id = b.store_id
		WHERE b.stock > 0 AND (b.fecha_vencimiento IS NULL OR b.fecha_vencimiento >= $1)
		ORDER BY b.fecha_creacion DESC, b.id DESC`
	return r.listWithLines(ctx, query, now)
}

// ListByStore todas las cajas de una tienda, incluidas las agotadas o vencidas.
func (r *BoxRepo) ListByStore(ctx context.Context, storeID int64) ([]repository.BoxListing, error) {
	query := `SELECT ` + boxColumns + `, COALESCE(s.nombre, ''), COALESCE(s.direccion, '')
		FROM boxes b LEFT JOIN stores s ON s.id = b.store_id
		WHERE b.store_id = $1
		ORDER BY b.fecha_creacion DESC, b.id DESC`
	return r.listWithLines(ctx, query, storeID)
}

func (r *BoxRepo) listWithLines(ctx context.Context, query string, arg any) ([]repository.BoxListing, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	defer rows.Close()

	list := make([]repository.BoxListing, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var l repository.BoxListing
		if err := scanBox(rows, &l.Box, &l.StoreName, &l.StoreAddress); err != nil {
			return nil, fmt.Errorf("scan box: %w", err)
		}
		l.Box.Lines = []entity.BoxLine{}
		index[l.Box.ID] = len(list)
		ids = append(ids, l.Box.ID)
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return list, nil
	}
	lineRows, err := r.q.Query(ctx, linesQuery+` WHERE bp.box_id = ANY($1) ORDER BY bp.box_id, bp.product_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list box products: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var boxID int64
		var line entity.BoxLine
		if err := scanLine(lineRows, &line, &boxID); err != nil {
			return nil, err
		}
		if i, ok := index[boxID]; ok {
			list[i].Box.Lines = append(list[i].Box.Lines, line)
		}
	}
	return list, lineRows.Err()
}

const linesQuery = `
		SELECT bp.product_id, p.nombre, p.precio, bp.cantidad, p.foto, bp.fecha_consumo, bp.box_id
		FROM box_products bp
		JOIN products p ON p.id = bp.product_id`

func scanLine(row pgx.Row, l *entity.BoxLine, boxID *int64) error {
	if err := row.Scan(&l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity, &l.PhotoPath, &l.ConsumeUntil, boxID); err != nil {
		return fmt.Errorf("scan box product: %w", err)
	}
	return nil
}

// Lines productos de una caja con su precio actual.
func (r *BoxRepo) Lines(ctx context.Context, boxID int64) ([]entity.BoxLine, error) {
	rows, err := r.q.Query(ctx, linesQuery+` WHERE bp.box_id = $1 ORDER BY bp.product_id`, boxID)
	if err != nil {
		return nil, fmt.Errorf("box products: %w", err)
	}
	defer rows.Close()
	lines := make([]entity.BoxLine, 0)
	for rows.Next() {
		var l entity.BoxLine
		var id int64
		if err := scanLine(rows, &l, &id); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SetNormalPrice persiste el precio normal solo si todavía no tenía uno.
func (r *BoxRepo) SetNormalPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE boxes SET precio_normal = $2 WHERE id = $1 AND precio_normal IS NULL`, id, price)
	if err != nil {
		return fmt.Errorf("set precio_normal: %w", err)
	}
	return nil
}

// DecrementStock descuenta una unidad de forma condicional; la fila queda bloqueada hasta el fin de la tx.
func (r *BoxRepo) DecrementStock(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE boxes SET stock = stock - 1 WHERE id = $1 AND stock > 0`, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementStock devuelve una unidad al stock.
func (r *BoxRepo) IncrementStock(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE boxes SET stock = stock + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
