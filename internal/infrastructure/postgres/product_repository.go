package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (store_id, nombre, precio, stock, foto)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	if err := r.q.QueryRow(ctx, query, p.StoreID, p.Name, p.Price, p.Stock, p.PhotoPath).
		Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// ListByStore lista los productos de una tienda, más recientes primero.
func (r *ProductRepo) ListByStore(ctx context.Context, storeID int64) ([]*entity.Product, error) {
	query := `
		SELECT id, store_id, nombre, precio, stock, foto, created_at
		FROM products WHERE store_id = $1 ORDER BY id DESC`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Stock, &p.PhotoPath, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// PricesForStore precios actuales de los productos pedidos que pertenecen a la tienda.
func (r *ProductRepo) PricesForStore(ctx context.Context, storeID int64, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT id, precio FROM products WHERE store_id = $1 AND id = ANY($2)`, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("product prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		out[id] = price
	}
	return out, rows.Err()
}
