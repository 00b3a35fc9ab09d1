package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const (
	// applyDeltaGuarded resta sobre una fila existente; sin filas si no existe o quedaría negativa.
	applyDeltaGuarded = `
		UPDATE stock
		SET current_quantity = current_quantity + $3::numeric(14, 3), last_updated = now()
		WHERE product_id = $1 AND branch_id = $2 AND current_quantity + $3::numeric(14, 3) >= 0
		RETURNING current_quantity, $3::numeric(14, 3)`

	// applyDeltaUpsert crea la fila con los valores por defecto o suma sobre la existente.
	// Con $7 = false la suma sólo se aplica si el resultado no queda negativo.
	applyDeltaUpsert = `
		INSERT INTO stock (product_id, branch_id, current_quantity, minimum_quantity, maximum_quantity, reserved_quantity, last_updated)
		VALUES ($1, $2, $3::numeric(14, 3), $4, $5, $6, now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET current_quantity = stock.current_quantity + EXCLUDED.current_quantity, last_updated = now()
		WHERE $7::boolean OR stock.current_quantity + EXCLUDED.current_quantity >= 0
		RETURNING current_quantity, $3::numeric(14, 3)`
)

// ApplyDelta suma delta en una sola sentencia. previous = new - delta con ambos valores tal como
// los guardó la base (escala de la columna), así el movimiento cumple chk_movement_arithmetic.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID, branchID string, delta decimal.Decimal, allowNegative bool) (entity.StockDelta, error) {
	var newQty, applied decimal.Decimal
	var err error
	if !allowNegative && delta.IsNegative() {
		err = r.q.QueryRow(ctx, applyDeltaGuarded, productID, branchID, delta).Scan(&newQty, &applied)
	} else {
		err = r.q.QueryRow(ctx, applyDeltaUpsert, productID, branchID, delta,
			entity.DefaultMinimumQuantity, entity.DefaultMaximumQuantity, entity.DefaultReservedQuantity,
			allowNegative,
		).Scan(&newQty, &applied)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.StockDelta{}, domain.ErrInsufficientStock
	}
	if err != nil {
		return entity.StockDelta{}, fmt.Errorf("apply stock delta: %w", err)
	}
	return entity.StockDelta{PreviousQty: newQty.Sub(applied), NewQty: newQty}, nil
}

const stockColumns = `product_id, branch_id, current_quantity, minimum_quantity, maximum_quantity, reserved_quantity, last_updated`

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(&s.ProductID, &s.BranchID, &s.CurrentQuantity, &s.MinimumQuantity,
		&s.MaximumQuantity, &s.ReservedQuantity, &s.LastUpdated)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock actual; nil, nil si la fila no existe.
func (r *StockRepo) Get(ctx context.Context, productID, branchID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE product_id = $1 AND branch_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE product_id = $1 AND branch_id = $2 FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

const stockViewSelect = `
	SELECT s.product_id, s.branch_id, s.current_quantity, s.minimum_quantity, s.maximum_quantity,
	       s.reserved_quantity, s.last_updated, p.name, p.sku, p.cost, b.name
	FROM stock s
	JOIN products p ON p.id = s.product_id
	JOIN branches b ON b.id = s.branch_id`

func scanStockViews(rows pgx.Rows) ([]*entity.StockView, error) {
	defer rows.Close()
	list := make([]*entity.StockView, 0)
	for rows.Next() {
		var v entity.StockView
		if err := rows.Scan(&v.ProductID, &v.BranchID, &v.CurrentQuantity, &v.MinimumQuantity,
			&v.MaximumQuantity, &v.ReservedQuantity, &v.LastUpdated,
			&v.ProductName, &v.ProductSKU, &v.ProductCost, &v.BranchName); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// ListByBranch lista stock con búsqueda por nombre/SKU (ILIKE) ordenado por last_updated desc.
// Devuelve también el total sin paginar.
func (r *StockRepo) ListByBranch(ctx context.Context, f repository.StockFilter) ([]*entity.StockView, int, error) {
	where := `
	WHERE ($1 = '' OR s.branch_id::text = $1)
	  AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' OR p.sku ILIKE '%' || $2 || '%')`

	var total int
	countQuery := `SELECT COUNT(*) FROM stock s JOIN products p ON p.id = s.product_id` + where
	if err := r.q.QueryRow(ctx, countQuery, f.BranchID, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query := stockViewSelect + where + `
	ORDER BY s.last_updated DESC, s.product_id
	LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, f.BranchID, f.Search, limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock: %w", err)
	}
	list, err := scanStockViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAtOrBelowMinimum filas con current_quantity <= minimum_quantity.
func (r *StockRepo) ListAtOrBelowMinimum(ctx context.Context, branchID string) ([]*entity.StockView, error) {
	query := stockViewSelect + `
	WHERE ($1 = '' OR s.branch_id::text = $1)
	  AND s.current_quantity <= s.minimum_quantity
	ORDER BY s.product_id`
	rows, err := r.q.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("list stock below minimum: %w", err)
	}
	return scanStockViews(rows)
}
