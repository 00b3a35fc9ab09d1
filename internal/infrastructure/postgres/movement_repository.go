package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos sobre PostgreSQL (usable con pool o tx). Solo inserta.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento; created_at lo asigna la base (clock_timestamp()).
func (r *MovementRepo) Append(ctx context.Context, m *entity.MovementRecord) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, branch_id, movement_type, quantity_change,
			previous_qty, new_qty, reference_id, reference_type, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.BranchID, string(m.Type), m.QuantityChange,
		m.PreviousQty, m.NewQty, m.ReferenceID, string(m.ReferenceType), m.Notes, m.CreatedBy,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// List movimientos por created_at desc, id desc. Los filtros vacíos no aplican.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementView, error) {
	query := `
		SELECT m.id, m.product_id, m.branch_id, m.movement_type, m.quantity_change, m.previous_qty,
		       m.new_qty, COALESCE(m.reference_id, ''), COALESCE(m.reference_type, ''), m.notes,
		       m.created_by, m.created_at, p.name, p.sku, b.name
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		JOIN branches b ON b.id = m.branch_id
		WHERE ($1 = '' OR m.branch_id::text = $1)
		  AND ($2 = '' OR m.product_id::text = $2)
		  AND ($3::timestamptz IS NULL OR m.created_at >= $3)
		  AND ($4::timestamptz IS NULL OR m.created_at < $4)
		  AND ($5::timestamptz IS NULL OR (m.created_at, m.id::text) < ($5, $6))
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT NULLIF($7, 0)`
	rows, err := r.q.Query(ctx, query,
		f.BranchID, f.ProductID, f.From, f.To, f.BeforeCreatedAt, f.BeforeID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.MovementView, 0)
	for rows.Next() {
		var v entity.MovementView
		var typ, refType string
		if err := rows.Scan(&v.ID, &v.ProductID, &v.BranchID, &typ, &v.QuantityChange, &v.PreviousQty,
			&v.NewQty, &v.ReferenceID, &refType, &v.Notes, &v.CreatedBy, &v.CreatedAt,
			&v.ProductName, &v.ProductSKU, &v.BranchName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		v.Type = entity.MovementType(typ)
		v.ReferenceType = entity.ReferenceType(refType)
		list = append(list, &v)
	}
	return list, rows.Err()
}

// SoldSince unidades vendidas (movimientos SALE) por producto desde since.
func (r *MovementRepo) SoldSince(ctx context.Context, branchID string, since time.Time) (map[string]decimal.Decimal, error) {
	query := `
		SELECT product_id, COALESCE(SUM(-quantity_change), 0)
		FROM stock_movements
		WHERE movement_type = 'SALE'
		  AND created_at >= $2
		  AND ($1 = '' OR branch_id::text = $1)
		GROUP BY product_id`
	rows, err := r.q.Query(ctx, query, branchID, since)
	if err != nil {
		return nil, fmt.Errorf("units sold: %w", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var productID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan units sold: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}
