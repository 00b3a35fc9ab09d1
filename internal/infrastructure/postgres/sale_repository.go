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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// NextSaleNumber toma nextval de sale_number_seq. El valor no se reutiliza aunque la tx haga rollback.
func (r *SaleRepo) NextSaleNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('sale_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next sale number: %w", err)
	}
	return entity.FormatSaleNumber(seq), nil
}

// Create inserta cabecera e ítems. Debe correr dentro de una tx para que sea atómico.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, sale_number, branch_id, customer_id, subtotal, total_amount,
			payment_method, payment_status, status, original_sale_id, created_by, sale_date)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, NULLIF($10, '')::uuid, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.SaleNumber, s.BranchID, s.CustomerID, s.Subtotal, s.TotalAmount,
		string(s.PaymentMethod), s.PaymentStatus, string(s.Status), s.OriginalSaleID, s.CreatedBy, s.SaleDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: venta %s", domain.ErrDuplicate, s.SaleNumber)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (id, sale_id, position, product_id, quantity, unit_price, line_total,
			item_type, ref_sale_item_id, tax_rate, discount_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11)`
	for _, it := range s.Items {
		_, err := r.q.Exec(ctx, itemQuery,
			it.ID, s.ID, it.Position, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal,
			string(it.ItemType), it.RefSaleItemID, it.TaxRate, it.DiscountRate,
		)
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", it.Position, err)
		}
	}
	return nil
}

const saleColumns = `
	id, sale_number, branch_id, COALESCE(customer_id::text, ''), subtotal, total_amount, payment_method,
	payment_status, status, COALESCE(original_sale_id::text, ''), created_by, sale_date`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var method, status string
	if err := row.Scan(&s.ID, &s.SaleNumber, &s.BranchID, &s.CustomerID, &s.Subtotal, &s.TotalAmount,
		&method, &s.PaymentStatus, &status, &s.OriginalSaleID, &s.CreatedBy, &s.SaleDate); err != nil {
		return nil, err
	}
	s.PaymentMethod = entity.PaymentMethod(method)
	s.Status = entity.SaleStatus(status)
	return &s, nil
}

// GetByID obtiene la venta con sus ítems; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	items, err := r.items(ctx, `WHERE si.sale_id = $1 ORDER BY si.position`, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return s, nil
}

// List ventas por sale_date desc; los ítems se cargan en una segunda consulta.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + `
		FROM sales
		WHERE ($1 = '' OR branch_id::text = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR sale_date >= $3)
		  AND ($4::timestamptz IS NULL OR sale_date < $4)
		ORDER BY sale_date DESC
		LIMIT NULLIF($5, 0)`
	rows, err := r.q.Query(ctx, query, f.BranchID, string(f.Status), f.From, f.To, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	var list []*entity.Sale
	byID := make(map[string]*entity.Sale)
	ids := make([]string, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Sale{}, nil
	}

	items, err := r.items(ctx, `WHERE si.sale_id::text = ANY($1) ORDER BY si.sale_id, si.position`, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return list, nil
}

// ReturnedQuantities bloquea la venta original (serializa devoluciones concurrentes dentro de la tx)
// y suma las líneas RETURN de las ventas derivadas.
func (r *SaleRepo) ReturnedQuantities(ctx context.Context, originalSaleID string) (map[string]decimal.Decimal, error) {
	if _, err := r.q.Exec(ctx, `SELECT 1 FROM sales WHERE id = $1 FOR UPDATE`, originalSaleID); err != nil {
		return nil, fmt.Errorf("lock original sale: %w", err)
	}
	query := `
		SELECT si.product_id, SUM(ABS(si.quantity))
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.original_sale_id = $1 AND si.item_type = 'RETURN'
		GROUP BY si.product_id`
	rows, err := r.q.Query(ctx, query, originalSaleID)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var productID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

// LatestItems primeras limit líneas de la venta más reciente de la sucursal.
func (r *SaleRepo) LatestItems(ctx context.Context, branchID string, limit int) ([]entity.SaleItem, error) {
	return r.items(ctx, `
		WHERE si.sale_id = (
			SELECT id FROM sales WHERE ($1 = '' OR branch_id::text = $1)
			ORDER BY sale_date DESC LIMIT 1)
		ORDER BY si.position
		LIMIT $2`, branchID, limit)
}

func (r *SaleRepo) items(ctx context.Context, where string, args ...any) ([]entity.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.position, si.product_id, p.name, si.quantity, si.unit_price,
		       si.line_total, si.item_type, COALESCE(si.ref_sale_item_id::text, ''), si.tax_rate, si.discount_rate
		FROM sale_items si
		JOIN products p ON p.id = si.product_id ` + where
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	list := make([]entity.SaleItem, 0)
	for rows.Next() {
		var it entity.SaleItem
		var typ string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.Position, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.LineTotal, &typ, &it.RefSaleItemID, &it.TaxRate, &it.DiscountRate); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		it.ItemType = entity.SaleItemType(typ)
		list = append(list, it)
	}
	return list, rows.Err()
}
