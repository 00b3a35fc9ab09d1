// Package memory implementa los repositorios sobre un estado en memoria protegido por un mutex.
// Las transacciones son serializables: TxRunner toma el mutex durante todo el callback
// y restaura una copia del estado si el callback falla.
package memory

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

type stockKey struct {
	productID string
	branchID  string
}

type state struct {
	branches      map[string]entity.Branch
	products      map[string]entity.Product
	customers     map[string]entity.Customer
	stock         map[stockKey]entity.StockRecord
	movements     []entity.MovementRecord
	sales         map[string]entity.Sale
	saleOrder     []string
	saleSeq       int64
	notifications []entity.Notification
}

func newState() *state {
	return &state{
		branches:  make(map[string]entity.Branch),
		products:  make(map[string]entity.Product),
		customers: make(map[string]entity.Customer),
		stock:     make(map[stockKey]entity.StockRecord),
		sales:     make(map[string]entity.Sale),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.branches {
		c.branches[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	c.movements = append([]entity.MovementRecord(nil), s.movements...)
	for k, v := range s.sales {
		v.Items = append([]entity.SaleItem(nil), v.Items...)
		c.sales[k] = v
	}
	c.saleOrder = append([]string(nil), s.saleOrder...)
	c.saleSeq = s.saleSeq
	c.notifications = append([]entity.Notification(nil), s.notifications...)
	return c
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu    sync.Mutex
	st    *state
	clock func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState(), clock: time.Now}
}

// WithClock reemplaza el reloj usado para created_at y last_updated.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.clock = now
	return s
}

// AddBranch registra una sucursal.
func (s *Store) AddBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.branches[b.ID] = b
}

// AddProduct registra un producto.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// AddCustomer registra un cliente.
func (s *Store) AddCustomer(c entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.customers[c.ID] = c
}

// SetStock fija una fila de stock sin pasar por el ledger (datos iniciales).
func (s *Store) SetStock(rec entity.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = s.clock()
	}
	s.st.stock[stockKey{rec.ProductID, rec.BranchID}] = rec
}

// Movements copia del ledger completo en orden de inserción.
func (s *Store) Movements() []entity.MovementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.MovementRecord(nil), s.st.movements...)
}

// Quantity existencia actual; false si la fila no existe.
func (s *Store) Quantity(productID, branchID string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.stock[stockKey{productID, branchID}]
	return rec.CurrentQuantity, ok
}

// SaleCount número de ventas guardadas.
func (s *Store) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.sales)
}

// base acceso al estado. Los repos de una tx no toman el mutex: ya lo tiene TxRunner.
type base struct {
	s  *Store
	tx bool
}

func (b base) with(fn func(st *state)) {
	if !b.tx {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	fn(b.s.st)
}
