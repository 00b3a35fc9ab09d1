package entity

import "time"

// Branch representa una sucursal (punto de venta) que mantiene su propio stock.
type Branch struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
