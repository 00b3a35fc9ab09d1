package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

// MovementType tipo de movimiento del ledger de stock.
type MovementType string

const (
	MovementPurchase    MovementType = "PURCHASE"
	MovementSale        MovementType = "SALE"
	MovementReturn      MovementType = "RETURN"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementAdjustment  MovementType = "ADJUSTMENT"
	MovementDamage      MovementType = "DAMAGE"
)

// ReferenceType identifica el evento de negocio que originó un movimiento (conjunto cerrado).
type ReferenceType string

const (
	RefNone       ReferenceType = ""
	RefSale       ReferenceType = "sale"
	RefReturn     ReferenceType = "return"
	RefExchange   ReferenceType = "exchange"
	RefTransfer   ReferenceType = "transfer"
	RefAdjustment ReferenceType = "adjustment"
	RefRemoval    ReferenceType = "removal"
	RefPurchase   ReferenceType = "purchase"
)

// allowedRefs referencias válidas por tipo de movimiento.
var allowedRefs = map[MovementType][]ReferenceType{
	MovementPurchase:    {RefPurchase, RefNone},
	MovementSale:        {RefSale, RefExchange},
	MovementReturn:      {RefReturn},
	MovementTransferOut: {RefTransfer},
	MovementTransferIn:  {RefTransfer},
	MovementAdjustment:  {RefAdjustment},
	MovementDamage:      {RefAdjustment, RefRemoval},
}

// MovementRecord es un cambio de stock auditado e inmutable.
type MovementRecord struct {
	ID             string
	ProductID      string
	BranchID       string
	Type           MovementType
	QuantityChange decimal.Decimal // negativo = salida
	PreviousQty    decimal.Decimal
	NewQty         decimal.Decimal
	ReferenceID    string
	ReferenceType  ReferenceType
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
}

// NewMovement arma un movimiento a partir del resultado de ApplyDelta.
func NewMovement(productID, branchID string, typ MovementType, d StockDelta, ref Reference, notes, createdBy string) *MovementRecord {
	return &MovementRecord{
		ProductID:      productID,
		BranchID:       branchID,
		Type:           typ,
		QuantityChange: d.Change(),
		PreviousQty:    d.PreviousQty,
		NewQty:         d.NewQty,
		ReferenceID:    ref.ID,
		ReferenceType:  ref.Type,
		Notes:          notes,
		CreatedBy:      createdBy,
	}
}

// Reference par (tipo, id) del evento que causa el movimiento.
type Reference struct {
	Type ReferenceType
	ID   string
}

// Validate comprueba la aritmética del movimiento y que la referencia corresponda al tipo.
func (m *MovementRecord) Validate() error {
	if m.ProductID == "" || m.BranchID == "" {
		return fmt.Errorf("%w: movimiento sin producto o sucursal", domain.ErrInvalidInput)
	}
	if !m.PreviousQty.Add(m.QuantityChange).Equal(m.NewQty) {
		return fmt.Errorf("%w: previous %s + change %s != new %s",
			domain.ErrInvalidInput, m.PreviousQty, m.QuantityChange, m.NewQty)
	}
	return ValidReference(m.Type, m.ReferenceType)
}

// ValidReference comprueba que refType sea una referencia admitida para el tipo de movimiento.
func ValidReference(typ MovementType, refType ReferenceType) error {
	refs, ok := allowedRefs[typ]
	if !ok {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, typ)
	}
	for _, r := range refs {
		if r == refType {
			return nil
		}
	}
	return fmt.Errorf("%w: referencia %q no válida para %s", domain.ErrInvalidInput, refType, typ)
}

// MovementView movimiento con nombres de producto y sucursal (consultas).
type MovementView struct {
	MovementRecord
	ProductName string
	ProductSKU  string
	BranchName  string
}
