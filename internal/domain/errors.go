package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El detalle se adjunta con fmt.Errorf("%w: ...", Err...) y se compara con errors.Is.
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidReference      = errors.New("referencia inválida")
	ErrEmptyCart             = errors.New("la venta no tiene ítems")
	ErrInvalidQuantity       = errors.New("cantidad inválida")
	ErrOriginalSaleNotFound  = errors.New("venta original no encontrada")
	ErrReturnExceedsOriginal = errors.New("la cantidad devuelta excede la vendida")
	ErrSameBranchTransfer    = errors.New("la sucursal de origen y destino son la misma")
	ErrStockNotFound         = errors.New("stock no encontrado")
	ErrSourceStockNotFound   = errors.New("stock de origen no encontrado")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
)
