package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TransferStock mueve cantidad de una sucursal a otra en una sola transacción.
// Genera exactamente dos movimientos (TRANSFER_OUT y TRANSFER_IN) con el mismo transfer id.
func (uc *StockUseCase) TransferStock(ctx context.Context, userID string, in dto.TransferStockRequest) (out *dto.TransferResponse, err error) {
	defer func(start time.Time) { uc.metrics.ObserveOperation("transfer", start, err) }(time.Now())

	if in.FromBranchID == in.ToBranchID {
		return nil, domain.ErrSameBranchTransfer
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que 0", domain.ErrInvalidQuantity)
	}
	if err := entity.CheckQuantityScale(in.Quantity); err != nil {
		return nil, err
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}
	from, err := uc.branchRepo.GetByID(ctx, in.FromBranchID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%w: sucursal origen %s", domain.ErrNotFound, in.FromBranchID)
	}
	to, err := uc.branchRepo.GetByID(ctx, in.ToBranchID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%w: sucursal destino %s", domain.ErrNotFound, in.ToBranchID)
	}

	outNotes, inNotes := in.Notes, in.Notes
	if in.Notes == "" {
		outNotes = "Transferred to " + to.Name
		inNotes = "Transferred from " + from.Name
	}
	ref := entity.Reference{Type: entity.RefTransfer, ID: uuid.New().String()}

	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.ProductRepository,
	) error {
		source, err := stockRepo.GetForUpdate(ctx, in.ProductID, in.FromBranchID)
		if err != nil {
			if errors.Is(err, domain.ErrStockNotFound) {
				return fmt.Errorf("%w: producto %s en sucursal %s", domain.ErrSourceStockNotFound, in.ProductID, in.FromBranchID)
			}
			return err
		}
		if source.CurrentQuantity.LessThan(in.Quantity) {
			return fmt.Errorf("%w: disponible %s, solicitado %s",
				domain.ErrInsufficientStock, source.CurrentQuantity, in.Quantity)
		}

		outMov, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, MovementSpec{
			ProductID: in.ProductID,
			BranchID:  in.FromBranchID,
			Delta:     in.Quantity.Neg(),
			Type:      entity.MovementTransferOut,
			Ref:       ref,
			Notes:     outNotes,
			CreatedBy: userID,
		})
		if err != nil {
			return err
		}
		inMov, err := uc.recorder.RecordInTx(ctx, stockRepo, movRepo, MovementSpec{
			ProductID:     in.ProductID,
			BranchID:      in.ToBranchID,
			Delta:         in.Quantity,
			AllowNegative: true,
			Type:          entity.MovementTransferIn,
			Ref:           ref,
			Notes:         inNotes,
			CreatedBy:     userID,
		})
		if err != nil {
			return err
		}

		out = &dto.TransferResponse{
			TransferID: ref.ID,
			FromBranch: dto.BranchQty{BranchID: in.FromBranchID, NewQty: outMov.NewQty},
			ToBranch:   dto.BranchQty{BranchID: in.ToBranchID, NewQty: inMov.NewQty},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.alerter.CheckLowStock(ctx, in.FromBranchID, []string{in.ProductID})
	return out, nil
}
