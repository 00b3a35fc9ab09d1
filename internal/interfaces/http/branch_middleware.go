package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/jwt"
)

// branchChecker es el contrato mínimo que necesita el middleware para verificar la sucursal.
// Lo implementa cualquier repository.BranchRepository.
type branchChecker interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
}

// RequireBranch verifica que la sucursal del token exista y esté activa.
// Debe usarse DESPUÉS de AuthMiddleware. ADMIN y SUPER_ADMIN pasan sin sucursal.
//
// Comportamiento:
//   - 403 Forbidden  → token sin sucursal, sucursal inexistente o inactiva.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB.
func RequireBranch(checker branchChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jwt.IsAdminRole(GetRole(c)) {
			return c.Next()
		}
		branchID := GetBranchID(c)
		if branchID == "" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "BRANCH_REQUIRED",
				Message: "el token no tiene sucursal asignada",
			})
		}

		branch, err := checker.GetByID(c.UserContext(), branchID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "BRANCH_CHECK_FAILED",
				Message: "no se pudo verificar la sucursal, intente más tarde",
			})
		}
		if branch == nil || !branch.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "BRANCH_INACTIVE",
				Message: "la sucursal del token no está activa",
			})
		}
		return c.Next()
	}
}

// canUseBranch los administradores operan en cualquier sucursal; el resto sólo en la propia.
func canUseBranch(c *fiber.Ctx, branchID string) bool {
	return jwt.IsAdminRole(GetRole(c)) || branchID == GetBranchID(c)
}
