package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/policy"
	"scalepos/internal/repository"
)

// StockService is the stock ledger: committed quantities live on the product
// row; open drafts reserve virtually, and Remaining derives the advisory
// "sellable now" view on demand. No quantity is locked until commit — the
// commit transaction's guarded decrement is the single serialization point.
type StockService interface {
	// Remaining = committed − Σ reservations across open drafts. Pass
	// excludingDraft to exclude a draft's own reservation (edits must not be
	// blocked by the quantity they are replacing); uuid.Nil excludes nothing.
	Remaining(ctx context.Context, productID uuid.UUID, excludingDraft uuid.UUID) (*dto.RemainingResponse, error)

	// AdjustStock is the direct gated write; it bypasses reservation logic.
	AdjustStock(ctx context.Context, perms policy.PermissionSet, productID uuid.UUID, req dto.AdjustStockRequest) error

	// ListMovements exposes the immutable stock ledger for one product.
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.StockMovementResponse, error)
}

type stockService struct {
	productRepo  repository.ProductRepository
	draftRepo    repository.DraftRepository
	movementRepo repository.StockMovementRepository
}

func NewStockService(
	productRepo repository.ProductRepository,
	draftRepo repository.DraftRepository,
	movementRepo repository.StockMovementRepository,
) StockService {
	return &stockService{productRepo: productRepo, draftRepo: draftRepo, movementRepo: movementRepo}
}

// ── Remaining ─────────────────────────────────────────────────────────────────
// Lock-free and advisory: consistent relative to the drafts known at query
// time. The race between "check remaining" and "commit" is closed at commit,
// not here.

func (s *stockService) Remaining(ctx context.Context, productID uuid.UUID, excludingDraft uuid.UUID) (*dto.RemainingResponse, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", productID)
	}

	reserved, err := s.reservedFor(ctx, productID, excludingDraft)
	if err != nil {
		return nil, err
	}

	return &dto.RemainingResponse{
		ProductID: productID.String(),
		Committed: p.StockQuantity,
		Reserved:  reserved,
		Remaining: p.StockQuantity.Sub(reserved),
	}, nil
}

func (s *stockService) reservedFor(ctx context.Context, productID uuid.UUID, excludingDraft uuid.UUID) (decimal.Decimal, error) {
	drafts, err := s.draftRepo.ListOpen(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	reserved := decimal.Zero
	for i := range drafts {
		if drafts[i].ID == excludingDraft {
			continue
		}
		reserved = reserved.Add(drafts[i].ReservedFor(productID))
	}
	return reserved, nil
}

// ── AdjustStock ───────────────────────────────────────────────────────────────

func (s *stockService) AdjustStock(ctx context.Context, perms policy.PermissionSet, productID uuid.UUID, req dto.AdjustStockRequest) error {
	if err := policy.AuthorizeUpdateStock(perms); err != nil {
		return err
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("product %s not found", productID)
	}
	before := p.StockQuantity

	return runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		// The stock write and its ledger row share the transaction: a failed
		// movement insert rolls the write back, never leaving an unledgered
		// quantity change.
		if err := s.productRepo.SetStockTx(tx, productID, req.NewQuantity); err != nil {
			return err
		}
		return s.movementRepo.CreateTx(tx, &model.StockMovement{
			ProductID:   productID,
			Kind:        "manual_adjust",
			Quantity:    req.NewQuantity.Sub(before),
			StockBefore: before,
			StockAfter:  req.NewQuantity,
			Reason:      req.Reason,
		})
	})
}

func (s *stockService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	movements, err := s.movementRepo.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}
