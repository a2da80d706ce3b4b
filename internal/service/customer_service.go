package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/repository"
)

// CustomerService is the customer ledger surface: balances are read before
// settlement; admin credit grants are the only manual balance write.
type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
	List(ctx context.Context, name string) ([]dto.CustomerResponse, error)

	// GrantCredit adds admin credit (a liability, cleared first at settlement).
	GrantCredit(ctx context.Context, id uuid.UUID, req dto.GrantCreditRequest) (*dto.CustomerResponse, error)

	ListMovements(ctx context.Context, id uuid.UUID) ([]dto.CreditMovementResponse, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	c := &model.Customer{
		Name:   req.Name,
		Phone:  req.Phone,
		Active: true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return customerToResponse(c), nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("customer %s not found", id)
	}
	return customerToResponse(c), nil
}

func (s *customerService) List(ctx context.Context, name string) ([]dto.CustomerResponse, error) {
	customers, err := s.repo.List(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, *customerToResponse(&customers[i]))
	}
	return out, nil
}

func (s *customerService) GrantCredit(ctx context.Context, id uuid.UUID, req dto.GrantCreditRequest) (*dto.CustomerResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("grant amount must be positive")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("customer %s not found", id)
	}

	newAdmin := c.AdminCredits.Add(req.Amount)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateCreditsTx(tx, c.ID, newAdmin, c.OrderCredits); err != nil {
			return err
		}
		return s.repo.CreateMovementTx(tx, &model.CreditMovement{
			CustomerID: c.ID,
			Kind:       "admin_grant",
			Amount:     req.Amount,
			Reason:     req.Reason,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	c.AdminCredits = newAdmin
	return customerToResponse(c), nil
}

func (s *customerService) ListMovements(ctx context.Context, id uuid.UUID) ([]dto.CreditMovementResponse, error) {
	movements, err := s.repo.ListMovements(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CreditMovementResponse, 0, len(movements))
	for _, m := range movements {
		var oid *string
		if m.OrderID != nil {
			v := m.OrderID.String()
			oid = &v
		}
		out = append(out, dto.CreditMovementResponse{
			ID:        m.ID.String(),
			Kind:      m.Kind,
			Amount:    m.Amount,
			Reason:    m.Reason,
			OrderID:   oid,
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}

func customerToResponse(c *model.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Phone:        c.Phone,
		AdminCredits: c.AdminCredits,
		OrderCredits: c.OrderCredits,
		Balance:      c.Balance(),
	}
}
