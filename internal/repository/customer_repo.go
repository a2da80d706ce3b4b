package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/model"
)

// CustomerRepository is the customer ledger collaborator: credit balances are
// read before settlement and written (with movement records) inside the commit
// transaction.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, name string) ([]model.Customer, error)
	Update(ctx context.Context, c *model.Customer) error

	// UpdateCreditsTx writes both balance components inside a transaction.
	UpdateCreditsTx(tx *gorm.DB, id uuid.UUID, adminCredits, orderCredits decimal.Decimal) error

	// CreateMovementTx appends an immutable credit ledger entry.
	CreateMovementTx(tx *gorm.DB, m *model.CreditMovement) error

	ListMovements(ctx context.Context, customerID uuid.UUID) ([]model.CreditMovement, error)

	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, name string) ([]model.Customer, error) {
	var customers []model.Customer
	q := r.db.WithContext(ctx).Where("active = true")
	if name != "" {
		q = q.Where("name ILIKE ?", "%"+name+"%")
	}
	err := q.Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *customerRepo) UpdateCreditsTx(tx *gorm.DB, id uuid.UUID, adminCredits, orderCredits decimal.Decimal) error {
	return tx.Model(&model.Customer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"admin_credits": adminCredits,
		"order_credits": orderCredits,
	}).Error
}

func (r *customerRepo) CreateMovementTx(tx *gorm.DB, m *model.CreditMovement) error {
	return tx.Create(m).Error
}

func (r *customerRepo) ListMovements(ctx context.Context, customerID uuid.UUID) ([]model.CreditMovement, error) {
	var movements []model.CreditMovement
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").Find(&movements).Error
	return movements, err
}

func (r *customerRepo) DB() *gorm.DB { return r.db }
