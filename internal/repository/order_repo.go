package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	NextOrderNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// AddRefundedQuantityTx accumulates a returned quantity onto an order item.
	AddRefundedQuantityTx(tx *gorm.DB, itemID uuid.UUID, qty decimal.Decimal) error

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Payments").Preload("Customer").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) NextOrderNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// PostgreSQL sequence keeps order numbers atomic across concurrent commits
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('orders_order_number_seq')").Scan(&num).Error
	return num, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("Payments").Preload("Cashier").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) AddRefundedQuantityTx(tx *gorm.DB, itemID uuid.UUID, qty decimal.Decimal) error {
	return tx.Model(&model.OrderItem{}).Where("id = ?", itemID).
		Update("refunded_quantity", gorm.Expr("refunded_quantity + ?", qty)).Error
}
