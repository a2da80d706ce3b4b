package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scalepos/internal/model"
)

type RefundRepository interface {
	Create(ctx context.Context, tx *gorm.DB, rf *model.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Refund, error)
	NextRefundNumber(ctx context.Context, tx *gorm.DB) (int, error)
}

type refundRepo struct{ db *gorm.DB }

func NewRefundRepository(db *gorm.DB) RefundRepository { return &refundRepo{db: db} }

func (r *refundRepo) Create(ctx context.Context, tx *gorm.DB, rf *model.Refund) error {
	return tx.WithContext(ctx).Create(rf).Error
}

func (r *refundRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	var rf model.Refund
	err := r.db.WithContext(ctx).Preload("Items").First(&rf, id).Error
	return &rf, err
}

func (r *refundRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Refund, error) {
	var refunds []model.Refund
	err := r.db.WithContext(ctx).Preload("Items").
		Where("order_id = ?", orderID).Order("created_at ASC").Find(&refunds).Error
	return refunds, err
}

func (r *refundRepo) NextRefundNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('refunds_refund_number_seq')").Scan(&num).Error
	return num, err
}
