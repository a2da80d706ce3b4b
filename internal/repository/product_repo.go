package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/dto"
	"scalepos/internal/model"
)

// ProductRepository is the data access contract for the catalog. Services
// depend on this interface, not on the concrete GORM implementation, enabling
// clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// DecrementStockGuarded atomically decrements committed stock inside a
	// commit transaction, guarded so it can never go negative. ok is false
	// when the guard fails (insufficient stock) — the commit-time race lost.
	// On success newQty is the post-decrement quantity from the same UPDATE,
	// so ledger rows derived from it cannot go stale between read and write.
	DecrementStockGuarded(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) (newQty decimal.Decimal, ok bool, err error)

	// IncrementStockTx restocks inside a refund/void transaction and returns
	// the post-increment quantity.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error)

	// SetStockTx is the direct, permission-gated stock write inside the
	// adjustment transaction; it skips reservation logic.
	SetStockTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) error

	// ListBelowMinStock feeds the low-stock alert worker.
	ListBelowMinStock(ctx context.Context) ([]model.Product, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND active = true", barcode).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}
	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.UnitType != "" {
		q = q.Where("unit_type = ?", filter.UnitType)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", false).Error
}

func (r *productRepo) DecrementStockGuarded(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	// Conditional UPDATE is the single serialization point: two commits racing
	// on the same product serialize on the row lock, and the loser's guard
	// (stock_quantity >= qty) fails instead of driving stock negative.
	// RETURNING gives the post-decrement quantity from the same statement, so
	// the caller's ledger rows reflect exactly what this commit applied.
	var out struct{ StockQuantity decimal.Decimal }
	res := tx.Raw(
		`UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = now()
		 WHERE id = ? AND stock_quantity >= ?
		 RETURNING stock_quantity`,
		qty, id, qty,
	).Scan(&out)
	if res.Error != nil {
		return decimal.Zero, false, res.Error
	}
	return out.StockQuantity, res.RowsAffected == 1, nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	var out struct{ StockQuantity decimal.Decimal }
	res := tx.Raw(
		`UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = now()
		 WHERE id = ?
		 RETURNING stock_quantity`,
		qty, id,
	).Scan(&out)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return out.StockQuantity, nil
}

func (r *productRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND active = true", id).
		Update("stock_quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}

func (r *productRepo) ListBelowMinStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = true AND stock_quantity <= min_stock").
		Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
