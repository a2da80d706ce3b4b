package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scalepos/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the engine's tables, then applies the idempotent DDL patches that
// AutoMigrate cannot express. Decimal columns carry explicit precision in the
// model tags (12,3 for stock/weights, 12,2 for currency).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Customer{},
		&model.CreditMovement{},
		&model.User{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderPayment{},
		&model.Refund{},
		&model.RefundItem{},
		&model.StockMovement{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// schemaPatches holds DDL that AutoMigrate does not emit. Order and refund
// numbers are drawn with nextval() inside the commit transaction, so their
// sequences must exist before the first commit. Every statement is
// idempotent; re-running on an already-patched schema is a no-op.
var schemaPatches = []string{
	`CREATE SEQUENCE IF NOT EXISTS orders_order_number_seq OWNED BY orders.order_number`,
	`CREATE SEQUENCE IF NOT EXISTS refunds_refund_number_seq OWNED BY refunds.refund_number`,
}

func applySchemaPatches(db *gorm.DB) error {
	for _, stmt := range schemaPatches {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%q: %w", stmt, err)
		}
	}
	return nil
}
