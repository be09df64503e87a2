package persistence

import (
	"context"

	apporder "github.com/swapmarket/backend/internal/application/order"
	"github.com/swapmarket/backend/internal/domain/inventory"
	"github.com/swapmarket/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormFulfillmentTransactionScope executes order fulfillment work inside a
// single database transaction shared by the order and inventory repositories.
type GormFulfillmentTransactionScope struct {
	db *gorm.DB
}

// NewGormFulfillmentTransactionScope creates a new GormFulfillmentTransactionScope
func NewGormFulfillmentTransactionScope(db *gorm.DB) *GormFulfillmentTransactionScope {
	return &GormFulfillmentTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormFulfillmentTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&fulfillmentTransactionalRepositories{
			orderRepo:     NewGormOrderRepository(tx),
			inventoryRepo: NewGormInventoryRecordRepository(tx),
		})
	})
}

type fulfillmentTransactionalRepositories struct {
	orderRepo     order.OrderRepository
	inventoryRepo inventory.InventoryRecordRepository
}

func (r *fulfillmentTransactionalRepositories) OrderRepo() order.OrderRepository {
	return r.orderRepo
}

func (r *fulfillmentTransactionalRepositories) InventoryRepo() inventory.InventoryRecordRepository {
	return r.inventoryRepo
}

// Ensure interface compliance
var _ apporder.TransactionScope = (*GormFulfillmentTransactionScope)(nil)
