package persistence

import (
	"context"

	appbarter "github.com/swapmarket/backend/internal/application/barter"
	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormSettlementTransactionScope executes trade settlement work inside a
// single database transaction shared by the trade and inventory repositories.
type GormSettlementTransactionScope struct {
	db *gorm.DB
}

// NewGormSettlementTransactionScope creates a new GormSettlementTransactionScope
func NewGormSettlementTransactionScope(db *gorm.DB) *GormSettlementTransactionScope {
	return &GormSettlementTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormSettlementTransactionScope) Execute(ctx context.Context, fn func(repos appbarter.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&settlementTransactionalRepositories{
			tradeRepo:     NewGormTradeRepository(tx),
			inventoryRepo: NewGormInventoryRecordRepository(tx),
		})
	})
}

type settlementTransactionalRepositories struct {
	tradeRepo     barter.TradeRepository
	inventoryRepo inventory.InventoryRecordRepository
}

func (r *settlementTransactionalRepositories) TradeRepo() barter.TradeRepository {
	return r.tradeRepo
}

func (r *settlementTransactionalRepositories) InventoryRepo() inventory.InventoryRecordRepository {
	return r.inventoryRepo
}

// Ensure interface compliance
var _ appbarter.TransactionScope = (*GormSettlementTransactionScope)(nil)
