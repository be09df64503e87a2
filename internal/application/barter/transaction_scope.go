package barter

import (
	"context"

	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories that
// participate in trade settlement. When a function is executed within a
// transaction scope, all repository operations are part of the same database
// transaction and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the trade and inventory
// repositories within a transaction. Both share the same underlying
// database transaction, so the accepted-to-completed status transition and
// the four stock movements of a settlement commit or roll back together.
type TransactionalRepositories interface {
	// TradeRepo returns the trade repository scoped to the current transaction
	TradeRepo() barter.TradeRepository
	// InventoryRepo returns the inventory repository scoped to the current transaction
	InventoryRepo() inventory.InventoryRecordRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests against repositories that are themselves
// atomic, or when transaction support is not required.
type NoOpTransactionScope struct {
	tradeRepo     barter.TradeRepository
	inventoryRepo inventory.InventoryRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	tradeRepo barter.TradeRepository,
	inventoryRepo inventory.InventoryRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		tradeRepo:     tradeRepo,
		inventoryRepo: inventoryRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TradeRepo returns the trade repository.
func (s *NoOpTransactionScope) TradeRepo() barter.TradeRepository {
	return s.tradeRepo
}

// InventoryRepo returns the inventory repository.
func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRecordRepository {
	return s.inventoryRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
