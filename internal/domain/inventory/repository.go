package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// InventoryRecordRepository defines the interface for inventory persistence
type InventoryRecordRepository interface {
	// FindByID finds an inventory record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByOwnerAndProduct finds the record for an owner-product combination
	FindByOwnerAndProduct(ctx context.Context, ownerID, productID uuid.UUID) (*InventoryRecord, error)

	// FindByOwner finds all records held by an owner
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]InventoryRecord, error)

	// FindTradedByOwner finds records the owner acquired through trades
	FindTradedByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]InventoryRecord, error)

	// Save creates or updates an inventory record
	Save(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *InventoryRecord) error

	// DecrementStock atomically removes stock from a record. The decrement is
	// guarded on the current stock level so concurrent trades or orders on the
	// same product cannot oversell; an insufficient level fails with
	// INSUFFICIENT_STOCK and no change.
	DecrementStock(ctx context.Context, recordID uuid.UUID, quantity decimal.Decimal) error

	// GrantFromTrade credits quantity of a product to a recipient, creating a
	// provenance-tagged record or incrementing the recipient's existing one.
	GrantFromTrade(ctx context.Context, ownerID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, tradeID uuid.UUID, acquiredAt time.Time) (*InventoryRecord, error)
}
