package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// OrderRepository defines the persistence port for order aggregates
type OrderRepository interface {
	// FindByID retrieves an order with its line items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber retrieves an order by its human-readable number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindBySeller retrieves orders addressed to a seller, newest first
	FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]*Order, error)

	// FindByBuyer retrieves orders placed by a buyer, newest first
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*Order, error)

	// Save persists an order and its line items
	Save(ctx context.Context, o *Order) error

	// SaveWithLock persists an order with an optimistic version check.
	// A stale version fails with CONCURRENCY_CONFLICT and no change.
	SaveWithLock(ctx context.Context, o *Order) error
}
