package barter

import (
	"context"

	"github.com/google/uuid"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// TradeRepository defines the interface for trade persistence
type TradeRepository interface {
	// FindByID finds a trade by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// FindForParty finds trades where the given party is proposer or counterpart
	FindForParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]Trade, error)

	// CountForParty counts trades where the given party is proposer or counterpart
	CountForParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) (int64, error)

	// Save inserts a new trade
	Save(ctx context.Context, trade *Trade) error

	// SaveWithLock updates a trade with optimistic locking (version check).
	// A stale version fails with CONCURRENCY_CONFLICT so the caller
	// re-fetches state instead of blindly retrying.
	SaveWithLock(ctx context.Context, trade *Trade) error

	// SetDeliveryConfirmation records one party's delivery acknowledgement as
	// an atomic single-column update guarded by the shipping status, so two
	// near-simultaneous confirmations cannot clobber each other. It returns
	// the refreshed trade; confirming twice is a no-op.
	SetDeliveryConfirmation(ctx context.Context, tradeID, partyID uuid.UUID) (*Trade, error)

	// CompleteTransition atomically wins the accepted-to-completed transition
	// for a dual-confirmed trade. It reports false without error when another
	// caller has already completed the trade, and CONCURRENCY_CONFLICT when
	// the stored status is stale in any other way.
	CompleteTransition(ctx context.Context, trade *Trade) (bool, error)
}
