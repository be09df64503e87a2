package barter

import (
	"context"

	"github.com/google/uuid"
	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// SettlementService materializes the inventory effects of a dual-confirmed
// trade: it wins the accepted-to-completed transition, debits both givers,
// and credits both receivers inside a single transaction. Running it twice
// for the same trade is safe; the loser of the status transition observes
// the trade already completed and changes nothing.
type SettlementService struct {
	tradeRepo      barter.TradeRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(tradeRepo barter.TradeRepository, txScope TransactionScope) *SettlementService {
	return &SettlementService{
		tradeRepo: tradeRepo,
		txScope:   txScope,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Materialize settles a trade whose completion preconditions hold: both
// parties confirmed delivery on a shipped, accepted trade. Stock moves in
// both directions and the trade becomes COMPLETED atomically. It returns the
// settled trade, or the already-completed trade without error when another
// caller settled it first.
func (s *SettlementService) Materialize(ctx context.Context, tradeID uuid.UUID) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	if trade.IsCompleted() {
		response := ToTradeResponse(trade)
		return &response, nil
	}
	if err := trade.CanComplete(); err != nil {
		return nil, err
	}

	var settled bool
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		won, err := repos.TradeRepo().CompleteTransition(ctx, trade)
		if err != nil {
			return err
		}
		if !won {
			// Another caller completed the trade first; their transaction
			// carried the stock movements.
			return nil
		}
		settled = true

		invRepo := repos.InventoryRepo()

		// Debit each giver's side. A stock level that dropped below the
		// agreed quantity since acceptance rolls back the whole settlement.
		offeredGiver, err := invRepo.FindByOwnerAndProduct(ctx, trade.ProposerID, trade.Offered.ProductID)
		if err != nil {
			return err
		}
		if err := invRepo.DecrementStock(ctx, offeredGiver.ID, trade.Offered.Quantity); err != nil {
			return err
		}

		requestedGiver, err := invRepo.FindByOwnerAndProduct(ctx, trade.CounterpartID, trade.Requested.ProductID)
		if err != nil {
			return err
		}
		if err := invRepo.DecrementStock(ctx, requestedGiver.ID, trade.Requested.Quantity); err != nil {
			return err
		}

		// Credit each receiver with provenance pointing at this trade.
		completedAt := *trade.CompletedAt
		if _, err := invRepo.GrantFromTrade(ctx,
			trade.CounterpartID, trade.Offered.ProductID,
			trade.Offered.Quantity, trade.Offered.UnitPrice,
			trade.ID, completedAt); err != nil {
			return err
		}
		if _, err := invRepo.GrantFromTrade(ctx,
			trade.ProposerID, trade.Requested.ProductID,
			trade.Requested.Quantity, trade.Requested.UnitPrice,
			trade.ID, completedAt); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !settled {
		// Re-read the winner's final state.
		trade, err = s.tradeRepo.FindByID(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		response := ToTradeResponse(trade)
		return &response, nil
	}

	if s.eventPublisher != nil {
		events := trade.GetDomainEvents()
		for _, event := range events {
			if err := s.eventPublisher.Publish(ctx, event); err != nil {
				// Event delivery is best-effort; the settlement already committed.
			}
		}
		trade.ClearDomainEvents()
	}

	response := ToTradeResponse(trade)
	return &response, nil
}
