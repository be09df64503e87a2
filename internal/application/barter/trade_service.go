package barter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/inventory"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// TradeService handles barter trade business operations. Every operation
// takes the caller's identity explicitly; authorization against the trade's
// parties happens here and in the domain, never in transport middleware.
type TradeService struct {
	tradeRepo      barter.TradeRepository
	inventoryRepo  inventory.InventoryRecordRepository
	settlement     *SettlementService
	eventPublisher shared.EventPublisher
}

// NewTradeService creates a new TradeService
func NewTradeService(
	tradeRepo barter.TradeRepository,
	inventoryRepo inventory.InventoryRecordRepository,
	settlement *SettlementService,
) *TradeService {
	return &TradeService{
		tradeRepo:     tradeRepo,
		inventoryRepo: inventoryRepo,
		settlement:    settlement,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TradeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Propose initiates a new barter trade. The caller must own the offered
// product with sufficient stock, the counterpart must own the requested
// product with sufficient stock, and unit prices are snapshotted from both
// inventory records at this moment.
func (s *TradeService) Propose(ctx context.Context, callerID uuid.UUID, req ProposeTradeRequest) (*TradeResponse, error) {
	if callerID == req.CounterpartID {
		return nil, shared.ErrSelfTrade
	}

	offeredRecord, err := s.ownedRecordWithStock(ctx, callerID, req.OfferedProductID, req.OfferedQuantity)
	if err != nil {
		return nil, err
	}
	requestedRecord, err := s.counterpartRecordWithStock(ctx, req.CounterpartID, req.RequestedProductID, req.RequestedQuantity)
	if err != nil {
		return nil, err
	}

	offered := barter.TradeLine{
		ProductID: req.OfferedProductID,
		Quantity:  req.OfferedQuantity,
		UnitPrice: offeredRecord.UnitPrice,
	}
	requested := barter.TradeLine{
		ProductID: req.RequestedProductID,
		Quantity:  req.RequestedQuantity,
		UnitPrice: requestedRecord.UnitPrice,
	}

	trade, err := barter.NewTrade(callerID, req.CounterpartID, offered, requested)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		trade.SetNotes(req.Notes)
	}

	if err := s.tradeRepo.Save(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// GetByID retrieves a trade. Only the two parties may view it.
func (s *TradeService) GetByID(ctx context.Context, callerID, tradeID uuid.UUID) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(callerID) {
		return nil, shared.ErrForbidden
	}

	response := ToTradeResponse(trade)
	return &response, nil
}

// Update revises the quantities of a pending trade. Only the proposer may
// revise, and both revised quantities are re-validated against live stock.
func (s *TradeService) Update(ctx context.Context, callerID uuid.UUID, req UpdateTradeRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	if err := trade.UpdateQuantities(callerID, req.OfferedQuantity, req.RequestedQuantity); err != nil {
		return nil, err
	}

	if _, err := s.ownedRecordWithStock(ctx, trade.ProposerID, trade.Offered.ProductID, req.OfferedQuantity); err != nil {
		return nil, err
	}
	if _, err := s.counterpartRecordWithStock(ctx, trade.CounterpartID, trade.Requested.ProductID, req.RequestedQuantity); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// Accept transitions a pending trade to accepted. Only the counterpart may
// accept, and both sides' stock is re-checked at acceptance time so a trade
// that can no longer be honored is not locked in.
func (s *TradeService) Accept(ctx context.Context, callerID uuid.UUID, req AcceptTradeRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	if err := trade.Accept(callerID); err != nil {
		return nil, err
	}

	if _, err := s.ownedRecordWithStock(ctx, trade.ProposerID, trade.Offered.ProductID, trade.Offered.Quantity); err != nil {
		return nil, err
	}
	if _, err := s.counterpartRecordWithStock(ctx, trade.CounterpartID, trade.Requested.ProductID, trade.Requested.Quantity); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// Reject transitions a pending trade to rejected with a required reason
func (s *TradeService) Reject(ctx context.Context, callerID uuid.UUID, req RejectTradeRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	if err := trade.Reject(callerID, req.Reason); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// Cancel withdraws a pending trade. Only the proposer may cancel.
func (s *TradeService) Cancel(ctx context.Context, callerID uuid.UUID, req CancelTradeRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	if err := trade.Cancel(callerID, req.Reason); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// UpdateShipping advances the shipping sub-state of an accepted trade
func (s *TradeService) UpdateShipping(ctx context.Context, callerID uuid.UUID, req UpdateShippingRequest) (*TradeResponse, error) {
	target, err := barter.ParseShippingStatus(req.Status)
	if err != nil {
		return nil, err
	}

	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	if err := trade.UpdateShipping(callerID, target, req.TrackingNumber, req.Courier, req.Notes); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.SaveWithLock(ctx, trade); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	response := ToTradeResponse(trade)
	return &response, nil
}

// ConfirmDelivery records the caller's delivery acknowledgement. The write
// is an atomic per-party update, so two near-simultaneous confirmations both
// land. Whichever confirmation makes the trade dual-confirmed triggers
// settlement; the settlement itself decides a single winner.
func (s *TradeService) ConfirmDelivery(ctx context.Context, callerID uuid.UUID, req ConfirmDeliveryRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}

	// Domain validation against the loaded state; the repeated-confirm
	// no-op also short-circuits here.
	if err := trade.ConfirmDelivery(callerID); err != nil {
		return nil, err
	}

	refreshed, err := s.tradeRepo.SetDeliveryConfirmation(ctx, req.TradeID, callerID)
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, trade)

	if refreshed.BothConfirmed() && refreshed.IsAccepted() {
		return s.settlement.Materialize(ctx, refreshed.ID)
	}

	response := ToTradeResponse(refreshed)
	return &response, nil
}

// Complete explicitly settles a dual-confirmed trade. Either party may
// trigger it; it is an alternative entry point to the same settlement the
// second delivery confirmation performs.
func (s *TradeService) Complete(ctx context.Context, callerID uuid.UUID, req CompleteTradeRequest) (*TradeResponse, error) {
	trade, err := s.tradeRepo.FindByID(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(callerID) {
		return nil, shared.ErrForbidden
	}

	return s.settlement.Materialize(ctx, req.TradeID)
}

// ListForParty retrieves the caller's trades, optionally filtered by status
func (s *TradeService) ListForParty(ctx context.Context, callerID uuid.UUID, filter TradeListFilter) ([]TradeResponse, int64, error) {
	domainFilter := buildFilter(filter)
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}

	trades, err := s.tradeRepo.FindForParty(ctx, callerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tradeRepo.CountForParty(ctx, callerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTradeResponses(trades), total, nil
}

// ListLogistics retrieves the caller's accepted trades with their shipping
// progress: the in-flight exchanges a party is tracking.
func (s *TradeService) ListLogistics(ctx context.Context, callerID uuid.UUID, filter TradeListFilter) ([]TradeResponse, int64, error) {
	status := barter.TradeStatusAccepted
	filter.Status = &status
	return s.ListForParty(ctx, callerID, filter)
}

// ListCompleted retrieves the caller's completed trades
func (s *TradeService) ListCompleted(ctx context.Context, callerID uuid.UUID, filter TradeListFilter) ([]TradeResponse, int64, error) {
	status := barter.TradeStatusCompleted
	filter.Status = &status
	return s.ListForParty(ctx, callerID, filter)
}

// ListReceivedProducts retrieves the stock the caller acquired through
// completed trades, with provenance.
func (s *TradeService) ListReceivedProducts(ctx context.Context, callerID uuid.UUID, filter TradeListFilter) ([]ReceivedProductResponse, error) {
	records, err := s.inventoryRepo.FindTradedByOwner(ctx, callerID, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToReceivedProductResponses(records), nil
}

// ownedRecordWithStock loads the caller's inventory record for a product and
// checks it covers the quantity. A missing record is an ownership failure.
func (s *TradeService) ownedRecordWithStock(ctx context.Context, ownerID, productID uuid.UUID, quantity decimal.Decimal) (*inventory.InventoryRecord, error) {
	record, err := s.inventoryRepo.FindByOwnerAndProduct(ctx, ownerID, productID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
			return nil, shared.ErrOwnership
		}
		return nil, err
	}
	if !record.HasStock(quantity) {
		return nil, shared.NewDomainError("QUANTITY_OUT_OF_RANGE",
			fmt.Sprintf("Requested quantity %s exceeds available stock %s", quantity, record.Stock))
	}
	return record, nil
}

// counterpartRecordWithStock loads the other party's inventory record for a
// product and checks it covers the quantity, with errors worded for the
// counterpart side so a proposer can tell which half of the trade failed.
func (s *TradeService) counterpartRecordWithStock(ctx context.Context, ownerID, productID uuid.UUID, quantity decimal.Decimal) (*inventory.InventoryRecord, error) {
	record, err := s.inventoryRepo.FindByOwnerAndProduct(ctx, ownerID, productID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
			return nil, shared.NewDomainError("OWNERSHIP", "Counterpart does not list the requested product")
		}
		return nil, err
	}
	if !record.HasStock(quantity) {
		return nil, shared.NewDomainError("QUANTITY_OUT_OF_RANGE",
			fmt.Sprintf("Requested quantity %s exceeds the counterpart's stock %s", quantity, record.Stock))
	}
	return record, nil
}

func (s *TradeService) publishEvents(ctx context.Context, trade *barter.Trade) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range trade.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			// Event delivery is best-effort notification.
		}
	}
	trade.ClearDomainEvents()
}

func buildFilter(filter TradeListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	return domainFilter
}
