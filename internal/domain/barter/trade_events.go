package barter

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTrade = "Trade"

// Event type constants
const (
	EventTypeTradeProposed          = "TradeProposed"
	EventTypeTradeQuantitiesRevised = "TradeQuantitiesRevised"
	EventTypeTradeAccepted          = "TradeAccepted"
	EventTypeTradeRejected          = "TradeRejected"
	EventTypeTradeCancelled         = "TradeCancelled"
	EventTypeTradeShippingUpdated   = "TradeShippingUpdated"
	EventTypeTradeDeliveryConfirmed = "TradeDeliveryConfirmed"
	EventTypeTradeCompleted         = "TradeCompleted"
)

// TradeLineInfo carries one side of a trade in event payloads
type TradeLineInfo struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func lineInfo(l TradeLine) TradeLineInfo {
	return TradeLineInfo{
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
	}
}

// TradeProposedEvent is raised when a new trade proposal is created
type TradeProposedEvent struct {
	shared.BaseDomainEvent
	TradeID       uuid.UUID     `json:"trade_id"`
	ProposerID    uuid.UUID     `json:"proposer_id"`
	CounterpartID uuid.UUID     `json:"counterpart_id"`
	Offered       TradeLineInfo `json:"offered"`
	Requested     TradeLineInfo `json:"requested"`
}

// NewTradeProposedEvent creates a new TradeProposedEvent
func NewTradeProposedEvent(trade *Trade) *TradeProposedEvent {
	return &TradeProposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeProposed, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		ProposerID:      trade.ProposerID,
		CounterpartID:   trade.CounterpartID,
		Offered:         lineInfo(trade.Offered),
		Requested:       lineInfo(trade.Requested),
	}
}

// TradeQuantitiesRevisedEvent is raised when the proposer revises quantities
type TradeQuantitiesRevisedEvent struct {
	shared.BaseDomainEvent
	TradeID   uuid.UUID     `json:"trade_id"`
	Offered   TradeLineInfo `json:"offered"`
	Requested TradeLineInfo `json:"requested"`
}

// NewTradeQuantitiesRevisedEvent creates a new TradeQuantitiesRevisedEvent
func NewTradeQuantitiesRevisedEvent(trade *Trade) *TradeQuantitiesRevisedEvent {
	return &TradeQuantitiesRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeQuantitiesRevised, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		Offered:         lineInfo(trade.Offered),
		Requested:       lineInfo(trade.Requested),
	}
}

// TradeAcceptedEvent is raised when the counterpart accepts the trade
type TradeAcceptedEvent struct {
	shared.BaseDomainEvent
	TradeID       uuid.UUID `json:"trade_id"`
	ProposerID    uuid.UUID `json:"proposer_id"`
	CounterpartID uuid.UUID `json:"counterpart_id"`
}

// NewTradeAcceptedEvent creates a new TradeAcceptedEvent
func NewTradeAcceptedEvent(trade *Trade) *TradeAcceptedEvent {
	return &TradeAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeAccepted, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		ProposerID:      trade.ProposerID,
		CounterpartID:   trade.CounterpartID,
	}
}

// TradeRejectedEvent is raised when the counterpart rejects the trade
type TradeRejectedEvent struct {
	shared.BaseDomainEvent
	TradeID uuid.UUID `json:"trade_id"`
	Reason  string    `json:"reason"`
}

// NewTradeRejectedEvent creates a new TradeRejectedEvent
func NewTradeRejectedEvent(trade *Trade) *TradeRejectedEvent {
	return &TradeRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeRejected, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		Reason:          trade.RejectReason,
	}
}

// TradeCancelledEvent is raised when the proposer withdraws the trade
type TradeCancelledEvent struct {
	shared.BaseDomainEvent
	TradeID uuid.UUID `json:"trade_id"`
	Reason  string    `json:"reason"`
}

// NewTradeCancelledEvent creates a new TradeCancelledEvent
func NewTradeCancelledEvent(trade *Trade) *TradeCancelledEvent {
	return &TradeCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeCancelled, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		Reason:          trade.CancelReason,
	}
}

// TradeShippingUpdatedEvent is raised on every shipping sub-state change
type TradeShippingUpdatedEvent struct {
	shared.BaseDomainEvent
	TradeID        uuid.UUID      `json:"trade_id"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	Courier        string         `json:"courier,omitempty"`
}

// NewTradeShippingUpdatedEvent creates a new TradeShippingUpdatedEvent
func NewTradeShippingUpdatedEvent(trade *Trade) *TradeShippingUpdatedEvent {
	return &TradeShippingUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeShippingUpdated, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		ShippingStatus:  trade.ShippingStatus,
		TrackingNumber:  trade.TrackingNumber,
		Courier:         trade.Courier,
	}
}

// TradeDeliveryConfirmedEvent is raised when a party acknowledges receipt
type TradeDeliveryConfirmedEvent struct {
	shared.BaseDomainEvent
	TradeID       uuid.UUID `json:"trade_id"`
	PartyID       uuid.UUID `json:"party_id"`
	BothConfirmed bool      `json:"both_confirmed"`
}

// NewTradeDeliveryConfirmedEvent creates a new TradeDeliveryConfirmedEvent
func NewTradeDeliveryConfirmedEvent(trade *Trade, partyID uuid.UUID) *TradeDeliveryConfirmedEvent {
	return &TradeDeliveryConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeDeliveryConfirmed, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		PartyID:         partyID,
		BothConfirmed:   trade.BothConfirmed(),
	}
}

// TradeCompletedEvent is raised after the trade has been finalized and
// inventory has been materialized
type TradeCompletedEvent struct {
	shared.BaseDomainEvent
	TradeID       uuid.UUID     `json:"trade_id"`
	ProposerID    uuid.UUID     `json:"proposer_id"`
	CounterpartID uuid.UUID     `json:"counterpart_id"`
	Offered       TradeLineInfo `json:"offered"`
	Requested     TradeLineInfo `json:"requested"`
}

// NewTradeCompletedEvent creates a new TradeCompletedEvent
func NewTradeCompletedEvent(trade *Trade) *TradeCompletedEvent {
	return &TradeCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeCompleted, AggregateTypeTrade, trade.ID),
		TradeID:         trade.ID,
		ProposerID:      trade.ProposerID,
		CounterpartID:   trade.CounterpartID,
		Offered:         lineInfo(trade.Offered),
		Requested:       lineInfo(trade.Requested),
	}
}
