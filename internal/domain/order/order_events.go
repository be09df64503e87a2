package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type name used in order events
const AggregateTypeOrder = "Order"

// Event type constants for the order aggregate
const (
	EventTypeOrderConfirmed          = "OrderConfirmed"
	EventTypeOrderRejected           = "OrderRejected"
	EventTypeOrderPartiallyFulfilled = "OrderPartiallyFulfilled"
)

// OrderLineDecisionInfo carries the per-line outcome of a fulfillment decision
type OrderLineDecisionInfo struct {
	ProductID    uuid.UUID       `json:"product_id"`
	OrderedQty   decimal.Decimal `json:"ordered_qty"`
	ConfirmedQty decimal.Decimal `json:"confirmed_qty"`
	Confirmed    bool            `json:"confirmed"`
}

func lineDecisions(o *Order) []OrderLineDecisionInfo {
	infos := make([]OrderLineDecisionInfo, 0, len(o.Items))
	for _, item := range o.Items {
		infos = append(infos, OrderLineDecisionInfo{
			ProductID:    item.ProductID,
			OrderedQty:   item.OrderedQty,
			ConfirmedQty: item.ConfirmedQty,
			Confirmed:    item.Confirmed,
		})
	}
	return infos
}

// OrderConfirmedEvent is published when a seller confirms an order in full
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string                  `json:"order_number"`
	BuyerID     uuid.UUID               `json:"buyer_id"`
	SellerID    uuid.UUID               `json:"seller_id"`
	Total       decimal.Decimal         `json:"total"`
	Lines       []OrderLineDecisionInfo `json:"lines"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent
func NewOrderConfirmedEvent(o *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderConfirmed, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		Total:           o.Total,
		Lines:           lineDecisions(o),
	}
}

// OrderRejectedEvent is published when a seller rejects an order
type OrderRejectedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Reason      string    `json:"reason"`
	RejectedAt  time.Time `json:"rejected_at"`
}

// NewOrderRejectedEvent creates a new OrderRejectedEvent
func NewOrderRejectedEvent(o *Order) *OrderRejectedEvent {
	rejectedAt := time.Now()
	if o.RejectedAt != nil {
		rejectedAt = *o.RejectedAt
	}
	return &OrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRejected, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		Reason:          o.RejectReason,
		RejectedAt:      rejectedAt,
	}
}

// OrderPartiallyFulfilledEvent is published when per-line decisions were
// applied to an order, whether or not every line ended fully confirmed
type OrderPartiallyFulfilledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string                  `json:"order_number"`
	BuyerID     uuid.UUID               `json:"buyer_id"`
	SellerID    uuid.UUID               `json:"seller_id"`
	Status      string                  `json:"status"`
	Total       decimal.Decimal         `json:"total"`
	Lines       []OrderLineDecisionInfo `json:"lines"`
}

// NewOrderPartiallyFulfilledEvent creates a new OrderPartiallyFulfilledEvent
func NewOrderPartiallyFulfilledEvent(o *Order) *OrderPartiallyFulfilledEvent {
	return &OrderPartiallyFulfilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPartiallyFulfilled, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		Status:          o.Status.String(),
		Total:           o.Total,
		Lines:           lineDecisions(o),
	}
}
