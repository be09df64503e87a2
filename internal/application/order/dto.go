package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/order"
)

// ==================== Order Requests ====================

// CreateOrderRequest represents a buyer placing a monetary order
type CreateOrderRequest struct {
	SellerID uuid.UUID              `json:"seller_id" binding:"required"`
	Items    []CreateOrderLineInput `json:"items" binding:"required,min=1"`
}

// CreateOrderLineInput represents one line of a new order
type CreateOrderLineInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// ConfirmOrRejectRequest represents a seller's whole-order decision
type ConfirmOrRejectRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	Confirmed bool      `json:"confirmed"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// LineDecisionInput represents a seller's per-line fulfillment decision.
// Quantity is how much of the line the seller will fulfill; a confirmed line
// ends up with min(quantity, live stock).
type LineDecisionInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Confirmed bool            `json:"confirmed"`
}

// ProcessPartialRequest represents a seller's partial fulfillment decision
type ProcessPartialRequest struct {
	OrderID        uuid.UUID           `json:"order_id" binding:"required"`
	IdempotencyKey string              `json:"idempotency_key" binding:"max=100"`
	Items          []LineDecisionInput `json:"items" binding:"required,min=1"`
}

// OrderListFilter represents filter options for order list views
type OrderListFilter struct {
	Status   *order.OrderStatus `form:"status"`
	Page     int                `form:"page" binding:"omitempty,min=1"`
	PageSize int                `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Order Responses ====================

// OrderLineResponse represents a line item in API responses
type OrderLineResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	OrderedQty   decimal.Decimal `json:"ordered_qty"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ConfirmedQty decimal.Decimal `json:"confirmed_qty"`
	Confirmed    bool            `json:"confirmed"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	BuyerID      uuid.UUID           `json:"buyer_id"`
	SellerID     uuid.UUID           `json:"seller_id"`
	Items        []OrderLineResponse `json:"items"`
	Status       string              `json:"status"`
	Total        decimal.Decimal     `json:"total"`
	RejectReason string              `json:"reject_reason,omitempty"`
	ConfirmedAt  *time.Time          `json:"confirmed_at,omitempty"`
	RejectedAt   *time.Time          `json:"rejected_at,omitempty"`
	FulfilledAt  *time.Time          `json:"fulfilled_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Version      int                 `json:"version"`
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderLineResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderLineResponse{
			ProductID:    item.ProductID,
			OrderedQty:   item.OrderedQty,
			CurrentStock: item.CurrentStock,
			ConfirmedQty: item.ConfirmedQty,
			Confirmed:    item.Confirmed,
			UnitPrice:    item.UnitPrice,
			Amount:       item.ConfirmedAmount(),
		})
	}

	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		BuyerID:      o.BuyerID,
		SellerID:     o.SellerID,
		Items:        items,
		Status:       o.Status.String(),
		Total:        o.Total,
		RejectReason: o.RejectReason,
		ConfirmedAt:  o.ConfirmedAt,
		RejectedAt:   o.RejectedAt,
		FulfilledAt:  o.FulfilledAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

// ToOrderResponses converts a slice of domain orders to response DTOs
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, ToOrderResponse(o))
	}
	return responses
}
