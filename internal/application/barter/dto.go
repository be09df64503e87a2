package barter

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/inventory"
)

// ==================== Trade Requests ====================

// ProposeTradeRequest represents a request to initiate a barter trade
type ProposeTradeRequest struct {
	CounterpartID      uuid.UUID       `json:"counterpart_id" binding:"required"`
	OfferedProductID   uuid.UUID       `json:"offered_product_id" binding:"required"`
	OfferedQuantity    decimal.Decimal `json:"offered_quantity" binding:"required"`
	RequestedProductID uuid.UUID       `json:"requested_product_id" binding:"required"`
	RequestedQuantity  decimal.Decimal `json:"requested_quantity" binding:"required"`
	Notes              string          `json:"notes" binding:"max=500"`
}

// UpdateTradeRequest represents a proposer's revision of trade quantities
type UpdateTradeRequest struct {
	TradeID           uuid.UUID       `json:"trade_id" binding:"required"`
	OfferedQuantity   decimal.Decimal `json:"offered_quantity" binding:"required"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity" binding:"required"`
}

// AcceptTradeRequest represents a counterpart's acceptance of a trade
type AcceptTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id" binding:"required"`
}

// RejectTradeRequest represents a counterpart's rejection of a trade
type RejectTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id" binding:"required"`
	Reason  string    `json:"reason" binding:"required,min=1,max=500"`
}

// CancelTradeRequest represents a proposer's withdrawal of a pending trade
type CancelTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id" binding:"required"`
	Reason  string    `json:"reason" binding:"max=500"`
}

// UpdateShippingRequest represents a shipping progress update on an accepted trade
type UpdateShippingRequest struct {
	TradeID        uuid.UUID `json:"trade_id" binding:"required"`
	Status         string    `json:"status" binding:"required"`
	TrackingNumber string    `json:"tracking_number" binding:"max=100"`
	Courier        string    `json:"courier" binding:"max=100"`
	Notes          string    `json:"notes" binding:"max=500"`
}

// ConfirmDeliveryRequest represents a party's delivery acknowledgement
type ConfirmDeliveryRequest struct {
	TradeID uuid.UUID `json:"trade_id" binding:"required"`
}

// CompleteTradeRequest represents an explicit completion trigger
type CompleteTradeRequest struct {
	TradeID uuid.UUID `json:"trade_id" binding:"required"`
}

// TradeListFilter represents filter options for trade list views
type TradeListFilter struct {
	Status   *barter.TradeStatus `form:"status"`
	Page     int                 `form:"page" binding:"omitempty,min=1"`
	PageSize int                 `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string              `form:"order_by"`
	OrderDir string              `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Trade Responses ====================

// TradeLineResponse represents one side of a trade in API responses
type TradeLineResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// FairnessResponse represents the advisory fairness assessment of a trade
type FairnessResponse struct {
	OfferedValue   decimal.Decimal `json:"offered_value"`
	RequestedValue decimal.Decimal `json:"requested_value"`
	Ratio          decimal.Decimal `json:"ratio"`
	Class          string          `json:"class"`
}

// TradeResponse represents a trade in API responses
type TradeResponse struct {
	ID                   uuid.UUID         `json:"id"`
	ProposerID           uuid.UUID         `json:"proposer_id"`
	CounterpartID        uuid.UUID         `json:"counterpart_id"`
	Offered              TradeLineResponse `json:"offered"`
	Requested            TradeLineResponse `json:"requested"`
	Status               string            `json:"status"`
	ShippingStatus       string            `json:"shipping_status"`
	TrackingNumber       string            `json:"tracking_number,omitempty"`
	Courier              string            `json:"courier,omitempty"`
	ShippingNotes        string            `json:"shipping_notes,omitempty"`
	ProposerConfirmed    bool              `json:"proposer_confirmed"`
	CounterpartConfirmed bool              `json:"counterpart_confirmed"`
	Fairness             FairnessResponse  `json:"fairness"`
	AcceptedAt           *time.Time        `json:"accepted_at,omitempty"`
	RejectedAt           *time.Time        `json:"rejected_at,omitempty"`
	CancelledAt          *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	RejectReason         string            `json:"reject_reason,omitempty"`
	CancelReason         string            `json:"cancel_reason,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	Version              int               `json:"version"`
}

// ReceivedProductResponse represents stock acquired through a completed trade
type ReceivedProductResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Stock         decimal.Decimal `json:"stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginTradeID *uuid.UUID      `json:"origin_trade_id,omitempty"`
	AcquiredAt    *time.Time      `json:"acquired_at,omitempty"`
}

// ToTradeLineResponse converts a domain trade line to a response DTO
func ToTradeLineResponse(line barter.TradeLine) TradeLineResponse {
	return TradeLineResponse{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Value:     line.Value(),
	}
}

// ToFairnessResponse converts a domain fairness assessment to a response DTO
func ToFairnessResponse(f barter.Fairness) FairnessResponse {
	return FairnessResponse{
		OfferedValue:   f.OfferedValue,
		RequestedValue: f.RequestedValue,
		Ratio:          f.Ratio,
		Class:          string(f.Class),
	}
}

// ToTradeResponse converts a domain trade to a response DTO.
// The fairness ratio is recomputed from the stored snapshot on every read.
func ToTradeResponse(t *barter.Trade) TradeResponse {
	return TradeResponse{
		ID:                   t.ID,
		ProposerID:           t.ProposerID,
		CounterpartID:        t.CounterpartID,
		Offered:              ToTradeLineResponse(t.Offered),
		Requested:            ToTradeLineResponse(t.Requested),
		Status:               t.Status.String(),
		ShippingStatus:       t.ShippingStatus.String(),
		TrackingNumber:       t.TrackingNumber,
		Courier:              t.Courier,
		ShippingNotes:        t.ShippingNotes,
		ProposerConfirmed:    t.ProposerConfirmed,
		CounterpartConfirmed: t.CounterpartConfirmed,
		Fairness:             ToFairnessResponse(t.Fairness()),
		AcceptedAt:           t.AcceptedAt,
		RejectedAt:           t.RejectedAt,
		CancelledAt:          t.CancelledAt,
		CompletedAt:          t.CompletedAt,
		RejectReason:         t.RejectReason,
		CancelReason:         t.CancelReason,
		Notes:                t.Notes,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Version:              t.Version,
	}
}

// ToTradeResponses converts a slice of domain trades to response DTOs
func ToTradeResponses(trades []barter.Trade) []TradeResponse {
	responses := make([]TradeResponse, 0, len(trades))
	for i := range trades {
		responses = append(responses, ToTradeResponse(&trades[i]))
	}
	return responses
}

// ToReceivedProductResponses converts traded inventory records to response DTOs
func ToReceivedProductResponses(records []inventory.InventoryRecord) []ReceivedProductResponse {
	responses := make([]ReceivedProductResponse, 0, len(records))
	for i := range records {
		r := &records[i]
		responses = append(responses, ReceivedProductResponse{
			ProductID:     r.ProductID,
			Stock:         r.Stock,
			UnitPrice:     r.UnitPrice,
			OriginTradeID: r.OriginTradeID,
			AcquiredAt:    r.AcquiredAt,
		})
	}
	return responses
}
