package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// OrderStatus represents the fulfillment status of a monetary order
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "PENDING"
	OrderStatusConfirmed          OrderStatus = "CONFIRMED"
	OrderStatusRejected           OrderStatus = "REJECTED"
	OrderStatusPartiallyFulfilled OrderStatus = "PARTIALLY_FULFILLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusRejected, OrderStatusPartiallyFulfilled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that admit no further transition
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusPending
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	switch target {
	case OrderStatusConfirmed, OrderStatusRejected, OrderStatusPartiallyFulfilled:
		return true
	}
	return false
}

// ParseOrderStatus converts a raw string into an OrderStatus
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", raw))
	}
	return s, nil
}

// OrderLineItem represents one product line of an order
type OrderLineItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	OrderedQty   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ConfirmedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Confirmed    bool            `gorm:"not null;default:false"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// NewOrderLineItem creates a new order line item
func NewOrderLineItem(orderID, productID uuid.UUID, orderedQty, unitPrice decimal.Decimal) (*OrderLineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if orderedQty.LessThanOrEqual(decimal.Zero) || !orderedQty.IsInteger() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity must be a positive whole number")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderLineItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    productID,
		OrderedQty:   orderedQty,
		ConfirmedQty: decimal.Zero,
		UnitPrice:    unitPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ConfirmedAmount returns the monetary value of the confirmed quantity
func (i *OrderLineItem) ConfirmedAmount() decimal.Decimal {
	return i.UnitPrice.Mul(i.ConfirmedQty)
}

// FullyConfirmed reports whether the line was confirmed at full quantity
func (i *OrderLineItem) FullyConfirmed() bool {
	return i.Confirmed && i.ConfirmedQty.Equal(i.OrderedQty)
}

// decide applies a fulfillment decision with the seller's live stock level.
// A confirmed line gets min(requested, stock); an unconfirmed line gets zero.
func (i *OrderLineItem) decide(confirmed bool, requestedQty, availableStock decimal.Decimal) {
	i.CurrentStock = availableStock
	if !confirmed {
		i.Confirmed = false
		i.ConfirmedQty = decimal.Zero
	} else {
		i.Confirmed = true
		i.ConfirmedQty = decimal.Min(requestedQty, availableStock)
		if i.ConfirmedQty.IsNegative() {
			i.ConfirmedQty = decimal.Zero
		}
	}
	i.UpdatedAt = time.Now()
}

// PartialDecision is a seller's per-line fulfillment decision. Quantity is
// the quantity the seller is willing to fulfill, at most the ordered quantity.
type PartialDecision struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Confirmed bool
}

// Order represents a monetary order aggregate root. Unlike a barter trade it
// has a single direction: a buyer purchasing line items from a seller.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	BuyerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items       []OrderLineItem `gorm:"foreignKey:OrderID;references:ID"`
	Status      OrderStatus     `gorm:"type:varchar(30);not null;index"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	RejectReason string `gorm:"type:varchar(500)"`
	ConfirmedAt  *time.Time
	RejectedAt   *time.Time
	// FulfilledAt marks that stock decrements for this order's decision have
	// been applied; it is the idempotency guard against double application.
	FulfilledAt *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new pending order
func NewOrder(orderNumber string, buyerID, sellerID uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if buyerID == uuid.Nil || sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Buyer and seller must be set")
	}
	if buyerID == sellerID {
		return nil, shared.NewDomainError("INVALID_PARTY", "Buyer and seller must differ")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		Items:             make([]OrderLineItem, 0),
		Status:            OrderStatusPending,
		Total:             decimal.Zero,
	}, nil
}

// AddItem adds a line item to a pending order
func (o *Order) AddItem(productID uuid.UUID, orderedQty, unitPrice decimal.Decimal) (*OrderLineItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a processed order")
	}
	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	item, err := NewOrderLineItem(o.ID, productID, orderedQty, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.Total = o.orderedTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// Confirm accepts the whole order: every line is confirmed at full quantity.
// Stock sufficiency for every line is the application layer's concern and is
// checked in the same transaction as the decrements.
func (o *Order) Confirm() error {
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm an order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm an order without items")
	}

	now := time.Now()
	for idx := range o.Items {
		o.Items[idx].Confirmed = true
		o.Items[idx].ConfirmedQty = o.Items[idx].OrderedQty
		o.Items[idx].UpdatedAt = now
	}
	o.Status = OrderStatusConfirmed
	o.Total = o.confirmedTotal()
	o.ConfirmedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderConfirmedEvent(o))

	return nil
}

// Reject declines the whole order with no stock changes
func (o *Order) Reject(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject an order in %s status", o.Status))
	}

	now := time.Now()
	for idx := range o.Items {
		o.Items[idx].Confirmed = false
		o.Items[idx].ConfirmedQty = decimal.Zero
		o.Items[idx].UpdatedAt = now
	}
	o.Status = OrderStatusRejected
	o.RejectReason = reason
	o.RejectedAt = &now
	o.Total = decimal.Zero
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderRejectedEvent(o))

	return nil
}

// ApplyPartial applies per-line fulfillment decisions against the seller's
// live stock levels. A confirmed line gets min(decided quantity, stock),
// declined lines drop to zero, and the order total is recomputed from the
// confirmed lines only. The order ends CONFIRMED when every line was fully
// confirmed and PARTIALLY_FULFILLED otherwise.
func (o *Order) ApplyPartial(decisions []PartialDecision, stockByProduct map[uuid.UUID]decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot process an order in %s status", o.Status))
	}
	if len(decisions) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "At least one line decision is required")
	}

	decisionByProduct := make(map[uuid.UUID]PartialDecision, len(decisions))
	for _, d := range decisions {
		decisionByProduct[d.ProductID] = d
	}

	// Validate every confirmed decision before mutating any line.
	for idx := range o.Items {
		item := &o.Items[idx]
		decision, ok := decisionByProduct[item.ProductID]
		if !ok || !decision.Confirmed {
			continue
		}
		if decision.Quantity.LessThan(decimal.NewFromInt(1)) || !decision.Quantity.IsInteger() {
			return shared.NewDomainError("INVALID_QUANTITY", "Decided quantity must be a positive whole number")
		}
		if decision.Quantity.GreaterThan(item.OrderedQty) {
			return shared.NewDomainError("INVALID_QUANTITY", "Decided quantity cannot exceed the ordered quantity")
		}
	}

	allFull := true
	for idx := range o.Items {
		item := &o.Items[idx]
		decision, ok := decisionByProduct[item.ProductID]
		if !ok {
			// Lines without an explicit decision are declined.
			decision = PartialDecision{ProductID: item.ProductID, Confirmed: false}
		}
		item.decide(decision.Confirmed, decision.Quantity, stockByProduct[item.ProductID])
		if !item.FullyConfirmed() {
			allFull = false
		}
	}

	now := time.Now()
	if allFull {
		o.Status = OrderStatusConfirmed
		o.ConfirmedAt = &now
	} else {
		o.Status = OrderStatusPartiallyFulfilled
	}
	o.Total = o.confirmedTotal()
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPartiallyFulfilledEvent(o))

	return nil
}

// MarkFulfilled records that stock decrements for this order were applied
func (o *Order) MarkFulfilled(at time.Time) {
	o.FulfilledAt = &at
	o.UpdatedAt = at
}

// IsFulfilled reports whether stock decrements were already applied
func (o *Order) IsFulfilled() bool {
	return o.FulfilledAt != nil
}

// GetItemByProduct returns a line item by product ID
func (o *Order) GetItemByProduct(productID uuid.UUID) *OrderLineItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// orderedTotal sums unit price times ordered quantity over all lines
func (o *Order) orderedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(item.OrderedQty))
	}
	return total
}

// confirmedTotal sums the confirmed lines only
func (o *Order) confirmedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.Confirmed {
			total = total.Add(item.ConfirmedAmount())
		}
	}
	return total
}
