package barter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// TradeStatus represents the lifecycle status of a barter trade
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusAccepted  TradeStatus = "ACCEPTED"
	TradeStatusRejected  TradeStatus = "REJECTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
	TradeStatusCompleted TradeStatus = "COMPLETED"
)

// IsValid checks if the status is a valid TradeStatus
func (s TradeStatus) IsValid() bool {
	switch s {
	case TradeStatusPending, TradeStatusAccepted, TradeStatusRejected, TradeStatusCancelled, TradeStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of TradeStatus
func (s TradeStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that admit no further transition
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeStatusRejected, TradeStatusCancelled, TradeStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s TradeStatus) CanTransitionTo(target TradeStatus) bool {
	switch s {
	case TradeStatusPending:
		return target == TradeStatusAccepted || target == TradeStatusRejected || target == TradeStatusCancelled
	case TradeStatusAccepted:
		return target == TradeStatusCompleted
	}
	return false
}

// ParseTradeStatus converts a raw string into a TradeStatus, rejecting
// anything outside the known set.
func ParseTradeStatus(raw string) (TradeStatus, error) {
	s := TradeStatus(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown trade status %q", raw))
	}
	return s, nil
}

// ShippingStatus represents the shipping sub-state of an accepted trade
type ShippingStatus string

const (
	ShippingStatusNone      ShippingStatus = "NONE"
	ShippingStatusPreparing ShippingStatus = "PREPARING"
	ShippingStatusShipped   ShippingStatus = "SHIPPED"
	ShippingStatusDelivered ShippingStatus = "DELIVERED"
)

// IsValid checks if the status is a valid ShippingStatus
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusNone, ShippingStatusPreparing, ShippingStatusShipped, ShippingStatusDelivered:
		return true
	}
	return false
}

// String returns the string representation of ShippingStatus
func (s ShippingStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the forward-only shipping progression
func (s ShippingStatus) CanTransitionTo(target ShippingStatus) bool {
	switch s {
	case ShippingStatusNone:
		return target == ShippingStatusPreparing
	case ShippingStatusPreparing:
		return target == ShippingStatusShipped
	case ShippingStatusShipped:
		return target == ShippingStatusDelivered
	}
	return false
}

// AllowsDeliveryConfirmation reports whether a party may acknowledge receipt
func (s ShippingStatus) AllowsDeliveryConfirmation() bool {
	return s == ShippingStatusShipped || s == ShippingStatusDelivered
}

// ParseShippingStatus converts a raw string into a ShippingStatus
func ParseShippingStatus(raw string) (ShippingStatus, error) {
	s := ShippingStatus(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown shipping status %q", raw))
	}
	return s, nil
}

// TradeLine is one side of a barter trade: a product, the quantity being
// exchanged, and the unit price captured at propose time. The price snapshot
// backs the advisory fairness ratio and is never re-read from the listing.
type TradeLine struct {
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// Value returns quantity * unit price
func (l TradeLine) Value() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}

// validate checks the structural invariants of a trade line
func (l TradeLine) validate() error {
	if l.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if err := validateQuantity(l.Quantity); err != nil {
		return err
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return nil
}

// validateQuantity enforces whole, positive trade quantities
func validateQuantity(qty decimal.Decimal) error {
	if !qty.IsInteger() {
		return shared.NewDomainError("QUANTITY_OUT_OF_RANGE", "Quantity must be a whole number")
	}
	if qty.LessThan(decimal.NewFromInt(1)) {
		return shared.ErrQuantityOutOfRange
	}
	return nil
}

// Trade represents a barter trade aggregate root: a two-party exchange of
// product quantities that moves through a negotiation lifecycle, a shipping
// sub-workflow, and dual delivery confirmation before stock is materialized.
type Trade struct {
	shared.BaseAggregateRoot
	ProposerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CounterpartID uuid.UUID `gorm:"type:uuid;not null;index"`
	Offered       TradeLine `gorm:"embedded;embeddedPrefix:offered_"`
	Requested     TradeLine `gorm:"embedded;embeddedPrefix:requested_"`

	Status         TradeStatus    `gorm:"type:varchar(20);not null;index"`
	ShippingStatus ShippingStatus `gorm:"type:varchar(20);not null;default:NONE"`
	TrackingNumber string         `gorm:"type:varchar(100)"`
	Courier        string         `gorm:"type:varchar(100)"`
	ShippingNotes  string         `gorm:"type:varchar(500)"`

	ProposerConfirmed    bool `gorm:"not null;default:false"`
	CounterpartConfirmed bool `gorm:"not null;default:false"`

	AcceptedAt   *time.Time
	RejectedAt   *time.Time
	CancelledAt  *time.Time
	CompletedAt  *time.Time
	RejectReason string `gorm:"type:varchar(500)"`
	CancelReason string `gorm:"type:varchar(500)"`
	Notes        string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Trade) TableName() string {
	return "trades"
}

// NewTrade creates a new pending trade proposal.
// Ownership and stock checks against live inventory belong to the
// application layer; this constructor enforces the structural invariants.
func NewTrade(proposerID, counterpartID uuid.UUID, offered, requested TradeLine) (*Trade, error) {
	if proposerID == uuid.Nil || counterpartID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Both trade parties must be set")
	}
	if proposerID == counterpartID {
		return nil, shared.ErrSelfTrade
	}
	if err := offered.validate(); err != nil {
		return nil, err
	}
	if err := requested.validate(); err != nil {
		return nil, err
	}
	if offered.ProductID == requested.ProductID {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Offered and requested products must differ")
	}

	trade := &Trade{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProposerID:        proposerID,
		CounterpartID:     counterpartID,
		Offered:           offered,
		Requested:         requested,
		Status:            TradeStatusPending,
		ShippingStatus:    ShippingStatusNone,
	}

	trade.AddDomainEvent(NewTradeProposedEvent(trade))

	return trade, nil
}

// IsParty returns true if the given caller is one of the two trade parties
func (t *Trade) IsParty(callerID uuid.UUID) bool {
	return callerID == t.ProposerID || callerID == t.CounterpartID
}

// Counterpart returns the other party for a given participant
func (t *Trade) Counterpart(partyID uuid.UUID) uuid.UUID {
	if partyID == t.ProposerID {
		return t.CounterpartID
	}
	return t.ProposerID
}

// UpdateQuantities revises the offered and requested quantities.
// Only the proposer may revise, and only while the trade is pending.
func (t *Trade) UpdateQuantities(callerID uuid.UUID, qtyOffered, qtyRequested decimal.Decimal) error {
	if t.Status != TradeStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot revise a trade in %s status", t.Status))
	}
	if callerID != t.ProposerID {
		return shared.NewDomainError("FORBIDDEN", "Only the proposer may revise the trade")
	}
	if err := validateQuantity(qtyOffered); err != nil {
		return err
	}
	if err := validateQuantity(qtyRequested); err != nil {
		return err
	}

	t.Offered.Quantity = qtyOffered
	t.Requested.Quantity = qtyRequested
	t.UpdatedAt = time.Now()

	t.AddDomainEvent(NewTradeQuantitiesRevisedEvent(t))

	return nil
}

// Accept transitions the trade from pending to accepted.
// Only the counterpart may accept.
func (t *Trade) Accept(callerID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TradeStatusAccepted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot accept a trade in %s status", t.Status))
	}
	if callerID != t.CounterpartID {
		return shared.NewDomainError("FORBIDDEN", "Only the counterpart may accept the trade")
	}

	now := time.Now()
	t.Status = TradeStatusAccepted
	t.AcceptedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(NewTradeAcceptedEvent(t))

	return nil
}

// Reject transitions the trade from pending to rejected.
// Only the counterpart may reject, and a reason is required.
func (t *Trade) Reject(callerID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TradeStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a trade in %s status", t.Status))
	}
	if callerID != t.CounterpartID {
		return shared.NewDomainError("FORBIDDEN", "Only the counterpart may reject the trade")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reject reason is required")
	}

	now := time.Now()
	t.Status = TradeStatusRejected
	t.RejectedAt = &now
	t.RejectReason = reason
	t.UpdatedAt = now

	t.AddDomainEvent(NewTradeRejectedEvent(t))

	return nil
}

// Cancel withdraws a pending trade. Only the proposer may cancel.
func (t *Trade) Cancel(callerID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TradeStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel a trade in %s status", t.Status))
	}
	if callerID != t.ProposerID {
		return shared.NewDomainError("FORBIDDEN", "Only the proposer may cancel the trade")
	}

	now := time.Now()
	t.Status = TradeStatusCancelled
	t.CancelledAt = &now
	t.CancelReason = reason
	t.UpdatedAt = now

	t.AddDomainEvent(NewTradeCancelledEvent(t))

	return nil
}

// UpdateShipping advances the shipping sub-state of an accepted trade.
// Either party may post updates (whichever side currently holds the goods
// being moved). Transition to SHIPPED requires tracking number and courier.
func (t *Trade) UpdateShipping(callerID uuid.UUID, target ShippingStatus, trackingNumber, courier, notes string) error {
	if t.Status != TradeStatusAccepted {
		return shared.NewDomainError("INVALID_STATE", "Shipping updates are only allowed on accepted trades")
	}
	if !t.IsParty(callerID) {
		return shared.NewDomainError("FORBIDDEN", "Only a trade party may post shipping updates")
	}
	if !t.ShippingStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move shipping from %s to %s", t.ShippingStatus, target))
	}
	if target == ShippingStatusShipped {
		if trackingNumber == "" {
			return shared.NewDomainError("INVALID_INPUT", "Tracking number is required to mark a trade shipped")
		}
		if courier == "" {
			return shared.NewDomainError("INVALID_INPUT", "Courier is required to mark a trade shipped")
		}
	}

	t.ShippingStatus = target
	if trackingNumber != "" {
		t.TrackingNumber = trackingNumber
	}
	if courier != "" {
		t.Courier = courier
	}
	if notes != "" {
		t.ShippingNotes = notes
	}
	t.UpdatedAt = time.Now()

	t.AddDomainEvent(NewTradeShippingUpdatedEvent(t))

	return nil
}

// ConfirmDelivery records a party's acknowledgement of receipt.
// Confirming twice by the same party is a no-op, not an error.
func (t *Trade) ConfirmDelivery(callerID uuid.UUID) error {
	if !t.IsParty(callerID) {
		return shared.NewDomainError("FORBIDDEN", "Only a trade party may confirm delivery")
	}
	if !t.ShippingStatus.AllowsDeliveryConfirmation() {
		return shared.NewDomainError("INVALID_STATE", "Delivery can only be confirmed once the trade has shipped")
	}

	already := (callerID == t.ProposerID && t.ProposerConfirmed) ||
		(callerID == t.CounterpartID && t.CounterpartConfirmed)
	if already {
		return nil
	}

	if callerID == t.ProposerID {
		t.ProposerConfirmed = true
	} else {
		t.CounterpartConfirmed = true
	}
	t.UpdatedAt = time.Now()

	t.AddDomainEvent(NewTradeDeliveryConfirmedEvent(t, callerID))

	return nil
}

// HasConfirmed reports whether the given party has acknowledged receipt
func (t *Trade) HasConfirmed(partyID uuid.UUID) bool {
	switch partyID {
	case t.ProposerID:
		return t.ProposerConfirmed
	case t.CounterpartID:
		return t.CounterpartConfirmed
	}
	return false
}

// BothConfirmed returns true when both parties have acknowledged receipt
func (t *Trade) BothConfirmed() bool {
	return t.ProposerConfirmed && t.CounterpartConfirmed
}

// CanComplete checks the completion preconditions: accepted status, shipping
// at least shipped, and both delivery confirmations recorded.
func (t *Trade) CanComplete() error {
	if t.Status == TradeStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Trade is already completed")
	}
	if !t.Status.CanTransitionTo(TradeStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete a trade in %s status", t.Status))
	}
	if !t.ShippingStatus.AllowsDeliveryConfirmation() {
		return shared.NewDomainError("INVALID_STATE", "Trade must be shipped before it can be completed")
	}
	if !t.BothConfirmed() {
		return shared.NewDomainError("INVALID_STATE", "Both parties must confirm delivery before completion")
	}
	return nil
}

// Complete marks the trade completed. Callers must have already won the
// accepted-to-completed transition in storage before applying this.
func (t *Trade) Complete() error {
	if err := t.CanComplete(); err != nil {
		return err
	}

	now := time.Now()
	t.Status = TradeStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(NewTradeCompletedEvent(t))

	return nil
}

// SetNotes sets the free-form trade notes
func (t *Trade) SetNotes(notes string) {
	t.Notes = notes
	t.UpdatedAt = time.Now()
}

// IsPending returns true if the trade awaits the counterpart's decision
func (t *Trade) IsPending() bool {
	return t.Status == TradeStatusPending
}

// IsAccepted returns true if the trade has been accepted
func (t *Trade) IsAccepted() bool {
	return t.Status == TradeStatusAccepted
}

// IsCompleted returns true if the trade has been completed
func (t *Trade) IsCompleted() bool {
	return t.Status == TradeStatusCompleted
}
