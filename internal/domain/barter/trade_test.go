package barter

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapmarket/backend/internal/domain/shared"
)

// Test helpers
func testLine(qty, price float64) TradeLine {
	return TradeLine{
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromFloat(qty),
		UnitPrice: decimal.NewFromFloat(price),
	}
}

func createTestTrade(t *testing.T) *Trade {
	proposerID := uuid.New()
	counterpartID := uuid.New()
	trade, err := NewTrade(proposerID, counterpartID, testLine(2, 50), testLine(1, 100))
	require.NoError(t, err)
	return trade
}

func acceptedTestTrade(t *testing.T) *Trade {
	trade := createTestTrade(t)
	require.NoError(t, trade.Accept(trade.CounterpartID))
	return trade
}

func shippedTestTrade(t *testing.T) *Trade {
	trade := acceptedTestTrade(t)
	require.NoError(t, trade.UpdateShipping(trade.ProposerID, ShippingStatusPreparing, "", "", ""))
	require.NoError(t, trade.UpdateShipping(trade.ProposerID, ShippingStatusShipped, "TRK-001", "DHL", ""))
	return trade
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok, "expected *shared.DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}

// ============================================
// TradeStatus Tests
// ============================================

func TestTradeStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  TradeStatus
		isValid bool
	}{
		{TradeStatusPending, true},
		{TradeStatusAccepted, true},
		{TradeStatusRejected, true},
		{TradeStatusCancelled, true},
		{TradeStatusCompleted, true},
		{TradeStatus("INVALID"), false},
		{TradeStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestTradeStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     TradeStatus
		to       TradeStatus
		canTrans bool
	}{
		// From PENDING
		{TradeStatusPending, TradeStatusAccepted, true},
		{TradeStatusPending, TradeStatusRejected, true},
		{TradeStatusPending, TradeStatusCancelled, true},
		{TradeStatusPending, TradeStatusCompleted, false},
		// From ACCEPTED
		{TradeStatusAccepted, TradeStatusCompleted, true},
		{TradeStatusAccepted, TradeStatusRejected, false},
		{TradeStatusAccepted, TradeStatusCancelled, false},
		{TradeStatusAccepted, TradeStatusPending, false},
		// From REJECTED (terminal)
		{TradeStatusRejected, TradeStatusPending, false},
		{TradeStatusRejected, TradeStatusAccepted, false},
		{TradeStatusRejected, TradeStatusCompleted, false},
		// From CANCELLED (terminal)
		{TradeStatusCancelled, TradeStatusPending, false},
		{TradeStatusCancelled, TradeStatusAccepted, false},
		// From COMPLETED (terminal)
		{TradeStatusCompleted, TradeStatusPending, false},
		{TradeStatusCompleted, TradeStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTradeStatus_IsTerminal(t *testing.T) {
	assert.False(t, TradeStatusPending.IsTerminal())
	assert.False(t, TradeStatusAccepted.IsTerminal())
	assert.True(t, TradeStatusRejected.IsTerminal())
	assert.True(t, TradeStatusCancelled.IsTerminal())
	assert.True(t, TradeStatusCompleted.IsTerminal())
}

func TestParseTradeStatus(t *testing.T) {
	status, err := ParseTradeStatus("ACCEPTED")
	require.NoError(t, err)
	assert.Equal(t, TradeStatusAccepted, status)

	_, err = ParseTradeStatus("BOGUS")
	assertDomainCode(t, err, "INVALID_INPUT")
}

// ============================================
// ShippingStatus Tests
// ============================================

func TestShippingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     ShippingStatus
		to       ShippingStatus
		canTrans bool
	}{
		{ShippingStatusNone, ShippingStatusPreparing, true},
		{ShippingStatusNone, ShippingStatusShipped, false},
		{ShippingStatusNone, ShippingStatusDelivered, false},
		{ShippingStatusPreparing, ShippingStatusShipped, true},
		{ShippingStatusPreparing, ShippingStatusNone, false},
		{ShippingStatusPreparing, ShippingStatusDelivered, false},
		{ShippingStatusShipped, ShippingStatusDelivered, true},
		{ShippingStatusShipped, ShippingStatusPreparing, false},
		{ShippingStatusDelivered, ShippingStatusShipped, false},
		{ShippingStatusDelivered, ShippingStatusNone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestShippingStatus_AllowsDeliveryConfirmation(t *testing.T) {
	assert.False(t, ShippingStatusNone.AllowsDeliveryConfirmation())
	assert.False(t, ShippingStatusPreparing.AllowsDeliveryConfirmation())
	assert.True(t, ShippingStatusShipped.AllowsDeliveryConfirmation())
	assert.True(t, ShippingStatusDelivered.AllowsDeliveryConfirmation())
}

// ============================================
// NewTrade Tests
// ============================================

func TestNewTrade(t *testing.T) {
	trade := createTestTrade(t)

	assert.Equal(t, TradeStatusPending, trade.Status)
	assert.Equal(t, ShippingStatusNone, trade.ShippingStatus)
	assert.False(t, trade.ProposerConfirmed)
	assert.False(t, trade.CounterpartConfirmed)
	assert.Len(t, trade.GetDomainEvents(), 1)
}

func TestNewTrade_NilParty(t *testing.T) {
	_, err := NewTrade(uuid.Nil, uuid.New(), testLine(1, 10), testLine(1, 10))
	assertDomainCode(t, err, "INVALID_PARTY")

	_, err = NewTrade(uuid.New(), uuid.Nil, testLine(1, 10), testLine(1, 10))
	assertDomainCode(t, err, "INVALID_PARTY")
}

func TestNewTrade_SelfTrade(t *testing.T) {
	partyID := uuid.New()
	_, err := NewTrade(partyID, partyID, testLine(1, 10), testLine(1, 10))
	assertDomainCode(t, err, "SELF_TRADE")
}

func TestNewTrade_SameProduct(t *testing.T) {
	offered := testLine(1, 10)
	requested := testLine(2, 5)
	requested.ProductID = offered.ProductID

	_, err := NewTrade(uuid.New(), uuid.New(), offered, requested)
	assertDomainCode(t, err, "INVALID_PRODUCT")
}

func TestNewTrade_InvalidQuantity(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
	}{
		{"zero", 0},
		{"negative", -1},
		{"fractional", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offered := testLine(tt.qty, 10)
			_, err := NewTrade(uuid.New(), uuid.New(), offered, testLine(1, 10))
			assertDomainCode(t, err, "QUANTITY_OUT_OF_RANGE")
		})
	}
}

func TestNewTrade_NegativePrice(t *testing.T) {
	offered := testLine(1, 10)
	offered.UnitPrice = decimal.NewFromInt(-5)
	_, err := NewTrade(uuid.New(), uuid.New(), offered, testLine(1, 10))
	assertDomainCode(t, err, "INVALID_PRICE")
}

// ============================================
// UpdateQuantities Tests
// ============================================

func TestTrade_UpdateQuantities(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.UpdateQuantities(trade.ProposerID, decimal.NewFromInt(3), decimal.NewFromInt(2))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(3).Equal(trade.Offered.Quantity))
	assert.True(t, decimal.NewFromInt(2).Equal(trade.Requested.Quantity))
}

func TestTrade_UpdateQuantities_OnlyProposer(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.UpdateQuantities(trade.CounterpartID, decimal.NewFromInt(3), decimal.NewFromInt(2))
	assertDomainCode(t, err, "FORBIDDEN")
}

func TestTrade_UpdateQuantities_OnlyPending(t *testing.T) {
	trade := acceptedTestTrade(t)

	err := trade.UpdateQuantities(trade.ProposerID, decimal.NewFromInt(3), decimal.NewFromInt(2))
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestTrade_UpdateQuantities_Fractional(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.UpdateQuantities(trade.ProposerID, decimal.NewFromFloat(2.5), decimal.NewFromInt(1))
	assertDomainCode(t, err, "QUANTITY_OUT_OF_RANGE")
}

// ============================================
// Accept / Reject / Cancel Tests
// ============================================

func TestTrade_Accept(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.Accept(trade.CounterpartID)
	require.NoError(t, err)

	assert.Equal(t, TradeStatusAccepted, trade.Status)
	assert.NotNil(t, trade.AcceptedAt)
}

func TestTrade_Accept_OnlyCounterpart(t *testing.T) {
	trade := createTestTrade(t)
	assertDomainCode(t, trade.Accept(trade.ProposerID), "FORBIDDEN")
}

func TestTrade_Accept_OnlyPending(t *testing.T) {
	trade := acceptedTestTrade(t)
	assertDomainCode(t, trade.Accept(trade.CounterpartID), "INVALID_STATE")
}

func TestTrade_Reject(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.Reject(trade.CounterpartID, "price too high")
	require.NoError(t, err)

	assert.Equal(t, TradeStatusRejected, trade.Status)
	assert.Equal(t, "price too high", trade.RejectReason)
	assert.NotNil(t, trade.RejectedAt)
}

func TestTrade_Reject_RequiresReason(t *testing.T) {
	trade := createTestTrade(t)
	assertDomainCode(t, trade.Reject(trade.CounterpartID, ""), "INVALID_REASON")
}

func TestTrade_Reject_OnlyCounterpart(t *testing.T) {
	trade := createTestTrade(t)
	assertDomainCode(t, trade.Reject(trade.ProposerID, "no"), "FORBIDDEN")
}

func TestTrade_Cancel(t *testing.T) {
	trade := createTestTrade(t)

	err := trade.Cancel(trade.ProposerID, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, TradeStatusCancelled, trade.Status)
	assert.Equal(t, "changed my mind", trade.CancelReason)
	assert.NotNil(t, trade.CancelledAt)
}

func TestTrade_Cancel_OnlyProposer(t *testing.T) {
	trade := createTestTrade(t)
	assertDomainCode(t, trade.Cancel(trade.CounterpartID, "nope"), "FORBIDDEN")
}

func TestTrade_Cancel_OnlyPending(t *testing.T) {
	trade := acceptedTestTrade(t)
	assertDomainCode(t, trade.Cancel(trade.ProposerID, "too late"), "INVALID_STATE")
}

// ============================================
// Shipping Tests
// ============================================

func TestTrade_UpdateShipping(t *testing.T) {
	trade := acceptedTestTrade(t)

	require.NoError(t, trade.UpdateShipping(trade.ProposerID, ShippingStatusPreparing, "", "", "boxing it up"))
	assert.Equal(t, ShippingStatusPreparing, trade.ShippingStatus)
	assert.Equal(t, "boxing it up", trade.ShippingNotes)

	require.NoError(t, trade.UpdateShipping(trade.CounterpartID, ShippingStatusShipped, "TRK-42", "UPS", ""))
	assert.Equal(t, ShippingStatusShipped, trade.ShippingStatus)
	assert.Equal(t, "TRK-42", trade.TrackingNumber)
	assert.Equal(t, "UPS", trade.Courier)

	require.NoError(t, trade.UpdateShipping(trade.ProposerID, ShippingStatusDelivered, "", "", ""))
	assert.Equal(t, ShippingStatusDelivered, trade.ShippingStatus)
	// Tracking info survives later transitions
	assert.Equal(t, "TRK-42", trade.TrackingNumber)
}

func TestTrade_UpdateShipping_RequiresAccepted(t *testing.T) {
	trade := createTestTrade(t)
	err := trade.UpdateShipping(trade.ProposerID, ShippingStatusPreparing, "", "", "")
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestTrade_UpdateShipping_OnlyParty(t *testing.T) {
	trade := acceptedTestTrade(t)
	err := trade.UpdateShipping(uuid.New(), ShippingStatusPreparing, "", "", "")
	assertDomainCode(t, err, "FORBIDDEN")
}

func TestTrade_UpdateShipping_NoSkipping(t *testing.T) {
	trade := acceptedTestTrade(t)
	err := trade.UpdateShipping(trade.ProposerID, ShippingStatusShipped, "TRK-1", "DHL", "")
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestTrade_UpdateShipping_ShippedRequiresTracking(t *testing.T) {
	trade := acceptedTestTrade(t)
	require.NoError(t, trade.UpdateShipping(trade.ProposerID, ShippingStatusPreparing, "", "", ""))

	err := trade.UpdateShipping(trade.ProposerID, ShippingStatusShipped, "", "DHL", "")
	assertDomainCode(t, err, "INVALID_INPUT")

	err = trade.UpdateShipping(trade.ProposerID, ShippingStatusShipped, "TRK-1", "", "")
	assertDomainCode(t, err, "INVALID_INPUT")
}

// ============================================
// Delivery Confirmation Tests
// ============================================

func TestTrade_ConfirmDelivery(t *testing.T) {
	trade := shippedTestTrade(t)

	require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
	assert.True(t, trade.ProposerConfirmed)
	assert.False(t, trade.CounterpartConfirmed)
	assert.True(t, trade.HasConfirmed(trade.ProposerID))
	assert.False(t, trade.BothConfirmed())

	require.NoError(t, trade.ConfirmDelivery(trade.CounterpartID))
	assert.True(t, trade.BothConfirmed())
}

func TestTrade_ConfirmDelivery_RepeatIsNoOp(t *testing.T) {
	trade := shippedTestTrade(t)

	require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
	eventsBefore := len(trade.GetDomainEvents())

	require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
	assert.Len(t, trade.GetDomainEvents(), eventsBefore)
	assert.False(t, trade.CounterpartConfirmed)
}

func TestTrade_ConfirmDelivery_RequiresShipped(t *testing.T) {
	trade := acceptedTestTrade(t)
	assertDomainCode(t, trade.ConfirmDelivery(trade.ProposerID), "INVALID_STATE")
}

func TestTrade_ConfirmDelivery_OnlyParty(t *testing.T) {
	trade := shippedTestTrade(t)
	assertDomainCode(t, trade.ConfirmDelivery(uuid.New()), "FORBIDDEN")
}

// ============================================
// Completion Tests
// ============================================

func TestTrade_Complete(t *testing.T) {
	trade := shippedTestTrade(t)
	require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
	require.NoError(t, trade.ConfirmDelivery(trade.CounterpartID))

	require.NoError(t, trade.CanComplete())
	require.NoError(t, trade.Complete())

	assert.Equal(t, TradeStatusCompleted, trade.Status)
	assert.NotNil(t, trade.CompletedAt)
}

func TestTrade_CanComplete_Preconditions(t *testing.T) {
	t.Run("pending trade", func(t *testing.T) {
		trade := createTestTrade(t)
		assertDomainCode(t, trade.CanComplete(), "INVALID_STATE")
	})

	t.Run("not shipped", func(t *testing.T) {
		trade := acceptedTestTrade(t)
		assertDomainCode(t, trade.CanComplete(), "INVALID_STATE")
	})

	t.Run("single confirmation", func(t *testing.T) {
		trade := shippedTestTrade(t)
		require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
		assertDomainCode(t, trade.CanComplete(), "INVALID_STATE")
	})

	t.Run("already completed", func(t *testing.T) {
		trade := shippedTestTrade(t)
		require.NoError(t, trade.ConfirmDelivery(trade.ProposerID))
		require.NoError(t, trade.ConfirmDelivery(trade.CounterpartID))
		require.NoError(t, trade.Complete())
		assertDomainCode(t, trade.CanComplete(), "INVALID_STATE")
	})
}

func TestTrade_Counterpart(t *testing.T) {
	trade := createTestTrade(t)
	assert.Equal(t, trade.CounterpartID, trade.Counterpart(trade.ProposerID))
	assert.Equal(t, trade.ProposerID, trade.Counterpart(trade.CounterpartID))
}

func TestTradeLine_Value(t *testing.T) {
	line := TradeLine{
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromInt(3),
		UnitPrice: decimal.NewFromFloat(12.5),
	}
	assert.True(t, decimal.NewFromFloat(37.5).Equal(line.Value()))
}
