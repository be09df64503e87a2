package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapmarket/backend/internal/domain/shared"
)

func createTestRecord(t *testing.T, stock int64) *InventoryRecord {
	record, err := NewInventoryRecord(uuid.New(), uuid.New(), decimal.NewFromInt(stock), decimal.NewFromInt(25))
	require.NoError(t, err)
	return record
}

func TestNewInventoryRecord(t *testing.T) {
	record := createTestRecord(t, 10)

	assert.True(t, decimal.NewFromInt(10).Equal(record.Stock))
	assert.Nil(t, record.OriginTradeID)
	assert.Nil(t, record.AcquiredAt)
	assert.False(t, record.IsTradeOrigin())
}

func TestNewInventoryRecord_Validation(t *testing.T) {
	tests := []struct {
		name      string
		ownerID   uuid.UUID
		productID uuid.UUID
		stock     decimal.Decimal
		unitPrice decimal.Decimal
		wantCode  string
	}{
		{"nil owner", uuid.Nil, uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), "INVALID_OWNER"},
		{"nil product", uuid.New(), uuid.Nil, decimal.NewFromInt(1), decimal.NewFromInt(1), "INVALID_PRODUCT"},
		{"negative stock", uuid.New(), uuid.New(), decimal.NewFromInt(-1), decimal.NewFromInt(1), "INVALID_QUANTITY"},
		{"negative price", uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1), "INVALID_PRICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInventoryRecord(tt.ownerID, tt.productID, tt.stock, tt.unitPrice)
			require.Error(t, err)
			domainErr, ok := err.(*shared.DomainError)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestNewTradedInventoryRecord(t *testing.T) {
	tradeID := uuid.New()
	acquiredAt := time.Now()

	record, err := NewTradedInventoryRecord(uuid.New(), uuid.New(), decimal.NewFromInt(3), decimal.NewFromInt(50), tradeID, acquiredAt)
	require.NoError(t, err)

	assert.True(t, record.IsTradeOrigin())
	require.NotNil(t, record.OriginTradeID)
	assert.Equal(t, tradeID, *record.OriginTradeID)
	require.NotNil(t, record.AcquiredAt)
	assert.Equal(t, acquiredAt, *record.AcquiredAt)
}

func TestNewTradedInventoryRecord_RequiresTradeID(t *testing.T) {
	_, err := NewTradedInventoryRecord(uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), uuid.Nil, time.Now())
	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TRADE", domainErr.Code)
}

func TestInventoryRecord_HasStock(t *testing.T) {
	record := createTestRecord(t, 5)

	assert.True(t, record.HasStock(decimal.NewFromInt(5)))
	assert.True(t, record.HasStock(decimal.NewFromInt(1)))
	assert.False(t, record.HasStock(decimal.NewFromInt(6)))
}

func TestInventoryRecord_Decrease(t *testing.T) {
	record := createTestRecord(t, 5)
	versionBefore := record.Version

	require.NoError(t, record.Decrease(decimal.NewFromInt(3)))

	assert.True(t, decimal.NewFromInt(2).Equal(record.Stock))
	assert.Equal(t, versionBefore+1, record.Version)
}

func TestInventoryRecord_Decrease_Insufficient(t *testing.T) {
	record := createTestRecord(t, 2)

	err := record.Decrease(decimal.NewFromInt(3))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, decimal.NewFromInt(2).Equal(record.Stock))
}

func TestInventoryRecord_Decrease_NonPositive(t *testing.T) {
	record := createTestRecord(t, 2)

	for _, qty := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		err := record.Decrease(qty)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	}
}

func TestInventoryRecord_Increase(t *testing.T) {
	record := createTestRecord(t, 2)

	require.NoError(t, record.Increase(decimal.NewFromInt(4)))
	assert.True(t, decimal.NewFromInt(6).Equal(record.Stock))

	err := record.Increase(decimal.Zero)
	require.Error(t, err)
}

func TestInventoryRecord_DecreaseToZero(t *testing.T) {
	record := createTestRecord(t, 3)

	require.NoError(t, record.Decrease(decimal.NewFromInt(3)))
	assert.True(t, record.Stock.IsZero())
	assert.False(t, record.HasStock(decimal.NewFromInt(1)))
}
