package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/swapmarket/backend/internal/domain/inventory"
	"github.com/swapmarket/backend/internal/domain/order"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]*order.Order, error) {
	args := m.Called(ctx, sellerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*order.Order, error) {
	args := m.Called(ctx, buyerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// MockInventoryRepository is a mock implementation of inventory.InventoryRecordRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) FindByOwnerAndProduct(ctx context.Context, ownerID, productID uuid.UUID) (*inventory.InventoryRecord, error) {
	args := m.Called(ctx, ownerID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) FindTradedByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) Save(ctx context.Context, record *inventory.InventoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInventoryRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInventoryRepository) DecrementStock(ctx context.Context, recordID uuid.UUID, quantity decimal.Decimal) error {
	args := m.Called(ctx, recordID, quantity)
	return args.Error(0)
}

func (m *MockInventoryRepository) GrantFromTrade(ctx context.Context, ownerID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, tradeID uuid.UUID, acquiredAt time.Time) (*inventory.InventoryRecord, error) {
	args := m.Called(ctx, ownerID, productID, quantity, unitPrice, tradeID, acquiredAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryRecord), args.Error(1)
}

// stubIdempotencyStore records keys in memory without TTL handling
type stubIdempotencyStore struct {
	seen map[string]bool
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{seen: make(map[string]bool)}
}

func (s *stubIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.seen[key], nil
}

func (s *stubIdempotencyStore) Close() error { return nil }

// Test helpers

func newTestFulfillmentService(t *testing.T) (*FulfillmentService, *MockOrderRepository, *MockInventoryRepository) {
	t.Helper()
	orderRepo := new(MockOrderRepository)
	inventoryRepo := new(MockInventoryRepository)
	service := NewFulfillmentService(orderRepo, inventoryRepo, NewNoOpTransactionScope(orderRepo, inventoryRepo))
	return service, orderRepo, inventoryRepo
}

func pendingOrder(t *testing.T, lines ...int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-20260829-TEST01", uuid.New(), uuid.New())
	require.NoError(t, err)
	for _, qty := range lines {
		_, err := o.AddItem(uuid.New(), decimal.NewFromInt(qty), decimal.NewFromInt(10))
		require.NoError(t, err)
	}
	return o
}

func sellerRecord(t *testing.T, o *order.Order, productID uuid.UUID, stock int64) *inventory.InventoryRecord {
	t.Helper()
	record, err := inventory.NewInventoryRecord(o.SellerID, productID, decimal.NewFromInt(stock), decimal.NewFromInt(10))
	require.NoError(t, err)
	return record
}

func requireServiceDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok, "expected *shared.DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}

// ============================================
// Create Tests
// ============================================

func TestFulfillmentService_Create(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	productID := uuid.New()

	record, err := inventory.NewInventoryRecord(sellerID, productID, decimal.NewFromInt(10), decimal.NewFromInt(25))
	require.NoError(t, err)

	inventoryRepo.On("FindByOwnerAndProduct", ctx, sellerID, productID).Return(record, nil)
	orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

	resp, err := service.Create(ctx, buyerID, CreateOrderRequest{
		SellerID: sellerID,
		Items:    []CreateOrderLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(3)}},
	})

	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, buyerID, resp.BuyerID)
	require.Len(t, resp.Items, 1)
	// Unit price is snapshotted from the seller's listing
	assert.True(t, decimal.NewFromInt(25).Equal(resp.Items[0].UnitPrice))
	orderRepo.AssertExpectations(t)
}

func TestFulfillmentService_Create_UnknownProduct(t *testing.T) {
	service, _, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	sellerID := uuid.New()
	productID := uuid.New()

	inventoryRepo.On("FindByOwnerAndProduct", ctx, sellerID, productID).Return(nil, shared.ErrNotFound)

	_, err := service.Create(ctx, uuid.New(), CreateOrderRequest{
		SellerID: sellerID,
		Items:    []CreateOrderLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(1)}},
	})

	requireServiceDomainCode(t, err, "NOT_FOUND")
}

// ============================================
// GetByID Tests
// ============================================

func TestFulfillmentService_GetByID_OnlyParties(t *testing.T) {
	service, orderRepo, _ := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 1)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	_, err := service.GetByID(ctx, uuid.New(), o.ID)
	requireServiceDomainCode(t, err, "FORBIDDEN")

	resp, err := service.GetByID(ctx, o.BuyerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, resp.ID)
}

// ============================================
// ConfirmOrReject Tests
// ============================================

func TestFulfillmentService_ConfirmOrReject_SellerOnly(t *testing.T) {
	service, orderRepo, _ := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 1)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	_, err := service.ConfirmOrReject(ctx, o.BuyerID, ConfirmOrRejectRequest{OrderID: o.ID, Confirmed: true})
	requireServiceDomainCode(t, err, "FORBIDDEN")
}

func TestFulfillmentService_ConfirmOrReject_Reject(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 2)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)

	resp, err := service.ConfirmOrReject(ctx, o.SellerID, ConfirmOrRejectRequest{
		OrderID: o.ID, Confirmed: false, Reason: "cannot ship this week",
	})

	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)
	assert.True(t, resp.Total.IsZero())
	// A rejection never touches stock
	inventoryRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentService_ConfirmOrReject_Confirm(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 2, 3)

	records := make(map[uuid.UUID]*inventory.InventoryRecord, len(o.Items))
	for _, item := range o.Items {
		record := sellerRecord(t, o, item.ProductID, 10)
		records[item.ProductID] = record
		inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
		inventoryRepo.On("DecrementStock", ctx, record.ID, item.OrderedQty).Return(nil)
	}
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)

	resp, err := service.ConfirmOrReject(ctx, o.SellerID, ConfirmOrRejectRequest{OrderID: o.ID, Confirmed: true})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.NotNil(t, resp.FulfilledAt)
	assert.True(t, decimal.NewFromInt(50).Equal(resp.Total))
	inventoryRepo.AssertExpectations(t)
}

func TestFulfillmentService_ConfirmOrReject_InsufficientStockRollsBack(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 5)
	item := o.Items[0]

	record := sellerRecord(t, o, item.ProductID, 2)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
	inventoryRepo.On("DecrementStock", ctx, record.ID, item.OrderedQty).Return(shared.ErrInsufficientStock)

	_, err := service.ConfirmOrReject(ctx, o.SellerID, ConfirmOrRejectRequest{OrderID: o.ID, Confirmed: true})

	requireServiceDomainCode(t, err, "INSUFFICIENT_STOCK")
	orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

// ============================================
// ProcessPartial Tests
// ============================================

func TestFulfillmentService_ProcessPartial_CapsAtStock(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 5)
	item := o.Items[0]

	record := sellerRecord(t, o, item.ProductID, 2)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
	inventoryRepo.On("DecrementStock", ctx, record.ID, decimal.NewFromInt(2)).Return(nil)

	resp, err := service.ProcessPartial(ctx, o.SellerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(5), Confirmed: true}},
	})

	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_FULFILLED", resp.Status)
	assert.True(t, decimal.NewFromInt(2).Equal(resp.Items[0].ConfirmedQty))
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Total))
	inventoryRepo.AssertExpectations(t)
}

func TestFulfillmentService_ProcessPartial_ConfirmsBelowOrderedQuantity(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 5)
	item := o.Items[0]

	// Stock covers the full line; the seller still confirms only three units.
	record := sellerRecord(t, o, item.ProductID, 10)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
	inventoryRepo.On("DecrementStock", ctx, record.ID, decimal.NewFromInt(3)).Return(nil)

	resp, err := service.ProcessPartial(ctx, o.SellerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(3), Confirmed: true}},
	})

	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_FULFILLED", resp.Status)
	assert.True(t, decimal.NewFromInt(3).Equal(resp.Items[0].ConfirmedQty))
	assert.True(t, decimal.NewFromInt(30).Equal(resp.Total))
	inventoryRepo.AssertExpectations(t)
}

func TestFulfillmentService_ProcessPartial_DeclinedLineNoDecrement(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 3)
	item := o.Items[0]

	record := sellerRecord(t, o, item.ProductID, 10)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)

	resp, err := service.ProcessPartial(ctx, o.SellerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(3), Confirmed: false}},
	})

	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_FULFILLED", resp.Status)
	inventoryRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentService_ProcessPartial_MissingListingTreatedAsZeroStock(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 3)
	item := o.Items[0]

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(nil, shared.ErrNotFound)

	resp, err := service.ProcessPartial(ctx, o.SellerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(3), Confirmed: true}},
	})

	require.NoError(t, err)
	assert.True(t, resp.Items[0].ConfirmedQty.IsZero())
	inventoryRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentService_ProcessPartial_SellerOnly(t *testing.T) {
	service, orderRepo, _ := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 1)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	_, err := service.ProcessPartial(ctx, o.BuyerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: o.Items[0].ProductID, Quantity: decimal.NewFromInt(1), Confirmed: true}},
	})
	requireServiceDomainCode(t, err, "FORBIDDEN")
}

func TestFulfillmentService_ProcessPartial_FulfilledOrderShortCircuits(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	ctx := context.Background()
	o := pendingOrder(t, 2)
	require.NoError(t, o.ApplyPartial(
		[]order.PartialDecision{{ProductID: o.Items[0].ProductID, Quantity: decimal.NewFromInt(2), Confirmed: true}},
		map[uuid.UUID]decimal.Decimal{o.Items[0].ProductID: decimal.NewFromInt(2)},
	))
	o.MarkFulfilled(time.Now())

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	resp, err := service.ProcessPartial(ctx, o.SellerID, ProcessPartialRequest{
		OrderID: o.ID,
		Items:   []LineDecisionInput{{ProductID: o.Items[0].ProductID, Quantity: decimal.NewFromInt(2), Confirmed: true}},
	})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	inventoryRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentService_ProcessPartial_IdempotencyKeyFencesDuplicates(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	store := newStubIdempotencyStore()
	service.SetIdempotencyStore(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true})
	ctx := context.Background()

	o := pendingOrder(t, 3)
	item := o.Items[0]
	record := sellerRecord(t, o, item.ProductID, 10)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("SaveWithLock", ctx, o).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
	inventoryRepo.On("DecrementStock", ctx, record.ID, decimal.NewFromInt(3)).Return(nil).Once()

	req := ProcessPartialRequest{
		OrderID:        o.ID,
		IdempotencyKey: "req-abc",
		Items:          []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(3), Confirmed: true}},
	}

	first, err := service.ProcessPartial(ctx, o.SellerID, req)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", first.Status)

	// The duplicate is answered from current state without new decrements.
	// The in-order fulfillment marker already short-circuits before the
	// store, so reset it to exercise the store fence itself.
	o.FulfilledAt = nil
	second, err := service.ProcessPartial(ctx, o.SellerID, req)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", second.Status)
	inventoryRepo.AssertNumberOfCalls(t, "DecrementStock", 1)
}

func TestFulfillmentService_ProcessPartial_RetryAfterRollbackNotFenced(t *testing.T) {
	service, orderRepo, inventoryRepo := newTestFulfillmentService(t)
	store := newStubIdempotencyStore()
	service.SetIdempotencyStore(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true})
	ctx := context.Background()

	o := pendingOrder(t, 3)
	item := o.Items[0]
	record := sellerRecord(t, o, item.ProductID, 10)

	// Each lookup gets a pristine copy: the failed attempt's transaction rolls
	// its order mutations back, which a shared pointer cannot model.
	freshOrder := func() *order.Order {
		c := *o
		c.Items = append([]order.OrderLineItem(nil), o.Items...)
		return &c
	}
	for i := 0; i < 4; i++ {
		orderRepo.On("FindByID", ctx, o.ID).Return(freshOrder(), nil).Once()
	}
	orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
	inventoryRepo.On("FindByOwnerAndProduct", ctx, o.SellerID, item.ProductID).Return(record, nil)
	// A concurrent sale drains stock under the first attempt; the second
	// attempt succeeds.
	inventoryRepo.On("DecrementStock", ctx, record.ID, decimal.NewFromInt(3)).
		Return(shared.ErrInsufficientStock).Once()
	inventoryRepo.On("DecrementStock", ctx, record.ID, decimal.NewFromInt(3)).
		Return(nil).Once()

	req := ProcessPartialRequest{
		OrderID:        o.ID,
		IdempotencyKey: "req-retry",
		Items:          []LineDecisionInput{{ProductID: item.ProductID, Quantity: decimal.NewFromInt(3), Confirmed: true}},
	}

	_, err := service.ProcessPartial(ctx, o.SellerID, req)
	requireServiceDomainCode(t, err, "INSUFFICIENT_STOCK")

	// The rolled-back attempt must not have claimed the key: the identical
	// retry goes through and applies the decision.
	resp, err := service.ProcessPartial(ctx, o.SellerID, req)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.NotNil(t, resp.FulfilledAt)
	inventoryRepo.AssertNumberOfCalls(t, "DecrementStock", 2)
}
