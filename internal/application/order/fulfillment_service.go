package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/inventory"
	"github.com/swapmarket/backend/internal/domain/order"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// FulfillmentService reconciles monetary orders against the seller's live
// inventory: whole-order confirm or reject, and idempotent per-line partial
// fulfillment. Stock decrements and the order decision always commit in one
// transaction.
type FulfillmentService struct {
	orderRepo        order.OrderRepository
	inventoryRepo    inventory.InventoryRecordRepository
	txScope          TransactionScope
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	eventPublisher   shared.EventPublisher
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	orderRepo order.OrderRepository,
	inventoryRepo inventory.InventoryRecordRepository,
	txScope TransactionScope,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:      orderRepo,
		inventoryRepo:  inventoryRepo,
		txScope:        txScope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *FulfillmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the store used to fence duplicate partial
// fulfillment submissions.
func (s *FulfillmentService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// Create places a new pending order from a buyer against a seller's listed
// products. Unit prices are snapshotted from the seller's inventory records.
func (s *FulfillmentService) Create(ctx context.Context, callerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	o, err := order.NewOrder(generateOrderNumber(), callerID, req.SellerID)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Items {
		record, err := s.inventoryRepo.FindByOwnerAndProduct(ctx, req.SellerID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if _, err := o.AddItem(line.ProductID, line.Quantity, record.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order. Only the buyer or seller may view it.
func (s *FulfillmentService) GetByID(ctx context.Context, callerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if callerID != o.BuyerID && callerID != o.SellerID {
		return nil, shared.ErrForbidden
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// ListForSeller retrieves orders addressed to the caller as seller
func (s *FulfillmentService) ListForSeller(ctx context.Context, callerID uuid.UUID, filter OrderListFilter) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindBySeller(ctx, callerID, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// ListForBuyer retrieves orders placed by the caller as buyer
func (s *FulfillmentService) ListForBuyer(ctx context.Context, callerID uuid.UUID, filter OrderListFilter) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByBuyer(ctx, callerID, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// ConfirmOrReject applies the seller's whole-order decision. A rejection is
// terminal with no stock changes. A confirmation decrements stock for every
// line in one transaction; any line short on stock rolls the whole decision
// back and the order stays pending.
func (s *FulfillmentService) ConfirmOrReject(ctx context.Context, callerID uuid.UUID, req ConfirmOrRejectRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if callerID != o.SellerID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the seller may decide an order")
	}

	if !req.Confirmed {
		if err := o.Reject(req.Reason); err != nil {
			return nil, err
		}
		if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, o)

		response := ToOrderResponse(o)
		return &response, nil
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.OrderRepo().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := current.Confirm(); err != nil {
			return err
		}

		invRepo := repos.InventoryRepo()
		for _, item := range current.Items {
			record, err := invRepo.FindByOwnerAndProduct(ctx, current.SellerID, item.ProductID)
			if err != nil {
				return err
			}
			if err := invRepo.DecrementStock(ctx, record.ID, item.ConfirmedQty); err != nil {
				return err
			}
		}

		current.MarkFulfilled(time.Now())
		if err := repos.OrderRepo().SaveWithLock(ctx, current); err != nil {
			return err
		}
		o = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// ProcessPartial applies the seller's per-line fulfillment decisions. Each
// confirmed line is capped at the live stock level, declined lines drop to
// zero, and stock is decremented by the confirmed quantities exactly once:
// a duplicate submission is fenced by the idempotency store and by the
// order's in-transaction fulfillment marker.
func (s *FulfillmentService) ProcessPartial(ctx context.Context, callerID uuid.UUID, req ProcessPartialRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if callerID != o.SellerID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the seller may decide an order")
	}
	if o.IsFulfilled() {
		response := ToOrderResponse(o)
		return &response, nil
	}

	fenced := s.idempotencyStore != nil && s.idempotencyCfg.Enabled
	if fenced {
		done, err := s.idempotencyStore.IsProcessed(ctx, idempotencyKey(req))
		if err != nil {
			return nil, err
		}
		if done {
			response := ToOrderResponse(o)
			return &response, nil
		}
	}

	decisions := make([]order.PartialDecision, 0, len(req.Items))
	for _, d := range req.Items {
		decisions = append(decisions, order.PartialDecision{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			Confirmed: d.Confirmed,
		})
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.OrderRepo().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		// The marker is re-checked inside the transaction so a duplicate
		// racing past the store check still cannot re-apply decrements.
		if current.IsFulfilled() {
			o = current
			return nil
		}

		invRepo := repos.InventoryRepo()

		stockByProduct := make(map[uuid.UUID]decimal.Decimal, len(current.Items))
		recordByProduct := make(map[uuid.UUID]*inventory.InventoryRecord, len(current.Items))
		for _, item := range current.Items {
			record, err := invRepo.FindByOwnerAndProduct(ctx, current.SellerID, item.ProductID)
			if err != nil {
				var domainErr *shared.DomainError
				if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
					stockByProduct[item.ProductID] = decimal.Zero
					continue
				}
				return err
			}
			stockByProduct[item.ProductID] = record.Stock
			recordByProduct[item.ProductID] = record
		}

		if err := current.ApplyPartial(decisions, stockByProduct); err != nil {
			return err
		}

		for _, item := range current.Items {
			if !item.Confirmed || item.ConfirmedQty.LessThanOrEqual(decimal.Zero) {
				continue
			}
			record := recordByProduct[item.ProductID]
			if record == nil {
				return shared.ErrInsufficientStock
			}
			if err := invRepo.DecrementStock(ctx, record.ID, item.ConfirmedQty); err != nil {
				return err
			}
		}

		current.MarkFulfilled(time.Now())
		if err := repos.OrderRepo().SaveWithLock(ctx, current); err != nil {
			return err
		}
		o = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The key is marked only after the transaction committed: a rolled-back
	// attempt must stay retryable under the same key.
	if fenced {
		if _, err := s.idempotencyStore.MarkProcessed(ctx, idempotencyKey(req), s.idempotencyCfg.TTL); err != nil {
			// The fulfillment marker on the order row still fences duplicates.
		}
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

func (s *FulfillmentService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			// Event delivery is best-effort notification.
		}
	}
	o.ClearDomainEvents()
}

func idempotencyKey(req ProcessPartialRequest) string {
	if req.IdempotencyKey != "" {
		return fmt.Sprintf("order:partial:%s:%s", req.OrderID, req.IdempotencyKey)
	}
	return fmt.Sprintf("order:partial:%s", req.OrderID)
}

func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

func buildFilter(filter OrderListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}
	return domainFilter
}
