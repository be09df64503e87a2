package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/shared"
)

// InventoryRecord represents one owner's holding of a product.
// The composite identifier is OwnerID + ProductID. Records acquired through a
// completed trade carry a provenance tag (origin trade + acquisition time);
// originally-listed stock has no origin.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_owner_product,priority:2"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_owner_product,priority:1"`
	Stock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	OriginTradeID *uuid.UUID `gorm:"type:uuid;index"`
	AcquiredAt    *time.Time
}

// TableName returns the table name for GORM
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// NewInventoryRecord creates a new listed inventory record with no provenance
func NewInventoryRecord(ownerID, productID uuid.UUID, stock, unitPrice decimal.Decimal) (*InventoryRecord, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if stock.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &InventoryRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		OwnerID:           ownerID,
		Stock:             stock,
		UnitPrice:         unitPrice,
	}, nil
}

// NewTradedInventoryRecord creates a record for stock acquired through a
// completed trade, tagged with its provenance. Traded stock may re-enter
// future trades as the offered side or be listed for sale.
func NewTradedInventoryRecord(ownerID, productID uuid.UUID, stock, unitPrice decimal.Decimal, tradeID uuid.UUID, acquiredAt time.Time) (*InventoryRecord, error) {
	record, err := NewInventoryRecord(ownerID, productID, stock, unitPrice)
	if err != nil {
		return nil, err
	}
	if tradeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRADE", "Origin trade ID cannot be empty")
	}

	record.OriginTradeID = &tradeID
	record.AcquiredAt = &acquiredAt

	return record, nil
}

// HasStock reports whether at least the requested quantity is available
func (r *InventoryRecord) HasStock(quantity decimal.Decimal) bool {
	return r.Stock.GreaterThanOrEqual(quantity)
}

// Decrease removes stock from the record
func (r *InventoryRecord) Decrease(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !r.HasStock(quantity) {
		return shared.ErrInsufficientStock
	}

	r.Stock = r.Stock.Sub(quantity)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Increase adds stock to the record
func (r *InventoryRecord) Increase(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	r.Stock = r.Stock.Add(quantity)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// IsTradeOrigin reports whether this stock was acquired through a trade
func (r *InventoryRecord) IsTradeOrigin() bool {
	return r.OriginTradeID != nil
}
