package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swapmarket/backend/internal/domain/inventory"
	"github.com/swapmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements InventoryRecordRepository using GORM
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindByID finds an inventory record by its ID
func (r *GormInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	var record inventory.InventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOwnerAndProduct finds the record for an owner-product combination
func (r *GormInventoryRecordRepository) FindByOwnerAndProduct(ctx context.Context, ownerID, productID uuid.UUID) (*inventory.InventoryRecord, error) {
	var record inventory.InventoryRecord
	if err := r.db.WithContext(ctx).
		First(&record, "owner_id = ? AND product_id = ?", ownerID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOwner finds all records held by an owner
func (r *GormInventoryRecordRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	var records []inventory.InventoryRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).Where("owner_id = ?", ownerID),
		filter,
	)
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindTradedByOwner finds records the owner acquired through trades
func (r *GormInventoryRecordRepository) FindTradedByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	var records []inventory.InventoryRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).
			Where("owner_id = ? AND origin_trade_id IS NOT NULL", ownerID),
		filter,
	)
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates an inventory record
func (r *GormInventoryRecordRepository) Save(ctx context.Context, record *inventory.InventoryRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInventoryRecordRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	currentVersion := record.Version
	record.Version++
	record.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, currentVersion).
		Updates(map[string]interface{}{
			"stock":           record.Stock,
			"unit_price":      record.UnitPrice,
			"origin_trade_id": record.OriginTradeID,
			"acquired_at":     record.AcquiredAt,
			"version":         record.Version,
			"updated_at":      record.UpdatedAt,
		})

	if result.Error != nil {
		record.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		record.Version = currentVersion
		var count int64
		if err := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).
			Where("id = ?", record.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	return nil
}

// DecrementStock atomically removes stock, guarded on the current level so
// concurrent settlements on the same product cannot drive it negative.
func (r *GormInventoryRecordRepository) DecrementStock(ctx context.Context, recordID uuid.UUID, quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).
		Where("id = ? AND stock >= ?", recordID, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).
			Where("id = ?", recordID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientStock
	}

	return nil
}

// GrantFromTrade credits quantity to the recipient as an upsert on the
// owner-product unique index: a first acquisition inserts a provenance-tagged
// record, a repeat acquisition increments stock and refreshes the provenance.
func (r *GormInventoryRecordRepository) GrantFromTrade(ctx context.Context, ownerID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, tradeID uuid.UUID, acquiredAt time.Time) (*inventory.InventoryRecord, error) {
	record, err := inventory.NewTradedInventoryRecord(ownerID, productID, quantity, unitPrice, tradeID, acquiredAt)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"stock":           gorm.Expr("inventory_records.stock + ?", quantity),
			"origin_trade_id": tradeID,
			"acquired_at":     acquiredAt,
			"version":         gorm.Expr("inventory_records.version + 1"),
			"updated_at":      time.Now(),
		}),
	}).Create(record).Error
	if err != nil {
		return nil, err
	}

	return r.FindByOwnerAndProduct(ctx, ownerID, productID)
}

// applyFilter applies filter options to the query
func (r *GormInventoryRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("updated_at DESC")
	}

	return query
}

// Ensure GormInventoryRecordRepository implements InventoryRecordRepository
var _ inventory.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
