package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/swapmarket/backend/internal/domain/barter"
	"github.com/swapmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTradeRepository implements TradeRepository using GORM
type GormTradeRepository struct {
	db *gorm.DB
}

// NewGormTradeRepository creates a new GormTradeRepository
func NewGormTradeRepository(db *gorm.DB) *GormTradeRepository {
	return &GormTradeRepository{db: db}
}

// FindByID finds a trade by its ID
func (r *GormTradeRepository) FindByID(ctx context.Context, id uuid.UUID) (*barter.Trade, error) {
	var trade barter.Trade
	if err := r.db.WithContext(ctx).First(&trade, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &trade, nil
}

// FindForParty finds trades where the given party is proposer or counterpart
func (r *GormTradeRepository) FindForParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]barter.Trade, error) {
	var trades []barter.Trade
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&barter.Trade{}).
			Where("proposer_id = ? OR counterpart_id = ?", partyID, partyID),
		filter,
	)

	if err := query.Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// CountForParty counts trades where the given party is proposer or counterpart
func (r *GormTradeRepository) CountForParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&barter.Trade{}).
			Where("proposer_id = ? OR counterpart_id = ?", partyID, partyID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a new trade
func (r *GormTradeRepository) Save(ctx context.Context, trade *barter.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// SaveWithLock updates a trade with optimistic locking (version check)
func (r *GormTradeRepository) SaveWithLock(ctx context.Context, trade *barter.Trade) error {
	currentVersion := trade.Version
	trade.Version++
	trade.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&barter.Trade{}).
		Where("id = ? AND version = ?", trade.ID, currentVersion).
		Updates(map[string]interface{}{
			"offered_quantity":      trade.Offered.Quantity,
			"requested_quantity":    trade.Requested.Quantity,
			"status":                trade.Status,
			"shipping_status":       trade.ShippingStatus,
			"tracking_number":       trade.TrackingNumber,
			"courier":               trade.Courier,
			"shipping_notes":        trade.ShippingNotes,
			"proposer_confirmed":    trade.ProposerConfirmed,
			"counterpart_confirmed": trade.CounterpartConfirmed,
			"accepted_at":           trade.AcceptedAt,
			"rejected_at":           trade.RejectedAt,
			"cancelled_at":          trade.CancelledAt,
			"completed_at":          trade.CompletedAt,
			"reject_reason":         trade.RejectReason,
			"cancel_reason":         trade.CancelReason,
			"notes":                 trade.Notes,
			"version":               trade.Version,
			"updated_at":            trade.UpdatedAt,
		})

	if result.Error != nil {
		trade.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		trade.Version = currentVersion
		var count int64
		if err := r.db.WithContext(ctx).Model(&barter.Trade{}).
			Where("id = ?", trade.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	return nil
}

// SetDeliveryConfirmation records one party's delivery acknowledgement as an
// atomic single-column update guarded by the shipping status. Two parties
// confirming at the same time touch different columns, so neither write can
// clobber the other.
func (r *GormTradeRepository) SetDeliveryConfirmation(ctx context.Context, tradeID, partyID uuid.UUID) (*barter.Trade, error) {
	trade, err := r.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(partyID) {
		return nil, shared.ErrForbidden
	}

	column := "proposer_confirmed"
	if partyID == trade.CounterpartID {
		column = "counterpart_confirmed"
	}

	result := r.db.WithContext(ctx).Model(&barter.Trade{}).
		Where("id = ? AND shipping_status IN ? AND "+column+" = ?",
			tradeID,
			[]string{string(barter.ShippingStatusShipped), string(barter.ShippingStatusDelivered)},
			false,
		).
		Updates(map[string]interface{}{
			column:       true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the party already confirmed (no-op) or the trade has not
		// shipped; re-read and let the state decide.
		refreshed, err := r.FindByID(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		if !refreshed.ShippingStatus.AllowsDeliveryConfirmation() {
			return nil, shared.NewDomainError("INVALID_STATE", "Delivery can only be confirmed once the trade has shipped")
		}
		return refreshed, nil
	}

	return r.FindByID(ctx, tradeID)
}

// CompleteTransition atomically wins the accepted-to-completed transition for
// a dual-confirmed trade. Exactly one caller sees a row update; everyone else
// gets false (already completed) or a conflict.
func (r *GormTradeRepository) CompleteTransition(ctx context.Context, trade *barter.Trade) (bool, error) {
	if err := trade.Complete(); err != nil {
		return false, err
	}

	currentVersion := trade.Version
	trade.Version++

	result := r.db.WithContext(ctx).Model(&barter.Trade{}).
		Where("id = ? AND status = ? AND proposer_confirmed = ? AND counterpart_confirmed = ?",
			trade.ID, barter.TradeStatusAccepted, true, true).
		Updates(map[string]interface{}{
			"status":       trade.Status,
			"completed_at": trade.CompletedAt,
			"version":      trade.Version,
			"updated_at":   trade.UpdatedAt,
		})
	if result.Error != nil {
		trade.Version = currentVersion
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		trade.Version = currentVersion

		var stored barter.Trade
		if err := r.db.WithContext(ctx).First(&stored, "id = ?", trade.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, shared.ErrNotFound
			}
			return false, err
		}
		if stored.IsCompleted() {
			return false, nil
		}
		return false, shared.ErrConcurrencyConflict
	}

	return true, nil
}

// applyFilter applies filter options to the query
func (r *GormTradeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTradeRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "shipping_status":
			query = query.Where("shipping_status = ?", value)
		case "proposer_id":
			query = query.Where("proposer_id = ?", value)
		case "counterpart_id":
			query = query.Where("counterpart_id = ?", value)
		}
	}
	return query
}

// Ensure GormTradeRepository implements TradeRepository
var _ barter.TradeRepository = (*GormTradeRepository)(nil)
