package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/utils"
	"gorm.io/gorm"
)

// Read-only store access. The auditor never mutates audited records; every
// function here is a plain read scoped by the tenant guard (struct queries)
// or an explicit tenant_id predicate (raw queries).

func GetAuction(ctx context.Context, id int) (*Auction, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var auction Auction
	if err := db.WithContext(ctx).First(&auction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &auction, nil
}

func GetLot(ctx context.Context, id int) (*Lot, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var lot Lot
	if err := db.WithContext(ctx).First(&lot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &lot, nil
}

func GetBid(ctx context.Context, id int) (*Bid, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var bid Bid
	if err := db.WithContext(ctx).First(&bid, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &bid, nil
}

func GetUserWin(ctx context.Context, id int) (*UserWin, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var win UserWin
	if err := db.WithContext(ctx).First(&win, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &win, nil
}

func GetAsset(ctx context.Context, id int) (*Asset, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var asset Asset
	if err := db.WithContext(ctx).First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func GetSeller(ctx context.Context, id int) (*Seller, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	var seller Seller
	if err := db.WithContext(ctx).First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// ActiveBidCount recomputes the live bid count for a lot, the authoritative
// value lots.bids_count is audited against.
func ActiveBidCount(ctx context.Context, lotId int) (int, error) {
	db := config.GetDB()
	if db == nil {
		return 0, utils.ErrorStoreUnavailable
	}
	var count int64
	err := db.WithContext(ctx).Model(&Bid{}).
		Where("lot_id = ? AND status = ?", lotId, BidStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// LotCount recomputes the live lot count for an auction.
func LotCount(ctx context.Context, auctionId int) (int, error) {
	db := config.GetDB()
	if db == nil {
		return 0, utils.ErrorStoreUnavailable
	}
	var count int64
	err := db.WithContext(ctx).Model(&Lot{}).
		Where("auction_id = ?", auctionId).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ResolveFieldValue fetches the authoritative store value for one audited
// field, for orchestrators that captured only the UI side. Counters resolve
// to the recomputed live count, not the denormalized column: the stored
// counter is itself under audit and cannot serve as the reference.
func ResolveFieldValue(ctx context.Context, entityType EntityType, entityId string, fieldName string) (string, error) {
	id, err := strconv.Atoi(strings.TrimSpace(entityId))
	if err != nil {
		return "", fmt.Errorf("entity id %q is not numeric: %w", entityId, err)
	}

	switch entityType {
	case EntityTypeAuction:
		auction, err := GetAuction(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "status"):
			return auction.Status, nil
		case strings.EqualFold(fieldName, "title"):
			return auction.Title, nil
		case strings.EqualFold(fieldName, "totalLots"):
			n, err := LotCount(ctx, id)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(n), nil
		}

	case EntityTypeLot:
		lot, err := GetLot(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "status"):
			return lot.Status, nil
		case strings.EqualFold(fieldName, "title"):
			return lot.Title, nil
		case strings.EqualFold(fieldName, "number"):
			return lot.Number, nil
		case strings.EqualFold(fieldName, "startingBid"):
			return lot.StartingBid.String(), nil
		case strings.EqualFold(fieldName, "currentBid"):
			return lot.CurrentBid.String(), nil
		case strings.EqualFold(fieldName, "appraisedValue"):
			return lot.AppraisedValue.String(), nil
		case strings.EqualFold(fieldName, "bidsCount"):
			n, err := ActiveBidCount(ctx, id)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(n), nil
		}

	case EntityTypeBid:
		bid, err := GetBid(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "status"):
			return bid.Status, nil
		case strings.EqualFold(fieldName, "amount"):
			return bid.Amount.String(), nil
		}

	case EntityTypeUserWin:
		win, err := GetUserWin(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "status"):
			return win.Status, nil
		case strings.EqualFold(fieldName, "finalAmount"):
			return win.FinalAmount.String(), nil
		}

	case EntityTypeAsset:
		asset, err := GetAsset(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "description"):
			return asset.Description, nil
		case strings.EqualFold(fieldName, "appraisedValue"):
			return asset.AppraisedValue.String(), nil
		}

	case EntityTypeSeller:
		seller, err := GetSeller(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case strings.EqualFold(fieldName, "name"):
			return seller.Name, nil
		case strings.EqualFold(fieldName, "document"):
			return seller.Document, nil
		}
	}

	return "", fmt.Errorf("no store resolution for %s.%s", entityType, fieldName)
}

// ListTenantIds returns every tenant that owns at least one auction. Used by
// the nightly loop; bypasses tenant scoping on purpose.
func ListTenantIds(ctx context.Context) ([]string, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	ctx = utils.SetSkipTenantScopeInContext(ctx)
	var tenantIds []string
	err := db.WithContext(ctx).Model(&Auction{}).
		Distinct("tenant_id").
		Order("tenant_id").
		Pluck("tenant_id", &tenantIds).Error
	if err != nil {
		return nil, err
	}
	return tenantIds, nil
}
