package models

import (
	"context"
	"fmt"
	"time"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/utils"
	"github.com/sirupsen/logrus"
)

// Status sets used by the structural checks.
var (
	auctionPublishedStatuses = []string{AuctionStatusPublished, AuctionStatusOpen}
	auctionDeadStatuses      = []string{AuctionStatusClosed, AuctionStatusCancelled, AuctionStatusSuspended}

	// Lot states under which an active bid is an anomaly. VENDIDO is excluded:
	// the winning bid stays active until the arremate settles.
	lotBidInvalidStatuses = []string{LotStatusWithdrawn, LotStatusCancelled, LotStatusClosed}
)

// RunReferentialIntegrityChecks runs the cross-entity consistency battery for
// one tenant, directly against the store (no UI involved). Each check is
// independent and order-insensitive. Any query error aborts the run: a
// partial integrity report is worse than none.
func RunReferentialIntegrityChecks(ctx context.Context, tenantId string) (*ReferentialIntegrityReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorStoreUnavailable
	}
	logger := config.GetLogger()
	cid := utils.CorrelationIdFromContextOrNew(ctx)

	report := &ReferentialIntegrityReport{
		TenantId:      tenantId,
		CorrelationId: cid,
		CheckedAt:     time.Now().UTC(),
	}

	// 1) Published auctions with zero lots. A published auction should always
	// have something to sell.
	if err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM auctions a
		WHERE a.tenant_id = ?
		  AND a.status IN ?
		  AND NOT EXISTS (
			SELECT 1 FROM lots l WHERE l.auction_id = a.id AND l.tenant_id = a.tenant_id
		  )
	`, tenantId, auctionPublishedStatuses).Scan(&report.PublishedWithoutLots).Error; err != nil {
		return nil, fmt.Errorf("published-without-lots check: %w", err)
	}
	report.QueriesExecuted++

	// 2) Lots still open for bidding under a terminal auction: a missed
	// cascading state transition.
	if err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM lots l
		JOIN auctions a ON a.id = l.auction_id AND a.tenant_id = l.tenant_id
		WHERE l.tenant_id = ?
		  AND l.status = ?
		  AND a.status IN ?
	`, tenantId, LotStatusOpen, auctionDeadStatuses).Scan(&report.OpenLotsUnderDeadAuction).Error; err != nil {
		return nil, fmt.Errorf("open-lots-under-dead-auction check: %w", err)
	}
	report.QueriesExecuted++

	// 3) Active bids on withdrawn/cancelled/closed lots, bids that should
	// have been invalidated when the lot left the open state.
	if err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM bids b
		JOIN lots l ON l.id = b.lot_id AND l.tenant_id = b.tenant_id
		WHERE b.tenant_id = ?
		  AND b.status = ?
		  AND l.status IN ?
	`, tenantId, BidStatusActive, lotBidInvalidStatuses).Scan(&report.ActiveBidsOnClosedLots).Error; err != nil {
		return nil, fmt.Errorf("active-bids-on-closed-lots check: %w", err)
	}
	report.QueriesExecuted++

	// 4a) lots.bids_count vs live count of active bids. LEFT JOIN keeps lots
	// with zero bids in the comparison (stored=0, calculated=0 must pass).
	type lotCounterRow struct {
		LotId      int
		Stored     int
		Calculated int
	}
	var lotRows []lotCounterRow
	if err := db.WithContext(ctx).Raw(`
		SELECT
			l.id AS lot_id,
			l.bids_count AS stored,
			COALESCE(COUNT(b.id), 0) AS calculated
		FROM lots l
		LEFT JOIN bids b
		  ON b.lot_id = l.id
		 AND b.tenant_id = l.tenant_id
		 AND b.status = ?
		WHERE l.tenant_id = ?
		GROUP BY l.id, l.bids_count
		HAVING l.bids_count <> COALESCE(COUNT(b.id), 0)
	`, BidStatusActive, tenantId).Scan(&lotRows).Error; err != nil {
		return nil, fmt.Errorf("lot bids_count check: %w", err)
	}
	report.QueriesExecuted++
	for _, row := range lotRows {
		report.DesyncedCounters = append(report.DesyncedCounters, DesyncedCounter{
			EntityType:      EntityTypeLot,
			EntityId:        row.LotId,
			FieldName:       "bidsCount",
			StoredValue:     row.Stored,
			CalculatedValue: row.Calculated,
		})
	}

	// 4b) auctions.total_lots vs live lot count.
	type auctionCounterRow struct {
		AuctionId  int
		Stored     int
		Calculated int
	}
	var auctionRows []auctionCounterRow
	if err := db.WithContext(ctx).Raw(`
		SELECT
			a.id AS auction_id,
			a.total_lots AS stored,
			COALESCE(COUNT(l.id), 0) AS calculated
		FROM auctions a
		LEFT JOIN lots l
		  ON l.auction_id = a.id
		 AND l.tenant_id = a.tenant_id
		WHERE a.tenant_id = ?
		GROUP BY a.id, a.total_lots
		HAVING a.total_lots <> COALESCE(COUNT(l.id), 0)
	`, tenantId).Scan(&auctionRows).Error; err != nil {
		return nil, fmt.Errorf("auction total_lots check: %w", err)
	}
	report.QueriesExecuted++
	for _, row := range auctionRows {
		report.DesyncedCounters = append(report.DesyncedCounters, DesyncedCounter{
			EntityType:      EntityTypeAuction,
			EntityId:        row.AuctionId,
			FieldName:       "totalLots",
			StoredValue:     row.Stored,
			CalculatedValue: row.Calculated,
		})
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":                        "IntegrityChecks",
			"tenant_id":                    tenantId,
			"correlation_id":               cid,
			"published_without_lots":       report.PublishedWithoutLots,
			"open_lots_under_dead_auction": report.OpenLotsUnderDeadAuction,
			"active_bids_on_closed_lots":   report.ActiveBidsOnClosedLots,
			"desynced_counters":            len(report.DesyncedCounters),
		}).Info("referential integrity checks completed")
	}
	return report, nil
}
