package models_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seeds one tenant with every anomaly the battery detects and asserts the
// report counts them, and only them. Data for other tenants in the same
// database must never leak into the report.
func TestRunReferentialIntegrityChecks(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires a MySQL instance via DB_* env vars)")
	}

	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	db := config.GetDB()

	// Fresh tenant per run so reruns against the same database stay isolated.
	tenantId := "it-" + uuid.NewString()

	now := time.Now().UTC()

	// Published auction with zero lots.
	emptyAuction := models.Auction{
		TenantId: tenantId,
		Title:    "Leilão publicado sem lotes",
		Status:   models.AuctionStatusPublished,
		Modality: models.AuctionModalityExtrajudicial,
	}
	if err := db.WithContext(ctx).Create(&emptyAuction).Error; err != nil {
		t.Fatalf("seed empty auction: %v", err)
	}

	// Cancelled auction still holding an open lot.
	deadAuction := models.Auction{
		TenantId:  tenantId,
		Title:     "Leilão cancelado",
		Status:    models.AuctionStatusCancelled,
		Modality:  models.AuctionModalityJudicial,
		TotalLots: 1,
	}
	if err := db.WithContext(ctx).Create(&deadAuction).Error; err != nil {
		t.Fatalf("seed dead auction: %v", err)
	}
	strandedLot := models.Lot{
		TenantId:    tenantId,
		AuctionId:   deadAuction.ID,
		Number:      "1",
		Title:       "Lote aberto sob leilão cancelado",
		Status:      models.LotStatusOpen,
		StartingBid: decimal.NewFromInt(1000),
		BidsCount:   10, // stored counter lies: 12 active bids seeded below
	}
	if err := db.WithContext(ctx).Create(&strandedLot).Error; err != nil {
		t.Fatalf("seed stranded lot: %v", err)
	}
	for i := 0; i < 12; i++ {
		bid := models.Bid{
			TenantId: tenantId,
			LotId:    strandedLot.ID,
			UserId:   i + 1,
			Amount:   decimal.NewFromInt(int64(1000 + i*100)),
			Status:   models.BidStatusActive,
			PlacedAt: now,
		}
		if err := db.WithContext(ctx).Create(&bid).Error; err != nil {
			t.Fatalf("seed bid %d: %v", i, err)
		}
	}

	// Open auction claiming two lots but holding one; its lot is closed yet
	// still carries an active bid.
	openAuction := models.Auction{
		TenantId:  tenantId,
		Title:     "Leilão aberto",
		Status:    models.AuctionStatusOpen,
		Modality:  models.AuctionModalityExtrajudicial,
		TotalLots: 2,
	}
	if err := db.WithContext(ctx).Create(&openAuction).Error; err != nil {
		t.Fatalf("seed open auction: %v", err)
	}
	closedLot := models.Lot{
		TenantId:  tenantId,
		AuctionId: openAuction.ID,
		Number:    "1",
		Title:     "Lote encerrado com lance ativo",
		Status:    models.LotStatusClosed,
		BidsCount: 1,
	}
	if err := db.WithContext(ctx).Create(&closedLot).Error; err != nil {
		t.Fatalf("seed closed lot: %v", err)
	}
	orphanBid := models.Bid{
		TenantId: tenantId,
		LotId:    closedLot.ID,
		UserId:   99,
		Amount:   decimal.NewFromInt(5000),
		Status:   models.BidStatusActive,
		PlacedAt: now,
	}
	if err := db.WithContext(ctx).Create(&orphanBid).Error; err != nil {
		t.Fatalf("seed orphan bid: %v", err)
	}

	// Sold lot with its winning bid still active: not an anomaly, the bid
	// settles with the arremate.
	settledAuction := models.Auction{
		TenantId:  tenantId,
		Title:     "Leilão encerrado com lote vendido",
		Status:    models.AuctionStatusClosed,
		Modality:  models.AuctionModalityJudicial,
		TotalLots: 1,
	}
	if err := db.WithContext(ctx).Create(&settledAuction).Error; err != nil {
		t.Fatalf("seed settled auction: %v", err)
	}
	soldLot := models.Lot{
		TenantId:  tenantId,
		AuctionId: settledAuction.ID,
		Number:    "1",
		Title:     "Lote arrematado",
		Status:    models.LotStatusSold,
		BidsCount: 1,
	}
	if err := db.WithContext(ctx).Create(&soldLot).Error; err != nil {
		t.Fatalf("seed sold lot: %v", err)
	}
	winningBid := models.Bid{
		TenantId: tenantId,
		LotId:    soldLot.ID,
		UserId:   7,
		Amount:   decimal.NewFromInt(8000),
		Status:   models.BidStatusActive,
		PlacedAt: now,
	}
	if err := db.WithContext(ctx).Create(&winningBid).Error; err != nil {
		t.Fatalf("seed winning bid: %v", err)
	}

	// Noise under a different tenant: must not show up in the report.
	otherTenantAuction := models.Auction{
		TenantId: "it-other-" + uuid.NewString(),
		Title:    "Leilão de outro tenant",
		Status:   models.AuctionStatusPublished,
	}
	if err := db.WithContext(ctx).Create(&otherTenantAuction).Error; err != nil {
		t.Fatalf("seed other tenant auction: %v", err)
	}

	report, err := models.RunReferentialIntegrityChecks(ctx, tenantId)
	if err != nil {
		t.Fatalf("RunReferentialIntegrityChecks: %v", err)
	}

	if report.TenantId != tenantId {
		t.Fatalf("report tenant mismatch: %s", report.TenantId)
	}
	if report.QueriesExecuted != 5 {
		t.Fatalf("expected 5 queries executed, got %d", report.QueriesExecuted)
	}
	if report.PublishedWithoutLots != 1 {
		t.Fatalf("expected 1 published auction without lots, got %d", report.PublishedWithoutLots)
	}
	if report.OpenLotsUnderDeadAuction != 1 {
		t.Fatalf("expected 1 open lot under dead auction, got %d", report.OpenLotsUnderDeadAuction)
	}
	if report.ActiveBidsOnClosedLots != 1 {
		t.Fatalf("expected 1 active bid on a closed lot, got %d", report.ActiveBidsOnClosedLots)
	}

	if len(report.DesyncedCounters) != 2 {
		t.Fatalf("expected 2 desynced counters, got %d: %+v", len(report.DesyncedCounters), report.DesyncedCounters)
	}
	byEntity := map[models.EntityType]models.DesyncedCounter{}
	for _, c := range report.DesyncedCounters {
		byEntity[c.EntityType] = c
	}

	lotCounter, ok := byEntity[models.EntityTypeLot]
	if !ok {
		t.Fatalf("missing lot counter finding: %+v", report.DesyncedCounters)
	}
	if lotCounter.EntityId != strandedLot.ID || lotCounter.FieldName != "bidsCount" ||
		lotCounter.StoredValue != 10 || lotCounter.CalculatedValue != 12 {
		t.Fatalf("unexpected lot counter finding: %+v", lotCounter)
	}

	auctionCounter, ok := byEntity[models.EntityTypeAuction]
	if !ok {
		t.Fatalf("missing auction counter finding: %+v", report.DesyncedCounters)
	}
	if auctionCounter.EntityId != openAuction.ID || auctionCounter.FieldName != "totalLots" ||
		auctionCounter.StoredValue != 2 || auctionCounter.CalculatedValue != 1 {
		t.Fatalf("unexpected auction counter finding: %+v", auctionCounter)
	}
}
