package models

import (
	"log"

	"github.com/arrematai/auditor_backend/config"
)

// MigrateTable keeps the audited entity tables and the auditor's own
// bookkeeping table up to date. In production the marketplace owns its
// schema; automigrating the entity tables only matters for local/test setups.
func MigrateTable() {
	db := config.GetDB()
	if db == nil {
		log.Println("MigrateTable skipped: database not initialized")
		return
	}
	err := db.AutoMigrate(
		&Auction{},
		&Lot{},
		&Bid{},
		&Asset{},
		&Seller{},
		&UserWin{},
		&AuditRun{},
	)
	if err != nil {
		log.Printf("failed to migrate tables: %v", err)
	}
}
