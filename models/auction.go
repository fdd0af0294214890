package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionModality string

const (
	AuctionModalityJudicial      AuctionModality = "JUDICIAL"
	AuctionModalityExtrajudicial AuctionModality = "EXTRAJUDICIAL"
	AuctionModalityDirectSale    AuctionModality = "VENDA_DIRETA"
)

// Auction carries only the columns the auditor reads. The marketplace's full
// auction shape (theme, banners, habilitation rules, ...) stays out of this
// boundary on purpose.
type Auction struct {
	ID        int             `gorm:"primary_key" json:"id"`
	TenantId  string          `gorm:"index;not null" json:"tenant_id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	Status    string          `gorm:"size:40;index;not null" json:"status"`
	Modality  AuctionModality `gorm:"type:enum('JUDICIAL','EXTRAJUDICIAL','VENDA_DIRETA');default:'EXTRAJUDICIAL'" json:"modality"`
	SellerId  int             `gorm:"index;default:null" json:"seller_id"`
	TotalLots int             `gorm:"default:0" json:"total_lots"` // denormalized, audited against live count
	StartsAt  *time.Time      `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Lot is a sellable unit under an auction.
type Lot struct {
	ID             int             `gorm:"primary_key" json:"id"`
	TenantId       string          `gorm:"index;not null" json:"tenant_id"`
	AuctionId      int             `gorm:"index;not null" json:"auction_id"`
	Number         string          `gorm:"size:40;not null" json:"number"`
	Title          string          `gorm:"size:255;not null" json:"title"`
	Status         string          `gorm:"size:40;index;not null" json:"status"`
	StartingBid    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"starting_bid"`
	CurrentBid     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"current_bid"`
	AppraisedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"appraised_value"`
	BidsCount      int             `gorm:"default:0" json:"bids_count"` // denormalized, audited against live count
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
