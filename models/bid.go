package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bid struct {
	ID        int             `gorm:"primary_key" json:"id"`
	TenantId  string          `gorm:"index;not null" json:"tenant_id"`
	LotId     int             `gorm:"index;not null" json:"lot_id"`
	UserId    int             `gorm:"index;not null" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status    string          `gorm:"size:40;index;not null" json:"status"`
	PlacedAt  time.Time       `gorm:"not null" json:"placed_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// UserWin records a lot awarded to a bidder (arremate).
type UserWin struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;not null" json:"tenant_id"`
	LotId       int             `gorm:"index;not null" json:"lot_id"`
	UserId      int             `gorm:"index;not null" json:"user_id"`
	FinalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"final_amount"`
	Status      string          `gorm:"size:40;index;not null" json:"status"`
	WonAt       time.Time       `gorm:"not null" json:"won_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
