package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is the physical/legal good attached to a lot (vehicle, property, ...).
type Asset struct {
	ID             int             `gorm:"primary_key" json:"id"`
	TenantId       string          `gorm:"index;not null" json:"tenant_id"`
	LotId          int             `gorm:"index;not null" json:"lot_id"`
	Description    string          `gorm:"type:text" json:"description"`
	AppraisedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"appraised_value"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type Seller struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;not null" json:"tenant_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Document  string    `gorm:"size:40" json:"document"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
