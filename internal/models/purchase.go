package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord is an inbound delivery of one asset type to a location.
type PurchaseRecord struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	AssetTypeID   int64           `json:"asset_type_id"`
	LocationID    int64           `json:"location_id"`
	Quantity      int             `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	PurchasedBy   int64           `json:"purchased_by"`
	Supplier      string          `json:"supplier"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Recalculate sets TotalCost from Quantity and UnitCost. Called on every save.
func (p *PurchaseRecord) Recalculate() {
	p.TotalCost = p.UnitCost.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// CreatePurchaseRequest represents the request body for recording a purchase
type CreatePurchaseRequest struct {
	AssetTypeID   int64            `json:"asset_type_id"`
	LocationID    *int64           `json:"location_id,omitempty"`
	Quantity      int              `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	PurchaseDate  *Date            `json:"purchase_date"`
	Supplier      string           `json:"supplier"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// UpdatePurchaseRequest represents an administrative correction
type UpdatePurchaseRequest struct {
	Quantity      *int             `json:"quantity,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	PurchaseDate  *Date            `json:"purchase_date,omitempty"`
	Supplier      *string          `json:"supplier,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type PurchaseView struct {
	PurchaseRecord
	AssetType   *AssetType `json:"asset_type,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	PurchasedBy *UserRef   `json:"purchaser,omitempty"`
}
