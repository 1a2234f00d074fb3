package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ItemAvailable   = "available"
	ItemAssigned    = "assigned"
	ItemMaintenance = "maintenance"
	ItemRetired     = "retired"
	ItemExpended    = "expended"
)

// Origins record how an inventory item first came to exist.
const (
	OriginCount    = "count"
	OriginPurchase = "purchase"
	OriginTransfer = "transfer"
)

// ItemStatuses are the advisory lifecycle labels of an inventory item.
var ItemStatuses = []string{ItemAvailable, ItemAssigned, ItemMaintenance, ItemRetired, ItemExpended}

// InventoryItem is the stock of one asset type at one location.
type InventoryItem struct {
	ID             int64            `json:"id"`
	Reference      string           `json:"reference"`
	AssetTypeID    int64            `json:"asset_type_id"`
	LocationID     int64            `json:"location_id"`
	OnHand         int              `json:"on_hand"`
	OpeningBalance int              `json:"opening_balance"`
	Origin         string           `json:"origin"`
	Status         string           `json:"status"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CountedOpening is the opening balance that came from a stock count. An item
// created by a purchase or transfer returns 0: its opening quantity is that
// movement's quantity.
func (it *InventoryItem) CountedOpening() int {
	switch it.Origin {
	case OriginPurchase, OriginTransfer:
		return 0
	}
	return it.OpeningBalance
}

// CreateInventoryItemRequest is the body for explicit item creation.
type CreateInventoryItemRequest struct {
	AssetTypeID int64            `json:"asset_type_id"`
	LocationID  int64            `json:"location_id"`
	Quantity    int              `json:"quantity"`
	Status      string           `json:"status,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// UpdateInventoryItemRequest edits an item's bookkeeping fields. On-hand
// quantity is not among them.
type UpdateInventoryItemRequest struct {
	Status   *string          `json:"status,omitempty"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

// InventoryItemView is an item populated with its asset type and location.
type InventoryItemView struct {
	InventoryItem
	AssetType *AssetType `json:"asset_type,omitempty"`
	Location  *Location  `json:"location,omitempty"`
}

// IsValidItemStatus checks if status is one of ItemStatuses
func IsValidItemStatus(status string) bool {
	for _, s := range ItemStatuses {
		if s == status {
			return true
		}
	}
	return false
}
