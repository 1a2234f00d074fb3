package models

// MovementSummary totals ledger movement for one inventory item.
type MovementSummary struct {
	ItemID         int64  `json:"item_id"`
	AssetTypeID    int64  `json:"asset_type_id"`
	AssetTypeName  string `json:"asset_type_name,omitempty"`
	LocationID     int64  `json:"location_id"`
	LocationName   string `json:"location_name,omitempty"`
	OpeningBalance int    `json:"opening_balance"`
	Purchased      int    `json:"purchased"`
	TransferredIn  int    `json:"transferred_in"`
	TransferredOut int    `json:"transferred_out"`
	Assigned       int    `json:"assigned"`
	Expended       int    `json:"expended"`
	OnHand         int    `json:"on_hand"`
}
