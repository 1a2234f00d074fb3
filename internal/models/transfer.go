package models

import "time"

const (
	TransferPending   = "pending"
	TransferApproved  = "approved"
	TransferRejected  = "rejected"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TransferRecord moves quantity of one inventory item between two locations.
type TransferRecord struct {
	ID             int64      `json:"id"`
	Reference      string     `json:"reference"`
	ItemID         int64      `json:"item_id"`
	AssetTypeID    int64      `json:"asset_type_id"`
	Quantity       int        `json:"quantity"`
	FromLocationID int64      `json:"from_location_id"`
	ToLocationID   int64      `json:"to_location_id"`
	InitiatedBy    int64      `json:"initiated_by"`
	ApprovedBy     *int64     `json:"approved_by,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	TransferDate   *time.Time `json:"transfer_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Terminal reports whether no further transition is allowed.
func (t *TransferRecord) Terminal() bool {
	switch t.Status {
	case TransferCompleted, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

type CreateTransferRequest struct {
	ItemID       int64  `json:"item_id"`
	Quantity     int    `json:"quantity"`
	ToLocationID int64  `json:"to_location_id"`
	Priority     string `json:"priority,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type TransferView struct {
	TransferRecord
	Item         *InventoryItem `json:"item,omitempty"`
	AssetType    *AssetType     `json:"asset_type,omitempty"`
	FromLocation *Location      `json:"from_location,omitempty"`
	ToLocation   *Location      `json:"to_location,omitempty"`
	Initiator    *UserRef       `json:"initiator,omitempty"`
	Approver     *UserRef       `json:"approver,omitempty"`
}

// IsValidPriority checks the transfer priority enum
func IsValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}
