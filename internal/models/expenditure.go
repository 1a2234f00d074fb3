package models

import "time"

const (
	MaxExpenditureDescription = 500
	MaxExpenditureNotes       = 1000
)

// ExpenditureReasons is the reason enum, spelled as the forms send it.
var ExpenditureReasons = []string{"Training", "Operations", "Maintenance", "Emergency", "Exercise", "Other"}

// ExpenditureRecord is permanent consumption of quantity. Approved is
// tri-state: nil pending, true approved, false rejected.
type ExpenditureRecord struct {
	ID           int64      `json:"id"`
	ItemID       int64      `json:"item_id"`
	LocationID   int64      `json:"location_id"`
	Quantity     int        `json:"quantity"`
	Reason       string     `json:"reason"`
	Description  string     `json:"description,omitempty"`
	ExpendedBy   int64      `json:"expended_by"`
	ExpendedDate time.Time  `json:"expended_date"`
	Approved     *bool      `json:"approved"`
	ApprovedBy   *int64     `json:"approved_by,omitempty"`
	ApprovedDate *time.Time `json:"approved_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsApproved reports approved == true; pending and rejected are both false.
func (e *ExpenditureRecord) IsApproved() bool {
	return e.Approved != nil && *e.Approved
}

type CreateExpenditureRequest struct {
	ItemID       int64  `json:"item_id"`
	LocationID   *int64 `json:"location_id,omitempty"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
	Description  string `json:"description,omitempty"`
	ExpendedDate *Date  `json:"expended_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type UpdateExpenditureRequest struct {
	Reason       *string `json:"reason,omitempty"`
	Description  *string `json:"description,omitempty"`
	ExpendedDate *Date   `json:"expended_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Approved     *bool   `json:"approved,omitempty"`
}

type ExpenditureView struct {
	ExpenditureRecord
	Item      *InventoryItem `json:"item,omitempty"`
	AssetType *AssetType     `json:"asset_type,omitempty"`
	Location  *Location      `json:"location,omitempty"`
	Expender  *UserRef       `json:"expender,omitempty"`
	Approver  *UserRef       `json:"approver,omitempty"`
}

// ExpenditureStat aggregates expenditures sharing a reason.
type ExpenditureStat struct {
	Reason        string `json:"reason"`
	Count         int    `json:"count"`
	TotalQuantity int    `json:"total_quantity"`
}

// IsValidReason checks the expenditure reason enum
func IsValidReason(reason string) bool {
	for _, r := range ExpenditureReasons {
		if r == reason {
			return true
		}
	}
	return false
}
