package models

import "time"

const (
	AssignmentPending   = "pending"
	AssignmentActive    = "active"
	AssignmentReturned  = "returned"
	AssignmentCancelled = "cancelled"
	AssignmentExpended  = "expended"
)

// AssignmentRecord is quantity checked out to a named person.
type AssignmentRecord struct {
	ID                 int64      `json:"id"`
	Reference          string     `json:"reference"`
	ItemID             int64      `json:"item_id"`
	Quantity           int        `json:"quantity"`
	AssignedTo         string     `json:"assigned_to"`
	Rank               string     `json:"rank,omitempty"`
	Unit               string     `json:"unit,omitempty"`
	LocationID         int64      `json:"location_id"`
	AssignedBy         int64      `json:"assigned_by"`
	AssignmentDate     time.Time  `json:"assignment_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
	Purpose            string     `json:"purpose,omitempty"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type CreateAssignmentRequest struct {
	ItemID             int64  `json:"item_id"`
	Quantity           int    `json:"quantity"`
	AssignedTo         string `json:"assigned_to"`
	Rank               string `json:"rank,omitempty"`
	Unit               string `json:"unit,omitempty"`
	LocationID         *int64 `json:"location_id,omitempty"`
	AssignmentDate     *Date  `json:"assignment_date,omitempty"`
	ExpectedReturnDate *Date  `json:"expected_return_date,omitempty"`
	Purpose            string `json:"purpose,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// UpdateAssignmentRequest carries the free-text corrections an assignment
// accepts after creation. Status and quantity only change through transitions.
type UpdateAssignmentRequest struct {
	AssignedTo         *string `json:"assigned_to,omitempty"`
	Rank               *string `json:"rank,omitempty"`
	Unit               *string `json:"unit,omitempty"`
	ExpectedReturnDate *Date   `json:"expected_return_date,omitempty"`
	Purpose            *string `json:"purpose,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

type AssignmentView struct {
	AssignmentRecord
	Item      *InventoryItem `json:"item,omitempty"`
	AssetType *AssetType     `json:"asset_type,omitempty"`
	Location  *Location      `json:"location,omitempty"`
	Assigner  *UserRef       `json:"assigner,omitempty"`
}
