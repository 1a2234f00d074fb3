package ledger

import (
	"context"
	"time"

	"asset-ledger-api/internal/models"
)

// Page bounds a list query. Limit 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

// DateRange bounds a list query by the record's principal date. Either end
// may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range (both ends inclusive).
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

type InventoryFilter struct {
	LocationID  *int64
	AssetTypeID *int64
	Status      string
	Page
}

type PurchaseFilter struct {
	LocationID  *int64
	AssetTypeID *int64
	Dates       DateRange
	Page
}

type TransferFilter struct {
	Statuses       []string
	FromLocationID *int64
	ToLocationID   *int64
	// EitherLocationID matches transfers leaving or entering the location.
	EitherLocationID *int64
	AssetTypeID      *int64
	// Dates bounds created_at.
	Dates DateRange
	Page
}

type AssignmentFilter struct {
	LocationID  *int64
	Statuses    []string
	AssetTypeID *int64
	Dates       DateRange
	Page
}

// Approval states accepted by ExpenditureFilter.Approval.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

type ExpenditureFilter struct {
	LocationID *int64
	ItemID     *int64
	Reason     string
	Approval   string
	Dates      DateRange
	Page
}

type UserFilter struct {
	Role       string
	LocationID *int64
	Active     *bool
	Page
}

// ReferenceStore holds locations, asset types and users. Update methods
// write every mutable column of the record and return ErrNotFound for an
// unknown id and ErrDuplicate on a unique clash. Deletes return ErrInUse
// while ledger records still point at the row.
type ReferenceStore interface {
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	CreateLocation(ctx context.Context, loc *models.Location) error
	UpdateLocation(ctx context.Context, loc *models.Location) error

	GetAssetType(ctx context.Context, id int64) (*models.AssetType, error)
	ListAssetTypes(ctx context.Context) ([]models.AssetType, error)
	CreateAssetType(ctx context.Context, at *models.AssetType) error
	UpdateAssetType(ctx context.Context, at *models.AssetType) error
	DeleteAssetType(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int, error)
	// CreateUser returns ErrDuplicate when the username or email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// InventoryStore holds on-hand quantities.
type InventoryStore interface {
	GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	FindInventoryItem(ctx context.Context, assetTypeID, locationID int64) (*models.InventoryItem, error)
	ListInventoryItems(ctx context.Context, f InventoryFilter) ([]models.InventoryItem, int, error)
	// CreateInventoryItem returns ErrDuplicate when an item already exists for
	// the (asset type, location) pair.
	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	// AdjustOnHand adds delta to the item's on-hand quantity in one atomic
	// step. A negative delta that would take on-hand below zero changes
	// nothing and returns ErrInsufficientQuantity.
	AdjustOnHand(ctx context.Context, id int64, delta int) (*models.InventoryItem, error)
	// CreditInventory adds qty to the item for tmpl's (asset type, location),
	// creating it from tmpl with on-hand and opening balance qty when absent.
	// The boolean reports creation.
	CreditInventory(ctx context.Context, tmpl models.InventoryItem, qty int) (*models.InventoryItem, bool, error)
	// UpdateInventoryItem writes status, unit cost and notes. Quantities only
	// move through AdjustOnHand and CreditInventory.
	UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id int64) error
}

type PurchaseStore interface {
	CreatePurchase(ctx context.Context, rec *models.PurchaseRecord) error
	GetPurchase(ctx context.Context, id int64) (*models.PurchaseRecord, error)
	ListPurchases(ctx context.Context, f PurchaseFilter) ([]models.PurchaseRecord, int, error)
	UpdatePurchase(ctx context.Context, rec *models.PurchaseRecord) error
	DeletePurchase(ctx context.Context, id int64) error
}

// TransferStore persists transfers. UpdateTransfer writes rec only if the
// stored status still equals expectStatus, else ErrStaleState.
type TransferStore interface {
	CreateTransfer(ctx context.Context, rec *models.TransferRecord) error
	GetTransfer(ctx context.Context, id int64) (*models.TransferRecord, error)
	ListTransfers(ctx context.Context, f TransferFilter) ([]models.TransferRecord, int, error)
	UpdateTransfer(ctx context.Context, rec *models.TransferRecord, expectStatus string) error
}

// AssignmentStore persists assignments with the same status guard as
// TransferStore.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, rec *models.AssignmentRecord) error
	GetAssignment(ctx context.Context, id int64) (*models.AssignmentRecord, error)
	ListAssignments(ctx context.Context, f AssignmentFilter) ([]models.AssignmentRecord, int, error)
	UpdateAssignment(ctx context.Context, rec *models.AssignmentRecord, expectStatus string) error
}

type ExpenditureStore interface {
	CreateExpenditure(ctx context.Context, rec *models.ExpenditureRecord) error
	GetExpenditure(ctx context.Context, id int64) (*models.ExpenditureRecord, error)
	ListExpenditures(ctx context.Context, f ExpenditureFilter) ([]models.ExpenditureRecord, int, error)
	UpdateExpenditure(ctx context.Context, rec *models.ExpenditureRecord) error
	// DeleteExpenditure returns ErrNotFound when the record is already gone.
	DeleteExpenditure(ctx context.Context, id int64) error
	ExpenditureStats(ctx context.Context, f ExpenditureFilter) ([]models.ExpenditureStat, error)
}

// Store is everything the ledger needs from persistence.
type Store interface {
	ReferenceStore
	InventoryStore
	PurchaseStore
	TransferStore
	AssignmentStore
	ExpenditureStore
	Ping(ctx context.Context) error
}
