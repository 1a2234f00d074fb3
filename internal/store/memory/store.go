// Package memory is an in-process ledger.Store. Every method takes one mutex,
// so each call is atomic with respect to the others. Records are copied in
// and out, pointer fields included; callers never share memory with the store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

var _ ledger.Store = (*Store)(nil)

type state struct {
	locations    map[int64]models.Location
	assetTypes   map[int64]models.AssetType
	users        map[int64]models.User
	items        map[int64]models.InventoryItem
	purchases    map[int64]models.PurchaseRecord
	transfers    map[int64]models.TransferRecord
	assignments  map[int64]models.AssignmentRecord
	expenditures map[int64]models.ExpenditureRecord
}

type Store struct {
	mu     sync.Mutex
	state  state
	nextID int64
	now    func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: state{
			locations:    map[int64]models.Location{},
			assetTypes:   map[int64]models.AssetType{},
			users:        map[int64]models.User{},
			items:        map[int64]models.InventoryItem{},
			purchases:    map[int64]models.PurchaseRecord{},
			transfers:    map[int64]models.TransferRecord{},
			assignments:  map[int64]models.AssignmentRecord{},
			expenditures: map[int64]models.ExpenditureRecord{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// newID hands out one sequence shared by every table, which keeps ids unique
// across record kinds and makes test fixtures easy to tell apart.
func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// --- reference data ---

func (s *Store) GetLocation(_ context.Context, id int64) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.state.locations[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	loc = detach(loc)
	return &loc, nil
}

func (s *Store) ListLocations(context.Context) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Location, 0, len(s.state.locations))
	for _, loc := range s.state.locations {
		out = append(out, detach(loc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateLocation(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.state.locations {
		if strings.EqualFold(existing.Code, loc.Code) {
			return ledger.ErrDuplicate
		}
	}
	loc.ID = s.newID()
	s.stamp(&loc.CreatedAt, &loc.UpdatedAt)
	s.state.locations[loc.ID] = detach(*loc)
	return nil
}

func (s *Store) UpdateLocation(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.locations[loc.ID]; !ok {
		return ledger.ErrNotFound
	}
	for id, existing := range s.state.locations {
		if id != loc.ID && strings.EqualFold(existing.Code, loc.Code) {
			return ledger.ErrDuplicate
		}
	}
	loc.UpdatedAt = s.now()
	s.state.locations[loc.ID] = detach(*loc)
	return nil
}

func (s *Store) GetAssetType(_ context.Context, id int64) (*models.AssetType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.state.assetTypes[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	at = detach(at)
	return &at, nil
}

func (s *Store) ListAssetTypes(context.Context) ([]models.AssetType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AssetType, 0, len(s.state.assetTypes))
	for _, at := range s.state.assetTypes {
		out = append(out, detach(at))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateAssetType(_ context.Context, at *models.AssetType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.state.assetTypes {
		if strings.EqualFold(existing.Name, at.Name) {
			return ledger.ErrDuplicate
		}
	}
	at.ID = s.newID()
	s.stamp(&at.CreatedAt, &at.UpdatedAt)
	s.state.assetTypes[at.ID] = detach(*at)
	return nil
}

func (s *Store) UpdateAssetType(_ context.Context, at *models.AssetType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.assetTypes[at.ID]; !ok {
		return ledger.ErrNotFound
	}
	for id, existing := range s.state.assetTypes {
		if id != at.ID && strings.EqualFold(existing.Name, at.Name) {
			return ledger.ErrDuplicate
		}
	}
	at.UpdatedAt = s.now()
	s.state.assetTypes[at.ID] = detach(*at)
	return nil
}

func (s *Store) DeleteAssetType(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.assetTypes[id]; !ok {
		return ledger.ErrNotFound
	}
	for _, it := range s.state.items {
		if it.AssetTypeID == id {
			return ledger.ErrInUse
		}
	}
	for _, rec := range s.state.purchases {
		if rec.AssetTypeID == id {
			return ledger.ErrInUse
		}
	}
	for _, rec := range s.state.transfers {
		if rec.AssetTypeID == id {
			return ledger.ErrInUse
		}
	}
	delete(s.state.assetTypes, id)
	return nil
}

// AddUser is CreateUser without a context, for seeding.
func (s *Store) AddUser(u *models.User) error {
	return s.CreateUser(context.Background(), u)
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userClashLocked(0, u) {
		return ledger.ErrDuplicate
	}
	u.ID = s.newID()
	s.stamp(&u.CreatedAt, &u.UpdatedAt)
	s.state.users[u.ID] = detach(*u)
	return nil
}

// userClashLocked reports whether another user already holds u's username or
// email. Emails compare case-insensitively.
func (s *Store) userClashLocked(self int64, u *models.User) bool {
	for id, existing := range s.state.users {
		if id == self {
			continue
		}
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return true
		}
	}
	return false
}

func (s *Store) ListUsers(_ context.Context, f ledger.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.state.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.LocationID != nil && (u.LocationID == nil || *u.LocationID != *f.LocationID) {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		out = append(out, detach(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, f.Page)
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.users[u.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if s.userClashLocked(u.ID, u) {
		return ledger.ErrDuplicate
	}
	u.CreatedAt = cur.CreatedAt
	u.LastLoginAt = dup(cur.LastLoginAt)
	u.UpdatedAt = s.now()
	s.state.users[u.ID] = detach(*u)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.users[id]; !ok {
		return ledger.ErrNotFound
	}
	if s.userReferencedLocked(id) {
		return ledger.ErrInUse
	}
	delete(s.state.users, id)
	return nil
}

func (s *Store) userReferencedLocked(id int64) bool {
	is := func(p *int64) bool { return p != nil && *p == id }
	for _, rec := range s.state.purchases {
		if rec.PurchasedBy == id {
			return true
		}
	}
	for _, rec := range s.state.transfers {
		if rec.InitiatedBy == id || is(rec.ApprovedBy) {
			return true
		}
	}
	for _, rec := range s.state.assignments {
		if rec.AssignedBy == id {
			return true
		}
	}
	for _, rec := range s.state.expenditures {
		if rec.ExpendedBy == id || is(rec.ApprovedBy) {
			return true
		}
	}
	return false
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	u = detach(u)
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.state.users {
		if u.Username == username {
			u = detach(u)
			return &u, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) TouchLastLogin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return ledger.ErrNotFound
	}
	now := s.now()
	u.LastLoginAt = &now
	s.state.users[id] = detach(u)
	return nil
}

// --- inventory ---

func (s *Store) GetInventoryItem(_ context.Context, id int64) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.state.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	it = detach(it)
	return &it, nil
}

func (s *Store) FindInventoryItem(_ context.Context, assetTypeID, locationID int64) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.findItemLocked(assetTypeID, locationID)
	if !ok {
		return nil, ledger.ErrNotFound
	}
	it = detach(it)
	return &it, nil
}

func (s *Store) findItemLocked(assetTypeID, locationID int64) (models.InventoryItem, bool) {
	for _, it := range s.state.items {
		if it.AssetTypeID == assetTypeID && it.LocationID == locationID {
			return it, true
		}
	}
	return models.InventoryItem{}, false
}

func (s *Store) ListInventoryItems(_ context.Context, f ledger.InventoryFilter) ([]models.InventoryItem, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InventoryItem
	for _, it := range s.state.items {
		if f.LocationID != nil && it.LocationID != *f.LocationID {
			continue
		}
		if f.AssetTypeID != nil && it.AssetTypeID != *f.AssetTypeID {
			continue
		}
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		out = append(out, detach(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Page)
}

func (s *Store) CreateInventoryItem(_ context.Context, it *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findItemLocked(it.AssetTypeID, it.LocationID); ok {
		return ledger.ErrDuplicate
	}
	it.ID = s.newID()
	s.stamp(&it.CreatedAt, &it.UpdatedAt)
	s.state.items[it.ID] = detach(*it)
	return nil
}

func (s *Store) AdjustOnHand(_ context.Context, id int64, delta int) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.state.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if it.OnHand+delta < 0 {
		return nil, ledger.ErrInsufficientQuantity
	}
	it.OnHand += delta
	it.UpdatedAt = s.now()
	s.state.items[id] = detach(it)
	it = detach(it)
	return &it, nil
}

func (s *Store) CreditInventory(_ context.Context, tmpl models.InventoryItem, qty int) (*models.InventoryItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.findItemLocked(tmpl.AssetTypeID, tmpl.LocationID); ok {
		it.OnHand += qty
		it.UpdatedAt = s.now()
		s.state.items[it.ID] = detach(it)
		it = detach(it)
		return &it, false, nil
	}
	it := tmpl
	it.ID = s.newID()
	it.OnHand = qty
	it.OpeningBalance = qty
	it.CreatedAt = time.Time{}
	s.stamp(&it.CreatedAt, &it.UpdatedAt)
	s.state.items[it.ID] = detach(it)
	it = detach(it)
	return &it, true, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, it *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.items[it.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	cur.Status = it.Status
	cur.UnitCost = it.UnitCost
	cur.Notes = it.Notes
	cur.UpdatedAt = s.now()
	s.state.items[it.ID] = detach(cur)
	*it = detach(cur)
	return nil
}

func (s *Store) DeleteInventoryItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.items[id]; !ok {
		return ledger.ErrNotFound
	}
	for _, rec := range s.state.transfers {
		if rec.ItemID == id {
			return ledger.ErrInUse
		}
	}
	for _, rec := range s.state.assignments {
		if rec.ItemID == id {
			return ledger.ErrInUse
		}
	}
	for _, rec := range s.state.expenditures {
		if rec.ItemID == id {
			return ledger.ErrInUse
		}
	}
	delete(s.state.items, id)
	return nil
}

// --- purchases ---

func (s *Store) CreatePurchase(_ context.Context, rec *models.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID()
	s.stamp(&rec.CreatedAt, &rec.UpdatedAt)
	s.state.purchases[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) GetPurchase(_ context.Context, id int64) (*models.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.purchases[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	rec = detach(rec)
	return &rec, nil
}

func (s *Store) ListPurchases(_ context.Context, f ledger.PurchaseFilter) ([]models.PurchaseRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PurchaseRecord
	for _, rec := range s.state.purchases {
		if f.LocationID != nil && rec.LocationID != *f.LocationID {
			continue
		}
		if f.AssetTypeID != nil && rec.AssetTypeID != *f.AssetTypeID {
			continue
		}
		if !f.Dates.Contains(rec.PurchaseDate) {
			continue
		}
		out = append(out, detach(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Page)
}

func (s *Store) UpdatePurchase(_ context.Context, rec *models.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.purchases[rec.ID]; !ok {
		return ledger.ErrNotFound
	}
	rec.UpdatedAt = s.now()
	s.state.purchases[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) DeletePurchase(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.purchases[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.state.purchases, id)
	return nil
}

// --- transfers ---

func (s *Store) CreateTransfer(_ context.Context, rec *models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID()
	s.stamp(&rec.CreatedAt, &rec.UpdatedAt)
	s.state.transfers[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) GetTransfer(_ context.Context, id int64) (*models.TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.transfers[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	rec = detach(rec)
	return &rec, nil
}

func (s *Store) ListTransfers(_ context.Context, f ledger.TransferFilter) ([]models.TransferRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TransferRecord
	for _, rec := range s.state.transfers {
		if len(f.Statuses) > 0 && !contains(f.Statuses, rec.Status) {
			continue
		}
		if f.FromLocationID != nil && rec.FromLocationID != *f.FromLocationID {
			continue
		}
		if f.ToLocationID != nil && rec.ToLocationID != *f.ToLocationID {
			continue
		}
		if f.EitherLocationID != nil && rec.FromLocationID != *f.EitherLocationID && rec.ToLocationID != *f.EitherLocationID {
			continue
		}
		if f.AssetTypeID != nil && rec.AssetTypeID != *f.AssetTypeID {
			continue
		}
		if !f.Dates.Contains(rec.CreatedAt) {
			continue
		}
		out = append(out, detach(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Page)
}

func (s *Store) UpdateTransfer(_ context.Context, rec *models.TransferRecord, expectStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.transfers[rec.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if cur.Status != expectStatus {
		return ledger.ErrStaleState
	}
	rec.UpdatedAt = s.now()
	s.state.transfers[rec.ID] = detach(*rec)
	return nil
}

// --- assignments ---

func (s *Store) CreateAssignment(_ context.Context, rec *models.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID()
	s.stamp(&rec.CreatedAt, &rec.UpdatedAt)
	s.state.assignments[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, id int64) (*models.AssignmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.assignments[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	rec = detach(rec)
	return &rec, nil
}

func (s *Store) ListAssignments(_ context.Context, f ledger.AssignmentFilter) ([]models.AssignmentRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssignmentRecord
	for _, rec := range s.state.assignments {
		if f.LocationID != nil && rec.LocationID != *f.LocationID {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, rec.Status) {
			continue
		}
		if f.AssetTypeID != nil && !s.itemHasAssetTypeLocked(rec.ItemID, *f.AssetTypeID) {
			continue
		}
		if !f.Dates.Contains(rec.AssignmentDate) {
			continue
		}
		out = append(out, detach(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Page)
}

func (s *Store) UpdateAssignment(_ context.Context, rec *models.AssignmentRecord, expectStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.assignments[rec.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if cur.Status != expectStatus {
		return ledger.ErrStaleState
	}
	rec.UpdatedAt = s.now()
	s.state.assignments[rec.ID] = detach(*rec)
	return nil
}

// --- expenditures ---

func (s *Store) CreateExpenditure(_ context.Context, rec *models.ExpenditureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.newID()
	s.stamp(&rec.CreatedAt, &rec.UpdatedAt)
	s.state.expenditures[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) GetExpenditure(_ context.Context, id int64) (*models.ExpenditureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.expenditures[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	rec = detach(rec)
	return &rec, nil
}

func (s *Store) ListExpenditures(_ context.Context, f ledger.ExpenditureFilter) ([]models.ExpenditureRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filterExpendituresLocked(f)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpendedDate.Equal(out[j].ExpendedDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].ExpendedDate.After(out[j].ExpendedDate)
	})
	return page(out, f.Page)
}

func (s *Store) filterExpendituresLocked(f ledger.ExpenditureFilter) []models.ExpenditureRecord {
	var out []models.ExpenditureRecord
	for _, rec := range s.state.expenditures {
		if f.LocationID != nil && rec.LocationID != *f.LocationID {
			continue
		}
		if f.ItemID != nil && rec.ItemID != *f.ItemID {
			continue
		}
		if f.Reason != "" && rec.Reason != f.Reason {
			continue
		}
		if !approvalMatches(f.Approval, rec.Approved) {
			continue
		}
		if !f.Dates.Contains(rec.ExpendedDate) {
			continue
		}
		out = append(out, detach(rec))
	}
	return out
}

func (s *Store) UpdateExpenditure(_ context.Context, rec *models.ExpenditureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.expenditures[rec.ID]; !ok {
		return ledger.ErrNotFound
	}
	rec.UpdatedAt = s.now()
	s.state.expenditures[rec.ID] = detach(*rec)
	return nil
}

func (s *Store) DeleteExpenditure(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.expenditures[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.state.expenditures, id)
	return nil
}

func (s *Store) ExpenditureStats(_ context.Context, f ledger.ExpenditureFilter) ([]models.ExpenditureStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byReason := map[string]*models.ExpenditureStat{}
	for _, rec := range s.filterExpendituresLocked(f) {
		st := byReason[rec.Reason]
		if st == nil {
			st = &models.ExpenditureStat{Reason: rec.Reason}
			byReason[rec.Reason] = st
		}
		st.Count++
		st.TotalQuantity += rec.Quantity
	}
	out := make([]models.ExpenditureStat, 0, len(byReason))
	for _, st := range byReason {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalQuantity > out[j].TotalQuantity })
	return out, nil
}

func (s *Store) itemHasAssetTypeLocked(itemID, assetTypeID int64) bool {
	it, ok := s.state.items[itemID]
	return ok && it.AssetTypeID == assetTypeID
}

func dup[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// detach copies the pointer fields of a record so that neither side of a
// store call can change the other's copy.
func detach[T any](v T) T {
	switch r := any(&v).(type) {
	case *models.Location:
		r.Place = dup(r.Place)
	case *models.AssetType:
		r.Description = dup(r.Description)
	case *models.User:
		r.LocationID = dup(r.LocationID)
		r.LastLoginAt = dup(r.LastLoginAt)
	case *models.InventoryItem:
		r.UnitCost = dup(r.UnitCost)
		r.Notes = dup(r.Notes)
	case *models.TransferRecord:
		r.ApprovedBy = dup(r.ApprovedBy)
		r.TransferDate = dup(r.TransferDate)
	case *models.AssignmentRecord:
		r.ExpectedReturnDate = dup(r.ExpectedReturnDate)
		r.ActualReturnDate = dup(r.ActualReturnDate)
	case *models.ExpenditureRecord:
		r.Approved = dup(r.Approved)
		r.ApprovedBy = dup(r.ApprovedBy)
		r.ApprovedDate = dup(r.ApprovedDate)
	}
	return v
}

func approvalMatches(want string, approved *bool) bool {
	switch want {
	case ledger.ApprovalPending:
		return approved == nil
	case ledger.ApprovalApproved:
		return approved != nil && *approved
	case ledger.ApprovalRejected:
		return approved != nil && !*approved
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func page[T any](rows []T, p ledger.Page) ([]T, int, error) {
	total := len(rows)
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset >= total {
		return []T{}, total, nil
	}
	rows = rows[p.Offset:]
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows, total, nil
}
