package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *ledger.Service
	rec   *countingRecorder

	alpha, bravo models.Location
	rifle        models.AssetType

	admin      ledger.Principal
	logistics  ledger.Principal // home: alpha
	commander  ledger.Principal // home: alpha
	bravoLead  ledger.Principal // unit leader at bravo
	homeless   ledger.Principal // commander with no base
	adminUser  *models.User
	logistUser *models.User
}

type countingRecorder struct {
	mu    sync.Mutex
	calls map[string]int
	fails map[string]int
}

func (r *countingRecorder) RecordOperation(op string, err error, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fails[op]++
		return
	}
	r.calls[op]++
}

func newFixture(t *testing.T, opts ...func(*ledger.Options)) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	f := &fixture{
		store: st,
		rec:   &countingRecorder{calls: map[string]int{}, fails: map[string]int{}},
	}

	alpha := &models.Location{Name: "Fort Alpha", Code: "ALPHA", IsActive: true}
	bravo := &models.Location{Name: "Camp Bravo", Code: "BRAVO", IsActive: true}
	require.NoError(t, st.CreateLocation(ctx, alpha))
	require.NoError(t, st.CreateLocation(ctx, bravo))
	rifle := &models.AssetType{Name: "M4 Carbine", Category: "weapon", Unit: "each", IsActive: true}
	require.NoError(t, st.CreateAssetType(ctx, rifle))
	f.alpha, f.bravo, f.rifle = *alpha, *bravo, *rifle

	f.adminUser = addUser(t, st, "admin", models.RoleAdmin, nil)
	f.logistUser = addUser(t, st, "logi", models.RoleLogistics, &alpha.ID)
	cmd := addUser(t, st, "cmd", models.RoleCommander, &alpha.ID)
	lead := addUser(t, st, "lead", models.RoleUnitLeader, &bravo.ID)
	drifter := addUser(t, st, "drifter", models.RoleCommander, nil)

	f.admin = principal(f.adminUser)
	f.logistics = principal(f.logistUser)
	f.commander = principal(cmd)
	f.bravoLead = principal(lead)
	f.homeless = principal(drifter)

	o := ledger.Options{Recorder: f.rec, Now: func() time.Time { return fixedNow }, PasswordCost: bcrypt.MinCost}
	for _, fn := range opts {
		fn(&o)
	}
	f.svc = ledger.NewService(st, o)
	return f
}

func addUser(t *testing.T, st *memory.Store, name, role string, home *int64) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.mil", Role: role, LocationID: home, IsActive: true}
	require.NoError(t, st.AddUser(u))
	return u
}

func principal(u *models.User) ledger.Principal {
	return ledger.Principal{UserID: u.ID, Role: u.Role, LocationID: u.LocationID}
}

// stock creates an item at loc with the given on-hand quantity.
func (f *fixture) stock(t *testing.T, loc models.Location, qty int) *models.InventoryItem {
	t.Helper()
	v, err := f.svc.CreateInventoryItem(context.Background(), f.admin, models.CreateInventoryItemRequest{
		AssetTypeID: f.rifle.ID,
		LocationID:  loc.ID,
		Quantity:    qty,
	})
	require.NoError(t, err)
	return &v.InventoryItem
}

func (f *fixture) onHand(t *testing.T, itemID int64) int {
	t.Helper()
	it, err := f.store.GetInventoryItem(context.Background(), itemID)
	require.NoError(t, err)
	return it.OnHand
}

func (f *fixture) onHandAt(t *testing.T, loc models.Location) (int, bool) {
	t.Helper()
	it, err := f.store.FindInventoryItem(context.Background(), f.rifle.ID, loc.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, false
	}
	require.NoError(t, err)
	return it.OnHand, true
}

func assertKind(t *testing.T, want ledger.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want.String(), ledger.KindOf(err).String(), "error: %v", err)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func date(t time.Time) *models.Date {
	return &models.Date{Time: t}
}

func ptr[T any](v T) *T {
	return &v
}
