package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/postgres"
	"asset-ledger-api/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seeded struct {
	store        *postgres.Store
	alpha, bravo *models.Location
	rifle        *models.AssetType
	admin        *models.User
}

func setup(t *testing.T) *seeded {
	t.Helper()
	testutil.RequireIntegration(t)
	conn := testutil.NewTestDB(t)
	testutil.ResetSchema(t, conn)

	ctx := context.Background()
	st := postgres.New(conn)
	sd := &seeded{
		store: st,
		alpha: &models.Location{Name: "Fort Alpha", Code: "ALPHA", IsActive: true},
		bravo: &models.Location{Name: "Camp Bravo", Code: "BRAVO", IsActive: true},
		rifle: &models.AssetType{Name: "M4 Carbine", Category: "weapon", Unit: "each", IsActive: true},
		admin: &models.User{Username: "admin", Email: "admin@example.mil", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true},
	}
	require.NoError(t, st.CreateLocation(ctx, sd.alpha))
	require.NoError(t, st.CreateLocation(ctx, sd.bravo))
	require.NoError(t, st.CreateAssetType(ctx, sd.rifle))
	require.NoError(t, st.CreateUser(ctx, sd.admin))
	return sd
}

func TestPostgres_DuplicateLocationCode(t *testing.T) {
	sd := setup(t)
	err := sd.store.CreateLocation(context.Background(), &models.Location{Name: "Again", Code: "ALPHA", IsActive: true})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)
}

func TestPostgres_UserAndReferenceEdits(t *testing.T) {
	sd := setup(t)
	ctx := context.Background()

	logi := &models.User{Username: "logi", Email: "logi@example.mil", PasswordHash: "x", Role: models.RoleLogistics, LocationID: &sd.alpha.ID, IsActive: true}
	require.NoError(t, sd.store.CreateUser(ctx, logi))
	clash := &models.User{Username: "logi2", Email: "logi@example.mil", PasswordHash: "x", Role: models.RoleLogistics, LocationID: &sd.alpha.ID}
	assert.ErrorIs(t, sd.store.CreateUser(ctx, clash), ledger.ErrDuplicate)

	logi.LocationID = &sd.bravo.ID
	logi.IsActive = false
	require.NoError(t, sd.store.UpdateUser(ctx, logi))
	active := false
	users, total, err := sd.store.ListUsers(ctx, ledger.UserFilter{LocationID: &sd.bravo.ID, Active: &active})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "logi", users[0].Username)

	sd.alpha.Place = nil
	sd.alpha.IsActive = false
	require.NoError(t, sd.store.UpdateLocation(ctx, sd.alpha))
	sd.alpha.Code = "BRAVO"
	assert.ErrorIs(t, sd.store.UpdateLocation(ctx, sd.alpha), ledger.ErrDuplicate)

	it := &models.InventoryItem{Reference: "AST-0000000A", AssetTypeID: sd.rifle.ID, LocationID: sd.bravo.ID, Status: models.ItemAvailable}
	require.NoError(t, sd.store.CreateInventoryItem(ctx, it))
	it.Status = models.ItemRetired
	require.NoError(t, sd.store.UpdateInventoryItem(ctx, it))
	assert.Equal(t, models.ItemRetired, it.Status)
	assert.ErrorIs(t, sd.store.DeleteAssetType(ctx, sd.rifle.ID), ledger.ErrInUse)

	require.NoError(t, sd.store.CreateExpenditure(ctx, &models.ExpenditureRecord{
		ItemID: it.ID, LocationID: sd.bravo.ID, Quantity: 1, Reason: "Training", ExpendedBy: logi.ID, ExpendedDate: time.Now(),
	}))
	assert.ErrorIs(t, sd.store.DeleteUser(ctx, logi.ID), ledger.ErrInUse)
	assert.ErrorIs(t, sd.store.DeleteInventoryItem(ctx, it.ID), ledger.ErrInUse)
	assert.ErrorIs(t, sd.store.DeleteUser(ctx, 999999), ledger.ErrNotFound)
}

func TestPostgres_CreditAndAdjust(t *testing.T) {
	sd := setup(t)
	ctx := context.Background()
	cost := decimal.RequireFromString("12.50")
	tmpl := models.InventoryItem{Reference: "AST-00000001", AssetTypeID: sd.rifle.ID, LocationID: sd.alpha.ID, Status: models.ItemAvailable, UnitCost: &cost}

	it, created, err := sd.store.CreditInventory(ctx, tmpl, 10)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 10, it.OnHand)
	assert.Equal(t, 10, it.OpeningBalance)
	require.NotNil(t, it.UnitCost)
	assert.True(t, cost.Equal(*it.UnitCost))

	tmpl.Reference = "AST-00000002"
	again, created, err := sd.store.CreditInventory(ctx, tmpl, 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, it.ID, again.ID)
	assert.Equal(t, 15, again.OnHand)
	assert.Equal(t, 10, again.OpeningBalance)

	_, err = sd.store.AdjustOnHand(ctx, it.ID, -16)
	assert.ErrorIs(t, err, ledger.ErrInsufficientQuantity)
	_, err = sd.store.AdjustOnHand(ctx, 999999, -1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	// Concurrent debits of 1 against 15: exactly 15 succeed.
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sd.store.AdjustOnHand(ctx, it.ID, -1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 15, ok)
	got, err := sd.store.GetInventoryItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OnHand)
}

func TestPostgres_TransferStatusGuard(t *testing.T) {
	sd := setup(t)
	ctx := context.Background()
	it, _, err := sd.store.CreditInventory(ctx, models.InventoryItem{Reference: "AST-00000003", AssetTypeID: sd.rifle.ID, LocationID: sd.alpha.ID, Status: models.ItemAvailable}, 3)
	require.NoError(t, err)

	tr := &models.TransferRecord{
		Reference: "TRF-00000001", ItemID: it.ID, AssetTypeID: sd.rifle.ID, Quantity: 1,
		FromLocationID: sd.alpha.ID, ToLocationID: sd.bravo.ID, InitiatedBy: sd.admin.ID,
		Status: models.TransferPending, Priority: models.PriorityMedium,
	}
	require.NoError(t, sd.store.CreateTransfer(ctx, tr))

	now := time.Now()
	tr.Status = models.TransferCompleted
	tr.ApprovedBy = &sd.admin.ID
	tr.TransferDate = &now
	require.NoError(t, sd.store.UpdateTransfer(ctx, tr, models.TransferPending))
	assert.ErrorIs(t, sd.store.UpdateTransfer(ctx, tr, models.TransferPending), ledger.ErrStaleState)

	rows, total, err := sd.store.ListTransfers(ctx, ledger.TransferFilter{
		Statuses:         []string{models.TransferCompleted, models.TransferRejected},
		EitherLocationID: &sd.bravo.ID,
		AssetTypeID:      &sd.rifle.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, tr.Reference, rows[0].Reference)
	assert.Equal(t, sd.rifle.ID, rows[0].AssetTypeID)
}

func TestPostgres_ServiceFlow(t *testing.T) {
	sd := setup(t)
	ctx := context.Background()
	svc := ledger.NewService(sd.store, ledger.Options{})
	admin := ledger.Principal{UserID: sd.admin.ID, Role: models.RoleAdmin}

	cost := decimal.RequireFromString("100")
	p, err := svc.CreatePurchase(ctx, admin, models.CreatePurchaseRequest{
		AssetTypeID: sd.rifle.ID, LocationID: &sd.alpha.ID, Quantity: 20, UnitCost: &cost,
		PurchaseDate: &models.Date{Time: time.Now()}, Supplier: "Colt",
	})
	require.NoError(t, err)
	assert.Equal(t, "2000", p.TotalCost.String())

	item, err := sd.store.FindInventoryItem(ctx, sd.rifle.ID, sd.alpha.ID)
	require.NoError(t, err)

	e, err := svc.CreateExpenditure(ctx, admin, models.CreateExpenditureRequest{ItemID: item.ID, Quantity: 5, Reason: "Training"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteExpenditure(ctx, admin, e.ID))
	err = svc.DeleteExpenditure(ctx, admin, e.ID)
	assert.Equal(t, ledger.KindNotFound, ledger.KindOf(err))

	got, err := sd.store.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.OnHand)

	stats, err := sd.store.ExpenditureStats(ctx, ledger.ExpenditureFilter{})
	require.NoError(t, err)
	assert.Empty(t, stats)
}
