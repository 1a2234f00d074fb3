package ledger_test

import (
	"context"
	"testing"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertReconciles checks opening + purchased + in - out - assigned - expended
// against on hand for every row.
func assertReconciles(t *testing.T, rows []models.MovementSummary) {
	t.Helper()
	for _, r := range rows {
		net := r.OpeningBalance + r.Purchased + r.TransferredIn - r.TransferredOut - r.Assigned - r.Expended
		assert.Equal(t, r.OnHand, net, "item %d at location %d: %+v", r.ItemID, r.LocationID, r)
	}
}

func summaryByLocation(t *testing.T, svc *ledger.Service, p ledger.Principal, sf ledger.SummaryFilter) map[int64]models.MovementSummary {
	t.Helper()
	rows, err := svc.Summary(context.Background(), p, sf)
	require.NoError(t, err)
	byLoc := map[int64]models.MovementSummary{}
	for _, r := range rows {
		byLoc[r.LocationID] = r
	}
	return byLoc
}

func TestSummary_ReconcilesMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alphaItem := f.stock(t, f.alpha, 50)

	_, err := f.svc.CreatePurchase(ctx, f.logistics, purchaseReq(f, 10))
	require.NoError(t, err)
	_, err = f.svc.CreateTransfer(ctx, f.admin, models.CreateTransferRequest{
		ItemID: alphaItem.ID, Quantity: 12, ToLocationID: f.bravo.ID,
	})
	require.NoError(t, err)
	a := assign(t, f, f.commander, alphaItem.ID, 5)
	b := assign(t, f, f.commander, alphaItem.ID, 4)
	_, err = f.svc.ExpendAssignment(ctx, f.commander, b.ID)
	require.NoError(t, err)
	expend(t, f, f.commander, alphaItem.ID, 3, "Training")

	rows, err := f.svc.Summary(ctx, f.admin, ledger.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assertReconciles(t, rows)

	byLoc := map[int64]models.MovementSummary{}
	for _, r := range rows {
		byLoc[r.LocationID] = r
	}
	alpha := byLoc[f.alpha.ID]
	assert.Equal(t, 50, alpha.OpeningBalance)
	assert.Equal(t, 10, alpha.Purchased)
	assert.Equal(t, 12, alpha.TransferredOut)
	assert.Equal(t, 5, alpha.Assigned)
	assert.Equal(t, 7, alpha.Expended)
	assert.Equal(t, "Fort Alpha", alpha.LocationName)
	assert.Equal(t, f.rifle.Name, alpha.AssetTypeName)
	assert.Equal(t, 50+10+0-12-5-7, alpha.OnHand)

	bravo := byLoc[f.bravo.ID]
	assert.Zero(t, bravo.OpeningBalance, "the creating transfer is the only inflow")
	assert.Equal(t, 12, bravo.TransferredIn)
	assert.Equal(t, 12, bravo.OnHand)

	_, err = f.svc.ReturnAssignment(ctx, f.commander, a.ID)
	require.NoError(t, err)
	rows, err = f.svc.Summary(ctx, f.commander, ledger.SummaryFilter{LocationID: ptr(f.bravo.ID)})
	require.NoError(t, err)
	require.Len(t, rows, 1, "non-admins only see their own base")
	assert.Equal(t, f.alpha.ID, rows[0].LocationID)
	assert.Zero(t, rows[0].Assigned)
	assert.Equal(t, 41, rows[0].OnHand)
	assertReconciles(t, rows)
}

func TestSummary_PurchaseCreatedItemCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePurchase(ctx, f.logistics, purchaseReq(f, 10))
	require.NoError(t, err)
	it, err := f.store.FindInventoryItem(ctx, f.rifle.ID, f.alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, it.OpeningBalance)
	assert.Equal(t, models.OriginPurchase, it.Origin)

	row := summaryByLocation(t, f.svc, f.admin, ledger.SummaryFilter{})[f.alpha.ID]
	assert.Zero(t, row.OpeningBalance)
	assert.Equal(t, 10, row.Purchased)
	assert.Equal(t, 10, row.OnHand)
	assertReconciles(t, []models.MovementSummary{row})
}

func TestSummary_PendingAssignmentsCountAsAssigned(t *testing.T) {
	f := newFixture(t, func(o *ledger.Options) { o.AssignmentInitialStatus = models.AssignmentPending })
	item := f.stock(t, f.alpha, 10)
	v := assign(t, f, f.commander, item.ID, 4)
	require.Equal(t, models.AssignmentPending, v.Status)

	row := summaryByLocation(t, f.svc, f.commander, ledger.SummaryFilter{})[f.alpha.ID]
	assert.Equal(t, 10, row.OpeningBalance)
	assert.Equal(t, 4, row.Assigned)
	assert.Equal(t, 6, row.OnHand)
	assertReconciles(t, []models.MovementSummary{row})
}

// hiddenItemStore refuses reads of one inventory item, as row-level security
// does for an item at another base.
type hiddenItemStore struct {
	*memory.Store
	hidden int64
}

func (h hiddenItemStore) GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	if id == h.hidden {
		return nil, ledger.ErrNotFound
	}
	return h.Store.GetInventoryItem(ctx, id)
}

func TestSummary_IncomingTransferWithoutSourceItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alphaItem := f.stock(t, f.alpha, 20)
	f.stock(t, f.bravo, 5)

	tr, err := f.svc.CreateTransfer(ctx, f.admin, models.CreateTransferRequest{
		ItemID: alphaItem.ID, Quantity: 8, ToLocationID: f.bravo.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.rifle.ID, tr.AssetTypeID)

	svc := ledger.NewService(hiddenItemStore{Store: f.store, hidden: alphaItem.ID}, ledger.Options{})
	rows := summaryByLocation(t, svc, f.bravoLead, ledger.SummaryFilter{})
	require.Len(t, rows, 1)
	bravo := rows[f.bravo.ID]
	assert.Equal(t, 8, bravo.TransferredIn)
	assert.Equal(t, 13, bravo.OnHand)
	assertReconciles(t, []models.MovementSummary{bravo})

	view, err := svc.GetTransfer(ctx, f.bravoLead, tr.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Item)
	require.NotNil(t, view.AssetType)
	assert.Equal(t, f.rifle.Name, view.AssetType.Name)
}

func TestSummary_DateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.stock(t, f.alpha, 30)

	early := purchaseReq(f, 7)
	early.PurchaseDate = date(fixedNow.AddDate(0, -2, 0))
	_, err := f.svc.CreatePurchase(ctx, f.logistics, early)
	require.NoError(t, err)
	_, err = f.svc.CreatePurchase(ctx, f.logistics, purchaseReq(f, 3))
	require.NoError(t, err)

	_, err = f.svc.CreateAssignment(ctx, f.commander, models.CreateAssignmentRequest{
		ItemID: item.ID, Quantity: 2, AssignedTo: "Sgt. Okafor", AssignmentDate: date(fixedNow.AddDate(0, -1, -5)),
	})
	require.NoError(t, err)
	assign(t, f, f.commander, item.ID, 1)

	from := fixedNow.AddDate(0, 0, -14)
	to := fixedNow.Add(24 * time.Hour)
	row := summaryByLocation(t, f.svc, f.admin, ledger.SummaryFilter{
		Dates: ledger.DateRange{From: &from, To: &to},
	})[f.alpha.ID]
	assert.Equal(t, 3, row.Purchased)
	assert.Equal(t, 1, row.Assigned)

	all := summaryByLocation(t, f.svc, f.admin, ledger.SummaryFilter{})[f.alpha.ID]
	assert.Equal(t, 10, all.Purchased)
	assert.Equal(t, 3, all.Assigned)
	assertReconciles(t, []models.MovementSummary{all})
}
