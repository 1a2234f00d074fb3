package ledger

import (
	"context"

	"asset-ledger-api/internal/models"
)

type SummaryFilter struct {
	LocationID  *int64
	AssetTypeID *int64
	// Dates bounds the movements counted, each by its own principal date.
	Dates DateRange
}

// Summary totals movement per inventory item in the caller's scope. With no
// date range every row reconciles:
//
//	opening + purchased + in - out - assigned - expended == on hand
//
// Items first created by a purchase or transfer report an opening balance of
// zero, since that movement is already counted in Purchased or TransferredIn.
func (s *Service) Summary(ctx context.Context, p Principal, f SummaryFilter) ([]models.MovementSummary, error) {
	scope, err := p.homeScope()
	if err != nil {
		return nil, err
	}
	if scope != nil {
		f.LocationID = scope
	}

	items, _, err := s.store.ListInventoryItems(ctx, InventoryFilter{LocationID: f.LocationID, AssetTypeID: f.AssetTypeID})
	if err != nil {
		return nil, unexpected("listing inventory for summary", err)
	}
	rows := make(map[int64]*models.MovementSummary, len(items))
	byPair := make(map[[2]int64]*models.MovementSummary, len(items))
	out := make([]models.MovementSummary, len(items))
	for i, it := range items {
		out[i] = models.MovementSummary{
			ItemID:         it.ID,
			AssetTypeID:    it.AssetTypeID,
			LocationID:     it.LocationID,
			OpeningBalance: it.CountedOpening(),
			OnHand:         it.OnHand,
		}
		if at := s.optAssetType(ctx, it.AssetTypeID); at != nil {
			out[i].AssetTypeName = at.Name
		}
		if loc := s.optLocation(ctx, it.LocationID); loc != nil {
			out[i].LocationName = loc.Name
		}
		rows[it.ID] = &out[i]
		byPair[[2]int64{it.AssetTypeID, it.LocationID}] = &out[i]
	}
	if len(out) == 0 {
		return out, nil
	}

	purchases, _, err := s.store.ListPurchases(ctx, PurchaseFilter{LocationID: f.LocationID, AssetTypeID: f.AssetTypeID, Dates: f.Dates})
	if err != nil {
		return nil, unexpected("listing purchases for summary", err)
	}
	for _, pr := range purchases {
		if row := byPair[[2]int64{pr.AssetTypeID, pr.LocationID}]; row != nil {
			row.Purchased += pr.Quantity
		}
	}

	// Transfers carry their asset type, so the receiving side never needs to
	// read the source item.
	transfers, _, err := s.store.ListTransfers(ctx, TransferFilter{
		Statuses:         []string{models.TransferCompleted},
		EitherLocationID: f.LocationID,
		AssetTypeID:      f.AssetTypeID,
		Dates:            f.Dates,
	})
	if err != nil {
		return nil, unexpected("listing transfers for summary", err)
	}
	for _, tr := range transfers {
		if row := rows[tr.ItemID]; row != nil {
			row.TransferredOut += tr.Quantity
		}
		if row := byPair[[2]int64{tr.AssetTypeID, tr.ToLocationID}]; row != nil {
			row.TransferredIn += tr.Quantity
		}
	}

	assignments, _, err := s.store.ListAssignments(ctx, AssignmentFilter{
		LocationID:  f.LocationID,
		Statuses:    []string{models.AssignmentPending, models.AssignmentActive, models.AssignmentExpended},
		AssetTypeID: f.AssetTypeID,
		Dates:       f.Dates,
	})
	if err != nil {
		return nil, unexpected("listing assignments for summary", err)
	}
	for _, a := range assignments {
		row := rows[a.ItemID]
		if row == nil {
			continue
		}
		if a.Status == models.AssignmentExpended {
			row.Expended += a.Quantity
		} else {
			row.Assigned += a.Quantity
		}
	}

	expenditures, _, err := s.store.ListExpenditures(ctx, ExpenditureFilter{LocationID: f.LocationID, Dates: f.Dates})
	if err != nil {
		return nil, unexpected("listing expenditures for summary", err)
	}
	for _, e := range expenditures {
		if row := rows[e.ItemID]; row != nil {
			row.Expended += e.Quantity
		}
	}
	return out, nil
}
