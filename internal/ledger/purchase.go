package ledger

import (
	"context"
	"strings"

	"asset-ledger-api/internal/models"
)

// CreatePurchase records an inbound purchase and adds its quantity to the
// (asset type, location) inventory item, creating the item when absent.
//
// The purchase record is written first. If the inventory write then fails the
// purchase is still returned as created and the failure is only logged.
func (s *Service) CreatePurchase(ctx context.Context, p Principal, req models.CreatePurchaseRequest) (view *models.PurchaseView, err error) {
	defer func() { s.observe("purchase_create", req.Quantity, err) }()

	if req.AssetTypeID <= 0 || req.UnitCost == nil || req.PurchaseDate == nil || req.PurchaseDate.IsZero() || strings.TrimSpace(req.Supplier) == "" {
		return nil, validationf("Missing required fields: asset_type_id, quantity, unit_cost, purchase_date, and supplier are required")
	}
	if err := requirePositive(req.Quantity); err != nil {
		return nil, err
	}
	if req.UnitCost.IsNegative() {
		return nil, validationf("unit_cost must not be negative")
	}

	assetType, err := s.assetType(ctx, req.AssetTypeID)
	if err != nil {
		return nil, err
	}

	var locationID int64
	if p.Elevated() {
		if req.LocationID == nil {
			return nil, validationf("location_id is required for admin users")
		}
		locationID = *req.LocationID
	} else {
		home, err := p.homeScope()
		if err != nil {
			return nil, err
		}
		if req.LocationID != nil && *req.LocationID != *home {
			return nil, forbidden("You do not have permission to purchase for this base")
		}
		locationID = *home
	}
	location, err := s.location(ctx, locationID, "Base not found")
	if err != nil {
		return nil, err
	}

	rec := &models.PurchaseRecord{
		Reference:     newReference("PUR"),
		AssetTypeID:   assetType.ID,
		LocationID:    location.ID,
		Quantity:      req.Quantity,
		UnitCost:      *req.UnitCost,
		PurchaseDate:  req.PurchaseDate.Time,
		PurchasedBy:   p.UserID,
		Supplier:      strings.TrimSpace(req.Supplier),
		InvoiceNumber: req.InvoiceNumber,
		Notes:         req.Notes,
	}
	rec.Recalculate()
	if err := s.store.CreatePurchase(ctx, rec); err != nil {
		return nil, unexpected("recording purchase", err)
	}

	unitCost := rec.UnitCost
	tmpl := models.InventoryItem{
		Reference:   newReference("AST"),
		AssetTypeID: rec.AssetTypeID,
		LocationID:  rec.LocationID,
		Origin:      models.OriginPurchase,
		Status:      models.ItemAvailable,
		UnitCost:    &unitCost,
	}
	if _, _, err := s.store.CreditInventory(ctx, tmpl, rec.Quantity); err != nil {
		s.log.Error("inventory update after purchase failed",
			"purchase_id", rec.ID, "asset_type_id", rec.AssetTypeID, "location_id", rec.LocationID,
			"quantity", rec.Quantity, "error", err)
	}

	s.log.Info("purchase recorded", "user_id", p.UserID, "purchase", rec.Reference,
		"location_id", rec.LocationID, "quantity", rec.Quantity, "total_cost", rec.TotalCost.String())

	return &models.PurchaseView{
		PurchaseRecord: *rec,
		AssetType:      assetType,
		Location:       location,
		PurchasedBy:    s.optUser(ctx, &rec.PurchasedBy),
	}, nil
}

// GetPurchase returns one purchase the caller may see.
func (s *Service) GetPurchase(ctx context.Context, p Principal, id int64) (*models.PurchaseView, error) {
	rec, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading purchase", "Purchase not found")
	}
	if !p.CanActOn(rec.LocationID) {
		return nil, forbidden("You do not have permission to access this purchase")
	}
	return s.purchaseView(ctx, rec), nil
}

// ListPurchases lists purchases, restricted to the caller's base unless elevated.
func (s *Service) ListPurchases(ctx context.Context, p Principal, f PurchaseFilter) ([]models.PurchaseView, int, error) {
	scope, err := p.homeScope()
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		f.LocationID = scope
	}
	recs, total, err := s.store.ListPurchases(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing purchases", err)
	}
	out := make([]models.PurchaseView, 0, len(recs))
	for i := range recs {
		out = append(out, *s.purchaseView(ctx, &recs[i]))
	}
	return out, total, nil
}

// UpdatePurchase applies an administrative correction. Total cost is
// recomputed; the inventory item is deliberately left untouched.
func (s *Service) UpdatePurchase(ctx context.Context, p Principal, id int64, req models.UpdatePurchaseRequest) (*models.PurchaseView, error) {
	rec, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading purchase", "Purchase not found")
	}
	if !p.CanActOn(rec.LocationID) {
		return nil, forbidden("You do not have permission to update this purchase")
	}

	if req.Quantity != nil {
		if err := requirePositive(*req.Quantity); err != nil {
			return nil, err
		}
		rec.Quantity = *req.Quantity
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			return nil, validationf("unit_cost must not be negative")
		}
		rec.UnitCost = *req.UnitCost
	}
	if req.PurchaseDate != nil && !req.PurchaseDate.IsZero() {
		rec.PurchaseDate = req.PurchaseDate.Time
	}
	if req.Supplier != nil {
		if strings.TrimSpace(*req.Supplier) == "" {
			return nil, validationf("supplier must not be empty")
		}
		rec.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if req.InvoiceNumber != nil {
		rec.InvoiceNumber = *req.InvoiceNumber
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	rec.Recalculate()

	if err := s.store.UpdatePurchase(ctx, rec); err != nil {
		return nil, lookup(err, "updating purchase", "Purchase not found")
	}
	return s.purchaseView(ctx, rec), nil
}

// DeletePurchase removes the record only. Stock it brought in stays on hand.
func (s *Service) DeletePurchase(ctx context.Context, p Principal, id int64) error {
	rec, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return lookup(err, "loading purchase", "Purchase not found")
	}
	if !p.CanActOn(rec.LocationID) {
		return forbidden("You do not have permission to delete this purchase")
	}
	if err := s.store.DeletePurchase(ctx, id); err != nil {
		return lookup(err, "deleting purchase", "Purchase not found")
	}
	s.log.Info("purchase deleted", "user_id", p.UserID, "purchase", rec.Reference)
	return nil
}

func (s *Service) purchaseView(ctx context.Context, rec *models.PurchaseRecord) *models.PurchaseView {
	return &models.PurchaseView{
		PurchaseRecord: *rec,
		AssetType:      s.optAssetType(ctx, rec.AssetTypeID),
		Location:       s.optLocation(ctx, rec.LocationID),
		PurchasedBy:    s.optUser(ctx, &rec.PurchasedBy),
	}
}
