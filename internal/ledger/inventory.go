package ledger

import (
	"context"
	"errors"
	"strings"

	"asset-ledger-api/internal/models"
)

func (s *Service) ListInventory(ctx context.Context, p Principal, f InventoryFilter) ([]models.InventoryItemView, int, error) {
	scope, err := p.homeScope()
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		f.LocationID = scope
	}
	if f.Status != "" && !models.IsValidItemStatus(f.Status) {
		return nil, 0, validationf("Invalid status: %s", f.Status)
	}
	items, total, err := s.store.ListInventoryItems(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing inventory", err)
	}
	out := make([]models.InventoryItemView, 0, len(items))
	for i := range items {
		out = append(out, s.itemView(ctx, &items[i]))
	}
	return out, total, nil
}

func (s *Service) GetInventoryItem(ctx context.Context, p Principal, id int64) (*models.InventoryItemView, error) {
	it, err := s.item(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActOn(it.LocationID) {
		return nil, forbidden("You do not have permission to access this asset")
	}
	v := s.itemView(ctx, it)
	return &v, nil
}

// CreateInventoryItem registers stock outside the purchase flow, e.g. an
// opening count. The quantity becomes both onHand and the opening balance.
func (s *Service) CreateInventoryItem(ctx context.Context, p Principal, req models.CreateInventoryItemRequest) (*models.InventoryItemView, error) {
	if req.AssetTypeID <= 0 || req.LocationID <= 0 {
		return nil, validationf("Missing required fields: asset_type_id and location_id are required")
	}
	if req.Quantity < 0 {
		return nil, validationf("quantity must not be negative")
	}
	status := req.Status
	if status == "" {
		status = models.ItemAvailable
	}
	if !models.IsValidItemStatus(status) {
		return nil, validationf("Invalid status: %s", status)
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, validationf("unit_cost must not be negative")
	}
	if !p.CanActOn(req.LocationID) {
		return nil, forbidden("You do not have permission to add assets to this base")
	}
	if _, err := s.assetType(ctx, req.AssetTypeID); err != nil {
		return nil, err
	}
	if _, err := s.location(ctx, req.LocationID, "Base not found"); err != nil {
		return nil, err
	}

	it := &models.InventoryItem{
		Reference:      newReference("AST"),
		AssetTypeID:    req.AssetTypeID,
		LocationID:     req.LocationID,
		OnHand:         req.Quantity,
		OpeningBalance: req.Quantity,
		Origin:         models.OriginCount,
		Status:         status,
		UnitCost:       req.UnitCost,
		Notes:          req.Notes,
	}
	if err := s.store.CreateInventoryItem(ctx, it); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf("An inventory item for this asset type already exists at this base")
		}
		return nil, unexpected("creating inventory item", err)
	}
	s.log.Info("inventory item created", "user_id", p.UserID, "item", it.Reference, "on_hand", it.OnHand)
	v := s.itemView(ctx, it)
	return &v, nil
}

// UpdateInventoryItem edits status, unit cost and notes. The caller must be
// able to act on the item's base.
func (s *Service) UpdateInventoryItem(ctx context.Context, p Principal, id int64, req models.UpdateInventoryItemRequest) (*models.InventoryItemView, error) {
	it, err := s.item(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActOn(it.LocationID) {
		return nil, forbidden("You do not have permission to update this asset")
	}
	if req.Status != nil {
		if !models.IsValidItemStatus(*req.Status) {
			return nil, validationf("Invalid status: %s", *req.Status)
		}
		it.Status = *req.Status
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			return nil, validationf("unit_cost must not be negative")
		}
		it.UnitCost = req.UnitCost
	}
	if req.Notes != nil {
		it.Notes = req.Notes
	}
	if err := s.store.UpdateInventoryItem(ctx, it); err != nil {
		return nil, lookup(err, "updating inventory item", "Asset not found")
	}
	v := s.itemView(ctx, it)
	return &v, nil
}

// DeleteInventoryItem removes an empty item that no movement refers to.
// Anything else would break the ledger history, so it is refused.
func (s *Service) DeleteInventoryItem(ctx context.Context, p Principal, id int64) error {
	it, err := s.item(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanActOn(it.LocationID) {
		return forbidden("You do not have permission to delete this asset")
	}
	if it.OnHand > 0 {
		return conflictf("Cannot delete an asset with quantity on hand")
	}
	if err := s.store.DeleteInventoryItem(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return conflictf("Asset has movement history and cannot be deleted")
		}
		return lookup(err, "deleting inventory item", "Asset not found")
	}
	s.log.Info("inventory item deleted", "user_id", p.UserID, "item", it.Reference)
	return nil
}

func (s *Service) itemView(ctx context.Context, it *models.InventoryItem) models.InventoryItemView {
	return models.InventoryItemView{
		InventoryItem: *it,
		AssetType:     s.optAssetType(ctx, it.AssetTypeID),
		Location:      s.optLocation(ctx, it.LocationID),
	}
}

func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	locs, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, unexpected("listing locations", err)
	}
	return locs, nil
}

func (s *Service) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	return s.location(ctx, id, "Base not found")
}

// CreateLocation adds a base. Codes are stored upper-case.
func (s *Service) CreateLocation(ctx context.Context, p Principal, req models.CreateLocationRequest) (*models.Location, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can create bases")
	}
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if name == "" || code == "" {
		return nil, validationf("name and code are required")
	}
	loc := &models.Location{Name: name, Code: code, Place: req.Place, IsActive: true}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf("A base with code %s already exists", code)
		}
		return nil, unexpected("creating location", err)
	}
	return loc, nil
}

// UpdateLocation edits a base. Setting is_active=false retires it.
func (s *Service) UpdateLocation(ctx context.Context, p Principal, id int64, req models.UpdateLocationRequest) (*models.Location, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can update bases")
	}
	loc, err := s.location(ctx, id, "Base not found")
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		loc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		loc.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if loc.Name == "" || loc.Code == "" {
		return nil, validationf("name and code are required")
	}
	if req.Place != nil {
		loc.Place = req.Place
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
	if err := s.store.UpdateLocation(ctx, loc); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf("A base with code %s already exists", loc.Code)
		}
		return nil, lookup(err, "updating location", "Base not found")
	}
	return loc, nil
}

// DeactivateLocation retires a base. Bases are never removed because
// every ledger record names one.
func (s *Service) DeactivateLocation(ctx context.Context, p Principal, id int64) (*models.Location, error) {
	inactive := false
	loc, err := s.UpdateLocation(ctx, p, id, models.UpdateLocationRequest{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	s.log.Info("base deactivated", "user_id", p.UserID, "location_id", id)
	return loc, nil
}

func (s *Service) ListAssetTypes(ctx context.Context) ([]models.AssetType, error) {
	ats, err := s.store.ListAssetTypes(ctx)
	if err != nil {
		return nil, unexpected("listing asset types", err)
	}
	return ats, nil
}

func (s *Service) GetAssetType(ctx context.Context, id int64) (*models.AssetType, error) {
	return s.assetType(ctx, id)
}

func (s *Service) CreateAssetType(ctx context.Context, p Principal, req models.CreateAssetTypeRequest) (*models.AssetType, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can create asset types")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Unit) == "" {
		return nil, validationf("name and unit are required")
	}
	if !models.IsValidCategory(req.Category) {
		return nil, validationf("Invalid category. Must be one of: %s", strings.Join(models.AssetCategories, ", "))
	}
	at := &models.AssetType{
		Name:         name,
		Category:     req.Category,
		Unit:         strings.TrimSpace(req.Unit),
		IsConsumable: req.IsConsumable,
		Description:  req.Description,
		IsActive:     true,
	}
	if err := s.store.CreateAssetType(ctx, at); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf("Asset type %s already exists", name)
		}
		return nil, unexpected("creating asset type", err)
	}
	return at, nil
}

func (s *Service) UpdateAssetType(ctx context.Context, p Principal, id int64, req models.UpdateAssetTypeRequest) (*models.AssetType, error) {
	if !p.Elevated() {
		return nil, forbidden("Only administrators can update asset types")
	}
	at, err := s.assetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		at.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		at.Unit = strings.TrimSpace(*req.Unit)
	}
	if at.Name == "" || at.Unit == "" {
		return nil, validationf("name and unit are required")
	}
	if req.Category != nil {
		if !models.IsValidCategory(*req.Category) {
			return nil, validationf("Invalid category. Must be one of: %s", strings.Join(models.AssetCategories, ", "))
		}
		at.Category = *req.Category
	}
	if req.IsConsumable != nil {
		at.IsConsumable = *req.IsConsumable
	}
	if req.Description != nil {
		at.Description = req.Description
	}
	if req.IsActive != nil {
		at.IsActive = *req.IsActive
	}
	if err := s.store.UpdateAssetType(ctx, at); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflictf("Asset type %s already exists", at.Name)
		}
		return nil, lookup(err, "updating asset type", "Asset type not found")
	}
	return at, nil
}

// DeleteAssetType removes a type nothing has been stocked, bought or moved
// under. Types in use can be deactivated instead.
func (s *Service) DeleteAssetType(ctx context.Context, p Principal, id int64) error {
	if !p.Elevated() {
		return forbidden("Only administrators can delete asset types")
	}
	if err := s.store.DeleteAssetType(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return conflictf("Asset type is in use; deactivate it instead")
		}
		return lookup(err, "deleting asset type", "Asset type not found")
	}
	s.log.Info("asset type deleted", "user_id", p.UserID, "asset_type_id", id)
	return nil
}
