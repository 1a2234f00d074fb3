package ledger

import (
	"context"
	"errors"

	"asset-ledger-api/internal/models"
)

// CreateTransfer opens a transfer of an item's quantity to another base.
// Transfers opened by an elevated caller are approved and completed inline.
func (s *Service) CreateTransfer(ctx context.Context, p Principal, req models.CreateTransferRequest) (view *models.TransferView, err error) {
	var moved int
	defer func() { s.observe("transfer_create", moved, err) }()

	if req.ItemID <= 0 || req.Quantity == 0 || req.ToLocationID <= 0 {
		return nil, validationf("Missing required fields: item_id, quantity, and to_location_id are required")
	}
	if err := requirePositive(req.Quantity); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, validationf("Invalid priority. Must be one of: low, medium, high")
	}

	item, err := s.item(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !p.CanActOn(item.LocationID) {
		return nil, forbidden("You do not have permission to transfer this asset")
	}
	if item.OnHand < req.Quantity {
		return nil, validationf("Insufficient quantity available for transfer. Available: %d, Requested: %d", item.OnHand, req.Quantity)
	}
	if _, err := s.location(ctx, req.ToLocationID, "Target base not found"); err != nil {
		return nil, err
	}
	if req.ToLocationID == item.LocationID {
		return nil, validationf("Cannot transfer to the same base")
	}

	rec := &models.TransferRecord{
		Reference:      newReference("TRF"),
		ItemID:         item.ID,
		AssetTypeID:    item.AssetTypeID,
		Quantity:       req.Quantity,
		FromLocationID: item.LocationID,
		ToLocationID:   req.ToLocationID,
		InitiatedBy:    p.UserID,
		Status:         models.TransferPending,
		Priority:       priority,
		Notes:          req.Notes,
	}
	if err := s.store.CreateTransfer(ctx, rec); err != nil {
		return nil, unexpected("creating transfer", err)
	}
	s.log.Info("transfer created", "user_id", p.UserID, "transfer", rec.Reference,
		"from_location_id", rec.FromLocationID, "to_location_id", rec.ToLocationID, "quantity", rec.Quantity)

	if p.Elevated() {
		if err := s.completeTransfer(ctx, p, rec); err != nil {
			s.withdrawTransfer(ctx, rec)
			return nil, err
		}
		moved = rec.Quantity
	}
	return s.transferView(ctx, rec), nil
}

// ApproveTransfer completes a pending transfer: the source is debited, the
// destination credited and the transfer marked completed.
func (s *Service) ApproveTransfer(ctx context.Context, p Principal, id int64) (view *models.TransferView, err error) {
	var qty int
	defer func() { s.observe("transfer_approve", qty, err) }()

	rec, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading transfer", "Transfer not found")
	}
	if !p.Elevated() {
		return nil, forbidden("Only administrators can approve transfers")
	}
	if rec.Status != models.TransferPending {
		return nil, conflictf("Transfer is not in pending status")
	}
	qty = rec.Quantity
	if err := s.completeTransfer(ctx, p, rec); err != nil {
		return nil, err
	}
	return s.transferView(ctx, rec), nil
}

// completeTransfer claims the pending record before moving stock so that two
// concurrent approvals cannot both debit the source.
func (s *Service) completeTransfer(ctx context.Context, p Principal, rec *models.TransferRecord) error {
	src, err := s.item(ctx, rec.ItemID)
	if err != nil {
		return err
	}
	if src.OnHand < rec.Quantity {
		return validationf("Insufficient quantity available for transfer")
	}

	now := s.now()
	approver := p.UserID
	rec.Status = models.TransferCompleted
	rec.ApprovedBy = &approver
	rec.TransferDate = &now
	if err := s.store.UpdateTransfer(ctx, rec, models.TransferPending); err != nil {
		rec.Status = models.TransferPending
		rec.ApprovedBy = nil
		rec.TransferDate = nil
		if errors.Is(err, ErrStaleState) {
			return conflictf("Transfer is not in pending status")
		}
		return lookup(err, "completing transfer", "Transfer not found")
	}

	if err := s.debit(ctx, src.ID, rec.Quantity, "Insufficient quantity available for transfer"); err != nil {
		s.reopenTransfer(ctx, rec)
		return err
	}

	tmpl := models.InventoryItem{
		Reference:   newReference("AST"),
		AssetTypeID: src.AssetTypeID,
		LocationID:  rec.ToLocationID,
		Origin:      models.OriginTransfer,
		Status:      models.ItemAvailable,
		UnitCost:    src.UnitCost,
	}
	if _, _, err := s.store.CreditInventory(ctx, tmpl, rec.Quantity); err != nil {
		s.log.Error("crediting transfer destination failed",
			"transfer", rec.Reference, "to_location_id", rec.ToLocationID, "quantity", rec.Quantity, "error", err)
		if cerr := s.credit(ctx, src.ID, rec.Quantity); cerr != nil {
			s.log.Error("restoring transfer source", "transfer", rec.Reference, "item_id", src.ID, "error", cerr)
		}
		s.reopenTransfer(ctx, rec)
		return unexpected("crediting transfer destination", err)
	}

	s.log.Info("transfer completed", "user_id", p.UserID, "transfer", rec.Reference, "quantity", rec.Quantity)
	return nil
}

// reopenTransfer puts a claimed transfer back to pending after a later step
// of its completion failed.
func (s *Service) reopenTransfer(ctx context.Context, rec *models.TransferRecord) {
	rec.Status = models.TransferPending
	rec.ApprovedBy = nil
	rec.TransferDate = nil
	if err := s.store.UpdateTransfer(ctx, rec, models.TransferCompleted); err != nil {
		s.log.Error("reverting transfer", "transfer", rec.Reference, "error", err)
	}
}

// withdrawTransfer cancels a transfer whose inline completion failed, so the
// caller's error leaves nothing pending behind it.
func (s *Service) withdrawTransfer(ctx context.Context, rec *models.TransferRecord) {
	if rec.Status != models.TransferPending {
		return
	}
	rec.Status = models.TransferCancelled
	if err := s.store.UpdateTransfer(ctx, rec, models.TransferPending); err != nil {
		rec.Status = models.TransferPending
		s.log.Error("withdrawing transfer after failed completion", "transfer", rec.Reference, "error", err)
		return
	}
	s.log.Warn("transfer withdrawn after failed completion", "transfer", rec.Reference)
}

// RejectTransfer closes a pending transfer without moving stock.
func (s *Service) RejectTransfer(ctx context.Context, p Principal, id int64) (view *models.TransferView, err error) {
	defer func() { s.observe("transfer_reject", 0, err) }()

	rec, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading transfer", "Transfer not found")
	}
	if !p.Elevated() {
		return nil, forbidden("Only administrators can reject transfers")
	}
	if rec.Status != models.TransferPending {
		return nil, conflictf("Transfer is not in pending status")
	}

	now := s.now()
	approver := p.UserID
	rec.Status = models.TransferRejected
	rec.ApprovedBy = &approver
	rec.TransferDate = &now
	if err := s.store.UpdateTransfer(ctx, rec, models.TransferPending); err != nil {
		if errors.Is(err, ErrStaleState) {
			return nil, conflictf("Transfer is not in pending status")
		}
		return nil, lookup(err, "rejecting transfer", "Transfer not found")
	}
	s.log.Info("transfer rejected", "user_id", p.UserID, "transfer", rec.Reference)
	return s.transferView(ctx, rec), nil
}

// CancelTransfer withdraws a pending transfer. Only its initiator or an
// elevated caller may cancel.
func (s *Service) CancelTransfer(ctx context.Context, p Principal, id int64) (view *models.TransferView, err error) {
	defer func() { s.observe("transfer_cancel", 0, err) }()

	rec, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading transfer", "Transfer not found")
	}
	if rec.InitiatedBy != p.UserID && !p.Elevated() {
		return nil, forbidden("You do not have permission to cancel this transfer")
	}
	if rec.Status != models.TransferPending {
		return nil, conflictf("Only pending transfers can be cancelled")
	}

	rec.Status = models.TransferCancelled
	if err := s.store.UpdateTransfer(ctx, rec, models.TransferPending); err != nil {
		if errors.Is(err, ErrStaleState) {
			return nil, conflictf("Only pending transfers can be cancelled")
		}
		return nil, lookup(err, "cancelling transfer", "Transfer not found")
	}
	s.log.Info("transfer cancelled", "user_id", p.UserID, "transfer", rec.Reference)
	return s.transferView(ctx, rec), nil
}

// GetTransfer returns a transfer visible from either end.
func (s *Service) GetTransfer(ctx context.Context, p Principal, id int64) (*models.TransferView, error) {
	rec, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading transfer", "Transfer not found")
	}
	if !p.CanActOn(rec.FromLocationID) && !p.CanActOn(rec.ToLocationID) {
		return nil, forbidden("You do not have permission to access this transfer")
	}
	return s.transferView(ctx, rec), nil
}

// ListTransfers lists transfers leaving or entering the caller's base.
func (s *Service) ListTransfers(ctx context.Context, p Principal, f TransferFilter) ([]models.TransferView, int, error) {
	scope, err := p.homeScope()
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		f.EitherLocationID = scope
	}
	for _, st := range f.Statuses {
		if !validTransferStatus(st) {
			return nil, 0, validationf("Invalid transfer status: %s", st)
		}
	}
	recs, total, err := s.store.ListTransfers(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing transfers", err)
	}
	out := make([]models.TransferView, 0, len(recs))
	for i := range recs {
		out = append(out, *s.transferView(ctx, &recs[i]))
	}
	return out, total, nil
}

func validTransferStatus(st string) bool {
	switch st {
	case models.TransferPending, models.TransferApproved, models.TransferRejected,
		models.TransferCompleted, models.TransferCancelled:
		return true
	}
	return false
}

func (s *Service) transferView(ctx context.Context, rec *models.TransferRecord) *models.TransferView {
	return &models.TransferView{
		TransferRecord: *rec,
		Item:           s.optItem(ctx, rec.ItemID),
		AssetType:      s.optAssetType(ctx, rec.AssetTypeID),
		FromLocation:   s.optLocation(ctx, rec.FromLocationID),
		ToLocation:     s.optLocation(ctx, rec.ToLocationID),
		Initiator:      s.optUser(ctx, &rec.InitiatedBy),
		Approver:       s.optUser(ctx, rec.ApprovedBy),
	}
}
