package ledger

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"asset-ledger-api/internal/models"
)

// CreateExpenditure records permanent consumption. The quantity leaves onHand
// immediately and the record starts unapproved.
func (s *Service) CreateExpenditure(ctx context.Context, p Principal, req models.CreateExpenditureRequest) (view *models.ExpenditureView, err error) {
	defer func() { s.observe("expenditure_create", req.Quantity, err) }()

	if req.ItemID <= 0 || req.Reason == "" {
		return nil, validationf("Missing required fields: item_id, quantity, and reason are required")
	}
	if err := requirePositive(req.Quantity); err != nil {
		return nil, err
	}
	if !models.IsValidReason(req.Reason) {
		return nil, validationf("Invalid reason. Must be one of: %s", strings.Join(models.ExpenditureReasons, ", "))
	}
	if err := checkExpenditureText(req.Description, req.Notes); err != nil {
		return nil, err
	}

	item, err := s.item(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	locationID := item.LocationID
	if req.LocationID != nil {
		if *req.LocationID != item.LocationID {
			return nil, validationf("Asset is not located at the specified base")
		}
		locationID = *req.LocationID
	}
	if !p.CanActOn(locationID) {
		return nil, forbidden("You do not have permission to expend assets at this base")
	}
	if item.OnHand < req.Quantity {
		return nil, validationf("Insufficient asset quantity available")
	}

	expendedOn := s.now()
	if req.ExpendedDate != nil && !req.ExpendedDate.IsZero() {
		expendedOn = req.ExpendedDate.Time
	}

	if err := s.debit(ctx, item.ID, req.Quantity, "Insufficient asset quantity available"); err != nil {
		return nil, err
	}
	rec := &models.ExpenditureRecord{
		ItemID:       item.ID,
		LocationID:   locationID,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		Description:  req.Description,
		ExpendedBy:   p.UserID,
		ExpendedDate: expendedOn,
		Notes:        req.Notes,
	}
	if err := s.store.CreateExpenditure(ctx, rec); err != nil {
		if cerr := s.credit(ctx, item.ID, req.Quantity); cerr != nil {
			s.log.Error("restoring quantity after failed expenditure", "item_id", item.ID, "quantity", req.Quantity, "error", cerr)
		}
		return nil, unexpected("creating expenditure", err)
	}

	s.log.Info("expenditure recorded", "user_id", p.UserID, "expenditure_id", rec.ID,
		"item_id", rec.ItemID, "quantity", rec.Quantity, "reason", rec.Reason)
	return s.expenditureView(ctx, rec), nil
}

// ApproveExpenditure marks an expenditure approved. Approving again refreshes
// the approver and date. A rejected expenditure cannot be approved.
func (s *Service) ApproveExpenditure(ctx context.Context, p Principal, id int64) (view *models.ExpenditureView, err error) {
	defer func() { s.observe("expenditure_approve", 0, err) }()

	if !p.Elevated() {
		return nil, forbidden("You do not have permission to approve expenditures")
	}
	rec, err := s.store.GetExpenditure(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading expenditure", "No expenditure found with that ID")
	}
	if rec.Approved != nil && !*rec.Approved {
		return nil, conflictf("Expenditure has been rejected")
	}
	s.markApproval(rec, true, p)
	if err := s.store.UpdateExpenditure(ctx, rec); err != nil {
		return nil, lookup(err, "approving expenditure", "No expenditure found with that ID")
	}
	s.log.Info("expenditure approved", "user_id", p.UserID, "expenditure_id", rec.ID)
	return s.expenditureView(ctx, rec), nil
}

// UpdateExpenditure edits an expenditure. Once approved only an elevated
// caller may touch it, and only an elevated caller may set approval. Setting
// approved=false does not put quantity back.
func (s *Service) UpdateExpenditure(ctx context.Context, p Principal, id int64, req models.UpdateExpenditureRequest) (*models.ExpenditureView, error) {
	rec, err := s.store.GetExpenditure(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading expenditure", "No expenditure found with that ID")
	}
	if !p.CanActOn(rec.LocationID) {
		return nil, forbidden("You do not have permission to update this expenditure")
	}
	if rec.IsApproved() && !p.Elevated() {
		return nil, forbidden("Cannot update approved expenditure")
	}
	if req.Approved != nil && !p.Elevated() {
		return nil, forbidden("You do not have permission to approve expenditures")
	}
	if req.Approved != nil && *req.Approved && rec.Approved != nil && !*rec.Approved {
		return nil, conflictf("Expenditure has been rejected")
	}

	if req.Reason != nil {
		if !models.IsValidReason(*req.Reason) {
			return nil, validationf("Invalid reason. Must be one of: %s", strings.Join(models.ExpenditureReasons, ", "))
		}
		rec.Reason = *req.Reason
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if err := checkExpenditureText(rec.Description, rec.Notes); err != nil {
		return nil, err
	}
	if req.ExpendedDate != nil && !req.ExpendedDate.IsZero() {
		rec.ExpendedDate = req.ExpendedDate.Time
	}
	if req.Approved != nil {
		s.markApproval(rec, *req.Approved, p)
	}

	if err := s.store.UpdateExpenditure(ctx, rec); err != nil {
		return nil, lookup(err, "updating expenditure", "No expenditure found with that ID")
	}
	return s.expenditureView(ctx, rec), nil
}

// DeleteExpenditure removes an expenditure and puts its quantity back on hand.
// The record is removed first so a repeated delete cannot credit twice.
func (s *Service) DeleteExpenditure(ctx context.Context, p Principal, id int64) (err error) {
	var qty int
	defer func() { s.observe("expenditure_delete", qty, err) }()

	rec, err := s.store.GetExpenditure(ctx, id)
	if err != nil {
		return lookup(err, "loading expenditure", "No expenditure found with that ID")
	}
	if !p.CanActOn(rec.LocationID) {
		return forbidden("You do not have permission to delete this expenditure")
	}
	if rec.IsApproved() && !p.Elevated() {
		return forbidden("Cannot delete approved expenditure")
	}

	if err := s.store.DeleteExpenditure(ctx, id); err != nil {
		return lookup(err, "deleting expenditure", "No expenditure found with that ID")
	}
	if err := s.credit(ctx, rec.ItemID, rec.Quantity); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("expenditure deleted but its item no longer exists", "expenditure_id", rec.ID, "item_id", rec.ItemID)
			return nil
		}
		s.log.Error("restoring quantity after expenditure delete failed",
			"expenditure_id", rec.ID, "item_id", rec.ItemID, "quantity", rec.Quantity, "error", err)
		return unexpected("crediting deleted expenditure", err)
	}
	qty = rec.Quantity
	s.log.Info("expenditure deleted", "user_id", p.UserID, "expenditure_id", rec.ID, "quantity", rec.Quantity)
	return nil
}

func (s *Service) GetExpenditure(ctx context.Context, p Principal, id int64) (*models.ExpenditureView, error) {
	rec, err := s.store.GetExpenditure(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading expenditure", "No expenditure found with that ID")
	}
	if !p.CanActOn(rec.LocationID) {
		return nil, forbidden("You do not have permission to access this expenditure")
	}
	return s.expenditureView(ctx, rec), nil
}

func (s *Service) ListExpenditures(ctx context.Context, p Principal, f ExpenditureFilter) ([]models.ExpenditureView, int, error) {
	if err := scopeExpenditures(p, &f); err != nil {
		return nil, 0, err
	}
	recs, total, err := s.store.ListExpenditures(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing expenditures", err)
	}
	out := make([]models.ExpenditureView, 0, len(recs))
	for i := range recs {
		out = append(out, *s.expenditureView(ctx, &recs[i]))
	}
	return out, total, nil
}

// ExpenditureStats totals expenditures by reason within the caller's scope.
func (s *Service) ExpenditureStats(ctx context.Context, p Principal, f ExpenditureFilter) ([]models.ExpenditureStat, error) {
	if err := scopeExpenditures(p, &f); err != nil {
		return nil, err
	}
	stats, err := s.store.ExpenditureStats(ctx, f)
	if err != nil {
		return nil, unexpected("computing expenditure stats", err)
	}
	return stats, nil
}

func scopeExpenditures(p Principal, f *ExpenditureFilter) error {
	scope, err := p.homeScope()
	if err != nil {
		return err
	}
	if scope != nil {
		f.LocationID = scope
	}
	switch f.Approval {
	case "", ApprovalPending, ApprovalApproved, ApprovalRejected:
	default:
		return validationf("Invalid approval state: %s", f.Approval)
	}
	if f.Reason != "" && !models.IsValidReason(f.Reason) {
		return validationf("Invalid reason: %s", f.Reason)
	}
	return nil
}

func (s *Service) markApproval(rec *models.ExpenditureRecord, approved bool, p Principal) {
	now := s.now()
	approver := p.UserID
	rec.Approved = &approved
	rec.ApprovedBy = &approver
	rec.ApprovedDate = &now
}

func checkExpenditureText(description, notes string) error {
	if utf8.RuneCountInString(description) > models.MaxExpenditureDescription {
		return validationf("Description cannot be more than %d characters", models.MaxExpenditureDescription)
	}
	if utf8.RuneCountInString(notes) > models.MaxExpenditureNotes {
		return validationf("Notes cannot be more than %d characters", models.MaxExpenditureNotes)
	}
	return nil
}

func (s *Service) expenditureView(ctx context.Context, rec *models.ExpenditureRecord) *models.ExpenditureView {
	v := &models.ExpenditureView{
		ExpenditureRecord: *rec,
		Item:              s.optItem(ctx, rec.ItemID),
		Location:          s.optLocation(ctx, rec.LocationID),
		Expender:          s.optUser(ctx, &rec.ExpendedBy),
		Approver:          s.optUser(ctx, rec.ApprovedBy),
	}
	if v.Item != nil {
		v.AssetType = s.optAssetType(ctx, v.Item.AssetTypeID)
	}
	return v
}
