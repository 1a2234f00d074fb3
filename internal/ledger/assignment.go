package ledger

import (
	"context"
	"errors"
	"strings"

	"asset-ledger-api/internal/models"
)

const defaultPurpose = "other"

// CreateAssignment checks quantity out of an item to a named person. The
// quantity leaves onHand immediately.
func (s *Service) CreateAssignment(ctx context.Context, p Principal, req models.CreateAssignmentRequest) (view *models.AssignmentView, err error) {
	defer func() { s.observe("assignment_create", req.Quantity, err) }()

	if req.ItemID <= 0 || strings.TrimSpace(req.AssignedTo) == "" {
		return nil, validationf("Missing required fields: item_id, quantity, and assigned_to are required")
	}
	if err := requirePositive(req.Quantity); err != nil {
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
		return nil, forbidden("You do not have permission to assign assets to this base")
	}
	if item.OnHand < req.Quantity {
		return nil, validationf("Insufficient quantity available for assignment. Available: %d, Requested: %d", item.OnHand, req.Quantity)
	}

	assignedOn := s.now()
	if req.AssignmentDate != nil && !req.AssignmentDate.IsZero() {
		assignedOn = req.AssignmentDate.Time
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = defaultPurpose
	}

	if err := s.debit(ctx, item.ID, req.Quantity, "Insufficient quantity available for assignment"); err != nil {
		return nil, err
	}

	rec := &models.AssignmentRecord{
		Reference:          newReference("ASN"),
		ItemID:             item.ID,
		Quantity:           req.Quantity,
		AssignedTo:         strings.TrimSpace(req.AssignedTo),
		Rank:               req.Rank,
		Unit:               req.Unit,
		LocationID:         locationID,
		AssignedBy:         p.UserID,
		AssignmentDate:     assignedOn,
		ExpectedReturnDate: req.ExpectedReturnDate.TimePtr(),
		Purpose:            purpose,
		Status:             s.initialStatus,
		Notes:              req.Notes,
	}
	if err := s.store.CreateAssignment(ctx, rec); err != nil {
		if cerr := s.credit(ctx, item.ID, req.Quantity); cerr != nil {
			s.log.Error("restoring quantity after failed assignment", "item_id", item.ID, "quantity", req.Quantity, "error", cerr)
		}
		return nil, unexpected("creating assignment", err)
	}

	s.log.Info("assignment created", "user_id", p.UserID, "assignment", rec.Reference,
		"item_id", rec.ItemID, "quantity", rec.Quantity, "status", rec.Status)
	return s.assignmentView(ctx, rec), nil
}

// ActivateAssignment moves a pending assignment to active. Stock already left
// onHand at creation, so nothing moves here.
func (s *Service) ActivateAssignment(ctx context.Context, p Principal, id int64) (view *models.AssignmentView, err error) {
	defer func() { s.observe("assignment_activate", 0, err) }()

	rec, err := s.guardAssignment(ctx, p, id, "You do not have permission to activate this assignment")
	if err != nil {
		return nil, err
	}
	if rec.Status != models.AssignmentPending {
		return nil, validationf("Assignment is not pending. Current status: %s", rec.Status)
	}
	if strings.TrimSpace(rec.Purpose) == "" {
		return nil, validationf("purpose is required for an active assignment")
	}
	rec.Status = models.AssignmentActive
	if err := s.saveAssignment(ctx, rec, models.AssignmentPending); err != nil {
		return nil, err
	}
	s.log.Info("assignment activated", "user_id", p.UserID, "assignment", rec.Reference)
	return s.assignmentView(ctx, rec), nil
}

// ReturnAssignment closes an active assignment and puts its quantity back
// on hand.
func (s *Service) ReturnAssignment(ctx context.Context, p Principal, id int64) (view *models.AssignmentView, err error) {
	var qty int
	defer func() { s.observe("assignment_return", qty, err) }()

	rec, err := s.guardAssignment(ctx, p, id, "You do not have permission to return this assignment")
	if err != nil {
		return nil, err
	}
	if rec.Status != models.AssignmentActive {
		return nil, validationf("Assignment is not active. Current status: %s", rec.Status)
	}
	now := s.now()
	rec.Status = models.AssignmentReturned
	rec.ActualReturnDate = &now
	if err := s.saveAssignment(ctx, rec, models.AssignmentActive); err != nil {
		return nil, err
	}

	if err := s.credit(ctx, rec.ItemID, rec.Quantity); err != nil {
		s.log.Error("returning assignment quantity failed",
			"assignment", rec.Reference, "item_id", rec.ItemID, "quantity", rec.Quantity, "error", err)
		return nil, unexpected("crediting returned quantity", err)
	}
	qty = rec.Quantity
	s.log.Info("assignment returned", "user_id", p.UserID, "assignment", rec.Reference, "quantity", rec.Quantity)
	return s.assignmentView(ctx, rec), nil
}

// ExpendAssignment closes an active assignment as consumed. The quantity
// never comes back.
func (s *Service) ExpendAssignment(ctx context.Context, p Principal, id int64) (view *models.AssignmentView, err error) {
	defer func() { s.observe("assignment_expend", 0, err) }()

	rec, err := s.guardAssignment(ctx, p, id, "You do not have permission to mark this assignment as expended")
	if err != nil {
		return nil, err
	}
	if rec.Status != models.AssignmentActive {
		return nil, validationf("Assignment is not active. Current status: %s", rec.Status)
	}
	now := s.now()
	rec.Status = models.AssignmentExpended
	rec.ActualReturnDate = &now
	if err := s.saveAssignment(ctx, rec, models.AssignmentActive); err != nil {
		return nil, err
	}
	s.log.Info("assignment expended", "user_id", p.UserID, "assignment", rec.Reference, "quantity", rec.Quantity)
	return s.assignmentView(ctx, rec), nil
}

// UpdateAssignment edits descriptive fields. Status and quantity are fixed.
func (s *Service) UpdateAssignment(ctx context.Context, p Principal, id int64, req models.UpdateAssignmentRequest) (*models.AssignmentView, error) {
	rec, err := s.guardAssignment(ctx, p, id, "You do not have permission to update this assignment")
	if err != nil {
		return nil, err
	}
	if req.AssignedTo != nil {
		if strings.TrimSpace(*req.AssignedTo) == "" {
			return nil, validationf("assigned_to must not be empty")
		}
		rec.AssignedTo = strings.TrimSpace(*req.AssignedTo)
	}
	if req.Rank != nil {
		rec.Rank = *req.Rank
	}
	if req.Unit != nil {
		rec.Unit = *req.Unit
	}
	if req.ExpectedReturnDate != nil {
		rec.ExpectedReturnDate = req.ExpectedReturnDate.TimePtr()
	}
	if req.Purpose != nil {
		if rec.Status == models.AssignmentActive && strings.TrimSpace(*req.Purpose) == "" {
			return nil, validationf("purpose is required for an active assignment")
		}
		rec.Purpose = strings.TrimSpace(*req.Purpose)
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if err := s.saveAssignment(ctx, rec, rec.Status); err != nil {
		return nil, err
	}
	return s.assignmentView(ctx, rec), nil
}

// GetAssignment returns one assignment at the caller's base.
func (s *Service) GetAssignment(ctx context.Context, p Principal, id int64) (*models.AssignmentView, error) {
	rec, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading assignment", "Assignment not found")
	}
	if !p.CanActOn(rec.LocationID) {
		return nil, forbidden("You do not have permission to access this assignment")
	}
	return s.assignmentView(ctx, rec), nil
}

func (s *Service) ListAssignments(ctx context.Context, p Principal, f AssignmentFilter) ([]models.AssignmentView, int, error) {
	scope, err := p.homeScope()
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		f.LocationID = scope
	}
	for _, st := range f.Statuses {
		if !validAssignmentStatus(st) {
			return nil, 0, validationf("Invalid assignment status: %s", st)
		}
	}
	recs, total, err := s.store.ListAssignments(ctx, f)
	if err != nil {
		return nil, 0, unexpected("listing assignments", err)
	}
	out := make([]models.AssignmentView, 0, len(recs))
	for i := range recs {
		out = append(out, *s.assignmentView(ctx, &recs[i]))
	}
	return out, total, nil
}

func validAssignmentStatus(st string) bool {
	switch st {
	case models.AssignmentPending, models.AssignmentActive, models.AssignmentReturned,
		models.AssignmentCancelled, models.AssignmentExpended:
		return true
	}
	return false
}

// guardAssignment loads an assignment and applies the location guard used by
// every assignment transition.
func (s *Service) guardAssignment(ctx context.Context, p Principal, id int64, denied string) (*models.AssignmentRecord, error) {
	rec, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading assignment", "Assignment not found")
	}
	if p.Elevated() {
		return rec, nil
	}
	home, err := p.homeScope()
	if err != nil {
		return nil, err
	}
	if *home != rec.LocationID {
		return nil, forbidden(denied)
	}
	return rec, nil
}

func (s *Service) saveAssignment(ctx context.Context, rec *models.AssignmentRecord, expectStatus string) error {
	if err := s.store.UpdateAssignment(ctx, rec, expectStatus); err != nil {
		if errors.Is(err, ErrStaleState) {
			return conflictf("Assignment status changed concurrently")
		}
		return lookup(err, "saving assignment", "Assignment not found")
	}
	return nil
}

func (s *Service) assignmentView(ctx context.Context, rec *models.AssignmentRecord) *models.AssignmentView {
	v := &models.AssignmentView{
		AssignmentRecord: *rec,
		Item:             s.optItem(ctx, rec.ItemID),
		Location:         s.optLocation(ctx, rec.LocationID),
		Assigner:         s.optUser(ctx, &rec.AssignedBy),
	}
	if v.Item != nil {
		v.AssetType = s.optAssetType(ctx, v.Item.AssetTypeID)
	}
	return v
}
