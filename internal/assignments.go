package internal

import (
	"context"
	"net/http"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.AssignmentFilter{
		LocationID:  lp.id("location_id"),
		Statuses:    lp.list("status"),
		AssetTypeID: lp.id("asset_type_id"),
		Dates:       lp.dates,
		Page:        lp.page,
	}
	if !lp.ok(w) {
		return
	}

	rows, total, err := s.Service.ListAssignments(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, total)
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.GetAssignment(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.CreateAssignment(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, view)
}

func (s *Server) updateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.UpdateAssignment(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) assignmentStep(w http.ResponseWriter, r *http.Request,
	step func(ctx context.Context, p ledger.Principal, id int64) (*models.AssignmentView, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := step(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) activateAssignment(w http.ResponseWriter, r *http.Request) {
	s.assignmentStep(w, r, s.Service.ActivateAssignment)
}

func (s *Server) returnAssignment(w http.ResponseWriter, r *http.Request) {
	s.assignmentStep(w, r, s.Service.ReturnAssignment)
}

func (s *Server) expendAssignment(w http.ResponseWriter, r *http.Request) {
	s.assignmentStep(w, r, s.Service.ExpendAssignment)
}
