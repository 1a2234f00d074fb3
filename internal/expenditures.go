package internal

import (
	"net/http"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

func expenditureFilter(lp *listParams) ledger.ExpenditureFilter {
	return ledger.ExpenditureFilter{
		LocationID: lp.id("location_id"),
		ItemID:     lp.id("item_id"),
		Reason:     lp.str("reason"),
		Approval:   lp.str("approval"),
		Dates:      lp.dates,
		Page:       lp.page,
	}
}

func (s *Server) listExpenditures(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := expenditureFilter(lp)
	if !lp.ok(w) {
		return
	}

	rows, total, err := s.Service.ListExpenditures(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, total)
}

func (s *Server) expenditureStats(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := expenditureFilter(lp)
	f.Page = ledger.Page{}
	if !lp.ok(w) {
		return
	}

	stats, err := s.Service.ExpenditureStats(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

func (s *Server) getExpenditure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.GetExpenditure(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) createExpenditure(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExpenditureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.CreateExpenditure(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, view)
}

func (s *Server) updateExpenditure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateExpenditureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.UpdateExpenditure(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) approveExpenditure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.ApproveExpenditure(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) deleteExpenditure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeleteExpenditure(r.Context(), principal(r), id); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
