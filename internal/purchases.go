package internal

import (
	"net/http"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

func (s *Server) listPurchases(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.PurchaseFilter{
		LocationID:  lp.id("location_id"),
		AssetTypeID: lp.id("asset_type_id"),
		Dates:       lp.dates,
		Page:        lp.page,
	}
	if !lp.ok(w) {
		return
	}

	rows, total, err := s.Service.ListPurchases(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, total)
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.GetPurchase(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.CreatePurchase(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, view)
}

func (s *Server) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.UpdatePurchase(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeletePurchase(r.Context(), principal(r), id); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
