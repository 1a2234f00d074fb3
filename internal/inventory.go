package internal

import (
	"net/http"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

func (s *Server) listInventory(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.InventoryFilter{
		LocationID:  lp.id("location_id"),
		AssetTypeID: lp.id("asset_type_id"),
		Status:      lp.str("status"),
		Page:        lp.page,
	}
	if !lp.ok(w) {
		return
	}

	rows, total, err := s.Service.ListInventory(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, total)
}

func (s *Server) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.GetInventoryItem(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInventoryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.CreateInventoryItem(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, view)
}

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Service.ListLocations(r.Context())
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, len(rows))
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loc, err := s.Service.GetLocation(r.Context(), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, loc)
}

func (s *Server) createLocation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loc, err := s.Service.CreateLocation(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, loc)
}

func (s *Server) listAssetTypes(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Service.ListAssetTypes(r.Context())
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, len(rows))
}

func (s *Server) getAssetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	at, err := s.Service.GetAssetType(r.Context(), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, at)
}

func (s *Server) createAssetType(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssetTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	at, err := s.Service.CreateAssetType(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, at)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.SummaryFilter{
		LocationID:  lp.id("location_id"),
		AssetTypeID: lp.id("asset_type_id"),
		Dates:       lp.dates,
	}
	if !lp.ok(w) {
		return
	}

	rows, err := s.Service.Summary(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, len(rows))
}

func (s *Server) updateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateInventoryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.UpdateInventoryItem(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) deleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeleteInventoryItem(r.Context(), principal(r), id); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loc, err := s.Service.UpdateLocation(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, loc)
}

// deactivateLocation answers DELETE with the retired base; bases are never
// removed.
func (s *Server) deactivateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loc, err := s.Service.DeactivateLocation(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, loc)
}

func (s *Server) updateAssetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateAssetTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	at, err := s.Service.UpdateAssetType(r.Context(), principal(r), id, req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, at)
}

func (s *Server) deleteAssetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeleteAssetType(r.Context(), principal(r), id); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
