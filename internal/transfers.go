package internal

import (
	"context"
	"net/http"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	lp := parseListParams(r)
	f := ledger.TransferFilter{
		Statuses:         lp.list("status"),
		FromLocationID:   lp.id("from_location_id"),
		ToLocationID:     lp.id("to_location_id"),
		EitherLocationID: lp.id("location_id"),
		AssetTypeID:      lp.id("asset_type_id"),
		Dates:            lp.dates,
		Page:             lp.page,
	}
	if !lp.ok(w) {
		return
	}

	rows, total, err := s.Service.ListTransfers(r.Context(), principal(r), f)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendListResponse(w, rows, total)
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.Service.GetTransfer(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Service.CreateTransfer(r.Context(), principal(r), req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusCreated, view)
}

type transferAction func(ctx context.Context, p ledger.Principal, id int64) (*models.TransferView, error)

// transition runs a status change on the transfer named in the path.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, action transferAction) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := action(r.Context(), principal(r), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendSuccess(w, http.StatusOK, view)
}

func (s *Server) approveTransfer(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Service.ApproveTransfer)
}

func (s *Server) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Service.RejectTransfer)
}

func (s *Server) cancelTransfer(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.Service.CancelTransfer)
}
