package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"asset-ledger-api/internal/auth"
	"asset-ledger-api/internal/ledger"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type listEnvelope struct {
	Status  string `json:"status"`
	Results int    `json:"results"`
	Total   int    `json:"total"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func sendSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Status: "success", Data: data})
}

// sendListResponse writes a page of results with the unpaged total.
func sendListResponse[T any](w http.ResponseWriter, items []T, total int) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listEnvelope{Status: "success", Results: len(items), Total: total, Data: items})
}

func sendMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Status: "error", Message: message})
}

// statusFor maps a ledger error kind onto an HTTP status. Wrong-state
// transitions are reported as 400 like validation failures.
func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation, ledger.KindConflict:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// sendError turns any error returned by the ledger into the error envelope.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var le *ledger.Error
	if errors.As(err, &le) && le.Kind != ledger.KindUnexpected {
		sendMessage(w, statusFor(le.Kind), le.Message)
		return
	}

	s.Logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	body := errorEnvelope{Status: "error", Message: "Something went wrong. Please try again later."}
	if !s.Config.IsProduction() {
		body.Error = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// decodeJSON reads a bounded JSON body into dst. It writes the 400 itself
// and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			sendMessage(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		sendMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		sendMessage(w, http.StatusBadRequest, "Invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// principal returns the caller placed in the context by auth.AuthMiddleware.
func principal(r *http.Request) ledger.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
