package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"asset-ledger-api/internal/auth"
	"asset-ledger-api/pkg/importer"
)

// ImportsHandler handles spreadsheet purchase imports
type ImportsHandler struct {
	Creator  importer.PurchaseCreator
	Resolver importer.Resolver
	Logger   *slog.Logger
	MaxBytes int64
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(creator importer.PurchaseCreator, resolver importer.Resolver, logger *slog.Logger) *ImportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportsHandler{
		Creator:  creator,
		Resolver: resolver,
		Logger:   logger,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadPurchases posts every row of the uploaded workbook's purchase sheet.
// Form fields: file (required), sheet, dry_run, max_errors.
func (h *ImportsHandler) UploadPurchases(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, http.StatusBadRequest, "content-type must be multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "max_errors must be a positive integer")
			return
		}
		maxErrors = n
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required: "+err.Error())
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		writeError(w, http.StatusBadRequest, "only .xlsx files are accepted")
		return
	}

	// reference data may have changed since the last import
	if rs, ok := h.Resolver.(interface{ Reset() }); ok {
		rs.Reset()
	}

	sum, impErr := importer.ImportPurchases(r.Context(), file, h.Resolver, h.Creator, p, importer.ImportOptions{
		Sheet:     r.FormValue("sheet"),
		DryRun:    dryRun,
		MaxErrors: maxErrors,
	})
	h.Logger.InfoContext(r.Context(), "purchase import",
		"file", header.Filename,
		"user_id", p.UserID,
		"dry_run", dryRun,
		"imported", sum.Imported,
		"errors", sum.Errors,
	)
	if impErr != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(impErr, importer.ErrTooManyErrors) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{
			"status":  "error",
			"message": "Import failed: " + impErr.Error(),
			"data":    sum,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// DownloadTemplate serves a blank workbook with the expected header row.
func (h *ImportsHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="purchases.xlsx"`)
	if err := importer.WriteTemplate(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "write import template", "err", err)
	}
}

// isXLSX checks the uploaded file name.
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
