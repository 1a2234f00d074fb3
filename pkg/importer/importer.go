// Package importer loads purchase records from an .xlsx workbook. Each valid
// row is recorded through the ledger's Purchase operation, so a row credits
// stock exactly like a purchase posted through the API.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"
)

// DefaultSheet is the worksheet read when Options.Sheet is empty.
const DefaultSheet = "Purchases"

// ErrUnknown is returned by a Resolver for a name or code it cannot map.
var ErrUnknown = errors.New("not found")

// ErrTooManyErrors stops an import once MaxErrors rows have failed.
var ErrTooManyErrors = errors.New("too many errors")

// ImportOptions defines the configuration for a purchase import
type ImportOptions struct {
	Sheet     string
	DryRun    bool
	MaxErrors int // default 50
}

// Resolver maps the human-readable columns of the sheet onto ids.
type Resolver interface {
	AssetTypeID(ctx context.Context, name string) (int64, error)
	LocationID(ctx context.Context, code string) (int64, error)
}

// PurchaseCreator is the ledger operation each row is posted through.
type PurchaseCreator interface {
	CreatePurchase(ctx context.Context, p ledger.Principal, req models.CreatePurchaseRequest) (*models.PurchaseView, error)
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary contains the import statistics
type ImportSummary struct {
	Sheet      string     `json:"sheet"`
	Imported   int        `json:"imported"`
	Skipped    int        `json:"skipped"`
	Errors     int        `json:"errors"`
	Quantity   int        `json:"quantity"`
	References []string   `json:"references,omitempty"`
	Samples    []RowError `json:"error_samples,omitempty"`
	DryRun     bool       `json:"dry_run"`
}

const maxSamples = 20

func (s *ImportSummary) fail(row int, err error) {
	s.Errors++
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, RowError{Row: row, Message: err.Error()})
	}
}

// columns maps the canonical header to its accepted aliases.
var columns = map[string][]string{
	"asset type":    {"asset_type", "asset", "item"},
	"location code": {"location", "base", "base code", "location_code"},
	"quantity":      {"qty"},
	"unit cost":     {"unit_cost", "cost", "price"},
	"purchase date": {"purchase_date", "date"},
	"supplier":      {"vendor"},
	"invoice":       {"invoice number", "invoice_number", "invoice no"},
	"notes":         {"note", "remarks"},
}

var required = []string{"asset type", "location code", "quantity", "unit cost", "purchase date", "supplier"}

// canonical resolves a header cell to its column key.
func canonical(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for key, aliases := range columns {
		if h == key {
			return key, true
		}
		for _, alias := range aliases {
			if h == alias {
				return key, true
			}
		}
	}
	return "", false
}

// ImportPurchases reads the purchase sheet from r and posts every valid row as
// principal p. With DryRun set rows are parsed and resolved but nothing is
// written.
func ImportPurchases(ctx context.Context, r io.Reader, res Resolver, creator PurchaseCreator, p ledger.Principal, opts ImportOptions) (ImportSummary, error) {
	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}
	summary := ImportSummary{Sheet: opts.Sheet, DryRun: opts.DryRun}

	// xlsx.OpenBinary needs the whole workbook in memory
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read workbook: %w", err)
	}
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open workbook: %w", err)
	}
	sheet, ok := wb.Sheet[opts.Sheet]
	if !ok {
		return summary, fmt.Errorf("workbook has no %q sheet", opts.Sheet)
	}

	header, err := readHeader(sheet)
	if err != nil {
		return summary, err
	}

	for idx := 1; idx < sheet.MaxRow; idx++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowNum := idx + 1

		row, err := sheet.Row(idx)
		if err != nil {
			summary.fail(rowNum, err)
			continue
		}
		values := rowValues(row, header, sheet.MaxCol, wb.Date1904)
		if len(values) == 0 {
			summary.Skipped++
			continue
		}

		req, err := buildRequest(ctx, values, res)
		if err == nil && !opts.DryRun {
			var view *models.PurchaseView
			view, err = creator.CreatePurchase(ctx, p, req)
			if err == nil {
				summary.References = append(summary.References, view.Reference)
			}
		}
		if err != nil {
			summary.fail(rowNum, err)
			if summary.Errors >= opts.MaxErrors {
				return summary, fmt.Errorf("%w (%d), stopping import at row %d", ErrTooManyErrors, summary.Errors, rowNum)
			}
			continue
		}
		summary.Imported++
		summary.Quantity += req.Quantity
	}

	return summary, nil
}

type cellValue struct {
	text string
	time *time.Time
}

func readHeader(sheet *xlsx.Sheet) (map[int]string, error) {
	if sheet.MaxRow == 0 {
		return nil, errors.New("sheet is empty")
	}
	row, err := sheet.Row(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	header := make(map[int]string)
	seen := make(map[string]bool)
	for col := 0; col < sheet.MaxCol; col++ {
		key, ok := canonical(row.GetCell(col).String())
		if !ok || seen[key] {
			continue
		}
		header[col] = key
		seen[key] = true
	}

	var missing []string
	for _, key := range required {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return header, nil
}

func rowValues(row *xlsx.Row, header map[int]string, maxCol int, date1904 bool) map[string]cellValue {
	values := make(map[string]cellValue)
	for col := 0; col < maxCol; col++ {
		key, ok := header[col]
		if !ok {
			continue
		}
		cell := row.GetCell(col)
		text := strings.TrimSpace(cell.String())
		if text == "" {
			continue
		}
		v := cellValue{text: text}
		if cell.IsTime() {
			if t, err := cell.GetTime(date1904); err == nil {
				v.time = &t
			}
		}
		values[key] = v
	}
	return values
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006", "02-Jan-2006", time.RFC3339}

func parseDate(v cellValue) (time.Time, error) {
	if v.time != nil {
		return *v.time, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v.text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid purchase date %q", v.text)
}

func buildRequest(ctx context.Context, values map[string]cellValue, res Resolver) (models.CreatePurchaseRequest, error) {
	var req models.CreatePurchaseRequest
	for _, key := range required {
		if _, ok := values[key]; !ok {
			return req, fmt.Errorf("%s is required", key)
		}
	}

	qty, err := strconv.Atoi(values["quantity"].text)
	if err != nil {
		// numeric cells may carry a trailing .0
		f, ferr := strconv.ParseFloat(values["quantity"].text, 64)
		if ferr != nil || f != float64(int(f)) {
			return req, fmt.Errorf("invalid quantity %q", values["quantity"].text)
		}
		qty = int(f)
	}
	if qty <= 0 {
		return req, fmt.Errorf("quantity must be positive, got %d", qty)
	}
	cost, err := decimal.NewFromString(values["unit cost"].text)
	if err != nil {
		return req, fmt.Errorf("invalid unit cost %q", values["unit cost"].text)
	}
	if cost.IsNegative() {
		return req, fmt.Errorf("unit cost must not be negative")
	}
	date, err := parseDate(values["purchase date"])
	if err != nil {
		return req, err
	}

	typeID, err := res.AssetTypeID(ctx, values["asset type"].text)
	if err != nil {
		return req, fmt.Errorf("asset type %q: %w", values["asset type"].text, err)
	}
	locID, err := res.LocationID(ctx, values["location code"].text)
	if err != nil {
		return req, fmt.Errorf("location %q: %w", values["location code"].text, err)
	}

	req = models.CreatePurchaseRequest{
		AssetTypeID:   typeID,
		LocationID:    &locID,
		Quantity:      qty,
		UnitCost:      &cost,
		PurchaseDate:  &models.Date{Time: date},
		Supplier:      values["supplier"].text,
		InvoiceNumber: values["invoice"].text,
		Notes:         values["notes"].text,
	}
	return req, nil
}
