package internal

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"asset-ledger-api/internal/ledger"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// listParams collects the query parameters shared by list endpoints.
// Malformed values are reported through err rather than silently defaulted,
// except limit and offset which fall back like they always have.
type listParams struct {
	values url.Values
	page   ledger.Page
	dates  ledger.DateRange
	err    error
}

// parseListParams reads limit, offset (or page) and start_date/end_date.
// Defaults: limit=50 (max 200), offset=0.
func parseListParams(r *http.Request) *listParams {
	values := r.URL.Query()
	lp := &listParams{values: values}

	limit := defaultLimit
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > maxLimit {
				v = maxLimit
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	} else if s := strings.TrimSpace(values.Get("page")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	lp.page = ledger.Page{Limit: limit, Offset: offset}

	lp.dates.From = lp.date("start_date", false)
	lp.dates.To = lp.date("end_date", true)
	if lp.err == nil && lp.dates.From != nil && lp.dates.To != nil && lp.dates.To.Before(*lp.dates.From) {
		lp.err = fmt.Errorf("end_date must not be before start_date")
	}
	return lp
}

// date parses a YYYY-MM-DD or RFC 3339 value. A bare end date covers the
// whole day.
func (lp *listParams) date(key string, endOfDay bool) *time.Time {
	s := strings.TrimSpace(lp.values.Get(key))
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		lp.fail(fmt.Errorf("invalid %s %q: use YYYY-MM-DD", key, s))
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

// id parses an optional positive integer parameter.
func (lp *listParams) id(key string) *int64 {
	s := strings.TrimSpace(lp.values.Get(key))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		lp.fail(fmt.Errorf("invalid %s %q", key, s))
		return nil
	}
	return &v
}

// list splits a comma separated parameter.
func (lp *listParams) list(key string) []string {
	var out []string
	for _, raw := range lp.values[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (lp *listParams) str(key string) string {
	return strings.TrimSpace(lp.values.Get(key))
}

func (lp *listParams) fail(err error) {
	if lp.err == nil {
		lp.err = err
	}
}

// ok writes a 400 for the first malformed parameter.
func (lp *listParams) ok(w http.ResponseWriter) bool {
	if lp.err != nil {
		sendMessage(w, http.StatusBadRequest, lp.err.Error())
		return false
	}
	return true
}
