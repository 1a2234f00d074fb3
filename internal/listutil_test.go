package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asset-ledger-api/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParamsPaging(t *testing.T) {
	tests := []struct {
		query string
		want  ledger.Page
	}{
		{"", ledger.Page{Limit: 50, Offset: 0}},
		{"limit=10&offset=30", ledger.Page{Limit: 10, Offset: 30}},
		{"limit=1000", ledger.Page{Limit: 200, Offset: 0}},
		{"limit=-5&offset=-1", ledger.Page{Limit: 50, Offset: 0}},
		{"limit=20&page=3", ledger.Page{Limit: 20, Offset: 40}},
		{"page=2&offset=5", ledger.Page{Limit: 50, Offset: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			lp := parseListParams(httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil))
			assert.NoError(t, lp.err)
			assert.Equal(t, tt.want, lp.page)
		})
	}
}

func TestParseListParamsDates(t *testing.T) {
	lp := parseListParams(httptest.NewRequest(http.MethodGet, "/x?start_date=2024-01-01&end_date=2024-01-31", nil))
	require.NoError(t, lp.err)
	require.NotNil(t, lp.dates.From)
	require.NotNil(t, lp.dates.To)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *lp.dates.From)
	// a bare end date includes that whole day
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *lp.dates.To)

	lp = parseListParams(httptest.NewRequest(http.MethodGet, "/x?start_date=2024-01-01T10:00:00Z", nil))
	require.NoError(t, lp.err)
	assert.Equal(t, 10, lp.dates.From.Hour())
	assert.Nil(t, lp.dates.To)

	lp = parseListParams(httptest.NewRequest(http.MethodGet, "/x?end_date=01/31/2024", nil))
	assert.ErrorContains(t, lp.err, "end_date")
}

func TestListParamsHelpers(t *testing.T) {
	lp := parseListParams(httptest.NewRequest(http.MethodGet, "/x?status=pending,%20approved&status=completed&location_id=7&reason=+Training+", nil))

	assert.Equal(t, []string{"pending", "approved", "completed"}, lp.list("status"))
	assert.Nil(t, lp.list("missing"))
	assert.Equal(t, "Training", lp.str("reason"))

	id := lp.id("location_id")
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)
	assert.Nil(t, lp.id("asset_type_id"))
	require.NoError(t, lp.err)

	assert.Nil(t, lp.id("reason"))
	assert.ErrorContains(t, lp.err, "invalid reason")

	w := httptest.NewRecorder()
	assert.False(t, lp.ok(w))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
