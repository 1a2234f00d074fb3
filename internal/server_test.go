package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"asset-ledger-api/internal/config"
	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

type testEnv struct {
	srv          *Server
	store        *memory.Store
	alpha, bravo models.Location
	rifle        models.AssetType
	tokens       map[string]string
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:             "test",
		ListenAddr:              ":0",
		LogLevel:                "error",
		StoreDriver:             config.DriverMemory,
		JWTSecret:               "0123456789abcdef0123456789abcdef",
		JWTIssuer:               "asset-ledger-api",
		JWTAudience:             "asset-ledger-api",
		JWTExpiry:               time.Hour,
		EnableMetrics:           true,
		AssignmentInitialStatus: models.AssignmentActive,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	env := &testEnv{store: st, tokens: map[string]string{}}
	alpha := &models.Location{Name: "Fort Alpha", Code: "ALPHA", IsActive: true}
	bravo := &models.Location{Name: "Camp Bravo", Code: "BRAVO", IsActive: true}
	require.NoError(t, st.CreateLocation(ctx, alpha))
	require.NoError(t, st.CreateLocation(ctx, bravo))
	rifle := &models.AssetType{Name: "M4 Carbine", Category: "weapon", Unit: "each", IsActive: true}
	require.NoError(t, st.CreateAssetType(ctx, rifle))
	env.alpha, env.bravo, env.rifle = *alpha, *bravo, *rifle

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	users := []struct {
		name string
		role string
		home *int64
	}{
		{"admin", models.RoleAdmin, nil},
		{"logi", models.RoleLogistics, &alpha.ID},
		{"cmd", models.RoleCommander, &alpha.ID},
		{"lead", models.RoleUnitLeader, &bravo.ID},
	}
	for _, u := range users {
		require.NoError(t, st.AddUser(&models.User{
			Username:     u.name,
			Email:        u.name + "@example.mil",
			PasswordHash: string(hash),
			Role:         u.role,
			LocationID:   u.home,
			IsActive:     true,
		}))
	}
	require.NoError(t, st.AddUser(&models.User{
		Username: "retired", Email: "retired@example.mil", PasswordHash: string(hash),
		Role: models.RoleCommander, LocationID: &alpha.ID, IsActive: false,
	}))

	cfg := testConfig()
	metrics := NewMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.NewService(st, ledger.Options{
		AssignmentInitialStatus: cfg.AssignmentInitialStatus,
		Logger:                  logger,
		Recorder:                metrics,
		PasswordCost:            bcrypt.MinCost,
	})
	srv, err := NewServer(cfg, Deps{Service: svc, Metrics: metrics, Logger: logger})
	require.NoError(t, err)
	env.srv = srv

	for _, u := range users {
		env.tokens[u.name] = env.login(t, u.name)
	}
	return env
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	return e.loginWith(t, username, testPassword)
}

func (e *testEnv) loginWith(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, "", http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

// do sends body as JSON with the named user's token. An empty user sends no
// Authorization header.
func (e *testEnv) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[user])
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, "success", env.Status)
	return env.Data
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, "error", env.Status)
	return env.Message
}

func (e *testEnv) stock(t *testing.T, loc models.Location, qty int) models.InventoryItemView {
	t.Helper()
	w := e.do(t, "admin", http.MethodPost, "/inventory", models.CreateInventoryItemRequest{
		AssetTypeID: e.rifle.ID,
		LocationID:  loc.ID,
		Quantity:    qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[models.InventoryItemView](t, w)
}

func (e *testEnv) onHand(t *testing.T, itemID int64) int {
	t.Helper()
	it, err := e.store.GetInventoryItem(context.Background(), itemID)
	require.NoError(t, err)
	return it.OnHand
}

func itemPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestNewServerRejectsWeakSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"
	_, err := NewServer(cfg, Deps{Service: ledger.NewService(memory.New(), ledger.Options{})})
	assert.Error(t, err)
}

func TestNewServerRLSNeedsBinder(t *testing.T) {
	cfg := testConfig()
	cfg.RLSEnabled = true
	_, err := NewServer(cfg, Deps{Service: ledger.NewService(memory.New(), ledger.Options{})})
	assert.ErrorContains(t, err, "session binder")
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeData[map[string]string](t, w)["state"])

	w = env.do(t, "", http.MethodGet, "/dbping", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/auth/login"`)

	w = env.do(t, "", http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorMessage(t, w), "/nowhere")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   models.LoginRequest
		status int
		msg    string
	}{
		{"missing password", models.LoginRequest{Username: "admin"}, http.StatusBadRequest, "Please provide username and password"},
		{"unknown user", models.LoginRequest{Username: "ghost", Password: testPassword}, http.StatusUnauthorized, "Incorrect username or password"},
		{"wrong password", models.LoginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized, "Incorrect username or password"},
		{"deactivated", models.LoginRequest{Username: "retired", Password: testPassword}, http.StatusUnauthorized, "This account has been deactivated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "", http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, errorMessage(t, w))
		})
	}

	t.Run("password hash never leaves the server", func(t *testing.T) {
		w := env.do(t, "", http.MethodPost, "/auth/login", models.LoginRequest{Username: " logi ", Password: testPassword})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "$2a$")
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodGet, "/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "logi", http.MethodGet, "/auth/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeData[struct {
		User     models.User     `json:"user"`
		Location models.Location `json:"location"`
	}](t, w)
	assert.Equal(t, "logi", profile.User.Username)
	assert.Equal(t, "ALPHA", profile.Location.Code)
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   any
	}{
		{"commander cannot purchase", "cmd", http.MethodPost, "/purchases", models.CreatePurchaseRequest{}},
		{"unit leader cannot transfer", "lead", http.MethodPost, "/transfers", models.CreateTransferRequest{}},
		{"logistics cannot approve transfers", "logi", http.MethodPatch, "/transfers/1/approve", nil},
		{"logistics cannot assign", "logi", http.MethodPost, "/assignments", models.CreateAssignmentRequest{}},
		{"commander cannot approve expenditures", "cmd", http.MethodPatch, "/expenditures/1/approve", nil},
		{"only admin creates bases", "logi", http.MethodPost, "/locations", models.CreateLocationRequest{}},
		{"commander cannot import", "cmd", http.MethodGet, "/imports/purchases/template", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.user, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestPurchaseCreditsInventory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "logi", http.MethodPost, "/purchases", map[string]any{
		"asset_type_id": env.rifle.ID,
		"quantity":      12,
		"unit_cost":     "850.50",
		"purchase_date": "2024-02-01",
		"supplier":      "Colt",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decodeData[models.PurchaseView](t, w)
	assert.Equal(t, env.alpha.ID, view.LocationID)
	assert.Equal(t, "10206", view.TotalCost.String())

	item, err := env.store.FindInventoryItem(context.Background(), env.rifle.ID, env.alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, item.OnHand)

	t.Run("other base is forbidden", func(t *testing.T) {
		w := env.do(t, "logi", http.MethodPost, "/purchases", map[string]any{
			"asset_type_id": env.rifle.ID,
			"location_id":   env.bravo.ID,
			"quantity":      1,
			"unit_cost":     "1",
			"purchase_date": "2024-02-01",
			"supplier":      "Colt",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("validation maps to 400", func(t *testing.T) {
		w := env.do(t, "logi", http.MethodPost, "/purchases", map[string]any{
			"asset_type_id": env.rifle.ID,
			"quantity":      0,
			"unit_cost":     "1",
			"purchase_date": "2024-02-01",
			"supplier":      "Colt",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/purchases", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+env.tokens["logi"])
		w := httptest.NewRecorder()
		env.srv.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list is scoped to the home base", func(t *testing.T) {
		w := env.do(t, "lead", http.MethodGet, "/purchases", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeData[[]models.PurchaseView](t, w))

		w = env.do(t, "admin", http.MethodGet, "/purchases?limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list listEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, 1, list.Results)
		assert.Equal(t, 1, list.Total)
	})
}

func TestTransferFlow(t *testing.T) {
	env := newTestEnv(t)
	item := env.stock(t, env.alpha, 20)

	w := env.do(t, "logi", http.MethodPost, "/transfers", models.CreateTransferRequest{
		ItemID: item.ID, Quantity: 8, ToLocationID: env.bravo.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pending := decodeData[models.TransferView](t, w)
	assert.Equal(t, models.TransferPending, pending.Status)
	assert.Equal(t, 20, env.onHand(t, item.ID))

	w = env.do(t, "admin", http.MethodPatch, itemPath("/transfers", pending.ID, "/approve"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.TransferCompleted, decodeData[models.TransferView](t, w).Status)
	assert.Equal(t, 12, env.onHand(t, item.ID))

	dest, err := env.store.FindInventoryItem(context.Background(), env.rifle.ID, env.bravo.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, dest.OnHand)

	// completed transfers cannot move again
	w = env.do(t, "admin", http.MethodPatch, itemPath("/transfers", pending.ID, "/approve"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transfer is not in pending status", errorMessage(t, w))

	t.Run("insufficient quantity", func(t *testing.T) {
		w := env.do(t, "logi", http.MethodPost, "/transfers", models.CreateTransferRequest{
			ItemID: item.ID, Quantity: 500, ToLocationID: env.bravo.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorMessage(t, w), "Insufficient quantity")
	})

	t.Run("cancel leaves stock alone", func(t *testing.T) {
		w := env.do(t, "logi", http.MethodPost, "/transfers", models.CreateTransferRequest{
			ItemID: item.ID, Quantity: 2, ToLocationID: env.bravo.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		tr := decodeData[models.TransferView](t, w)

		w = env.do(t, "logi", http.MethodPatch, itemPath("/transfers", tr.ID, "/cancel"), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, models.TransferCancelled, decodeData[models.TransferView](t, w).Status)
		assert.Equal(t, 12, env.onHand(t, item.ID))
	})

	t.Run("unknown transfer", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodGet, "/transfers/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodGet, "/transfers/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id: abc", errorMessage(t, w))
	})

	t.Run("status filter", func(t *testing.T) {
		w := env.do(t, "admin", http.MethodGet, "/transfers?status=completed,cancelled", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeData[[]models.TransferView](t, w), 2)
	})
}

func TestAssignmentFlow(t *testing.T) {
	env := newTestEnv(t)
	item := env.stock(t, env.alpha, 10)

	w := env.do(t, "cmd", http.MethodPost, "/assignments", models.CreateAssignmentRequest{
		ItemID: item.ID, Quantity: 3, AssignedTo: "Sgt. Reyes",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	asg := decodeData[models.AssignmentView](t, w)
	assert.Equal(t, models.AssignmentActive, asg.Status)
	assert.Equal(t, 7, env.onHand(t, item.ID))

	w = env.do(t, "cmd", http.MethodPatch, itemPath("/assignments", asg.ID, "/return"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.AssignmentReturned, decodeData[models.AssignmentView](t, w).Status)
	assert.Equal(t, 10, env.onHand(t, item.ID))

	w = env.do(t, "cmd", http.MethodPatch, itemPath("/assignments", asg.ID, "/expend"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenditureFlow(t *testing.T) {
	env := newTestEnv(t)
	item := env.stock(t, env.bravo, 30)

	w := env.do(t, "lead", http.MethodPost, "/expenditures", models.CreateExpenditureRequest{
		ItemID: item.ID, Quantity: 5, Reason: "Training",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exp := decodeData[models.ExpenditureView](t, w)
	assert.Nil(t, exp.Approved)
	assert.Equal(t, 25, env.onHand(t, item.ID))

	t.Run("bad reason", func(t *testing.T) {
		w := env.do(t, "lead", http.MethodPost, "/expenditures", models.CreateExpenditureRequest{
			ItemID: item.ID, Quantity: 1, Reason: "Fun",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("other base is forbidden", func(t *testing.T) {
		w := env.do(t, "cmd", http.MethodPost, "/expenditures", models.CreateExpenditureRequest{
			ItemID: item.ID, Quantity: 1, Reason: "Training",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	w = env.do(t, "admin", http.MethodPatch, itemPath("/expenditures", exp.ID, "/approve"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decodeData[models.ExpenditureView](t, w)
	assert.True(t, approved.IsApproved())

	w = env.do(t, "admin", http.MethodGet, "/expenditures/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"stats"`)

	w = env.do(t, "admin", http.MethodGet, "/expenditures?reason=Training&approval=approved", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeData[[]models.ExpenditureView](t, w), 1)
}

func TestListParamsRejectBadDates(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "admin", http.MethodGet, "/transfers?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "start_date")

	w = env.do(t, "admin", http.MethodGet, "/purchases?start_date=2024-03-01&end_date=2024-02-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "end_date must not be before start_date", errorMessage(t, w))
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	item := env.stock(t, env.alpha, 20)

	w := env.do(t, "admin", http.MethodPost, "/transfers", models.CreateTransferRequest{
		ItemID: item.ID, Quantity: 5, ToLocationID: env.bravo.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "admin", http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := decodeData[[]models.MovementSummary](t, w)
	require.Len(t, rows, 2)

	byLoc := map[int64]models.MovementSummary{}
	for _, row := range rows {
		byLoc[row.LocationID] = row
	}
	src := byLoc[env.alpha.ID]
	assert.Equal(t, 20, src.OpeningBalance)
	assert.Equal(t, 5, src.TransferredOut)
	assert.Equal(t, 15, src.OnHand)
	assert.Equal(t, 5, byLoc[env.bravo.ID].TransferredIn)
	assert.Zero(t, byLoc[env.bravo.ID].OpeningBalance)
	for _, row := range rows {
		net := row.OpeningBalance + row.Purchased + row.TransferredIn - row.TransferredOut - row.Assigned - row.Expended
		assert.Equal(t, row.OnHand, net, "location %d", row.LocationID)
	}

	w = env.do(t, "admin", http.MethodGet, "/summary?start_date=2000-01-01&end_date=2000-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, row := range decodeData[[]models.MovementSummary](t, w) {
		assert.Zero(t, row.TransferredIn)
		assert.Zero(t, row.TransferredOut)
	}

	w = env.do(t, "lead", http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows = decodeData[[]models.MovementSummary](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, env.bravo.ID, rows[0].LocationID)
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w := env.do(t, "logi", http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "admin", http.MethodPost, "/users", models.CreateUserRequest{
		Username: "homeless", Email: "homeless@example.mil", Password: "pw-12345", Role: models.RoleCommander,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "A base is required")

	w = env.do(t, "admin", http.MethodPost, "/users", models.CreateUserRequest{
		Username: "qm", Email: "qm@example.mil", Password: "first-pass", Role: models.RoleLogistics, LocationID: &env.bravo.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "$2a$")
	created := decodeData[models.User](t, w)
	userPath := itemPath("/users", created.ID, "")

	w = env.do(t, "admin", http.MethodPost, "/users", models.CreateUserRequest{
		Username: "qm", Email: "qm2@example.mil", Password: "x", Role: models.RoleLogistics, LocationID: &env.bravo.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User with this email or username already exists", errorMessage(t, w))

	env.tokens["qm"] = env.loginWith(t, "qm", "first-pass")
	w = env.do(t, "qm", http.MethodGet, "/auth/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BRAVO"`)

	w = env.do(t, "admin", http.MethodGet, "/users?role=logistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]models.User](t, w), 2)

	w = env.do(t, "admin", http.MethodPatch, userPath, map[string]string{"password": "sneaky"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password updates are not allowed through this endpoint", errorMessage(t, w))

	w = env.do(t, "admin", http.MethodPatch, userPath+"/toggle-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[models.User](t, w).IsActive)
	w = env.do(t, "", http.MethodPost, "/auth/login", models.LoginRequest{Username: "qm", Password: "first-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, "admin", http.MethodPatch, userPath+"/toggle-status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "qm", http.MethodPatch, "/auth/password", models.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "second-pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect", errorMessage(t, w))
	w = env.do(t, "qm", http.MethodPatch, "/auth/password", models.ChangePasswordRequest{CurrentPassword: "first-pass", NewPassword: "second-pass"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	env.loginWith(t, "qm", "second-pass")

	w = env.do(t, "qm", http.MethodPatch, "/auth/profile", models.UpdateProfileRequest{Email: ptrString("qm@bravo.example.mil")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "qm@bravo.example.mil", decodeData[models.User](t, w).Email)

	admin, err := env.store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	w = env.do(t, "admin", http.MethodDelete, itemPath("/users", admin.ID, ""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Admin users cannot be deleted", errorMessage(t, w))

	w = env.do(t, "admin", http.MethodDelete, userPath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "admin", http.MethodGet, userPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReferenceDataEdits(t *testing.T) {
	env := newTestEnv(t)
	item := env.stock(t, env.alpha, 4)

	w := env.do(t, "logi", http.MethodPatch, itemPath("/locations", env.alpha.ID, ""), models.UpdateLocationRequest{Name: ptrString("Fort A")})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "admin", http.MethodPatch, itemPath("/locations", env.alpha.ID, ""), models.UpdateLocationRequest{Name: ptrString("Fort Alpha North")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Fort Alpha North", decodeData[models.Location](t, w).Name)

	w = env.do(t, "admin", http.MethodDelete, itemPath("/locations", env.bravo.ID, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[models.Location](t, w).IsActive)

	w = env.do(t, "admin", http.MethodDelete, itemPath("/asset-types", env.rifle.ID, ""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "in use")

	w = env.do(t, "lead", http.MethodPatch, itemPath("/inventory", item.ID, ""), models.UpdateInventoryItemRequest{Notes: ptrString("x")})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, "logi", http.MethodPatch, itemPath("/inventory", item.ID, ""), models.UpdateInventoryItemRequest{Status: ptrString(models.ItemMaintenance)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[models.InventoryItemView](t, w)
	assert.Equal(t, models.ItemMaintenance, updated.Status)
	assert.Equal(t, 4, updated.OnHand)

	w = env.do(t, "logi", http.MethodDelete, itemPath("/inventory", item.ID, ""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete an asset with quantity on hand", errorMessage(t, w))
}

func ptrString(s string) *string {
	return &s
}
