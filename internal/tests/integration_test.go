//go:build integration

package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"asset-ledger-api/internal"
	"asset-ledger-api/internal/config"
	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/postgres"
	"asset-ledger-api/internal/testutil"
	"asset-ledger-api/pkg/importer"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "integration-password"

var (
	testServer *internal.Server
	testDB     *sql.DB
	alpha      = &models.Location{Name: "Fort Alpha", Code: "ALPHA", IsActive: true}
	bravo      = &models.Location{Name: "Camp Bravo", Code: "BRAVO", IsActive: true}
	rifle      = &models.AssetType{Name: "M4 Carbine", Category: "weapon", Unit: "each", IsActive: true}
)

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") != "1" {
		os.Exit(0)
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	t := &testing.T{}
	testDB = testutil.NewTestDB(t)
	testutil.ResetSchema(t, testDB)
	defer testDB.Close()

	ctx := context.Background()
	store := postgres.New(testDB)
	if err := seed(ctx, store); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		return 1
	}

	pool, err := pgxpool.New(ctx, testutil.DSN())
	if err != nil {
		fmt.Fprintln(os.Stderr, "pool:", err)
		return 1
	}
	defer pool.Close()

	cfg := &config.Config{
		Environment:             "test",
		StoreDriver:             config.DriverPostgres,
		RLSEnabled:              true,
		JWTSecret:               "supersecretkeyforintegrationtestingonly",
		JWTIssuer:               "asset-ledger-api",
		JWTAudience:             "asset-ledger-api",
		JWTExpiry:               24 * time.Hour,
		AssignmentInitialStatus: models.AssignmentActive,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := internal.NewMetrics()
	svc := ledger.NewService(store, ledger.Options{
		AssignmentInitialStatus: cfg.AssignmentInitialStatus,
		Logger:                  logger,
		Recorder:                metrics,
	})
	testServer, err = internal.NewServer(cfg, internal.Deps{
		Service:  svc,
		Metrics:  metrics,
		Sessions: store,
		Resolver: importer.NewPoolResolver(pool),
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		return 1
	}
	return m.Run()
}

func seed(ctx context.Context, store *postgres.Store) error {
	for _, loc := range []*models.Location{alpha, bravo} {
		if err := store.CreateLocation(ctx, loc); err != nil {
			return err
		}
	}
	if err := store.CreateAssetType(ctx, rifle); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	users := []*models.User{
		{Username: "admin", Email: "admin@example.mil", Role: models.RoleAdmin},
		{Username: "logi", Email: "logi@example.mil", Role: models.RoleLogistics, LocationID: &alpha.ID},
		{Username: "lead", Email: "lead@example.mil", Role: models.RoleUnitLeader, LocationID: &bravo.ID},
	}
	for _, u := range users {
		u.PasswordHash = string(hash)
		u.IsActive = true
		if err := store.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func send(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testServer.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, username string) string {
	t.Helper()
	w := send(t, "", http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/health", "/dbping"} {
		w := send(t, "", http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	w := send(t, "", http.MethodGet, "/inventory", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(t, "invalid-token", http.MethodGet, "/inventory", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransferAcrossBases(t *testing.T) {
	admin := login(t, "admin")
	logi := login(t, "logi")
	lead := login(t, "lead")

	w := send(t, admin, http.MethodPost, "/inventory", models.CreateInventoryItemRequest{
		AssetTypeID: rifle.ID, LocationID: alpha.ID, Quantity: 40,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := data[models.InventoryItemView](t, w)

	w = send(t, logi, http.MethodPost, "/transfers", models.CreateTransferRequest{
		ItemID: item.ID, Quantity: 15, ToLocationID: bravo.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tr := data[models.TransferView](t, w)
	assert.Equal(t, models.TransferPending, tr.Status)

	// the unit leader at the destination cannot see alpha's stock yet
	w = send(t, lead, http.MethodGet, "/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data[[]models.InventoryItemView](t, w))

	w = send(t, admin, http.MethodPatch, fmt.Sprintf("/transfers/%d/approve", tr.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.TransferCompleted, data[models.TransferView](t, w).Status)

	w = send(t, lead, http.MethodGet, "/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := data[[]models.InventoryItemView](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, 15, items[0].OnHand)
	assert.Equal(t, bravo.ID, items[0].LocationID)

	w = send(t, logi, http.MethodGet, fmt.Sprintf("/inventory/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, data[models.InventoryItemView](t, w).OnHand)
}

func TestPurchaseImport(t *testing.T) {
	logi := login(t, "logi")

	var wb bytes.Buffer
	require.NoError(t, importer.WriteSheet(&wb, importer.DefaultSheet, [][]string{
		importer.TemplateHeader,
		{"M4 Carbine", "ALPHA", "6", "900", "2024-04-02", "Colt", "INV-77", ""},
		{"M4 Carbine", "NOWHERE", "1", "900", "2024-04-02", "Colt", "", ""},
	}))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "purchases.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(wb.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/imports/purchases", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+logi)
	w := httptest.NewRecorder()
	testServer.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sum := data[importer.ImportSummary](t, w)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 1, sum.Errors)
	require.Len(t, sum.References, 1)

	w = send(t, logi, http.MethodGet, "/purchases?asset_type_id="+fmt.Sprint(rifle.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	purchases := data[[]models.PurchaseView](t, w)
	require.NotEmpty(t, purchases)
	assert.Equal(t, "INV-77", purchases[0].InvoiceNumber)
}
