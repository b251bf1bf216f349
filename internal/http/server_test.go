package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/services"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

type testAPI struct {
	ts      *httptest.Server
	client  *http.Client
	baseURL string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store, err := media.NewStore(filepath.Join(dir, "media"))
	require.NoError(t, err)

	logger := log.New(log.DefaultConfig())
	dashboard := services.NewDashboardService(repo, logger, nil, 16, time.Minute)

	srv := NewServer(":0", Deps{
		Accounts:          services.NewAccountService(repo, logger, time.Hour),
		Batches:           services.NewBatchService(repo, store, nil, dashboard, logger),
		Animals:           services.NewAnimalService(repo, dashboard, logger),
		Costs:             services.NewCostService(repo, dashboard, logger),
		Tracking:          services.NewTrackingService(repo, dashboard, logger),
		Dashboard:         dashboard,
		Logger:            logger,
		RequestsPerMinute: 1000,
	})
	t.Cleanup(func() { srv.limiter.Stop() })

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	jar := newCookieJar(t)
	return &testAPI{
		ts:      ts,
		client:  &http.Client{Jar: jar},
		baseURL: ts.URL,
	}
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *testAPI) signup(t *testing.T, email string) {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/register", map[string]string{
		"email": email, "name": "Tester", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthFlowAndBatchCRUD(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "farmer@example.com")

	resp := api.do(t, http.MethodPost, "/api/batches", map[string]any{
		"name": "Lote Norte", "address": "Vereda 1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[map[string]int64](t, resp)
	require.Positive(t, created["id"])

	resp = api.do(t, http.MethodGet, "/api/batches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decodeBody[[]map[string]any](t, resp)
	require.Len(t, batches, 1)
	assert.Equal(t, "Lote Norte", batches[0]["name"])

	id := created["id"]
	resp = api.do(t, http.MethodPut, fmt.Sprintf("/api/batches/%d", id), map[string]any{
		"name": "Lote Sur",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodDelete, fmt.Sprintf("/api/batches/%d", id), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/api/batches/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAnonymousAccess(t *testing.T) {
	api := newTestAPI(t)

	// CRUD requires a session.
	resp := api.do(t, http.MethodGet, "/api/batches", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The dashboard answers anonymously with a zeroed, fully-shaped report.
	resp = api.do(t, http.MethodGet, "/api/dashboard/costs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[services.CostsReport](t, resp)
	assert.Zero(t, report.TotalCosts)
	assert.Zero(t, report.AvgAmount)
	assert.NotNil(t, report.Monthly.Labels)
	assert.Empty(t, report.Monthly.Labels)
}

func TestCostValidationAndDashboard(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "farmer@example.com")

	resp := api.do(t, http.MethodPost, "/api/batches", map[string]any{"name": "Lote 1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	batch := decodeBody[map[string]int64](t, resp)

	// Bad decimal amount is rejected.
	resp = api.do(t, http.MethodPost, "/api/costs", map[string]any{
		"batch_id": batch["id"], "type": "feed", "description": "Concentrado",
		"amount": "abc", "date": "2024-01-05",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodPost, "/api/costs", map[string]any{
		"batch_id": batch["id"], "type": "feed", "description": "Concentrado",
		"amount": "1500,50", "date": "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodGet, "/api/dashboard/costs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[services.CostsReport](t, resp)
	assert.Equal(t, int64(1), report.TotalCosts)
	assert.Equal(t, 1500.5, report.TotalAmount)
	assert.Equal(t, []string{"Jan 2024"}, report.Monthly.Labels)
	assert.Equal(t, []string{"Alimentación"}, report.ByType.Labels)
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "a@example.com")

	resp := api.do(t, http.MethodPost, "/api/batches", map[string]any{"name": "Lote A"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	batch := decodeBody[map[string]int64](t, resp)

	// Second user cannot see or touch the first user's batch.
	other := newCookieJar(t)
	api.client.Jar = other
	api.signup(t, "b@example.com")

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/api/batches/%d", batch["id"]), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodDelete, fmt.Sprintf("/api/batches/%d", batch["id"]), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.client.Get(api.baseURL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = api.client.Get(api.baseURL + "/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
