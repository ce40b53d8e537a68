package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/senyabanana/sealed-tender/internal/auth"
	"github.com/senyabanana/sealed-tender/internal/clock"
	"github.com/senyabanana/sealed-tender/internal/commitment"
	"github.com/senyabanana/sealed-tender/internal/logger"
	"github.com/senyabanana/sealed-tender/internal/models"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/services"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

type testAPI struct {
	router chi.Router
	clock  *clock.Manual
	scheme commitment.Scheme
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := storage.OpenPebble(storage.PebbleOptions{Path: "db", FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	scheme, err := commitment.NewHashScheme(commitment.HashBLAKE3)
	require.NoError(t, err)

	clk := clock.NewManual(100)
	log := logger.Discard()
	core := services.Core{Store: store, Clock: clk, Auth: auth.TrustingAuthorizer{}, Log: log}

	tenderRepo := repository.NewKVTenderRepository()
	bidRepo := repository.NewKVBidRepository()
	access := services.NewAccessService(repository.NewKVAdminRepository(), core)
	admin, err := access.EnsureAdmin(context.Background(), "admin")
	require.NoError(t, err)

	tenderHandler := NewTenderHandler(
		services.NewTenderService(tenderRepo, bidRepo, core),
		services.NewCloseService(tenderRepo, bidRepo, services.NewWinnerSelector(bidRepo, 64), admin, core),
		log, time.Second, false,
	)
	bidHandler := NewBidHandler(services.NewBidService(bidRepo, tenderRepo, scheme, 256, core), log, time.Second, false)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		tenderHandler.RegisterRoutes(r)
		bidHandler.RegisterRoutes(r)
	})
	return &testAPI{router: r, clock: clk, scheme: scheme}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func (a *testAPI) commitment(t *testing.T, tenderID uint64, bidder string, amount int64, secret string) string {
	t.Helper()
	c, err := a.scheme.Commit(commitment.Binding{TenderID: tenderID, Bidder: bidder}, models.NewAmount(amount), []byte(secret))
	require.NoError(t, err)
	return hex.EncodeToString(c)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTenderLifecycleOverHTTP(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/tenders/new", map[string]any{
		"creator": "city", "title": "Road repair", "bidDeadline": 1000, "revealDeadline": 2000, "minBid": "100000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tender models.Tender
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tender))
	assert.Equal(t, uint64(1), tender.ID)

	api.clock.Set(500)
	w = api.do(t, http.MethodPost, "/api/bids/new", models.BidRequest{TenderID: 1, Bidder: "BidderA", Commitment: api.commitment(t, 1, "BidderA", 150000, "sa")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.do(t, http.MethodPost, "/api/bids/new", models.BidRequest{TenderID: 1, Bidder: "BidderB", Commitment: api.commitment(t, 1, "BidderB", 120000, "sb")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/bids/new", models.BidRequest{TenderID: 1, Bidder: "BidderB", Commitment: api.commitment(t, 1, "BidderB", 1, "sb")})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.KindDuplicateBid, decodeError(t, w).Kind)

	api.clock.Set(1200)
	w = api.do(t, http.MethodPost, "/api/bids/reveal", map[string]any{"tenderId": 1, "bidder": "BidderA", "amount": "150000", "secret": "sa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(t, http.MethodPost, "/api/bids/reveal", map[string]any{"tenderId": 1, "bidder": "BidderB", "amount": 120000, "secret": "wrong"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = api.do(t, http.MethodPost, "/api/bids/reveal", map[string]any{"tenderId": 1, "bidder": "BidderB", "amount": 120000, "secret": "sb"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/tenders/1/close", models.CloseRequest{Caller: "admin"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.KindTooEarly, decodeError(t, w).Kind)

	api.clock.Set(2500)
	w = api.do(t, http.MethodPost, "/api/tenders/1/close", models.CloseRequest{Caller: "intruder"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/tenders/1/close", models.CloseRequest{Caller: "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed models.CloseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	require.NotNil(t, closed.Winner)
	assert.Equal(t, "BidderB", closed.Winner.Bidder)
	assert.Equal(t, models.NewAmount(120000), closed.Winner.Amount)

	w = api.do(t, http.MethodGet, "/api/tenders/1/winner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenderId":1,"bidder":"BidderB","amount":"120000","selectedAt":2500}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/tenders/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.TenderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.PhaseClosed, view.Phase)

	w = api.do(t, http.MethodGet, "/api/tenders/1/bidders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["BidderA","BidderB"]`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/bids/1/BidderA", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bid models.BidView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bid))
	assert.True(t, bid.IsValid)
	assert.Equal(t, models.NewAmount(150000), *bid.RevealedAmount)
}

func TestGetTendersPaging(t *testing.T) {
	api := setupTestAPI(t)
	for i := 0; i < 3; i++ {
		w := api.do(t, http.MethodPost, "/api/tenders/new", map[string]any{"creator": "c", "title": "t", "bidDeadline": 1000, "revealDeadline": 2000})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := api.do(t, http.MethodGet, "/api/tenders?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	var page []models.TenderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page, 2)
	assert.Equal(t, uint64(2), page[0].ID)

	w = api.do(t, http.MethodGet, "/api/tenders?limit=100", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestValidation(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/tenders/new", map[string]any{"creator": "c", "title": "t", "bidDeadline": 50, "revealDeadline": 2000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.KindInvalidSchedule, decodeError(t, w).Kind)

	w = api.do(t, http.MethodPost, "/api/tenders/new", map[string]any{"creator": "c", "title": "t", "minBid": "1e3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/tenders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/tenders/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.KindNotFound, decodeError(t, w).Kind)

	w = api.do(t, http.MethodPost, "/api/bids/new", models.BidRequest{TenderID: 1, Bidder: "a", Commitment: "not-hex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.KindInvalidArgument, decodeError(t, w).Kind)

	w = api.do(t, http.MethodPost, "/api/bids/new", models.BidRequest{TenderID: 9, Bidder: "a", Commitment: api.commitment(t, 9, "a", 1, "s")})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSealEndpoint(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/bids/seal", map[string]any{"tenderId": 4, "bidder": "a", "amount": "77", "secret": "s"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SealResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hash/blake3", resp.Scheme)
	assert.Equal(t, api.commitment(t, 4, "a", 77, "s"), resp.Commitment)
}

func TestHealthHandler(t *testing.T) {
	ready := atomic.NewBool(false)
	h := NewHealthHandler(ready)

	w := httptest.NewRecorder()
	h.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready.Store(true)
	w = httptest.NewRecorder()
	h.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Livez(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	PingHandler(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, "ok", w.Body.String())
}
