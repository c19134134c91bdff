package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

type fakeService struct {
	pollErr   error
	mt940     int
	van       int
	lastLimit int
	runs      []models.ImportRun
	errs      map[int64][]models.ImportError
	pollCtx   error
}

func (f *fakeService) PollMT940(ctx context.Context) (ingest.PollReport, error) {
	f.mt940++
	f.pollCtx = ctx.Err()
	return ingest.PollReport{Format: "MT940", Discovered: 2, Archived: 2}, f.pollErr
}

func (f *fakeService) PollVAN(context.Context) (ingest.PollReport, error) {
	f.van++
	return ingest.PollReport{Format: "VAN"}, f.pollErr
}

func (f *fakeService) RecentRuns(_ context.Context, limit int) ([]models.ImportRun, error) {
	f.lastLimit = limit
	return f.runs, nil
}

func (f *fakeService) RunErrors(_ context.Context, id int64) ([]models.ImportError, error) {
	return f.errs[id], nil
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestTriggers(t *testing.T) {
	svc := &fakeService{}
	s := New(svc, logging.NewMockLogger(), Options{})

	rec := do(t, s, http.MethodPost, "/api/mt940/ingest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MT940 ingestion triggered", body.Message)
	require.NotNil(t, body.Report)
	assert.Equal(t, 2, body.Report.Archived)

	rec = do(t, s, http.MethodPost, "/api/van/ingest")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VAN ingestion triggered", body.Message)

	assert.Equal(t, 1, svc.mt940)
	assert.Equal(t, 1, svc.van)
}

func TestTrigger_OutlivesClientDisconnect(t *testing.T) {
	svc := &fakeService{}
	s := New(svc, logging.NewMockLogger(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/mt940/ingest", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.mt940)
	assert.NoError(t, svc.pollCtx, "poll runs on a context detached from the request")
}

func TestTrigger_PollFailure(t *testing.T) {
	logger := logging.NewMockLogger()
	s := New(&fakeService{pollErr: errors.New("inbox unreadable")}, logger, Options{})

	rec := do(t, s, http.MethodPost, "/api/van/ingest")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "inbox unreadable", body.Error)
	assert.True(t, logger.HasEntry("ERROR", "Triggered poll failed"))
}

func TestTrigger_MethodNotAllowed(t *testing.T) {
	s := New(&fakeService{}, logging.NewMockLogger(), Options{})
	rec := do(t, s, http.MethodGet, "/api/mt940/ingest")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListRuns(t *testing.T) {
	svc := &fakeService{runs: []models.ImportRun{{ID: 2, Filename: "b.sta"}, {ID: 1, Filename: "a.sta"}}}
	s := New(svc, logging.NewMockLogger(), Options{})

	rec := do(t, s, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, svc.lastLimit)
	var runs []models.ImportRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	do(t, s, http.MethodGet, "/api/runs?limit=5")
	assert.Equal(t, 5, svc.lastLimit)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/runs?limit=zero").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/runs?limit=-1").Code)
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	s := New(&fakeService{}, logging.NewMockLogger(), Options{})
	rec := do(t, s, http.MethodGet, "/api/runs")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRunErrors(t *testing.T) {
	svc := &fakeService{errs: map[int64][]models.ImportError{
		7: {{ID: 1, ImportRunID: 7, LineNo: 3, Code: "MISSING_VIRTUAL_ACCOUNT"}},
	}}
	s := New(svc, logging.NewMockLogger(), Options{})

	rec := do(t, s, http.MethodGet, "/api/runs/7/errors")
	require.Equal(t, http.StatusOK, rec.Code)
	var errs []models.ImportError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].LineNo)

	assert.JSONEq(t, "[]", do(t, s, http.MethodGet, "/api/runs/8/errors").Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/abc/errors").Code)
}

func TestHealth(t *testing.T) {
	s := New(&fakeService{}, logging.NewMockLogger(), Options{})
	rec := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(&fakeService{}, logging.NewMockLogger(), Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
