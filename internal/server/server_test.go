// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/server"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/store"
)

type stubInvoker struct {
	resp *service.Response
	err  error
	last service.ConversionPayload
}

func (s *stubInvoker) Invoke(_ context.Context, _ string, payload any) (*service.Response, error) {
	s.last, _ = payload.(service.ConversionPayload)
	return s.resp, s.err
}

type fixture struct {
	srv   *httptest.Server
	store *store.Store
	inv   *stubInvoker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := prometheus.NewRegistry()
	inv := &stubInvoker{resp: &service.Response{
		Text:     "# Heading",
		Analysis: &evidence.Analysis{Classification: evidence.ClassProse, Confidence: 88, Reasoning: "narrative"},
	}}
	conv := rosetta.NewConverter(inv,
		rosetta.WithRecorder(st),
		rosetta.WithMetrics(rosetta.NewMetrics(reg)),
		rosetta.WithIDGenerator(func() string { return "m-1" }),
	)

	h := server.New(conv,
		server.WithManifests(st),
		server.WithGatherer(reg),
	).Handler()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &fixture{srv: ts, store: st, inv: inv}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// /v1/convert
// ---------------------------------------------------------------------------

func TestConvert(t *testing.T) {
	f := newFixture(t)

	resp, out := f.post(t, "/v1/convert", `{"content":"Plain narrative.","file_name":"notes.txt","mime_type":"text/plain"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Heading", out["convertedContent"])
	assert.Equal(t, "Markdown", out["optimalFormat"])
	assert.EqualValues(t, 80, out["evidenceScore"])

	m, err := f.store.Get(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", m.FileName)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		invokeErr  error
		wantStatus int
	}{
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing content", body: `{"file_name":"a.txt"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "backend failure",
			body:       `{"content":"x"}`,
			invokeErr:  &service.Error{Function: service.FunctionRosettaStone, Status: 500, Message: "boom"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "backend not configured",
			body:       `{"content":"x"}`,
			invokeErr:  service.ErrNotConfigured,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.inv.err = tt.invokeErr
			resp, out := f.post(t, "/v1/convert", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestConvert_SniffsMimeType(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/v1/convert", `{"content":"Plain narrative."}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unknown", f.inv.last.FileName)
	assert.Equal(t, "text/plain", f.inv.last.MimeType)
}

func TestRequestBodyLimit(t *testing.T) {
	inv := &stubInvoker{resp: &service.Response{Text: "ok"}}
	h := server.New(rosetta.NewConverter(inv)).Handler()
	oversized := `{"content":"` + strings.Repeat("a", server.MaxRequestBody) + `"}`

	for _, path := range []string{"/v1/convert", "/v1/score", "/v1/detect"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(oversized))
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Contains(t, rec.Body.String(), "request body exceeds")
		})
	}
}

func TestConvert_NoConverter(t *testing.T) {
	ts := httptest.NewServer(server.New(nil).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/convert", "application/json", strings.NewReader(`{"content":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// /v1/score and /v1/detect
// ---------------------------------------------------------------------------

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantScore  float64
		wantTier   string
	}{
		{
			name:       "digital with valid schema",
			body:       `{"source_quality":"digital","conversion_success":true,"schema_valid":true}`,
			wantStatus: http.StatusOK,
			wantScore:  100,
			wantTier:   string(evidence.TierVerified),
		},
		{
			name:       "schema not applicable",
			body:       `{"source_quality":"highres_scan","conversion_success":true}`,
			wantStatus: http.StatusOK,
			wantScore:  75,
			wantTier:   string(evidence.TierVerified),
		},
		{
			name:       "failed lowres",
			body:       `{"source_quality":"lowres","conversion_success":false,"schema_valid":false}`,
			wantStatus: http.StatusOK,
			wantScore:  0,
			wantTier:   string(evidence.TierReviewRequired),
		},
		{
			name:       "unknown quality",
			body:       `{"source_quality":"fax"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := f.post(t, "/v1/score", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantScore, out["evidence_score"])
			assert.Equal(t, tt.wantTier, out["tier"])
		})
	}
}

func TestDetect(t *testing.T) {
	f := newFixture(t)

	resp, out := f.post(t, "/v1/detect", `{"content":"[OCR] faded","file_name":"scan.pdf"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lowres", out["source_quality"])
	assert.Equal(t, "application/pdf", out["mime_type"])

	resp, out = f.post(t, "/v1/detect", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", out["mime_type"], "nothing to sniff")
}

// ---------------------------------------------------------------------------
// /v1/manifests and /metrics
// ---------------------------------------------------------------------------

func TestManifests(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/v1/convert", `{"content":"text","file_name":"a.txt"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := http.Get(f.srv.URL + "/v1/manifests/m-1")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	var m evidence.Manifest
	require.NoError(t, json.NewDecoder(got.Body).Decode(&m))
	assert.Equal(t, "a.txt", m.FileName)
	assert.Equal(t, evidence.ClassProse, m.Classification)

	missing, err := http.Get(f.srv.URL + "/v1/manifests/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	list, err := http.Get(f.srv.URL + "/v1/manifests?limit=5")
	require.NoError(t, err)
	defer list.Body.Close()
	var all []evidence.Manifest
	require.NoError(t, json.NewDecoder(list.Body).Decode(&all))
	assert.Len(t, all, 1)

	bad, err := http.Get(f.srv.URL + "/v1/manifests?limit=zero")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/v1/convert", `{"content":"text"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	f.srv.Config.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rosetta_conversions_total")
}
