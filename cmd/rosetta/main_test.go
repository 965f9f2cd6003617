// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/config"
	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/preflight"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/tracker"
)

func TestParseSchemaVerdict(t *testing.T) {
	tests := []struct {
		in      string
		want    *bool
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "valid", want: evidence.Bool(true)},
		{in: "invalid", want: evidence.Bool(false)},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSchemaVerdict(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadItem(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows": []}`), 0o644))

	item, err := readItem(path, "")
	require.NoError(t, err)
	assert.Equal(t, "ledger.json", item.FileName)
	assert.Equal(t, "application/json", item.MimeType)

	item, err = readItem(path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", item.MimeType)

	_, err = readItem(filepath.Join(dir, "missing.txt"), "")
	assert.Error(t, err)
}

func TestChecklist(t *testing.T) {
	ctx := context.Background()
	runner := preflight.NewRunner(0, zap.NewNop())

	t.Run("unconfigured backend halts", func(t *testing.T) {
		c := config.Default()
		c.Store.Path = ":memory:"
		report, err := runner.Run(ctx, checklist(c, zap.NewNop(), false))
		require.NoError(t, err)
		assert.True(t, report.Halted)
		assert.Contains(t, report.HaltMessage, "GEMINI_API_KEY")
		assert.Equal(t, preflight.OutcomePending, report.Results[1].Outcome)
	})

	t.Run("missing pdf endpoint does not block", func(t *testing.T) {
		c := config.Default()
		c.Store.Path = ":memory:"
		c.Functions.BaseURL = "http://localhost:1"
		report, err := runner.Run(ctx, checklist(c, zap.NewNop(), false))
		require.NoError(t, err)
		assert.False(t, report.Halted)
		assert.True(t, report.AllBlockersPassed())
		assert.Equal(t, preflight.OutcomeFail, report.Results[2].Outcome)
	})

	t.Run("probe adds a fourth step", func(t *testing.T) {
		assert.Len(t, checklist(config.Default(), zap.NewNop(), true), 4)
	})
}

func TestPrintResults(t *testing.T) {
	results := []*evidence.ConversionResult{{
		OptimalFormat:         evidence.FormatJSON,
		EvidenceScore:         80,
		RequiresLocalPipeline: true,
		Manifest: evidence.Manifest{
			ID:             "id-1",
			FileName:       "ledger.csv",
			Classification: evidence.ClassTabular,
			CreatedAt:      time.Now(),
		},
	}}
	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, results))
	out := buf.String()
	assert.Contains(t, out, "ledger.csv")
	assert.Contains(t, out, "local parquet")
	assert.Contains(t, out, string(evidence.TierVerified))
}

func TestWriteResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	results := []*evidence.ConversionResult{{Manifest: evidence.Manifest{FileName: "brief.md"}}}
	require.NoError(t, writeResults(dir, results))
	_, err := os.Stat(filepath.Join(dir, "brief.rosetta.json"))
	assert.NoError(t, err)
}

func TestWriteResults_StaysInsideOutDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	results := []*evidence.ConversionResult{{Manifest: evidence.Manifest{FileName: "../../escape.txt"}}}
	require.NoError(t, writeResults(dir, results))

	_, err := os.Stat(filepath.Join(dir, "escape.rosetta.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.rosetta.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestResultName(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "brief.md", want: "brief.rosetta.json"},
		{in: "a/b/ledger.csv", want: "ledger.rosetta.json"},
		{in: "../x", want: "x.rosetta.json"},
		{in: "..", want: "untitled.rosetta.json"},
		{in: "", want: "untitled.rosetta.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, resultName(tt.in))
		})
	}
}

func TestPrintPipeline(t *testing.T) {
	p := tracker.New()
	require.NoError(t, p.Start())
	require.NoError(t, p.Fail("service down"))

	var buf bytes.Buffer
	printPipeline(&buf, p)
	assert.Contains(t, buf.String(), "ROSETTA:failed > CLAUDE:pending")
	assert.Contains(t, buf.String(), "failed: service down")
}

func TestScoreCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"score", "--env-file", filepath.Join(t.TempDir(), "none.env"),
		"--quality", "highres_scan", "--success", "--schema", "invalid"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "evidence score: 45/100")
	assert.Contains(t, buf.String(), string(evidence.TierReviewRequired))
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func TestServeHandler_WithoutAnalysisService(t *testing.T) {
	ctx := context.Background()
	c := config.Default()
	c.Store.Path = filepath.Join(t.TempDir(), "rosetta.db")

	inv, err := newInvoker(ctx, c, zap.NewNop())
	require.True(t, errors.Is(err, service.ErrNotConfigured))

	a, cleanup, err := buildApp(ctx, c, zap.NewNop(), inv)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, a.conv)

	h := serveHandler(a, zap.NewNop())
	tests := []struct {
		method, path, body string
		wantStatus         int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/v1/convert", `{"content":"x"}`, http.StatusServiceUnavailable},
		{http.MethodPost, "/v1/score", `{"source_quality":"digital","conversion_success":true}`, http.StatusOK},
		{http.MethodGet, "/v1/manifests", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
