// SPDX-License-Identifier: Apache-2.0

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/service"
)

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind service.Kind
		wantErr  bool
		validate func(t *testing.T, resp *service.Response)
	}{
		{
			name:     "text only is partial",
			body:     `{"text":"# Converted"}`,
			wantKind: service.KindPartial,
			validate: func(t *testing.T, resp *service.Response) {
				assert.Equal(t, "# Converted", resp.Text)
				assert.Nil(t, resp.Analysis)
			},
		},
		{
			name:     "analysis and schema are carried",
			body:     `{"text":"{}","analysis":{"classification":"HIERARCHICAL","confidence":88,"reasoning":"nested"},"jsonSchema":{"type":"object"}}`,
			wantKind: service.KindPartial,
			validate: func(t *testing.T, resp *service.Response) {
				require.NotNil(t, resp.Analysis)
				assert.Equal(t, evidence.ClassHierarchical, resp.Analysis.Classification)
				assert.Equal(t, 88.0, resp.Analysis.Confidence)
				assert.Equal(t, "object", resp.JSONSchema["type"])
			},
		},
		{
			name:     "finished result fields mean a full document",
			body:     `{"originalContent":"a","convertedContent":"b","optimalFormat":"Markdown","evidenceScore":80,"pfvMetadata":"m","requiresLocalPipeline":false}`,
			wantKind: service.KindFull,
			validate: func(t *testing.T, resp *service.Response) {
				require.NotNil(t, resp.Document)
				assert.Equal(t, "b", resp.Document.ConvertedContent)
				assert.Equal(t, 80, resp.Document.EvidenceScore)
			},
		},
		{
			name:     "manifest id with a known format is a full document",
			body:     `{"convertedContent":"b","optimalFormat":"JSON","manifest":{"id":"remote-1"}}`,
			wantKind: service.KindFull,
			validate: func(t *testing.T, resp *service.Response) {
				require.NotNil(t, resp.Document)
				assert.Equal(t, "remote-1", resp.Document.Manifest.ID)
			},
		},
		{
			name:     "converted content with analysis is partial",
			body:     `{"convertedContent":"# Motion","analysis":{"classification":"PROSE","confidence":90,"reasoning":"narrative"}}`,
			wantKind: service.KindPartial,
			validate: func(t *testing.T, resp *service.Response) {
				assert.Nil(t, resp.Document)
				assert.Equal(t, "# Motion", resp.Text)
				require.NotNil(t, resp.Analysis)
				assert.Equal(t, evidence.ClassProse, resp.Analysis.Classification)
			},
		},
		{
			name:     "text wins over converted content",
			body:     `{"text":"from text","convertedContent":"from converted"}`,
			wantKind: service.KindPartial,
			validate: func(t *testing.T, resp *service.Response) {
				assert.Equal(t, "from text", resp.Text)
			},
		},
		{
			name:     "unknown format is not a full document",
			body:     `{"convertedContent":"b","optimalFormat":"PDF","pfvMetadata":"m"}`,
			wantKind: service.KindPartial,
			validate: func(t *testing.T, resp *service.Response) {
				assert.Equal(t, "b", resp.Text)
			},
		},
		{
			name:     "format without metadata or manifest is partial",
			body:     `{"convertedContent":"b","optimalFormat":"Markdown"}`,
			wantKind: service.KindPartial,
		},
		{
			name:     "empty object is partial",
			body:     `{}`,
			wantKind: service.KindPartial,
		},
		{
			name:    "message body is an error",
			body:    `{"message":"quota exceeded"}`,
			wantErr: true,
		},
		{
			name:    "error and details body is an error",
			body:    `{"error":"AI generation failed","details":"upstream 500"}`,
			wantErr: true,
		},
		{
			name:    "malformed json is an error",
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.Decode(service.FunctionRosettaStone, []byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, resp.Kind)
			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestDecode_ErrorShapeIsServiceError(t *testing.T) {
	_, err := service.Decode("legal-strategy", []byte(`{"error":"Missing required fields","details":"recipient"}`))
	require.Error(t, err)
	assert.True(t, service.IsServiceError(err))
	assert.Contains(t, err.Error(), "legal-strategy")
	assert.Contains(t, err.Error(), "Missing required fields")
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestNormalize_DefaultsMissingFields(t *testing.T) {
	n := service.Normalize(&service.Response{}, "original text")
	assert.Equal(t, evidence.ClassProse, n.Analysis.Classification)
	assert.Equal(t, 50.0, n.Analysis.Confidence)
	assert.Equal(t, service.DefaultReasoning, n.Analysis.Reasoning)
	assert.Equal(t, "original text", n.Text)
	assert.Nil(t, n.JSONSchema)
}

func TestNormalize_NilResponse(t *testing.T) {
	n := service.Normalize(nil, "x")
	assert.Equal(t, evidence.ClassProse, n.Analysis.Classification)
	assert.Equal(t, "x", n.Text)
}

func TestNormalize_KeepsProvidedFields(t *testing.T) {
	n := service.Normalize(&service.Response{
		Text:       "converted",
		Analysis:   &evidence.Analysis{Classification: "tabular", Confidence: 91, Reasoning: "csv"},
		JSONSchema: map[string]any{"type": "array"},
	}, "original")
	assert.Equal(t, evidence.ClassTabular, n.Analysis.Classification)
	assert.Equal(t, 91.0, n.Analysis.Confidence)
	assert.Equal(t, "csv", n.Analysis.Reasoning)
	assert.Equal(t, "converted", n.Text)
	assert.Equal(t, "array", n.JSONSchema["type"])
}

// ---------------------------------------------------------------------------
// FunctionsClient
// ---------------------------------------------------------------------------

func TestFunctionsClient_Invoke(t *testing.T) {
	var gotPath, gotAuth, gotKey string
	var gotPayload service.ConversionPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"ok","analysis":{"classification":"PROSE","confidence":77,"reasoning":"r"}}`))
	}))
	defer srv.Close()

	client := service.NewFunctionsClient(srv.URL+"/", "anon-key", service.WithAuthToken("jwt-token"))
	resp, err := client.Invoke(context.Background(), service.FunctionRosettaStone, service.ConversionPayload{
		Content:  "body",
		FileName: "a.txt",
		MimeType: "text/plain",
	})
	require.NoError(t, err)

	assert.Equal(t, "/functions/v1/rosetta-stone", gotPath)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "a.txt", gotPayload.FileName)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, service.KindPartial, resp.Kind)
}

func TestFunctionsClient_BearerFallsBackToAPIKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	_, err := service.NewFunctionsClient(srv.URL, "anon-key").Invoke(context.Background(), "intelligence", service.PromptPayload{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", gotAuth)
}

func TestFunctionsClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized: Invalid or expired token","details":"jwt expired"}`))
	}))
	defer srv.Close()

	_, err := service.NewFunctionsClient(srv.URL, "k").Invoke(context.Background(), "legal-strategy", service.PromptPayload{})
	require.Error(t, err)

	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "Unauthorized: Invalid or expired token", se.Message)
	assert.Equal(t, "jwt expired", se.Details)
}

func TestFunctionsClient_PlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := service.NewFunctionsClient(srv.URL, "k").Invoke(context.Background(), "rosetta-stone", service.ConversionPayload{})
	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "gateway exploded", se.Message)
}

func TestFunctionsClient_NotConfigured(t *testing.T) {
	_, err := service.NewFunctionsClient("", "").Invoke(context.Background(), "rosetta-stone", nil)
	assert.ErrorIs(t, err, service.ErrNotConfigured)
}

func TestFunctionsClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := service.NewFunctionsClient(url, "k").Invoke(context.Background(), "rosetta-stone", service.ConversionPayload{})
	require.Error(t, err)
	assert.False(t, service.IsServiceError(err))
}
