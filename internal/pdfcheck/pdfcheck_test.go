// SPDX-License-Identifier: Apache-2.0

package pdfcheck_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compassoutlaw/rosetta/internal/pdfcheck"
)

// ---------------------------------------------------------------------------
// Client.Validate
// ---------------------------------------------------------------------------

func TestValidate_Success(t *testing.T) {
	var gotName, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"no file"}`, http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(b)
		_, _ = w.Write([]byte(`{"font_check":"embedded","pdfa_conversion":"PDF/A-2b","download_url":"https://example.test/out.pdf"}`))
	}))
	defer srv.Close()

	res, err := pdfcheck.NewClient(srv.URL).Validate(context.Background(), "motion.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "motion.pdf", gotName)
	assert.Equal(t, "%PDF-1.4 body", gotBody)
	assert.Equal(t, "embedded", res.FontCheck)
	assert.Equal(t, "PDF/A-2b", res.PDFAConversion)
	assert.Equal(t, "https://example.test/out.pdf", res.DownloadURL)
}

func TestValidate_ValidatorError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantDetails string
	}{
		{
			name:        "error and details",
			body:        `{"error":"Fonts not embedded","details":"Times-Roman missing"}`,
			wantMessage: "Fonts not embedded",
			wantDetails: "Times-Roman missing",
		},
		{
			name:        "empty body gets defaults",
			body:        `{}`,
			wantMessage: "Validation failed",
			wantDetails: "Unknown error occurred during PDF validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := pdfcheck.NewClient(srv.URL).Validate(context.Background(), "a.pdf", strings.NewReader("x"))
			var ve *pdfcheck.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, http.StatusUnprocessableEntity, ve.Status)
			assert.Equal(t, tt.wantMessage, ve.Message)
			assert.Equal(t, tt.wantDetails, ve.Details)
			assert.False(t, errors.Is(err, pdfcheck.ErrTimeout))
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := pdfcheck.NewClient(srv.URL, pdfcheck.WithTimeout(50*time.Millisecond))
	_, err := client.Validate(context.Background(), "slow.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pdfcheck.ErrTimeout)
	assert.NotErrorIs(t, err, pdfcheck.ErrNetwork)
	assert.Contains(t, err.Error(), "professional workaround")
}

func TestValidate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := pdfcheck.NewClient(url).Validate(context.Background(), "a.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, pdfcheck.ErrNetwork)
	assert.NotErrorIs(t, err, pdfcheck.ErrTimeout)
}

func TestDefaultTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, pdfcheck.DefaultTimeout)
}

// ---------------------------------------------------------------------------
// Preflight
// ---------------------------------------------------------------------------

func TestPreflight_SinglePage(t *testing.T) {
	report, err := pdfcheck.Preflight(bytes.NewReader(buildTextPDF("Declaration of Jane Doe")))
	require.NoError(t, err)
	assert.Equal(t, 1, report.PageCount)
	assert.False(t, report.HasImages)
}

func TestPreflight_NotAPDF(t *testing.T) {
	_, err := pdfcheck.Preflight(bytes.NewReader([]byte("just some text")))
	assert.Error(t, err)
}

// buildTextPDF writes a one-page PDF with a single line of Helvetica text.
func buildTextPDF(text string) []byte {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}
