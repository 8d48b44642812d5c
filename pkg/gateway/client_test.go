package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/ask", r.URL.Path)
		require.Equal(t, "what is VIT?", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"a transformer for images","sources":["paper.pdf#1"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ans, err := c.Ask(context.Background(), "what is VIT?")
	require.NoError(t, err)
	assert.Equal(t, "a transformer for images", ans.Answer)
	assert.Equal(t, []string{"paper.pdf#1"}, ans.Sources)
}

func TestAskEmptySources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"no idea","sources":[]}`))
	}))
	defer srv.Close()

	ans, err := New(srv.URL, nil).Ask(context.Background(), "?")
	require.NoError(t, err)
	assert.Empty(t, ans.Sources)
}

func TestErrorDetailSurfacedVerbatim(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail field", 422, `{"detail":"no documents indexed yet"}`, "no documents indexed yet"},
		{"message field", 500, `{"message":"vector store unavailable"}`, "vector store unavailable"},
		{"other json", 500, `{"oops":true}`, `{"oops":true}`},
		{"non-json body", 503, `upstream timeout`, "query failed with status 503"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).Ask(context.Background(), "q")
			require.Error(t, err)
			var ge *Error
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, tc.status, ge.Status)
			assert.Equal(t, tc.want, ge.Message)
		})
	}
}

func TestIngestMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fhs := r.MultipartForm.File["files"]
		require.Len(t, fhs, 1)
		assert.Equal(t, "report.pdf", fhs[0].Filename)
		f, err := fhs[0].Open()
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.7 fake", string(b))
		_, _ = w.Write([]byte(`{"status":"ok","valid_documents":1,"chunks_created":12}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, nil).Ingest(context.Background(), "report.pdf", strings.NewReader("%PDF-1.7 fake"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ValidDocuments)
	assert.Equal(t, 12, res.ChunksCreated)
}

func TestSummarizeAcceptsBothFieldNames(t *testing.T) {
	for _, body := range []string{`{"summary":"short text"}`, `{"result":"short text"}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/summarize", r.URL.Path)
			require.Equal(t, "short", r.URL.Query().Get("mode"))
			_, _ = w.Write([]byte(body))
		}))
		sum, err := New(srv.URL, nil).Summarize(context.Background(), SummaryShort)
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, "short text", sum.Summary)
	}
}

func TestNetworkErrorWrapped(t *testing.T) {
	// nothing listens here
	c := New("http://127.0.0.1:1", nil)
	_, err := c.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
	var ge *Error
	assert.False(t, errors.As(err, &ge), "network failures are not gateway Errors")
}

func TestSummaryModeValid(t *testing.T) {
	assert.True(t, SummaryShort.Valid())
	assert.True(t, SummaryMedium.Valid())
	assert.True(t, SummaryDetailed.Valid())
	assert.False(t, SummaryMode("verbose").Valid())
	assert.False(t, SummaryMode("").Valid())
}
