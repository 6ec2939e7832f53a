package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

type stubSearch struct {
	results  []domain.SearchResult
	err      error
	count    int
	countErr error

	gotQuery string
	gotOpts  domain.SearchOptions
}

func (s *stubSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.gotQuery = query
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	if opts.Limit < 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.results, nil
}

func (s *stubSearch) Count(context.Context) (int, error) { return s.count, s.countErr }

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSearch_ReturnsResults(t *testing.T) {
	search := &stubSearch{results: []domain.SearchResult{{
		ChunkID: "c1",
		Score:   0.87,
		Metadata: domain.RecordMetadata{
			Text:      "The juvenile court shall have exclusive original jurisdiction.",
			SourceTag: "TCA37",
			Title:     "Jurisdiction",
			SectionID: "37-1-103",
		},
	}}}
	srv := NewServer(search)

	rec := do(t, srv, http.MethodPost, "/search", `{"query":"who has jurisdiction","top_k":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, SearchHit{
		Text:      "The juvenile court shall have exclusive original jurisdiction.",
		Source:    "TCA37",
		Title:     "Jurisdiction",
		SectionID: "37-1-103",
		Score:     0.87,
	}, resp.Results[0])
	assert.Equal(t, "who has jurisdiction", search.gotQuery)
	assert.Equal(t, 3, search.gotOpts.Limit)
}

func TestSearch_EmptyResultsIsArray(t *testing.T) {
	srv := NewServer(&stubSearch{})

	rec := do(t, srv, http.MethodPost, "/search", `{"query":"anything"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestSearch_DefaultTopK(t *testing.T) {
	search := &stubSearch{}
	srv := NewServer(search)

	rec := do(t, srv, http.MethodPost, "/search", `{"query":"detention"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, search.gotOpts.Limit, "zero selects the service default")
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing query", body: `{"top_k":5}`, want: "query is required"},
		{name: "empty query", body: `{"query":""}`, want: "query is required"},
		{name: "zero top_k", body: `{"query":"q","top_k":0}`, want: "top_k must be at least 1"},
		{name: "negative top_k", body: `{"query":"q","top_k":-4}`, want: "top_k must be at least 1"},
		{name: "malformed json", body: `{"query":`, want: "malformed request body"},
		{name: "wrong type", body: `{"query":"q","top_k":"five"}`, want: "malformed request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &stubSearch{}
			srv := NewServer(search)

			rec := do(t, srv, http.MethodPost, "/search", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.Contains(t, body["error"], tt.want)
			_, hasType := body["error_type"]
			assert.False(t, hasType)
			assert.Empty(t, search.gotQuery)
		})
	}
}

func TestSearch_ServiceValidationError(t *testing.T) {
	srv := NewServer(&stubSearch{err: errors.Join(domain.ErrInvalidInput, errors.New("query is empty"))})

	rec := do(t, srv, http.MethodPost, "/search", `{"query":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_ServerErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
	}{
		{name: "embedding outage", err: domain.ErrEmbeddingUnavailable, wantType: domain.ErrorKindExternal},
		{name: "rate limited", err: domain.ErrRateLimited, wantType: domain.ErrorKindExternal},
		{name: "unexpected", err: errors.New("disk on fire"), wantType: domain.ErrorKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&stubSearch{err: tt.err})

			rec := do(t, srv, http.MethodPost, "/search", `{"query":"q"}`)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantType, body.ErrorType)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(&stubSearch{count: 1234})

	rec := do(t, srv, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","chunks":1234}`, rec.Body.String())
}

func TestHealth_IndexUnavailable(t *testing.T) {
	srv := NewServer(&stubSearch{countErr: domain.ErrVectorIndexUnavailable})

	rec := do(t, srv, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.ErrorKindExternal, decode[ErrorResponse](t, rec).ErrorType)
}

func TestMetrics(t *testing.T) {
	srv := NewServer(&stubSearch{})
	_ = do(t, srv, http.MethodPost, "/search", `{"query":"q"}`)

	rec := do(t, srv, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	srv := NewServer(&stubSearch{})

	rec := do(t, srv, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}
