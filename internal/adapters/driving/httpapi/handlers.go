package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/validate"
)

// SearchRequest is the POST /search body. A missing top_k uses the server
// default; values above the maximum are clamped.
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
	TopK  *int   `json:"top_k" validate:"omitempty,gte=1"`
}

// SearchHit is one result in a SearchResponse.
type SearchHit struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Title     string  `json:"title"`
	SectionID string  `json:"section_id"`
	Score     float64 `json:"score"`
}

// SearchResponse is the POST /search response body.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// HealthResponse is the GET /health response body.
type HealthResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

// ErrorResponse is the body of every failed request. ErrorType is set on
// server errors only.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

type handlers struct {
	search    driving.SearchService
	validator *validate.Validator
}

// Search handles POST /search.
func (h *handlers) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if err := h.validator.Struct(&req); err != nil {
		return err
	}

	opts := domain.SearchOptions{}
	if req.TopK != nil {
		opts.Limit = *req.TopK
	}

	results, err := h.search.Search(c.Request().Context(), req.Query, opts)
	if err != nil {
		return err
	}

	resp := SearchResponse{Results: make([]SearchHit, len(results))}
	for i, r := range results {
		resp.Results[i] = SearchHit{
			Text:      r.Metadata.Text,
			Source:    r.Metadata.SourceTag,
			Title:     r.Metadata.Title,
			SectionID: r.Metadata.SectionID,
			Score:     r.Score,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /health.
func (h *handlers) Health(c echo.Context) error {
	n, err := h.search.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Chunks: n})
}

// errorHandler writes {error} for client errors and {error, error_type}
// for server errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request_error", "uri", c.Request().RequestURI, "error", err, "error_type", body.ErrorType)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Warn("error_response_failed", "error", err)
	}
}

func mapError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, ErrorResponse{Error: msg, ErrorType: domain.ErrorKindInternal}
		}
		return he.Code, ErrorResponse{Error: msg}
	}

	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), ErrorType: domain.ErrorKind(err)}
}
