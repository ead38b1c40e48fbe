// Package client implements the table engine's data source over HTTP against
// the table server, plus a directory-backed saver for CSV exports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/tableview/internal/grid"
)

// DefaultBaseURL is used when no base URL option is given.
const DefaultBaseURL = "http://localhost:8080"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx response without a usable envelope.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// envelope is the table server's response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pagePayload struct {
	Rows       []map[string]any `json:"rows"`
	Total      *int             `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// HTTPSource fetches table pages and exports from the table server.
// It implements grid.DataSource.
type HTTPSource struct {
	http    *http.Client
	baseURL *url.URL
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(s *HTTPSource) {
		if h != nil {
			s.http = h
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		h := *s.http
		h.Timeout = d
		s.http = &h
	}
}

// New creates an HTTPSource for the server at baseURL.
func New(baseURL string, opts ...Option) (*HTTPSource, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	s := &HTTPSource{
		http:    http.DefaultClient,
		baseURL: u,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// FetchPage requests one page of endpoint.
func (s *HTTPSource) FetchPage(ctx context.Context, endpoint string, params url.Values) (*grid.Page, error) {
	body, err := s.get(ctx, endpoint, params, "application/json")
	if err != nil {
		return nil, err
	}

	data, err := unwrapEnvelope(body)
	if err != nil {
		return nil, err
	}

	var payload pagePayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: data: %v", grid.ErrMalformedResponse, err)
	}
	if payload.Rows == nil || payload.Total == nil {
		return nil, fmt.Errorf("%w: data must carry rows and total", grid.ErrMalformedResponse)
	}

	rows := make([]grid.Row, len(payload.Rows))
	for i, r := range payload.Rows {
		rows[i] = grid.Row(r)
	}

	return &grid.Page{
		Rows:       rows,
		Total:      *payload.Total,
		Page:       payload.Page,
		PageSize:   payload.PageSize,
		TotalPages: payload.TotalPages,
	}, nil
}

// TableSummary describes one table the server can serve.
type TableSummary struct {
	Key     string            `json:"key"`
	Group   string            `json:"group"`
	Label   string            `json:"label"`
	Columns []string          `json:"columns"`
	Types   map[string]string `json:"types"`
	Path    string            `json:"endpoint"`
}

// Endpoint returns the data endpoint the server advertised for the table,
// or the conventional one for older servers.
func (t TableSummary) Endpoint() string {
	if t.Path != "" {
		return t.Path
	}
	return "/api/tables/" + url.PathEscape(t.Key)
}

// ListTables returns the tables registered on the server.
func (s *HTTPSource) ListTables(ctx context.Context) ([]TableSummary, error) {
	body, err := s.get(ctx, "/api/tables", nil, "application/json")
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(body)
	if err != nil {
		return nil, err
	}

	var tables []TableSummary
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("%w: data: %v", grid.ErrMalformedResponse, err)
	}
	return tables, nil
}

// unwrapEnvelope returns the data of a successful envelope. A failed one
// becomes a grid.ResponseError carrying the server's message.
func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", grid.ErrMalformedResponse, err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("%w: missing success flag", grid.ErrMalformedResponse)
	}
	if !*env.Success {
		return nil, &grid.ResponseError{Message: env.Message}
	}
	return env.Data, nil
}

// FetchExport requests the CSV export of endpoint.
func (s *HTTPSource) FetchExport(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	return s.get(ctx, endpoint, params, "text/csv")
}

func (s *HTTPSource) get(ctx context.Context, endpoint string, params url.Values, accept string) ([]byte, error) {
	u := s.resolve(endpoint)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if id := grid.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, unwrapURLError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the server reports handled errors in the envelope
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success && env.Message != "" {
			return nil, &grid.ResponseError{Message: env.Message}
		}
		return nil, &StatusError{
			Method:     req.Method,
			URL:        u.Path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	return body, nil
}

// resolve joins endpoint onto the base URL path.
func (s *HTTPSource) resolve(endpoint string) url.URL {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(endpoint, "/")
	return u
}

// unwrapURLError drops the *url.Error wrapper around cancellations so
// errors.Is(err, context.Canceled) holds for the engine.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && (errors.Is(ue.Err, context.Canceled) || errors.Is(ue.Err, context.DeadlineExceeded)) {
		return ue.Err
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
