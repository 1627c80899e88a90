package remote

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

	"github.com/pbaille/trip/internal/api"
	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/syncer"
)

// Ensure Client can back the sync coordinator at compile time.
var _ syncer.Table = (*Client)(nil)

// Client talks to a trip API server over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	secret    string
}

const (
	defaultAPIBind   = "127.0.0.1:8080"
	defaultUserAgent = "trip/1.0"
	requestTimeout   = 10 * time.Second
	assistantTimeout = 90 * time.Second
	tokenTTL         = 5 * time.Minute
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// NewClient builds a Client for the server at remoteURL. When secret is set
// every request carries a freshly minted bearer token.
func NewClient(remoteURL, secret string) (*Client, error) {
	base, err := parseBaseURL(remoteURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: assistantTimeout},
		userAgent: defaultUserAgent,
		secret:    secret,
	}, nil
}

// Select returns every row ordered by sort_order.
func (c *Client) Select(ctx context.Context) ([]domain.Row, error) {
	var rows []domain.Row
	if err := c.do(ctx, http.MethodGet, "/spots", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert stores rows and returns them with their assigned ids.
func (c *Client) Insert(ctx context.Context, rows []domain.Row) ([]domain.Row, error) {
	var inserted []domain.Row
	if err := c.do(ctx, http.MethodPost, "/spots", rows, &inserted); err != nil {
		return nil, err
	}
	return inserted, nil
}

// Update writes the given columns of one row.
func (c *Client) Update(ctx context.Context, id string, columns map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/spots/"+id, columns, nil)
}

// Upsert inserts or updates rows keyed by id, touching only columns.
func (c *Client) Upsert(ctx context.Context, rows []domain.Row, columns []string) error {
	return c.do(ctx, http.MethodPost, "/spots/upsert", api.UpsertRequest{Rows: rows, Columns: columns}, nil)
}

// Delete removes one row.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/spots/"+id, nil, nil)
}

// Get fetches one row by id or unique id prefix.
func (c *Client) Get(ctx context.Context, idPrefix string) (domain.Row, error) {
	var row domain.Row
	if err := c.do(ctx, http.MethodGet, "/spots/"+idPrefix, nil, &row); err != nil {
		return domain.Row{}, err
	}
	return row, nil
}

// Geocode asks the server to resolve a place.
func (c *Client) Geocode(ctx context.Context, name, address string) (domain.Location, error) {
	var loc domain.Location
	if err := c.do(ctx, http.MethodPost, "/geocode", api.GeocodeRequest{Name: name, Address: address}, &loc); err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

// Recommend asks the server for suggestions around a day's spots. The
// server reads the day's spots itself, so spotNames is not sent.
func (c *Client) Recommend(ctx context.Context, day domain.Day, _ []string) (string, error) {
	var resp api.RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/recommend", api.RecommendRequest{Day: string(day)}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if _, ok := ctx.Deadline(); !ok && !isAssistantPath(path) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		token, err := api.MintToken(c.secret, c.userAgent, tokenTTL)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&apiErr)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: apiErr.Error}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isAssistantPath(path string) bool {
	return path == "/geocode" || path == "/recommend"
}

func parseBaseURL(remoteURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(remoteURL)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse remote_url %q: %w", remoteURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
