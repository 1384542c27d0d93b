package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/roach88/storefront/internal/session"
)

// DefaultTable is the catalog table name used when none is configured.
const DefaultTable = "PRODUTOS"

// Config configures a Client.
type Config struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// Table is the catalog table. Defaults to DefaultTable.
	Table string

	// HTTP is the transport. Defaults to http.DefaultClient.
	HTTP *http.Client

	// Sessions supplies the bearer token for authenticated requests.
	// When nil or empty, the anon key is used as the bearer.
	Sessions session.Provider

	// Logger receives debug request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// RequestID generates the X-Request-Id header. Defaults to UUIDv7.
	RequestID func() string

	// Now is the wall clock used to compute session expiry.
	Now func() time.Time
}

// Client implements Gateway over HTTP.
type Client struct {
	base      string
	anonKey   string
	table     string
	http      *http.Client
	sessions  session.Provider
	logger    *slog.Logger
	requestID func() string
	now       func() time.Time
}

var _ Gateway = (*Client)(nil)

// NewClient creates a Client. BaseURL and AnonKey are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "gateway: invalid base URL")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("gateway: anon key is required")
	}

	c := &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		anonKey:   cfg.AnonKey,
		table:     cfg.Table,
		http:      cfg.HTTP,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
		requestID: cfg.RequestID,
		now:       cfg.Now,
	}
	if c.table == "" {
		c.table = DefaultTable
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.requestID == nil {
		c.requestID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// request describes one HTTP call to the backend.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	prefer string
	// bearer overrides the Authorization token when set.
	bearer string
}

// response is a completed HTTP exchange.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status/100 == 2
}

// send performs req. The returned error is always a transport-level
// failure; HTTP error statuses are returned in the response.
func (c *Client) send(ctx context.Context, req request) (response, error) {
	u := c.base + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(req.body); err != nil {
			return response{}, errors.Wrap(err, "encode request body")
		}
		body = buf
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return response{}, errors.Wrap(err, "build request")
	}

	requestID := c.requestID()
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.bearerFor(req))
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("backend request failed",
			"method", req.method,
			"path", req.path,
			"request_id", requestID,
			"error", err,
		)
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, errors.Wrap(err, "read response body")
	}

	c.logger.Debug("backend request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)
	return response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) bearerFor(req request) string {
	if req.bearer != "" {
		return req.bearer
	}
	if c.sessions != nil {
		if s, ok := c.sessions.CurrentSession(); ok && s.Valid() {
			return s.AccessToken
		}
	}
	return c.anonKey
}

// transportMessage extracts the innermost useful text from a transport
// error, dropping the "Get \"url\":" prefix added by net/http.
func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}
