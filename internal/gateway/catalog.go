package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/roach88/storefront/internal/catalog"
)

// entryRow is one catalog row as the backend returns it.
type entryRow struct {
	ID          *int64          `json:"id"`
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"price"`
	CreatedAt   *string         `json:"created_at"`
}

// entryWrite is the body of insert and update requests.
type entryWrite struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       catalog.Price `json:"price"`
}

// restErrorBody is the PostgREST error shape.
type restErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
	Hint    any    `json:"hint"`
}

// timestamp layouts accepted for created_at; timestamps without a zone
// are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (c *Client) tablePath() string {
	return "/rest/v1/" + c.table
}

// ListEntries returns all entries ordered by orderBy.
func (c *Client) ListEntries(ctx context.Context, orderBy string, ascending bool) ([]catalog.Entry, error) {
	q := newTableQuery().Select(catalog.Columns...)
	if orderBy != "" {
		q.OrderBy(orderBy, ascending)
	}

	resp, err := c.send(ctx, request{method: http.MethodGet, path: c.tablePath(), query: q.Values()})
	if err != nil {
		return nil, dataTransportError(err)
	}
	if !resp.ok() {
		return nil, decodeDataError(resp)
	}

	entries, err := decodeEntries(resp)
	if err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry returns the entry with id.
func (c *Client) GetEntry(ctx context.Context, id int64) (catalog.Entry, error) {
	q := newTableQuery().Select(catalog.Columns...).EqInt(catalog.FieldID, id)

	resp, err := c.send(ctx, request{method: http.MethodGet, path: c.tablePath(), query: q.Values()})
	if err != nil {
		return catalog.Entry{}, dataTransportError(err)
	}
	if !resp.ok() {
		return catalog.Entry{}, decodeDataError(resp)
	}
	return singleEntry(resp, id)
}

// DeleteEntry deletes the entry with id.
func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	q := newTableQuery().EqInt(catalog.FieldID, id)

	resp, err := c.send(ctx, request{method: http.MethodDelete, path: c.tablePath(), query: q.Values()})
	if err != nil {
		return dataTransportError(err)
	}
	if !resp.ok() {
		return decodeDataError(resp)
	}
	return nil
}

// UpsertEntry inserts a new entry or updates an existing one.
func (c *Client) UpsertEntry(ctx context.Context, draft catalog.Draft) (catalog.Entry, error) {
	draft = draft.Normalized()
	if err := draft.Validate(); err != nil {
		return catalog.Entry{}, &DataError{Code: DataInvalid, Message: err.Error(), Err: err}
	}

	body := entryWrite{Name: draft.Name, Description: draft.Description, Price: draft.Price}
	q := newTableQuery().Select(catalog.Columns...)
	req := request{
		method: http.MethodPost,
		path:   c.tablePath(),
		body:   body,
		prefer: "return=representation",
	}
	if !draft.IsNew() {
		q.EqInt(catalog.FieldID, draft.ID)
		req.method = http.MethodPatch
	}
	req.query = q.Values()

	resp, err := c.send(ctx, req)
	if err != nil {
		return catalog.Entry{}, dataTransportError(err)
	}
	if !resp.ok() {
		return catalog.Entry{}, decodeDataError(resp)
	}
	return singleEntry(resp, draft.ID)
}

func singleEntry(resp response, id int64) (catalog.Entry, error) {
	entries, err := decodeEntries(resp)
	if err != nil {
		return catalog.Entry{}, err
	}
	switch len(entries) {
	case 0:
		return catalog.Entry{}, newDataError(DataNotFound, resp.status, nil, "product %d not found", id)
	case 1:
		return entries[0], nil
	default:
		return catalog.Entry{}, newDataError(DataMalformed, resp.status, nil, "expected one product, got %d", len(entries))
	}
}

func decodeEntries(resp response) ([]catalog.Entry, error) {
	var rows []entryRow
	if err := json.Unmarshal(resp.body, &rows); err != nil {
		return nil, &DataError{
			Code:    DataMalformed,
			Message: "malformed response: " + err.Error(),
			Status:  resp.status,
			Err:     errors.Wrap(err, "decode rows"),
		}
	}

	entries := make([]catalog.Entry, 0, len(rows))
	for i, row := range rows {
		e, err := row.toEntry()
		if err != nil {
			return nil, &DataError{
				Code:    DataMalformed,
				Message: fmt.Sprintf("malformed product at position %d: %v", i, err),
				Status:  resp.status,
				Err:     err,
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r entryRow) toEntry() (catalog.Entry, error) {
	if r.ID == nil {
		return catalog.Entry{}, errors.New("missing id")
	}
	e := catalog.Entry{ID: *r.ID}
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Description != nil {
		e.Description = *r.Description
	}

	price, err := catalog.DecodePrice(r.Price)
	if err != nil {
		return catalog.Entry{}, errors.Wrapf(err, "product %d", e.ID)
	}
	e.Price = price

	if r.CreatedAt != nil && *r.CreatedAt != "" {
		ts, err := parseTimestamp(*r.CreatedAt)
		if err != nil {
			return catalog.Entry{}, errors.Wrapf(err, "product %d", e.ID)
		}
		e.CreatedAt = ts
	}
	return e, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid created_at %q", s)
}

func checkUniqueIDs(entries []catalog.Entry) error {
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			return newDataError(DataMalformed, 0, nil, "malformed response: duplicate product id %d", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func dataTransportError(err error) *DataError {
	return &DataError{Code: DataTransport, Message: transportMessage(err), Err: err}
}

// decodeDataError maps a table API error reply to a DataError.
func decodeDataError(resp response) *DataError {
	var body restErrorBody
	_ = json.Unmarshal(resp.body, &body)

	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = http.StatusText(resp.status)
	}

	code := DataRejected
	switch {
	case resp.status == http.StatusNotFound || body.Code == "PGRST116":
		code = DataNotFound
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		code = DataUnauthorized
	case resp.status >= 500:
		code = DataServer
	}
	return &DataError{Code: code, Message: msg, Status: resp.status}
}
