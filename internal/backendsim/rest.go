package backendsim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

var knownColumns = map[string]bool{
	"id": true, "name": true, "description": true, "price": true, "created_at": true,
}

func restError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": msg,
		"details": nil,
		"hint":    nil,
	})
}

// checkTable reports whether the request targets the served table and
// consumes a queued fault. It writes the error reply when it returns false.
func (s *Server) checkTable(w http.ResponseWriter, r *http.Request) bool {
	if table := mux.Vars(r)["table"]; table != s.table {
		restError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
		return false
	}
	if f, ok := s.takeFault(r.Method); ok {
		restError(w, f.status, "PGRST000", f.message)
		return false
	}
	return true
}

// idFilter parses an id=eq.N filter. present is false when no filter was
// given.
func idFilter(r *http.Request) (id int64, present bool, err error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, false, nil
	}
	value, ok := strings.CutPrefix(raw, "eq.")
	if !ok {
		return 0, true, fmt.Errorf("unsupported filter %q", raw)
	}
	id, err = strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid input syntax for type bigint: %q", value)
	}
	return id, true, nil
}

func selectColumns(r *http.Request) ([]string, error) {
	raw := r.URL.Query().Get("select")
	if raw == "" || raw == "*" {
		return []string{"id", "name", "description", "price", "created_at"}, nil
	}
	cols := strings.Split(raw, ",")
	for _, c := range cols {
		if !knownColumns[c] {
			return nil, fmt.Errorf("column %s.%s does not exist", "PRODUTOS", c)
		}
	}
	return cols, nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if !s.checkTable(w, r) {
		return
	}
	cols, err := selectColumns(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "42703", err.Error())
		return
	}
	id, filtered, err := idFilter(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}

	column, asc := "", true
	if order := r.URL.Query().Get("order"); order != "" {
		col, dir, _ := strings.Cut(order, ".")
		if !knownColumns[col] {
			restError(w, http.StatusBadRequest, "42703", fmt.Sprintf("column %s does not exist", col))
			return
		}
		column, asc = col, dir != "desc"
	}

	s.mu.Lock()
	rows := s.sortedLocked(column, asc)
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if filtered && row.ID != id {
			continue
		}
		out = append(out, project(row, cols))
	}
	writeJSON(w, http.StatusOK, out)
}

// rowBody is the body of insert and update requests. Absent fields are
// left unchanged on update.
type rowBody struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"price"`
}

func decodeRowBody(r *http.Request) (rowBody, error) {
	var body rowBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return rowBody{}, err
	}
	if len(body.Price) > 0 && !bytes.Equal(body.Price, []byte("null")) {
		d, err := decimal.NewFromString(strings.Trim(string(body.Price), `"`))
		if err != nil {
			return rowBody{}, fmt.Errorf("invalid input syntax for type numeric: %s", body.Price)
		}
		if d.IsNegative() {
			return rowBody{}, fmt.Errorf("new row violates check constraint \"price_non_negative\"")
		}
	}
	return body, nil
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if !s.checkTable(w, r) {
		return
	}
	body, err := decodeRowBody(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "22P02", err.Error())
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		restError(w, http.StatusBadRequest, "23502", "null value in column \"name\" violates not-null constraint")
		return
	}

	row := Row{Name: *body.Name, Price: body.Price}
	if body.Description != nil {
		row.Description = *body.Description
	}

	s.mu.Lock()
	row = s.insertLocked(row)
	s.mu.Unlock()

	s.writeRepresentation(w, r, http.StatusCreated, []Row{row})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.checkTable(w, r) {
		return
	}
	id, filtered, err := idFilter(r)
	if err != nil || !filtered {
		restError(w, http.StatusBadRequest, "21000", "UPDATE requires a WHERE clause")
		return
	}
	body, err := decodeRowBody(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "22P02", err.Error())
		return
	}

	var updated []Row
	s.mu.Lock()
	if row, ok := s.rows[id]; ok {
		if body.Name != nil {
			row.Name = *body.Name
		}
		if body.Description != nil {
			row.Description = *body.Description
		}
		if len(body.Price) > 0 {
			row.Price = body.Price
		}
		s.rows[id] = row
		updated = append(updated, row)
	}
	s.mu.Unlock()

	s.writeRepresentation(w, r, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.checkTable(w, r) {
		return
	}
	id, filtered, err := idFilter(r)
	if err != nil || !filtered {
		restError(w, http.StatusBadRequest, "21000", "DELETE requires a WHERE clause")
		return
	}

	s.mu.Lock()
	delete(s.rows, id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// writeRepresentation honors Prefer: return=representation; without it
// the reply has no body.
func (s *Server) writeRepresentation(w http.ResponseWriter, r *http.Request, status int, rows []Row) {
	if !strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		w.WriteHeader(status)
		return
	}
	cols, err := selectColumns(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "42703", err.Error())
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, project(row, cols))
	}
	writeJSON(w, status, out)
}

func project(row Row, cols []string) map[string]any {
	m := make(map[string]any, len(cols))
	for _, c := range cols {
		switch c {
		case "id":
			m[c] = row.ID
		case "name":
			m[c] = row.Name
		case "description":
			m[c] = row.Description
		case "price":
			if len(row.Price) == 0 {
				m[c] = nil
			} else {
				m[c] = row.Price
			}
		case "created_at":
			m[c] = row.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
	}
	return m
}

// sortedLocked returns the rows ordered by column. An empty column keeps
// insertion (id) order. Caller must hold s.mu.
func (s *Server) sortedLocked(column string, asc bool) []Row {
	rows := make([]Row, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}

	less := func(a, b Row) int {
		switch column {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "description":
			return strings.Compare(a.Description, b.Description)
		case "price":
			return rawPrice(a.Price).Cmp(rawPrice(b.Price))
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return 0
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := less(rows[i], rows[j])
		if c == 0 {
			return rows[i].ID < rows[j].ID
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
	return rows
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func rawPrice(raw json.RawMessage) decimal.Decimal {
	d, err := decimal.NewFromString(strings.Trim(string(raw), `"`))
	if err != nil {
		return decimal.Zero
	}
	return d
}
