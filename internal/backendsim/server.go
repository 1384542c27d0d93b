package backendsim

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Row is a seeded table row. Price is stored as raw JSON so tests can
// seed both numeric and textual prices.
type Row struct {
	ID          int64
	Name        string
	Description string
	Price       json.RawMessage
	CreatedAt   time.Time
}

type account struct {
	id       string
	email    string
	fullName string
	hash     []byte
	verified bool
}

type fault struct {
	status  int
	message string
}

// Server is the simulated backend.
//
// Thread-safety: all handlers and test hooks are safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	access   map[string]string   // access token -> email
	refresh  map[string]string   // refresh token -> email
	rows     map[int64]Row
	nextID   int64
	faults   map[string][]fault // by HTTP method

	anonKey      string
	table        string
	confirmEmail bool
	tokenTTL     time.Duration
	bcryptCost   int
	now          func() time.Time
	newToken     func() string
}

// Option configures a Server.
type Option func(*Server)

// WithAnonKey sets the API key clients must send. Defaults to "anon".
func WithAnonKey(key string) Option {
	return func(s *Server) { s.anonKey = key }
}

// WithTable sets the table name. Defaults to PRODUTOS.
func WithTable(name string) Option {
	return func(s *Server) { s.table = name }
}

// WithEmailConfirmation makes sign-up return a pending user instead of a
// session.
func WithEmailConfirmation() Option {
	return func(s *Server) { s.confirmEmail = true }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// New creates an empty simulated backend.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:   map[string]*account{},
		access:     map[string]string{},
		refresh:    map[string]string{},
		rows:       map[int64]Row{},
		nextID:     1,
		faults:     map[string][]fault{},
		anonKey:    "anon",
		table:      "PRODUTOS",
		tokenTTL:   time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		newToken:   newOpaqueToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving the simulated API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requireAPIKey)

	auth := r.PathPrefix("/auth/v1").Subrouter()
	auth.HandleFunc("/signup", s.handleSignUp).Methods(http.MethodPost)
	auth.HandleFunc("/token", s.handleToken).Methods(http.MethodPost).Queries("grant_type", "{grant}")
	auth.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	auth.HandleFunc("/user", s.handleUser).Methods(http.MethodGet)

	rest := r.PathPrefix("/rest/v1").Subrouter()
	rest.HandleFunc("/{table}", s.handleSelect).Methods(http.MethodGet)
	rest.HandleFunc("/{table}", s.handleInsert).Methods(http.MethodPost)
	rest.HandleFunc("/{table}", s.handleUpdate).Methods(http.MethodPatch)
	rest.HandleFunc("/{table}", s.handleDelete).Methods(http.MethodDelete)

	return r
}

// Seed inserts rows. Rows with a zero ID get the next free id; rows with
// a zero CreatedAt get the current time.
func (s *Server) Seed(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.insertLocked(row)
	}
}

// Rows returns a snapshot of the table ordered by id.
func (s *Server) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked("id", true)
}

// FailNext makes the next request with the given HTTP method fail with
// status and message. Calls queue up.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = append(s.faults[method], fault{status: status, message: message})
}

// ConfirmEmail marks the account as verified so it can sign in.
func (s *Server) ConfirmEmail(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if ok {
		a.verified = true
	}
	return ok
}

// ExpireTokens invalidates every access token, leaving refresh tokens
// usable.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]string{}
}

func (s *Server) insertLocked(row Row) Row {
	if row.ID == 0 {
		row.ID = s.nextID
	}
	if row.ID >= s.nextID {
		s.nextID = row.ID + 1
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.now().UTC()
	}
	s.rows[row.ID] = row
	return row
}

func (s *Server) takeFault(method string) (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.faults[method]
	if len(queue) == 0 {
		return fault{}, false
	}
	s.faults[method] = queue[1:]
	return queue[0], true
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != s.anonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"message": "Invalid API key",
				"hint":    "Double check your Supabase `anon` or `service_role` API key.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
