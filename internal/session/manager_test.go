package session

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	scryptN = 1 << 10
	os.Exit(m.Run())
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func testSession() Session {
	return Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         User{ID: "u-1", Email: "ana@example.com", FullName: "Ana"},
	}
}

func TestManager_StartsEmpty(t *testing.T) {
	m := NewManager(newMemStore())
	_, ok := m.CurrentSession()
	assert.False(t, ok)
	assert.False(t, m.Expired())
}

func TestManager_EstablishPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()

	m1 := NewManager(st)
	require.NoError(t, m1.Establish(ctx, testSession()))

	cur, ok := m1.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "access-1", cur.AccessToken)

	m2 := NewManager(st)
	loaded, ok, err := m2.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSession(), loaded)

	cur, ok = m2.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", cur.User.Email)
}

func TestManager_LoadWithNothingPersisted(t *testing.T) {
	m := NewManager(newMemStore())
	_, ok, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ClearRemovesPersistedCopy(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := NewManager(st)
	require.NoError(t, m.Establish(ctx, testSession()))

	require.NoError(t, m.Clear(ctx))

	_, ok := m.CurrentSession()
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, StorageKey)
	assert.False(t, ok)
}

func TestManager_EstablishRejectsEmptyToken(t *testing.T) {
	m := NewManager(newMemStore())
	err := m.Establish(context.Background(), Session{})
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestManager_SealedSession(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()

	m := NewManager(st, WithPassphrase("correct horse"))
	require.NoError(t, m.Establish(ctx, testSession()))

	raw, ok, err := st.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "access-1")

	loaded, ok, err := NewManager(st, WithPassphrase("correct horse")).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "access-1", loaded.AccessToken)
}

func TestManager_WrongPassphraseKeepsSession(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, NewManager(st, WithPassphrase("one")).Establish(ctx, testSession()))

	_, ok, err := NewManager(st, WithPassphrase("two")).Load(ctx)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	assert.False(t, ok)

	_, ok, _ = st.Get(ctx, StorageKey)
	assert.True(t, ok, "sealed session stays for the right passphrase")

	loaded, ok, err := NewManager(st, WithPassphrase("one")).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "access-1", loaded.AccessToken)
}

func TestManager_GarbageSessionDiscarded(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, st.Put(ctx, StorageKey, []byte("not json")))

	_, ok, err := NewManager(st).Load(ctx)
	assert.Error(t, err)
	assert.False(t, ok)

	_, ok, _ = st.Get(ctx, StorageKey)
	assert.False(t, ok, "unreadable session should be removed")
}

func TestOpen_RejectsOutOfRangeParams(t *testing.T) {
	sealed, err := seal("pw", []byte(`{}`))
	require.NoError(t, err)
	var good envelope
	require.NoError(t, json.Unmarshal(sealed, &good))

	tests := []struct {
		name   string
		mutate func(*envelope)
	}{
		{"huge N", func(e *envelope) { e.N = 1 << 40 }},
		{"N not a power of two", func(e *envelope) { e.N = 1000 }},
		{"memory over limit", func(e *envelope) { e.N, e.R = 1 << 16, 16 }},
		{"zero r", func(e *envelope) { e.R = 0 }},
		{"large p", func(e *envelope) { e.P = 1 << 20 }},
		{"short salt", func(e *envelope) { e.Salt = e.Salt[:4] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := good
			tt.mutate(&env)
			data, err := json.Marshal(env)
			require.NoError(t, err)

			_, err = open("pw", data)
			assert.ErrorIs(t, err, ErrEnvelopeParams)
		})
	}

	plain, err := open("pw", sealed)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(plain))
}

func TestManager_TamperedParamsDiscarded(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, NewManager(st, WithPassphrase("pw")).Establish(ctx, testSession()))

	raw, _, _ := st.Get(ctx, StorageKey)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	env.N = 1 << 40
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, StorageKey, tampered))

	_, ok, err := NewManager(st, WithPassphrase("pw")).Load(ctx)
	assert.ErrorIs(t, err, ErrEnvelopeParams)
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, StorageKey)
	assert.False(t, ok)
}

func TestManager_ExpiredUsesClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(newMemStore(), WithClock(func() time.Time { return now }))
	require.NoError(t, m.Establish(ctx, testSession()))
	assert.True(t, m.Expired())
}

func TestSession_Expired(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{AccessToken: "x", ExpiresAt: exp}
	assert.False(t, s.Expired(exp.Add(-time.Second)))
	assert.True(t, s.Expired(exp))
	assert.False(t, Session{AccessToken: "x"}.Expired(exp), "no expiry never expires")
}
