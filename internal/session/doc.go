// Package session holds the authenticated session of the current user.
//
// A Manager is the single owner of the session. It is created by the host
// at startup, loads whatever a previous run persisted, and is passed
// explicitly to the components that need it: the gateway reads the access
// token through the Provider interface, the auth flow establishes and
// clears it. Nothing else writes it.
//
// Persistence goes through the Store interface, a minimal key-value
// contract satisfied by internal/store. When a passphrase is configured
// the serialized session is sealed before it reaches the store.
package session
