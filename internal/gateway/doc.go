// Package gateway is the boundary between the client and the hosted
// backend: authentication (sign up, sign in, sign out, refresh) and CRUD
// on the catalog table.
//
// The Gateway interfaces are what view-models depend on. Client is the
// production implementation, speaking the hosted service's HTTP API:
// auth endpoints under /auth/v1 and PostgREST-style table access under
// /rest/v1.
//
// Every failure is returned to the caller as an *AuthError or a
// *DataError whose Error() text is the human-readable message reported
// by the backend (or by the transport). Nothing is retried here.
package gateway
