// Package backendsim is an in-memory stand-in for the hosted backend,
// covering the subset of the auth and table APIs the gateway uses.
//
// It exists for development (storefront mock-backend) and for tests that
// need a real HTTP peer. It is not a database: one table, no row-level
// security, no persistence. Error bodies mimic the hosted service so the
// gateway's error mapping can be exercised end to end.
package backendsim
