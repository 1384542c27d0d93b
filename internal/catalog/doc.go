// Package catalog defines the product records exposed by the hosted
// backend and the client-side rules applied to them.
//
// Entries are owned by the remote store; the client only ever holds
// read-only copies. Drafts are the input side: they carry what a user
// typed into the product form and are validated locally before they are
// sent anywhere.
//
// Prices are decimals at the boundary. The backend has historically
// stored them both as numbers and as text, so decoding accepts either
// representation and rejects anything that does not parse instead of
// guessing.
package catalog
