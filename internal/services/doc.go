// Package services holds the HTTP boundaries: the public track catalog,
// the AI playlist curator and the hosted profile/likes store.
//
// Each client accepts an injectable *http.Client so tests can substitute a
// transport, and maps non-2xx responses onto the shared sentinel errors.
package services
