// Package storage defines the domain model and persistence interfaces for the
// back-office API, plus a local-filesystem store for uploaded images.
//
// The PostgreSQL implementation lives in the postgres subpackage. Handlers and
// services depend on the interfaces here, never on the concrete stores.
package storage
