// Package config owns the router's policy record and its persistence.
//
// ConfigStore keeps the effective RouterConfig behind an atomic pointer so
// readers never observe a torn record, merges partial updates, persists the
// result under a single well-known key and notifies subscribers of every
// change. Durable storage goes through the small Store port; memory, file
// and SQLite implementations are provided.
package config
