// Package library maintains per-user listening state: the liked-track set
// and the listening-time accumulator.
//
// Both components treat remote persistence as best-effort. In-memory state
// is authoritative for the UI; remote failures degrade to local persistence
// (likes) or deferred retry (listening minutes) and are never surfaced as
// blocking errors.
package library
