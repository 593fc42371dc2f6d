// Package stores persists snapshot references for the snapshot matcher.
// The SQLite store keeps one row per named snapshot; references are created
// on first use and rotated explicitly via update mode or deletion.
package stores
