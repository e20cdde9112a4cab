// Package database provides the PostgreSQL connection pool used by the
// realtime archive.
package database
