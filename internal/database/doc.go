// Package database provides PostgreSQL connection pool management and schema setup.
//
// The index tracker keeps a single table, deribit_index, created from the
// embedded schema.sql by Migrate.
package database
