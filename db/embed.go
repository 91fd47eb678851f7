// Package db provides the embedded PostgreSQL schema and the sample catalog.
package db

import _ "embed"

// Schema contains the DDL statements for the snapshot and order tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the sample catalog as a JSON array of products.
//
//go:embed seed/produtos.json
var SeedProducts []byte
