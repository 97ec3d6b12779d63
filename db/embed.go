// Package db carries the embedded schema applied at startup.
package db

import _ "embed"

// Schema is the DDL for the catalog, order and api_keys tables.
//
//go:embed migrations/001_schema.sql
var Schema string
