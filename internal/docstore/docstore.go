// Package docstore provides named collections of schemaless JSON documents
// backed by SQLite, PostgreSQL or a single JSON file.
package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Update when no document has the given id
	ErrNotFound = errors.New("document not found")
	// ErrNotLoaded is returned by collection operations before Init or Load
	ErrNotLoaded = errors.New("storage not loaded")
)

// Fields is the JSON payload of a document. The id is never part of it.
type Fields map[string]any

// Document is a stored payload and its id
type Document struct {
	ID     string
	Fields Fields
}

// Collection is a named set of documents.
type Collection interface {
	// List returns every document in the collection, newest first.
	List(ctx context.Context) ([]Document, error)
	// Create stores fields under a newly generated id and returns the id.
	Create(ctx context.Context, fields Fields) (string, error)
	// Update merges fields into the top level of an existing document.
	Update(ctx context.Context, id string, fields Fields) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error

	GetConfigPath() string
	Collection(name string) Collection
}

// Migrator is implemented by providers that keep a versioned SQL schema.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

// IsPostgresConfig reports whether config is a PostgreSQL connection URL.
func IsPostgresConfig(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// IsPostgres reports whether config is a PostgreSQL URL or key=value DSN.
func IsPostgres(config string) bool {
	return IsPostgresConfig(config) || hasDSNKey(config, "host")
}

// IsJSONConfig reports whether config names a JSON document file.
func IsJSONConfig(config string) bool {
	return strings.HasSuffix(strings.ToLower(config), ".json")
}

// New selects a backend for config. PostgreSQL URLs with an embedded
// password are rejected.
func New(config string) (Provider, error) {
	switch {
	case IsPostgres(config):
		if _, err := ValidateConnString(config); err != nil {
			return nil, err
		}
		return NewPostgresStore(config), nil
	case IsJSONConfig(config):
		return NewJSONStore(config), nil
	default:
		return NewSQLiteStore(config), nil
	}
}

// Backend returns a short name for the provider's storage engine.
func Backend(p Provider) string {
	switch p.(type) {
	case *PostgresStore:
		return "postgresql"
	case *JSONStore:
		return "json"
	case *SQLiteStore:
		return "sqlite"
	default:
		return "unknown"
	}
}
