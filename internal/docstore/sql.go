package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/logger"
)

// sqlTimestampFormat sorts lexically in time order, unlike RFC3339Nano
const sqlTimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// sqlDialect holds the statements that differ between SQL backends
type sqlDialect struct {
	list   string
	insert string
	delete string
	// merge applies a partial update in a single statement. When empty,
	// Update reads, merges and writes back inside a transaction.
	merge      string
	selectData string
	updateData string
	now        func() string
}

// sqlCollection implements Collection over the documents table
type sqlCollection struct {
	name    string
	db      func() *sql.DB
	dialect sqlDialect
}

func (c *sqlCollection) conn() (*sql.DB, error) {
	db := c.db()
	if db == nil {
		return nil, ErrNotLoaded
	}
	return db, nil
}

func (c *sqlCollection) List(ctx context.Context) ([]Document, error) {
	db, err := c.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, c.dialect.list, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", c.name, err)
		}
		docs = append(docs, Document{ID: id, Fields: c.decode(id, raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	return docs, nil
}

func (c *sqlCollection) Create(ctx context.Context, fields Fields) (string, error) {
	db, err := c.conn()
	if err != nil {
		return "", err
	}

	raw, err := encodeFields(fields)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	args := []any{c.name, id, string(raw)}
	if c.dialect.now != nil {
		ts := c.dialect.now()
		args = append(args, ts, ts)
	}
	if _, err := db.ExecContext(ctx, c.dialect.insert, args...); err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", c.name, err)
	}
	return id, nil
}

func (c *sqlCollection) Update(ctx context.Context, id string, fields Fields) error {
	db, err := c.conn()
	if err != nil {
		return err
	}

	raw, err := encodeFields(fields)
	if err != nil {
		return err
	}

	if c.dialect.merge != "" {
		res, err := db.ExecContext(ctx, c.dialect.merge, c.name, id, string(raw))
		if err != nil {
			return fmt.Errorf("failed to update %s/%s: %w", c.name, id, err)
		}
		return requireRow(res, c.name, id)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin update of %s/%s: %w", c.name, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	if err := tx.QueryRowContext(ctx, c.dialect.selectData, c.name, id).Scan(&existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s/%s: %w", c.name, id, err)
	}

	current := c.decode(id, existing)
	for k, v := range fields {
		current[k] = v
	}
	merged, err := encodeFields(current)
	if err != nil {
		return err
	}

	args := []any{string(merged)}
	if c.dialect.now != nil {
		args = append(args, c.dialect.now())
	}
	args = append(args, c.name, id)
	if _, err := tx.ExecContext(ctx, c.dialect.updateData, args...); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c.name, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *sqlCollection) Delete(ctx context.Context, id string) error {
	db, err := c.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, c.dialect.delete, c.name, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

func requireRow(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func encodeFields(fields Fields) ([]byte, error) {
	if fields == nil {
		fields = Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return raw, nil
}

// decode returns the stored payload, or empty Fields when it is not a JSON
// object. One bad row must not hide the rest of the collection.
func (c *sqlCollection) decode(id string, raw []byte) Fields {
	fields, err := decodeFields(raw)
	if err != nil {
		logger.Warn("unreadable document, treating as empty", "collection", c.name, "id", id, "error", err)
		return Fields{}
	}
	return fields
}

func decodeFields(raw []byte) (Fields, error) {
	fields := Fields{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}
