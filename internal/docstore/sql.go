package docstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SQLStore keeps every document in a single documents table. Postgres stores
// the payload as JSONB, SQLite as TEXT.
type SQLStore struct {
	db      *sqlx.DB
	dialect string
}

func NewSQLStore(db *sqlx.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (s *SQLStore) Get(ctx context.Context, docPath string) (Document, error) {
	coll, id, err := Split(docPath)
	if err != nil {
		return Document{}, err
	}
	var row documentRow
	err = s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, data FROM documents WHERE collection = ? AND id = ?`), coll, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, errors.Wrap(ErrNotFound, docPath)
	}
	if err != nil {
		return Document{}, errors.Wrapf(err, "get %s", docPath)
	}
	data, err := Decode(row.Data)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: row.ID, Data: data}, nil
}

func (s *SQLStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return nil, err
	}
	rows := []documentRow{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
SELECT id, data FROM documents
WHERE collection = ?
ORDER BY seq
`), coll); err != nil {
		return nil, errors.Wrapf(err, "list %s", coll)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		data, err := Decode(row.Data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: row.ID, Data: data})
	}
	return docs, nil
}

func (s *SQLStore) Add(ctx context.Context, collectionPath string, data map[string]any) (string, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return "", err
	}
	raw, err := Encode(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`), coll, id, string(raw), now, now)
	if err != nil {
		return "", errors.Wrapf(err, "add to %s", coll)
	}
	return id, nil
}

func (s *SQLStore) Set(ctx context.Context, docPath string, data map[string]any) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	raw, err := Encode(data)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
`), coll, id, string(raw), now, now)
	if err != nil {
		return errors.Wrapf(err, "set %s", docPath)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, docPath string, data map[string]any) error {
	return s.modify(ctx, docPath, func(raw []byte) ([]byte, error) {
		return applyUpdate(raw, data)
	})
}

func (s *SQLStore) Delete(ctx context.Context, docPath string) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`), coll, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s", docPath)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete %s", docPath)
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, docPath)
	}
	return nil
}

func (s *SQLStore) Increment(ctx context.Context, docPath, field string, delta int64) error {
	return s.modify(ctx, docPath, func(raw []byte) ([]byte, error) {
		return incrementJSON(raw, field, delta)
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// modify runs a read-modify-write of one document inside a transaction.
// Postgres locks the row; SQLite runs on a single connection so writes are
// already serialized.
func (s *SQLStore) modify(ctx context.Context, docPath string, fn func([]byte) ([]byte, error)) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT data FROM documents WHERE collection = ? AND id = ?`
	if s.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}
	var raw []byte
	err = tx.GetContext(ctx, &raw, tx.Rebind(query), coll, id)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, docPath)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", docPath)
	}
	updated, err := fn(raw)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
UPDATE documents SET data = ?, updated_at = ?
WHERE collection = ? AND id = ?
`), string(updated), time.Now().UTC(), coll, id); err != nil {
		return errors.Wrapf(err, "write %s", docPath)
	}
	return errors.Wrap(tx.Commit(), "commit")
}
