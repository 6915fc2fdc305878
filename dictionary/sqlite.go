package dictionary

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"japanesedict/model"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// SQLiteStore keeps entries in a SQLite file. Entry bodies are stored as JSON
// and every spelling and reading is indexed in entry_keys.
type SQLiteStore struct {
	pool *sqlitex.Pool
}

var (
	_ Store   = (*SQLiteStore)(nil)
	_ Clearer = (*SQLiteStore)(nil)
)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	pool, err := sqlitex.NewPool(fmt.Sprintf("file:%s", path), sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite pool at %s: %w", path, err)
	}
	s := &SQLiteStore{pool: pool}
	if err := s.createSchema(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	script, err := sqlFiles.ReadFile("sql/entries.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}
	conn, err := s.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	if err := sqlitex.ExecuteScript(conn, string(script), nil); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Write upserts entries by ID inside one transaction.
func (s *SQLiteStore) Write(ctx context.Context, entries []model.Entry) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	for _, e := range entries {
		data, marshalErr := json.Marshal(e)
		if marshalErr != nil {
			return marshalErr
		}
		err = sqlitex.Execute(conn, "INSERT OR REPLACE INTO entries (id, source, common, data) VALUES (?, ?, ?, ?)", &sqlitex.ExecOptions{
			Args: []any{e.ID, e.Source, boolInt(e.Common), string(data)},
		})
		if err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", e.ID, err)
		}
		err = sqlitex.Execute(conn, "DELETE FROM entry_keys WHERE entry_id = ?", &sqlitex.ExecOptions{
			Args: []any{e.ID},
		})
		if err != nil {
			return fmt.Errorf("failed to clear keys of entry %d: %w", e.ID, err)
		}
		for _, k := range e.Keys() {
			err = sqlitex.Execute(conn, "INSERT INTO entry_keys (key, entry_id) VALUES (?, ?)", &sqlitex.ExecOptions{
				Args: []any{k, e.ID},
			})
			if err != nil {
				return fmt.Errorf("failed to insert key %q: %w", k, err)
			}
		}
	}
	return nil
}

// LookupExact returns entries having any of spans as a spelling or reading,
// common entries first.
func (s *SQLiteStore) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	args := make([]any, 0, len(spans)+1)
	for _, span := range spans {
		args = append(args, span)
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT DISTINCT e.id, e.data FROM entry_keys k
JOIN entries e ON e.id = k.entry_id
WHERE k.key IN (%s)
ORDER BY e.common DESC, e.id
LIMIT ?`, strings.TrimSuffix(strings.Repeat("?,", len(spans)), ","))

	var out []model.Entry
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var e model.Entry
			if err := json.Unmarshal([]byte(stmt.ColumnText(1)), &e); err != nil {
				return fmt.Errorf("failed to decode entry %d: %w", stmt.ColumnInt(0), err)
			}
			out = append(out, e)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every entry and its keys.
func (s *SQLiteStore) Clear(ctx context.Context) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)
	if err = sqlitex.Execute(conn, "DELETE FROM entry_keys", nil); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	if err = sqlitex.Execute(conn, "DELETE FROM entries", nil); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	var n int
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM entries", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}
