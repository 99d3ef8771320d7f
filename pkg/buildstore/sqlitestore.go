package buildstore

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS build_numbers (
	job  TEXT PRIMARY KEY,
	next INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS builds (
	job    TEXT    NOT NULL,
	number INTEGER NOT NULL,
	data   TEXT    NOT NULL,
	PRIMARY KEY (job, number)
);
CREATE TABLE IF NOT EXISTS logs (
	job     TEXT    NOT NULL,
	number  INTEGER NOT NULL,
	content BLOB    NOT NULL,
	PRIMARY KEY (job, number)
);`

// OpenSQLiteStore opens or creates a SQLite database file and uses it as a
// Store. Builds are kept as JSON documents, same as in the filesystem store.
func OpenSQLiteStore(path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", "file:"+path+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct {
	db *sql.DB
}

func (s *sqliteStore) NextNumber(job string) (uint, error) {
	if err := ValidateJob(job); err != nil {
		return 0, err
	}
	// A single statement, so the read never has to be upgraded to a write.
	var next uint
	err := s.db.QueryRow(`
		INSERT INTO build_numbers (job, next) VALUES (?, 2)
		ON CONFLICT (job) DO UPDATE SET next = next + 1
		RETURNING next - 1`, job).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocate build number of %q: %w", job, err)
	}
	return next, nil
}

func (s *sqliteStore) Save(b *build.Build) error {
	if err := ValidateJob(b.Job); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode build %s: %w", b, err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO builds (job, number, data) VALUES (?, ?, ?)
		ON CONFLICT (job, number) DO UPDATE SET data = excluded.data`,
		b.Job, b.Number, string(data)); err != nil {
		return fmt.Errorf("save build %s: %w", b, err)
	}
	return nil
}

func (s *sqliteStore) Load(job string, number uint) (*build.Build, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM builds WHERE job = ? AND number = ?`, job, number).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load build %s#%d: %w", job, number, err)
	}
	var b build.Build
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("decode build %s#%d: %w", job, number, err)
	}
	if b.Vars == nil {
		b.Vars = map[string]string{}
	}
	return &b, nil
}

func (s *sqliteStore) Numbers(job string) ([]uint, error) {
	rows, err := s.db.Query(`SELECT number FROM builds WHERE job = ? ORDER BY number`, job)
	if err != nil {
		return nil, fmt.Errorf("list builds of %q: %w", job, err)
	}
	defer rows.Close()
	var numbers []uint
	for rows.Next() {
		var n uint
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (s *sqliteStore) OpenLog(b *build.Build) (io.ReadCloser, error) {
	var content []byte
	err := s.db.QueryRow(`SELECT content FROM logs WHERE job = ? AND number = ?`, b.Job, b.Number).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log of %s: %w", b, err)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *sqliteStore) AppendLog(b *build.Build) (io.WriteCloser, error) {
	if err := ValidateJob(b.Job); err != nil {
		return nil, err
	}
	return &sqliteLogWriter{db: s.db, job: b.Job, number: b.Number}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteLogWriter struct {
	db     *sql.DB
	job    string
	number uint
}

func (w *sqliteLogWriter) Write(p []byte) (int, error) {
	if _, err := w.db.Exec(`
		INSERT INTO logs (job, number, content) VALUES (?, ?, ?)
		ON CONFLICT (job, number) DO UPDATE SET content = content || excluded.content`,
		w.job, w.number, p); err != nil {
		return 0, fmt.Errorf("append log of %s#%d: %w", w.job, w.number, err)
	}
	return len(p), nil
}

func (w *sqliteLogWriter) Close() error {
	return nil
}
