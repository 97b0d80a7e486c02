package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS installed_packages (
		name TEXT NOT NULL PRIMARY KEY,
		version TEXT NOT NULL,
		hash TEXT NOT NULL,
		pinned BOOLEAN NOT NULL DEFAULT 0,
		loaded BOOLEAN NOT NULL DEFAULT 0,
		outdated BOOLEAN NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		installed_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)
`

// SQLiteBackend stores installed packages in a local SQLite database opened
// through the libsql driver.
type SQLiteBackend struct {
	path string

	once    sync.Once
	db      *sql.DB
	openErr error
}

// NewSQLiteBackend creates a backend for the database file at path. The file
// is opened lazily on first use.
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: filepath.Clean(path)}
}

func (b *SQLiteBackend) open(ctx context.Context) (*sql.DB, error) {
	b.once.Do(func() {
		if err := fsutil.EnsureFileDir(b.path); err != nil {
			b.openErr = err
			return
		}
		db, err := sql.Open("libsql", "file:"+b.path)
		if err != nil {
			b.openErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		if _, err := db.ExecContext(ctx, schema); err != nil {
			_ = db.Close()
			b.openErr = fmt.Errorf("failed to create installed_packages table: %w", err)
			return
		}
		b.db = db
	})
	return b.db, b.openErr
}

// Probe opens the database and creates the schema.
func (b *SQLiteBackend) Probe(ctx context.Context) error {
	_, err := b.open(ctx)
	return err
}

// Load reads every row.
func (b *SQLiteBackend) Load(ctx context.Context) (map[string]*model.InstalledPackage, error) {
	db, err := b.open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name, record FROM installed_packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed packages: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*model.InstalledPackage)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan installed package: %w", err)
		}
		ip := &model.InstalledPackage{}
		if err := json.Unmarshal([]byte(raw), ip); err != nil {
			return nil, fmt.Errorf("failed to decode installed package %s: %w", name, err)
		}
		records[name] = ip
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installed packages: %w", err)
	}
	return records, nil
}

// Persist replaces all rows inside a single transaction.
func (b *SQLiteBackend) Persist(ctx context.Context, records map[string]*model.InstalledPackage) (err error) {
	db, err := b.open(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM installed_packages`); err != nil {
		return fmt.Errorf("failed to clear installed packages: %w", err)
	}

	for _, ip := range sortedRecords(records) {
		var raw []byte
		raw, err = json.Marshal(ip)
		if err != nil {
			return fmt.Errorf("failed to encode installed package %s: %w", ip.Name(), err)
		}
		installedAt, updatedAt := ip.InstalledAt, ip.UpdatedAt
		if installedAt.IsZero() {
			installedAt = time.Now()
		}
		if updatedAt.IsZero() {
			updatedAt = installedAt
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installed_packages (
				name, version, hash, pinned, loaded, outdated, record,
				installed_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			ip.Name(), ip.Status.CurrentVersion, ip.Status.CurrentHash,
			ip.Status.IsPinned, ip.Status.IsLoaded, ip.Status.IsOutdated, string(raw),
			installedAt.UTC(), updatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert installed package %s: %w", ip.Name(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit installed packages: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
