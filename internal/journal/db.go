package journal

import (
	"database/sql"
	"embed"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Bennylavaa/RealmPortal/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
	path string
}

// Open opens the SQLite journal file at dbPath, creating its directory
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(err, "create journal directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "journal pragma %q", pragma)
		}
	}

	return &DB{DB: db, path: dbPath}, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// schemaVersions lists the embedded schema files in apply order
func schemaVersions() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read embedded journal schema")
	}
	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Pending returns the schema versions this journal file has not applied yet.
// A file created by an older release reports the versions added since.
func (db *DB) Pending() ([]string, error) {
	versions, err := schemaVersions()
	if err != nil {
		return nil, err
	}

	var tracked int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`).Scan(&tracked); err != nil {
		return nil, errors.Wrap(err, "inspect journal schema")
	}
	if tracked == 0 {
		return versions, nil
	}

	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "list applied journal schema")
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan journal schema version")
		}
		done[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list applied journal schema")
	}

	var pending []string
	for _, v := range versions {
		if !done[v] {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

// Migrate brings the journal schema up to date, one transaction per version,
// and returns the versions it applied.
func (db *DB) Migrate(log logrus.FieldLogger) ([]string, error) {
	if log == nil {
		log = logging.Discard()
	}

	pending, err := db.Pending()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	)`); err != nil {
		return nil, errors.Wrap(err, "create schema_migrations")
	}

	var applied []string
	for _, v := range pending {
		if err := db.apply(v); err != nil {
			return applied, err
		}
		log.WithFields(logrus.Fields{"journal": db.path, "version": v}).Info("journal schema upgraded")
		applied = append(applied, v)
	}
	return applied, nil
}

func (db *DB) apply(version string) error {
	ddl, err := migrationsFS.ReadFile(path.Join("migrations", version))
	if err != nil {
		return errors.Wrapf(err, "read journal schema %s", version)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin journal schema %s", version)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(ddl)); err != nil {
		return errors.Wrapf(err, "apply journal schema %s", version)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return errors.Wrapf(err, "record journal schema %s", version)
	}
	return errors.Wrapf(tx.Commit(), "commit journal schema %s", version)
}
