package output

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Supported drivers for the SQL sink.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kvolkov/leadharvest/internal/config"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/scraper"
)

// DatabaseSink appends one row per harvested URL to a SQL table. The table
// is created on first use with a portable column set.
type DatabaseSink struct {
	db     *sql.DB
	driver string
	table  string
}

// NewDatabaseSink opens the database, verifies connectivity, and ensures
// the target table exists.
func NewDatabaseSink(ctx context.Context, cfg config.DBSinkConfig) (*DatabaseSink, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	switch driver {
	case "mysql", "postgres", "sqlite3":
	default:
		return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "output.database", "unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "output.database", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "output.database", err)
	}

	table := cfg.Table
	if table == "" {
		table = "contacts"
	}
	s := &DatabaseSink{db: db, driver: driver, table: table}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DatabaseSink) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		url TEXT NOT NULL,
		title TEXT,
		emails TEXT,
		phones TEXT,
		social_links TEXT,
		raw TEXT,
		harvested_at TIMESTAMP NOT NULL
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.database", err)
	}
	return nil
}

// Name implements Sink.
func (s *DatabaseSink) Name() string { return "database" }

// Write implements Sink.
func (s *DatabaseSink) Write(ctx context.Context, result *scraper.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.database", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertSQL())
	if err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.database", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, res := range result.Successes {
		rec := flatten(res)
		if _, err := stmt.ExecContext(ctx, rec.URL, rec.Title, rec.Emails, rec.Phones, rec.Social, rec.Raw, now); err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.database", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.database", err)
	}
	return nil
}

func (s *DatabaseSink) insertSQL() string {
	if s.driver == "postgres" {
		return fmt.Sprintf(`INSERT INTO %s (url, title, emails, phones, social_links, raw, harvested_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)
	}
	return fmt.Sprintf(`INSERT INTO %s (url, title, emails, phones, social_links, raw, harvested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table)
}

// Close implements Sink.
func (s *DatabaseSink) Close() error { return s.db.Close() }
