// Package sqlstore is the SQL implementation of ports.Repository. It runs on
// SQLite (modernc.org/sqlite, no CGO) for single-node deployments and tests,
// and on MySQL for shared deployments.
//
// Every invariant that must survive concurrent requests is enforced by a
// conditional UPDATE whose RowsAffected decides the outcome: stock is only
// decremented while enough remains, a wallet is only debited while the
// balance covers it, and an order only changes status while it is still in
// the status the caller observed.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type dialect struct {
	name         string
	schema       []string
	insertIgnore string
	txOptions    *sql.TxOptions
}

var (
	sqliteDialect = dialect{
		name:         DriverSQLite,
		schema:       sqliteSchema,
		insertIgnore: "INSERT OR IGNORE",
	}
	mysqlDialect = dialect{
		name:         DriverMySQL,
		schema:       mysqlSchema,
		insertIgnore: "INSERT IGNORE",
		txOptions:    &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// queries implements ports.Queries on top of a querier. The Store embeds one
// bound to the pool; WithTx hands out one bound to the transaction.
type queries struct {
	q       querier
	dialect dialect
	now     func() time.Time
}

var _ ports.Queries = (*queries)(nil)

// Store is the SQL implementation of ports.Repository.
type Store struct {
	*queries
	db *sql.DB
}

var _ ports.Repository = (*Store)(nil)

// OpenSQLite opens (or creates) the SQLite database at path and applies the
// schema.
//
//	store, err := sqlstore.OpenSQLite(ctx, "./data/store.db")
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	// WAL keeps readers off the writer's lock; busy_timeout waits instead of
	// failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %q: %w", path, err)
	}

	// One connection serialises writers, so every transaction sees the
	// previous one's commit.
	db.SetMaxOpenConns(1)

	return open(ctx, db, sqliteDialect)
}

// OpenMySQL connects using a go-sql-driver DSN such as
// "store:secret@tcp(localhost:3306)/store".
func OpenMySQL(ctx context.Context, dsn string, maxOpenConns int) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: parse mysql dsn: %w", err)
	}
	// Timestamps are stored as text; the driver must not convert them.
	cfg.ParseTime = false
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(ctx, db, mysqlDialect)
}

// Open dispatches on the driver name from configuration.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, dsn)
	case DriverMySQL:
		return OpenMySQL(ctx, dsn, maxOpenConns)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

func open(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", d.name, err)
	}
	if err := applySchema(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		queries: &queries{q: db, dialect: d, now: time.Now},
		db:      db,
	}, nil
}

// Close releases the pool. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside one transaction. A non-nil error from fn, or a
// panic, rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.txOptions)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.WarnContext(ctx, "sqlstore: rollback failed", "error", rbErr)
		}
	}()

	if err := fn(ctx, &queries{q: tx, dialect: s.dialect, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	committed = true
	return nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(ctx context.Context, db *sql.DB, d dialect) error {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: apply %s schema: %w", d.name, err)
		}
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	return n, nil
}
