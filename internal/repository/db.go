package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	queryTimeout = 3 * time.Second
)

var tracer = otel.Tracer("github.com/TooLazyToCreate/lap-counter/internal/repository")

// Open connects to the store and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is required")
	}
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if err = CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

/* DBTX - соединение или текущая транзакция */
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	// TxMutation opens a read-write transaction.
	TxMutation = 1 << iota
	// TxMulti runs several statements in one transaction.
	TxMulti
)

type TxFunc func(ctx context.Context, flags uint8, fn func(DBTX) error) error

// UseDB runs fn on db directly, or inside a transaction when TxMulti is set.
func UseDB(db *sql.DB) TxFunc {
	return func(ctx context.Context, flags uint8, fn func(DBTX) error) error {
		var (
			err      error
			dbTx     DBTX = db
			activeTx *sql.Tx
		)
		if flags&TxMulti != 0 {
			activeTx, err = db.BeginTx(ctx, &sql.TxOptions{
				ReadOnly: flags&TxMutation == 0,
			})
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}
			defer activeTx.Rollback()
			dbTx = activeTx
		}
		if err = fn(dbTx); err != nil {
			return err
		}
		if activeTx != nil {
			if err = activeTx.Commit(); err != nil {
				return fmt.Errorf("commit transaction: %w", err)
			}
		}
		return nil
	}
}

// startOp bounds a store operation with a timeout and a span.
func startOp(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	return ctx, func(err error) {
		cancel()
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

/* Драйверы отдают время по-разному: pq - time.Time, sqlite - иногда строкой */
type timeScanner struct {
	dst   *time.Time
	valid *bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (s timeScanner) Scan(src any) error {
	var str string
	switch v := src.(type) {
	case nil:
		*s.dst = time.Time{}
		if s.valid != nil {
			*s.valid = false
		}
		return nil
	case time.Time:
		*s.dst = v.UTC()
		if s.valid != nil {
			*s.valid = true
		}
		return nil
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			*s.dst = t.UTC()
			if s.valid != nil {
				*s.valid = true
			}
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", str)
}

func scanTime(dst *time.Time) timeScanner {
	return timeScanner{dst: dst}
}

type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) scanner() timeScanner {
	return timeScanner{dst: &n.Time, valid: &n.Valid}
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func nullable(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC().Truncate(time.Microsecond), Valid: true}
}
