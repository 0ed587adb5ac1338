// Package db is the persistence adapter: the only code that talks to the
// calendar_events and preferred_study_slots tables.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/study"
)

// ErrNotFound is wrapped in a PersistenceError when an update or delete
// matches no row of the session's user.
var ErrNotFound = errors.New("row not found")

// timeLayout is the stored timestamp format. All values are UTC, so string
// comparison orders them.
const timeLayout = "2006-01-02T15:04:05Z"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store implements study.Repository over SQLite or Postgres.
type Store struct {
	db     *sqlx.DB
	driver string
	loc    *time.Location
}

var _ study.Repository = (*Store)(nil)

// Open connects to the configured database and runs migrations.
func Open(cfg config.StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return openDriver("sqlite", sqliteDSN(cfg.DBPath))
	case config.DriverPostgres:
		return openDriver("postgres", cfg.DSN)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// New opens a SQLite database at path and runs migrations.
func New(path string) (*Store, error) {
	return openDriver("sqlite", sqliteDSN(path))
}

func sqliteDSN(path string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

func openDriver(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, driver: driver, loc: time.Local}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// SetLocation sets the location loaded timestamps are converted to.
func (s *Store) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// fail wraps err as a PersistenceError and logs it at the adapter boundary.
func fail(op string, err error) error {
	var pe *study.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	if !errors.Is(err, ErrNotFound) {
		applog.Error("persistence failed", err, "op", op)
	}
	return &study.PersistenceError{Op: op, Err: err}
}

func checkSession(sess study.Session) error {
	if !sess.Valid() {
		return &study.ValidationError{Field: "session", Message: "no signed-in user"}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (s *Store) parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.Replace(v, " ", "T", 1))
	if err != nil {
		return time.Time{}, err
	}
	return t.In(s.loc), nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadWeek returns the user's slots and the events starting in the week
// containing weekStart. It issues the two queries independently.
func (s *Store) LoadWeek(ctx context.Context, sess study.Session, weekStart time.Time) (*study.WeekData, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	slots, err := s.ListSlots(ctx, sess)
	if err != nil {
		return nil, err
	}
	week := dateutil.WeekOf(weekStart.In(s.loc))
	events, err := s.ListEventsBetween(ctx, sess, week.Start, week.End)
	if err != nil {
		return nil, err
	}
	return &study.WeekData{Slots: slots, Events: events}, nil
}
