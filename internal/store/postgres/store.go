// Package postgres is the PostgreSQL ledger.Store, on database/sql with the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-ledger-api/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ctxKey string

const connKey ctxKey = "dbconn"

// q prefers the request's pinned connection (see BindSession) over the pool.
func (s *Store) q(ctx context.Context) querier {
	if c, ok := ctx.Value(connKey).(*sql.Conn); ok {
		return c
	}
	return s.db
}

// BindSession pins one pooled connection to ctx and sets the row-level
// security GUC on it. A nil locationID binds an unrestricted session. The
// returned release func resets the GUC and hands the connection back.
func (s *Store) BindSession(ctx context.Context, locationID *int64) (context.Context, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return ctx, func() {}, fmt.Errorf("acquire connection: %w", err)
	}
	value := ""
	if locationID != nil {
		value = fmt.Sprint(*locationID)
	}
	if _, err := conn.ExecContext(ctx, "SELECT set_config('app.current_location_id', $1, false)", value); err != nil {
		conn.Close()
		return ctx, func() {}, fmt.Errorf("set session location: %w", err)
	}
	release := func() {
		// The request context may already be cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		conn.ExecContext(rctx, "RESET app.current_location_id")
		conn.Close()
	}
	return context.WithValue(ctx, connKey, conn), release, nil
}

// translate maps driver errors onto the ledger sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ledger.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ledger.ErrInUse, pgErr.ConstraintName)
		case "23514":
			if strings.Contains(pgErr.ConstraintName, "on_hand") {
				return ledger.ErrInsufficientQuantity
			}
		}
	}
	return err
}

// where accumulates AND-ed clauses with positional args.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, v any) {
	w.args = append(w.args, v)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) dates(column string, r ledger.DateRange) {
	if r.From != nil {
		w.add(column+" >= $%d", *r.From)
	}
	if r.To != nil {
		w.add(column+" <= $%d", *r.To)
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func limitOffset(p ledger.Page) string {
	out := ""
	if p.Limit > 0 {
		out += fmt.Sprintf(" LIMIT %d", p.Limit)
	}
	if p.Offset > 0 {
		out += fmt.Sprintf(" OFFSET %d", p.Offset)
	}
	return out
}

func (s *Store) count(ctx context.Context, from string, w *where) (int, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+w.String(), w.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
