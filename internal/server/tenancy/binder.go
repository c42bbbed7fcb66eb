// Package tenancy binds an authenticated principal to the database session
// so that row-level security policies see who is asking.
//
// Every tenant-scoped statement runs inside Binder.Run. The handle passed to
// the callback re-applies the principal's role and subject claim right
// before each statement, using transaction-local settings, so a pooled
// connection never carries one tenant's identity into the next borrower.
package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/myplanner/internal/dbx"
)

// ErrNoSubject is returned when a run is attempted without a principal.
var ErrNoSubject = errors.New("tenancy: no authenticated subject")

const bindQuery = `SELECT set_config('role', $1, true), set_config('request.jwt.claim.sub', $2, true), set_config('request.jwt.claim.role', $1, true)`

// ExecutionContext is the identity a unit of work runs as. It is built per
// request and never persisted.
type ExecutionContext struct {
	Subject string
	Role    string
}

type Binder struct {
	db   *sql.DB
	role string
}

// NewBinder returns a Binder over db. role is the database role assumed by
// every bound transaction, normally "authenticated".
func NewBinder(db *sql.DB, role string) *Binder {
	return &Binder{db: db, role: role}
}

// For builds the ExecutionContext of subject under the binder's role.
func (b *Binder) For(subject string) ExecutionContext {
	return ExecutionContext{Subject: subject, Role: b.role}
}

// Run executes fn in one transaction bound to ec. An empty subject fails
// before any I/O. If binding fails the handle stays poisoned, fn's later
// statements fail too, and Run returns the bind error after rolling back.
func (b *Binder) Run(ctx context.Context, ec ExecutionContext, fn func(ctx context.Context, q dbx.DBTX) error) error {
	if ec.Subject == "" {
		return ErrNoSubject
	}
	if ec.Role == "" {
		ec.Role = b.role
	}

	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		bt := &boundTx{tx: tx, ec: ec}
		err := fn(ctx, bt)
		if bt.err != nil {
			return bt.err
		}
		return err
	})
}

// boundTx is a dbx.DBTX that binds the identity before every statement.
type boundTx struct {
	tx  dbx.DBTX
	ec  ExecutionContext
	err error
}

func (b *boundTx) bind(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	if _, err := b.tx.ExecContext(ctx, bindQuery, b.ec.Role, b.ec.Subject); err != nil {
		b.err = fmt.Errorf("tenant bind error: %w", err)
	}
	return b.err
}

func (b *boundTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := b.bind(ctx); err != nil {
		return nil, err
	}
	return b.tx.ExecContext(ctx, query, args...)
}

func (b *boundTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := b.bind(ctx); err != nil {
		return nil, err
	}
	return b.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext cannot return an error directly. On a failed bind the
// statement is issued with a cancelled context so it never reaches the
// server and Scan reports an error.
func (b *boundTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if err := b.bind(ctx); err != nil {
		dead, cancel := context.WithCancel(ctx)
		cancel()
		return b.tx.QueryRowContext(dead, query, args...)
	}
	return b.tx.QueryRowContext(ctx, query, args...)
}
