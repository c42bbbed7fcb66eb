package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bindRe = `(?s)^SELECT set_config\('role', \$1, true\), set_config\('request\.jwt\.claim\.sub', \$2, true\), set_config\('request\.jwt\.claim\.role', \$1, true\)$`

func newBinder(t *testing.T) (*Binder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBinder(db, "authenticated"), mock
}

func expectBind(mock sqlmock.Sqlmock, subject string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(bindRe).WithArgs("authenticated", subject)
}

func TestFor(t *testing.T) {
	b := NewBinder(nil, "authenticated")
	assert.Equal(t, ExecutionContext{Subject: "alice", Role: "authenticated"}, b.For("alice"))
}

func TestRun_EmptySubjectFailsBeforeIO(t *testing.T) {
	b, mock := newBinder(t)

	called := false
	err := b.Run(context.Background(), b.For(""), func(context.Context, dbx.DBTX) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, ErrNoSubject)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_BindsBeforeEveryStatement(t *testing.T) {
	b, mock := newBinder(t)

	mock.ExpectBegin()
	expectBind(mock, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE tasks`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectBind(mock, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`^SELECT id FROM tasks$`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	expectBind(mock, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`^SELECT count`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectCommit()

	err := b.Run(context.Background(), b.For("alice"), func(ctx context.Context, q dbx.DBTX) error {
		if _, err := q.ExecContext(ctx, `UPDATE tasks SET completed = TRUE`); err != nil {
			return err
		}
		rows, err := q.QueryContext(ctx, `SELECT id FROM tasks`)
		if err != nil {
			return err
		}
		_ = rows.Close()
		var n int
		return q.QueryRowContext(ctx, `SELECT count(*) FROM tasks`).Scan(&n)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_WorksWithRepositories(t *testing.T) {
	b, mock := newBinder(t)

	mock.ExpectBegin()
	expectBind(mock, "bob").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^SELECT .* FROM tasks ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title", "description", "date_time", "completed", "created_at", "updated_at"}))
	mock.ExpectCommit()

	err := b.Run(context.Background(), b.For("bob"), func(ctx context.Context, q dbx.DBTX) error {
		list, err := tasks.NewPostgresRepository(q).List(ctx)
		if err != nil {
			return err
		}
		assert.Empty(t, list)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_BindFailurePoisonsHandle(t *testing.T) {
	b, mock := newBinder(t)

	mock.ExpectBegin()
	expectBind(mock, "alice").WillReturnError(errors.New("permission denied to set role"))
	mock.ExpectRollback()

	var execErr, queryErr, rowErr error
	err := b.Run(context.Background(), b.For("alice"), func(ctx context.Context, q dbx.DBTX) error {
		_, execErr = q.ExecContext(ctx, `DELETE FROM tasks`)
		_, queryErr = q.QueryContext(ctx, `SELECT id FROM tasks`)
		var id string
		rowErr = q.QueryRowContext(ctx, `SELECT id FROM tasks LIMIT 1`).Scan(&id)
		// swallow everything; Run must still fail
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant bind error")
	assert.Error(t, execErr)
	assert.Error(t, queryErr)
	assert.Error(t, rowErr)
	require.NoError(t, mock.ExpectationsWereMet(), "no statement may run unbound")
}

func TestRun_CallbackErrorRollsBack(t *testing.T) {
	b, mock := newBinder(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := b.Run(context.Background(), b.For("alice"), func(context.Context, dbx.DBTX) error { return boom })

	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_DefaultsRole(t *testing.T) {
	b, mock := newBinder(t)

	mock.ExpectBegin()
	expectBind(mock, "carol").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^SELECT 1$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := b.Run(context.Background(), ExecutionContext{Subject: "carol"}, func(ctx context.Context, q dbx.DBTX) error {
		_, err := q.ExecContext(ctx, `SELECT 1`)
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var _ dbx.DBTX = (*boundTx)(nil)
