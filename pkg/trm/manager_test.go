package trm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopengine/order-service/pkg/trm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestManagerDo_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	manager := trm.NewManager(db, nil)
	err := manager.Do(context.Background(), func(ctx context.Context) error {
		require.NotNil(t, trm.ExtractTx(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerDo_RollsBackOnCallbackError(t *testing.T) {
	db, mock := newMockDB(t)
	cbErr := errors.New("line insert failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	manager := trm.NewManager(db, nil)
	err := manager.Do(context.Background(), func(ctx context.Context) error {
		return cbErr
	})

	assert.ErrorIs(t, err, cbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerDo_RollsBackWhenStatementFails(t *testing.T) {
	db, mock := newMockDB(t)
	stmtErr := errors.New("value too long for type character varying")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO order_lines").WillReturnError(stmtErr)
	mock.ExpectRollback()

	manager := trm.NewManager(db, nil)
	err := manager.Do(context.Background(), func(ctx context.Context) error {
		_, execErr := trm.ExtractTx(ctx).ExecContext(ctx, "INSERT INTO order_lines (line_id) VALUES ($1)", "l1")
		return execErr
	})

	assert.ErrorIs(t, err, stmtErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
