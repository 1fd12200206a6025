package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestPostgresStoreGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"username":"maria"}]`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM blobs WHERE key = $1")).
		WithArgs("smart_student:users").
		WillReturnRows(rows)

	raw, err := store.Get(context.Background(), "smart_student:users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"maria"}]`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM blobs WHERE key = $1")).
		WithArgs("smart_student:tasks").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "smart_student:tasks")
	assert.ErrorIs(t, err, appErrors.ErrBlobMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePut(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO blobs").
		WithArgs("smart_student:tasks", `[]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Put(context.Background(), "smart_student:tasks", []byte(`[]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDeleteError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blobs WHERE key = $1")).
		WithArgs("smart_student:comments").
		WillReturnError(errors.New("connection reset"))

	err := store.Delete(context.Background(), "smart_student:comments")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionOverPostgresClearsCorruptBlob(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM blobs WHERE key = $1")).
		WithArgs("smart_student:comments").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"not":"an array"}`)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blobs WHERE key = $1")).
		WithArgs("smart_student:comments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCommentRepository(store, "smart_student", nil)
	comments, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
