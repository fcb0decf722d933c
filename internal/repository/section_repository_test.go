package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSectionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestSectionRepositoryListTitlesByJournal(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title"}).
		AddRow(int64(2), "Articles").
		AddRow(int64(5), "Reviews")

	mock.ExpectQuery(regexp.QuoteMeta("FROM sections")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	titles, err := repo.ListTitlesByJournal(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, titles, 2)
	assert.Equal(t, int64(2), titles[0].ID)
	assert.Equal(t, "Articles", titles[0].Title)
}

func TestSectionRepositoryGetByIDNone(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sections")).
		WithArgs(int64(9), int64(1)).
		WillReturnError(sql.ErrNoRows)

	section, err := repo.GetByID(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.Nil(t, section)
}

func TestSectionRepositoryGetCustomOrderMissing(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT seq FROM custom_section_orders")).
		WithArgs(int64(3), int64(2)).
		WillReturnError(sql.ErrNoRows)

	seq, err := repo.GetCustomOrder(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Nil(t, seq)
}

func TestSectionRepositoryResequenceCustomOrders(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"section_id"}).
		AddRow(int64(5)).
		AddRow(int64(2))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE custom_section_orders SET seq = $1 WHERE issue_id = $2 AND section_id = $3")).
		WithArgs(int64(1), int64(3), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE custom_section_orders SET seq = $1 WHERE issue_id = $2 AND section_id = $3")).
		WithArgs(int64(2), int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ResequenceCustomOrders(context.Background(), 3)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCustomOrderExists(t *testing.T) {
	db, mock, cleanup := newSectionRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CustomOrderExists(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, exists)
}
