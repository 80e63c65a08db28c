package timeline

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

func TestSQLStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db)
	ctx := context.Background()
	r := rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timeline_events").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := store.Append(ctx, []Record{r})
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AppendDuplicateNotProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db)
	ctx := context.Background()
	r := rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timeline_events").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := store.Append(ctx, []Record{r})
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)
	require.Equal(t, 1, res.Duplicates)
}

func TestSQLStore_GetCursorNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT slot, signature").WillReturnError(sql.ErrNoRows)

	_, err = store.GetCursor(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_SetCursor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO timeline_cursor").
		WithArgs(uint64(42), "SIG", "", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.SetCursor(ctx, Cursor{Slot: 42, Signature: "SIG"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
