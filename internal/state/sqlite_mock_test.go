package state

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewSQLiteStore(nil)
	store.db = db
	t.Cleanup(func() {
		_ = db.Close()
	})
	return store, mock
}

var mockColumns = []string{
	"id", "content_id", "library", "from_version", "to_version", "status",
	"error_kind", "error", "started_at", "completed_at",
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(store *SQLiteStore) error
		errMsg    string
	}{
		{
			name: "record run insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO upgrade_runs").WillReturnError(assert.AnError)
			},
			call: func(store *SQLiteStore) error {
				return store.RecordRun(newRun("c", core.RunStatusCompleted, time.Now()))
			},
			errMsg: "failed to record run",
		},
		{
			name: "get run query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM upgrade_runs WHERE id").WillReturnError(assert.AnError)
			},
			call: func(store *SQLiteStore) error {
				_, err := store.GetRun("x")
				return err
			},
			errMsg: "failed to get run",
		},
		{
			name: "list runs query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM upgrade_runs ORDER BY seq DESC").WillReturnError(assert.AnError)
			},
			call: func(store *SQLiteStore) error {
				_, err := store.ListRuns(5)
				return err
			},
			errMsg: "failed to list runs",
		},
		{
			name: "corrupt version in row",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(mockColumns).
					AddRow("id", "c", "H5P.Text", "one", "1.2", "completed", nil, nil,
						"2024-01-01T00:00:00.000000000Z", "2024-01-01T00:00:01.000000000Z")
				mock.ExpectQuery("SELECT (.+) FROM upgrade_runs ORDER BY seq DESC").WillReturnRows(rows)
			},
			call: func(store *SQLiteStore) error {
				_, err := store.ListRuns(0)
				return err
			},
			errMsg: "failed to scan run",
		},
		{
			name: "row iteration fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(mockColumns).
					AddRow("id", "c", "H5P.Text", "1.0", "1.2", "completed", nil, nil,
						"2024-01-01T00:00:00.000000000Z", "2024-01-01T00:00:01.000000000Z").
					RowError(0, assert.AnError)
				mock.ExpectQuery("SELECT (.+) FROM upgrade_runs WHERE content_id").WillReturnRows(rows)
			},
			call: func(store *SQLiteStore) error {
				_, err := store.ListRunsForContent("c", 0)
				return err
			},
			errMsg: "failed to list runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			err := tt.call(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStore_ListRunsPassesLimit(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(mockColumns).
		AddRow("r1", "c", "H5P.Text", "1.0", "1.2", "failed", "hookFailed", "boom",
			"2024-01-01T00:00:00.000000000Z", "2024-01-01T00:00:01.000000000Z")
	mock.ExpectQuery("SELECT (.+) FROM upgrade_runs ORDER BY seq DESC LIMIT").
		WithArgs(-1).
		WillReturnRows(rows)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.KindHookFailed, runs[0].ErrorKind)
	assert.Equal(t, "boom", runs[0].Error)
	assert.Equal(t, time.Second, runs[0].Duration())
	assert.NoError(t, mock.ExpectationsWereMet())
}
