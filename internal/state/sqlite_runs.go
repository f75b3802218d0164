package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/h5pup/pkg/core"
)

const runColumns = `id, content_id, library, from_version, to_version, status, error_kind, error, started_at, completed_at`

// RecordRun stores a finished upgrade run. An empty ID is filled in.
func (s *SQLiteStore) RecordRun(run *core.UpgradeRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = generateID()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("content_id", run.ContentID),
		slog.String("status", string(run.Status)))

	_, err := s.db.Exec(
		`INSERT INTO upgrade_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ContentID,
		run.Library,
		run.FromVersion.String(),
		run.ToVersion.String(),
		string(run.Status),
		nullString(run.ErrorKind),
		nullString(run.Error),
		run.StartedAt.UTC().Format(timeFormat),
		run.CompletedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.UpgradeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM upgrade_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.UpgradeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM upgrade_runs ORDER BY seq DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return collectRuns(rows)
}

// ListRunsForContent retrieves the runs of one content item, newest first.
func (s *SQLiteStore) ListRunsForContent(contentID string, limit int) ([]*core.UpgradeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM upgrade_runs WHERE content_id = ? ORDER BY seq DESC LIMIT ?`,
		contentID, sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]*core.UpgradeRun, error) {
	defer func() { _ = rows.Close() }()

	var runs []*core.UpgradeRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.UpgradeRun, error) {
	var (
		run                    core.UpgradeRun
		from, to, status       string
		errorKind, errMsg      sql.NullString
		startedAt, completedAt string
	)
	if err := row.Scan(&run.ID, &run.ContentID, &run.Library, &from, &to, &status,
		&errorKind, &errMsg, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	var err error
	if run.FromVersion, err = core.ParseVersion(from); err != nil {
		return nil, err
	}
	if run.ToVersion, err = core.ParseVersion(to); err != nil {
		return nil, err
	}
	if run.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = time.Parse(timeFormat, completedAt); err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	run.ErrorKind = errorKind.String
	run.Error = errMsg.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
