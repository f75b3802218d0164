package core

import "time"

// Store defines the interface for the upgrade run journal.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	RecordRun(run *UpgradeRun) error
	GetRun(id string) (*UpgradeRun, error)
	ListRuns(limit int) ([]*UpgradeRun, error)
	ListRunsForContent(contentID string, limit int) ([]*UpgradeRun, error)
}

// RunStatus represents the outcome of an upgrade run.
type RunStatus string

// Run status constants.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// UpgradeRun records one content upgrade.
type UpgradeRun struct {
	ID          string
	ContentID   string
	Library     string
	FromVersion Version
	ToVersion   Version
	Status      RunStatus
	// ErrorKind is the ErrorKind of the failure, empty on success or for
	// untyped errors.
	ErrorKind   string
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration returns how long the run took.
func (r *UpgradeRun) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
