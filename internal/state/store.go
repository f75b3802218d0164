// Package state keeps the journal of upgrade runs in SQLite.
// The schema is managed with embedded goose migrations.
package state

import "github.com/leapstack-labs/h5pup/pkg/core"

var _ core.Store = (*SQLiteStore)(nil)
