// Package backup makes timestamped copies of a destination profile's
// existing storage roots before they are overwritten.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/remote"
)

// TimestampFormat is the fixed suffix format of backup copies.
const TimestampFormat = "20060102-150405"

// Manager copies existing destination roots aside before a transfer.
type Manager struct {
	runner core.Runner
	now    func() time.Time
}

// New creates a backup manager.
func New(runner core.Runner) *Manager {
	return &Manager{
		runner: runner,
		now:    time.Now,
	}
}

// WithClock substitutes the timestamp source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Backup copies each existing storage root to a timestamped sibling on
// the same host. A root that does not exist is skipped without error.
// Backup is best-effort per root: a failure is returned as a warning
// and blocks neither the other root nor the transfer.
func (m *Manager) Backup(ctx context.Context, host core.Host, sp core.StoragePaths) (created []string, warnings []error) {
	stamp := m.now().Format(TimestampFormat)

	for _, root := range []string{sp.CloudRoot, sp.CompatRoot} {
		exists, err := remote.DirExists(ctx, m.runner, host, root)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("probe %s: %w", root, err))
			continue
		}
		if !exists {
			// Nothing to back up is a success, not a failure
			continue
		}

		dst := fmt.Sprintf("%s.bak-%s", root, stamp)
		if err := remote.CopyDir(ctx, m.runner, host, root, dst); err != nil {
			warnings = append(warnings, fmt.Errorf("back up %s: %w", root, err))
			continue
		}

		created = append(created, dst)
	}

	return created, warnings
}
