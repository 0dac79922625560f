// Package discover enumerates the local user profiles on a host and
// classifies each by which storage kinds hold save data for it.
package discover

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/paths"
	"github.com/saveshift/saveshift/pkg/remote"
)

// Discoverer probes a host for profiles owning save data.
type Discoverer struct {
	runner     core.Runner
	appID      int
	extensions []string
}

// New creates a discoverer for an application id. A nil extension list
// means the default save extensions.
func New(runner core.Runner, appID int, extensions []string) *Discoverer {
	if len(extensions) == 0 {
		extensions = paths.SaveExtensions
	}
	return &Discoverer{
		runner:     runner,
		appID:      appID,
		extensions: extensions,
	}
}

// Discover returns the candidate profiles on a host, ordered by
// ascending numeric id. Profile sets are rebuilt fresh on every call,
// never cached. Zero qualifying profiles is an empty set, not an
// error; an unreachable host or an unlistable library base is an
// error.
func (d *Discoverer) Discover(ctx context.Context, host core.Host) ([]core.Profile, error) {
	userdata := paths.UserdataDir(host.Library)

	entries, ok, err := remote.ListDir(ctx, d.runner, host, userdata)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("library base %s not found on %s", userdata, host)
	}

	// Directory names that are not purely numeric are ignored
	var ids []int
	for _, entry := range entries {
		id, err := strconv.Atoi(entry)
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	names := d.fetchNames(ctx, host)

	var profiles []core.Profile
	for _, id := range ids {
		sp, err := paths.Resolve(host.Library, id, d.appID)
		if err != nil {
			return nil, fmt.Errorf("resolve paths for id %d: %w", id, err)
		}

		hasCloud, err := d.probeCloud(ctx, host, sp)
		if err != nil {
			return nil, err
		}

		hasCompat, err := d.probeCompat(ctx, host, sp)
		if err != nil {
			return nil, err
		}

		// A profile with neither storage kind is not a candidate
		if !hasCloud && !hasCompat {
			continue
		}

		name, found := NameForID(names, id)
		if !found {
			name = SyntheticName(id)
		}

		profiles = append(profiles, core.Profile{
			ID:            id,
			Name:          name,
			HasCloudData:  hasCloud,
			HasCompatData: hasCompat,
		})
	}

	return profiles, nil
}

// probeCloud checks for the per-id, per-application cloud-style
// subdirectory. A missing path is "absent", not an error.
func (d *Discoverer) probeCloud(ctx context.Context, host core.Host, sp core.StoragePaths) (bool, error) {
	return remote.DirExists(ctx, d.runner, host, sp.CloudRoot)
}

// probeCompat checks that the shared compatibility directory exists and
// at least one save-pattern file sits beneath its fixed save subpath.
func (d *Discoverer) probeCompat(ctx context.Context, host core.Host, sp core.StoragePaths) (bool, error) {
	exists, err := remote.DirExists(ctx, d.runner, host, sp.CompatRoot)
	if err != nil || !exists {
		return false, err
	}

	files, ok, err := remote.FindFiles(ctx, d.runner, host, sp.CompatSaveDir, d.extensions)
	if err != nil {
		return false, err
	}
	return ok && len(files) > 0, nil
}

// fetchNames reads and decodes the login-record blob once per host.
// Any failure degrades to an empty mapping; synthetic names cover the
// gap.
func (d *Discoverer) fetchNames(ctx context.Context, host core.Host) map[uint64]string {
	content, ok, err := remote.ReadFile(ctx, d.runner, host, paths.LoginRecordPath(host.Library))
	if err != nil || !ok {
		return nil
	}
	return ParseLoginUsers(content)
}
