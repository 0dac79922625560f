// Package manifest enumerates the transferable files for a profile and
// summarizes them for the plan report.
package manifest

import (
	"context"
	"sort"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/paths"
	"github.com/saveshift/saveshift/pkg/remote"
)

// Enumerator lists save/config/preference files under a profile's
// storage roots.
type Enumerator struct {
	runner     core.Runner
	extensions []string
}

// New creates an enumerator. A nil extension list means the default
// save extensions.
func New(runner core.Runner, extensions []string) *Enumerator {
	if len(extensions) == 0 {
		extensions = paths.SaveExtensions
	}
	return &Enumerator{
		runner:     runner,
		extensions: extensions,
	}
}

// Enumerate builds the manifest for a StoragePaths pair: cloud-rooted
// entries first, compat-rooted entries after, each sub-list sorted
// lexicographically for determinism, every entry tagged with its
// origin. An empty manifest is valid; only an unreachable host is an
// error.
func (e *Enumerator) Enumerate(ctx context.Context, host core.Host, sp core.StoragePaths) (core.Manifest, error) {
	var m core.Manifest

	cloud, err := e.listRoot(ctx, host, sp.CloudRoot, core.OriginCloud)
	if err != nil {
		return nil, err
	}
	m = append(m, cloud...)

	compat, err := e.listRoot(ctx, host, sp.CompatSaveDir, core.OriginCompat)
	if err != nil {
		return nil, err
	}
	m = append(m, compat...)

	return m, nil
}

// listRoot lists one root, if present, as tagged entries sorted by
// path.
func (e *Enumerator) listRoot(ctx context.Context, host core.Host, root string, origin core.Origin) ([]core.ManifestEntry, error) {
	files, ok, err := remote.FindFiles(ctx, e.runner, host, root, e.extensions)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Absent root: nothing to enumerate
		return nil, nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	entries := make([]core.ManifestEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, core.ManifestEntry{
			Path:   f.Path,
			Origin: origin,
			Size:   f.Size,
		})
	}
	return entries, nil
}

// Summary holds per-origin counts for the plan report.
type Summary struct {
	CloudFiles  int   `json:"cloud_files" yaml:"cloud_files"`
	CompatFiles int   `json:"compat_files" yaml:"compat_files"`
	CloudBytes  int64 `json:"cloud_bytes" yaml:"cloud_bytes"`
	CompatBytes int64 `json:"compat_bytes" yaml:"compat_bytes"`
	TotalBytes  int64 `json:"total_bytes" yaml:"total_bytes"`
}

// Summarize computes per-origin file and byte counts.
func Summarize(m core.Manifest) Summary {
	var s Summary
	for _, e := range m {
		switch e.Origin {
		case core.OriginCloud:
			s.CloudFiles++
			s.CloudBytes += e.Size
		case core.OriginCompat:
			s.CompatFiles++
			s.CompatBytes += e.Size
		}
		s.TotalBytes += e.Size
	}
	return s
}
