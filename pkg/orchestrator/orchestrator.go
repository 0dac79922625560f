// Package orchestrator sequences a migration run: discovery,
// selection, enumeration, backup, copy and verification across the two
// hosts, as a linear state machine with no cycles.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/saveshift/saveshift/pkg/backup"
	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/discover"
	"github.com/saveshift/saveshift/pkg/manifest"
	"github.com/saveshift/saveshift/pkg/paths"
	"github.com/saveshift/saveshift/pkg/profilesel"
)

// Options contains the run parameters fixed at start.
type Options struct {
	SourceUser     string // exact source profile name, empty for count-based selection
	DestUser       string // exact destination profile name
	AppID          int
	Extensions     []string
	DryRun         bool
	Backup         bool
	Verbose        bool
	NonInteractive bool
	OnMissingDest  core.MissingDestPolicy
}

// Orchestrator coordinates a single run. All host operations are
// synchronous remote round-trips executed strictly in state order.
type Orchestrator struct {
	runner   core.Runner
	copier   core.Copier
	prompter core.Prompter
	progress core.ProgressReporter
	log      io.Writer
	opts     Options
}

// New creates an orchestrator.
func New(runner core.Runner, copier core.Copier, opts Options) *Orchestrator {
	if opts.OnMissingDest == "" {
		opts.OnMissingDest = core.MissingDestFail
	}
	return &Orchestrator{
		runner: runner,
		copier: copier,
		log:    io.Discard,
		opts:   opts,
	}
}

// WithPrompter sets the operator input source for interactive
// selection.
func (o *Orchestrator) WithPrompter(prompter core.Prompter) *Orchestrator {
	o.prompter = prompter
	return o
}

// WithProgress sets a progress reporter for the copy stage.
func (o *Orchestrator) WithProgress(reporter core.ProgressReporter) *Orchestrator {
	o.progress = reporter
	return o
}

// WithLog sets the destination for verbose step logging.
func (o *Orchestrator) WithLog(w io.Writer) *Orchestrator {
	o.log = w
	return o
}

// Run executes the state machine:
//
//	Init → ConnectivityCheck → Discover(Source) → Discover(Dest) →
//	Select(Source) → Select(Dest) → Enumerate(Source) →
//	[Backup(Dest)] → Copy → Verify → Done
//
// The returned report is valid even when the error is non-nil; it
// records how far the run got. A dry run executes everything through
// enumeration against the real hosts and reports without mutating
// either host.
func (o *Orchestrator) Run(ctx context.Context, source, dest core.Host) (*core.RunReport, error) {
	report := &core.RunReport{
		Source: source.String(),
		Dest:   dest.String(),
		DryRun: o.opts.DryRun,
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	report.Enter(core.StateInit)

	// Both hosts must be reachable before any discovery
	report.Enter(core.StateConnectivityCheck)
	for _, host := range []core.Host{source, dest} {
		o.logf("checking connectivity to %s", host)
		if err := o.ping(ctx, host); err != nil {
			return report, err
		}
	}

	d := discover.New(o.runner, o.opts.AppID, o.opts.Extensions)

	report.Enter(core.StateDiscoverSource)
	o.logf("discovering profiles on %s", source)
	sourceProfiles, err := d.Discover(ctx, source)
	if err != nil {
		return report, err
	}
	o.logf("found %d candidate(s) on %s", len(sourceProfiles), source)

	report.Enter(core.StateDiscoverDest)
	o.logf("discovering profiles on %s", dest)
	destProfiles, err := d.Discover(ctx, dest)
	if err != nil {
		return report, err
	}
	o.logf("found %d candidate(s) on %s", len(destProfiles), dest)

	selector := profilesel.New(o.prompter, !o.opts.NonInteractive)

	report.Enter(core.StateSelectSource)
	sourceProfile, err := selector.Select(source, sourceProfiles, o.opts.SourceUser)
	if err != nil {
		return report, err
	}
	report.SourceProfile = sourceProfile.Name
	o.logf("selected source profile %q (id %d)", sourceProfile.Name, sourceProfile.ID)

	report.Enter(core.StateSelectDest)
	destProfile, err := o.selectDest(selector, dest, destProfiles, report)
	if err != nil {
		return report, err
	}
	report.DestProfile = destProfile.Name
	o.logf("selected destination profile %q (id %d)", destProfile.Name, destProfile.ID)

	sourcePaths, err := paths.Resolve(source.Library, sourceProfile.ID, o.opts.AppID)
	if err != nil {
		return report, err
	}
	destPaths, err := paths.Resolve(dest.Library, destProfile.ID, o.opts.AppID)
	if err != nil {
		return report, err
	}

	report.Enter(core.StateEnumerate)
	enum := manifest.New(o.runner, o.opts.Extensions)
	files, err := enum.Enumerate(ctx, source, sourcePaths)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		// Nothing meaningful to copy
		return report, &core.NoSourceFilesError{Host: source, Profile: sourceProfile}
	}

	summary := manifest.Summarize(files)
	report.CloudFiles = summary.CloudFiles
	report.CompatFiles = summary.CompatFiles
	report.BytesTotal = summary.TotalBytes
	o.logf("enumerated %d file(s), %d bytes", len(files), summary.TotalBytes)

	// The plan is immutable from here; copy and verify consume it
	// without re-selecting anything
	plan := &core.TransferPlan{
		Source:        source,
		Dest:          dest,
		SourceProfile: sourceProfile,
		DestProfile:   destProfile,
		SourcePaths:   sourcePaths,
		DestPaths:     destPaths,
		Manifest:      files,
	}

	if o.opts.DryRun {
		// Report-only from here: no directories, no backups, no
		// copies
		o.logf("dry run: skipping backup, copy and verification")
		report.Enter(core.StateDone)
		return report, nil
	}

	if o.opts.Backup {
		report.Enter(core.StateBackup)
		created, warnings := backup.New(o.runner).Backup(ctx, dest, destPaths)
		report.Backups = created
		for _, w := range warnings {
			// Backup failures never block the copy
			o.warnf("backup warning: %v", w)
			report.Notes = append(report.Notes, fmt.Sprintf("backup warning: %v", w))
		}
		for _, b := range created {
			o.logf("backed up %s", b)
		}
	}

	report.Enter(core.StateCopy)
	if err := o.copy(ctx, plan, report); err != nil {
		return report, err
	}

	report.Enter(core.StateVerify)
	destFiles, err := enum.Enumerate(ctx, dest, destPaths)
	if err != nil {
		return report, err
	}
	if len(destFiles) == 0 {
		// Copies may have individually reported success; an empty
		// destination still fails the run
		return report, &core.VerificationFailedError{Host: dest, Profile: destProfile}
	}
	report.Verified = true
	o.logf("verified %d file(s) on destination", len(destFiles))

	report.Enter(core.StateDone)

	if report.FilesFailed > 0 {
		return report, &core.PartialCopyError{Failed: report.FilesFailed, Total: len(plan.Manifest)}
	}
	return report, nil
}

// selectDest applies the missing-destination policy on top of plain
// selection.
func (o *Orchestrator) selectDest(selector *profilesel.Selector, dest core.Host, profiles []core.Profile, report *core.RunReport) (core.Profile, error) {
	profile, err := selector.Select(dest, profiles, o.opts.DestUser)
	if err == nil {
		return profile, nil
	}

	notFound, ok := err.(*core.ProfileNotFoundError)
	if !ok || notFound.Name == "" || o.opts.OnMissingDest != core.MissingDestProvision {
		return core.Profile{}, err
	}

	// provision policy: proceed into the only candidate, never guess
	// among several
	if len(profiles) != 1 {
		return core.Profile{}, err
	}

	note := fmt.Sprintf("destination profile %q not found; proceeding into %q (id %d) per provision policy",
		o.opts.DestUser, profiles[0].Name, profiles[0].ID)
	o.warnf("%s", note)
	report.Notes = append(report.Notes, note)
	return profiles[0], nil
}

// copy routes every manifest entry to the destination root matching its
// origin tag and copies it. A per-file failure is logged and skipped;
// the run continues.
func (o *Orchestrator) copy(ctx context.Context, plan *core.TransferPlan, report *core.RunReport) error {
	total := int64(len(plan.Manifest))
	if o.progress != nil {
		o.progress.Start(total, fmt.Sprintf("Copying %d file(s)", total))
	}

	var done int64
	for _, entry := range plan.Manifest {
		dstPath, err := routeEntry(entry, plan.SourcePaths, plan.DestPaths)
		if err != nil {
			return err
		}

		if err := o.copier.CopyFile(ctx, plan.Source, entry.Path, plan.Dest, dstPath); err != nil {
			o.warnf("copy %s: %v", entry.Path, err)
			report.FilesFailed++
			report.FailedPaths = append(report.FailedPaths, entry.Path)
			continue
		}

		report.FilesCopied++
		done++
		if o.progress != nil {
			o.progress.Update(done, entry.Path)
		}
		o.logf("copied %s -> %s", entry.Path, dstPath)
	}

	if o.progress != nil {
		if report.FilesFailed > 0 {
			o.progress.Error(fmt.Errorf("%d of %d files failed", report.FilesFailed, total))
		} else {
			o.progress.Complete(fmt.Sprintf("Copied %d file(s)", report.FilesCopied))
		}
	}
	return nil
}

// routeEntry maps a source file to its destination path. The
// destination root is determined solely by the entry's origin tag.
func routeEntry(entry core.ManifestEntry, src, dst core.StoragePaths) (string, error) {
	var srcRoot, dstRoot string
	switch entry.Origin {
	case core.OriginCloud:
		srcRoot, dstRoot = src.CloudRoot, dst.CloudRoot
	case core.OriginCompat:
		srcRoot, dstRoot = src.CompatSaveDir, dst.CompatSaveDir
	default:
		return "", fmt.Errorf("unknown origin tag %q for %s", entry.Origin, entry.Path)
	}

	rel := strings.TrimPrefix(entry.Path, srcRoot)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == entry.Path {
		return "", fmt.Errorf("file %s is not rooted under %s", entry.Path, srcRoot)
	}

	return path.Join(dstRoot, rel), nil
}

// ping verifies a host answers a no-op command.
func (o *Orchestrator) ping(ctx context.Context, host core.Host) error {
	result, err := o.runner.Run(ctx, host, "true")
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &core.UnreachableError{Host: host, Err: fmt.Errorf("probe command exited %d", result.ExitCode)}
	}
	return nil
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.opts.Verbose {
		fmt.Fprintf(o.log, format+"\n", args...)
	}
}

// warnf always writes; warnings are reported even without --verbose.
func (o *Orchestrator) warnf(format string, args ...interface{}) {
	fmt.Fprintf(o.log, "warning: "+format+"\n", args...)
}
