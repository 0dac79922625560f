package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/remote/remotetest"
)

const testAppID = 620

func testHost(addr, base string) core.Host {
	return core.Host{Addr: addr, User: "deck", Port: 22, Library: base}
}

func cloudRoot(base string, id int) string {
	return fmt.Sprintf("%s/userdata/%d/%d/remote", base, id, testAppID)
}

func compatSaveDir(base string) string {
	return fmt.Sprintf("%s/steamapps/compatdata/%d/pfx/drive_c/users/steamuser", base, testAppID)
}

// seedProfile creates a userdata entry for id, plus cloud and compat
// save files. Either file map may be nil.
func seedProfile(h *remotetest.FakeHost, base string, id int, cloud, compat map[string]string) {
	h.Dirs[fmt.Sprintf("%s/userdata/%d", base, id)] = true
	if cloud != nil {
		root := cloudRoot(base, id)
		h.Dirs[root] = true
		for name, content := range cloud {
			h.AddFile(root+"/"+name, []byte(content))
		}
	}
	if compat != nil {
		h.Dirs[fmt.Sprintf("%s/steamapps/compatdata/%d", base, testAppID)] = true
		save := compatSaveDir(base)
		h.Dirs[save] = true
		for name, content := range compat {
			h.AddFile(save+"/"+name, []byte(content))
		}
	}
}

// seedNames installs a login-record blob mapping ids to display names.
func seedNames(h *remotetest.FakeHost, base string, names map[int]string) {
	blob := "\"users\"\n{\n"
	for id, name := range names {
		blob += fmt.Sprintf("\t\"%d\"\n\t{\n\t\t\"PersonaName\"\t\t\"%s\"\n\t}\n", id, name)
	}
	blob += "}\n"
	h.AddFile(base+"/config/loginusers.vdf", []byte(blob))
}

func newOrchestrator(fake *remotetest.Fake, opts Options) *Orchestrator {
	opts.AppID = testAppID
	return New(fake, fake, opts)
}

// Single source profile, empty destination: the run must fail at
// destination selection before any file is touched.
func TestRunFailsWhenDestinationHasNoProfiles(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, nil, map[string]string{
		"slot1.sav": "a", "slot2.sav": "b", "slot3.sav": "c",
	})
	seedNames(fake.Host("h1"), "/lib1", map[int]string{100: "Alice"})
	fake.Host("h2").Dirs["/lib2/userdata"] = true

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var notFound *core.ProfileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProfileNotFoundError, got %v", err)
	}
	if notFound.Host.Addr != "h2" {
		t.Errorf("error host = %q, want h2", notFound.Host.Addr)
	}
	if report.LastState() != core.StateSelectDest {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateSelectDest)
	}
	if len(fake.Copied) != 0 {
		t.Errorf("expected no copies, got %v", fake.Copied)
	}
}

// Exact-name selection on both sides, compat-rooted file lands in the
// destination profile's compat save dir.
func TestRunNamedSelectionCopiesCompatFile(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 11, map[string]string{
		"save1.sav": "x", "save2.sav": "y",
	}, nil)
	seedProfile(fake.Host("h1"), "/lib1", 22, nil, map[string]string{
		"quick.sav": "bob-data",
	})
	seedNames(fake.Host("h1"), "/lib1", map[int]string{11: "Alice", 22: "Bob"})
	seedProfile(fake.Host("h2"), "/lib2", 33, map[string]string{}, nil)
	seedNames(fake.Host("h2"), "/lib2", map[int]string{33: "Alice"})

	report, err := newOrchestrator(fake, Options{
		SourceUser:     "Bob",
		DestUser:       "Alice",
		NonInteractive: true,
	}).Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SourceProfile != "Bob" || report.DestProfile != "Alice" {
		t.Errorf("selected %q -> %q, want Bob -> Alice", report.SourceProfile, report.DestProfile)
	}
	if report.FilesCopied != 1 {
		t.Errorf("files copied = %d, want 1", report.FilesCopied)
	}

	want := compatSaveDir("/lib2") + "/quick.sav"
	if !reflect.DeepEqual(fake.Copied, []string{want}) {
		t.Errorf("copied paths = %v, want [%s]", fake.Copied, want)
	}
	if got := fake.Host("h2").Files[want]; string(got) != "bob-data" {
		t.Errorf("destination content = %q, want bob-data", got)
	}
	if !report.Verified {
		t.Error("expected report.Verified")
	}
}

// Two candidates, no names, non-interactive: ambiguity fails the run
// before any file operation.
func TestRunAmbiguousNonInteractive(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 10, map[string]string{"a.sav": "1"}, nil)
	seedProfile(fake.Host("h1"), "/lib1", 20, map[string]string{"b.sav": "2"}, nil)
	seedProfile(fake.Host("h2"), "/lib2", 30, map[string]string{}, nil)

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var ambiguous *core.AmbiguousSelectionError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousSelectionError, got %v", err)
	}
	if report.LastState() != core.StateSelectSource {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateSelectSource)
	}
	if len(fake.Copied) != 0 {
		t.Errorf("expected no copies, got %v", fake.Copied)
	}
}

// One of five files fails: the run finishes, reports the partial
// failure, and verification still passes on the surviving four.
func TestRunPartialCopy(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	cloud := map[string]string{}
	for i := 1; i <= 5; i++ {
		cloud[fmt.Sprintf("slot%d.sav", i)] = fmt.Sprintf("data%d", i)
	}
	seedProfile(fake.Host("h1"), "/lib1", 100, cloud, nil)
	seedProfile(fake.Host("h2"), "/lib2", 200, map[string]string{}, nil)

	broken := cloudRoot("/lib1", 100) + "/slot3.sav"
	fake.CopyErrors[broken] = errors.New("connection reset")

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var partial *core.PartialCopyError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialCopyError, got %v", err)
	}
	if partial.Failed != 1 || partial.Total != 5 {
		t.Errorf("partial = %d/%d, want 1/5", partial.Failed, partial.Total)
	}
	if report.FilesCopied != 4 || report.FilesFailed != 1 {
		t.Errorf("copied/failed = %d/%d, want 4/1", report.FilesCopied, report.FilesFailed)
	}
	if !reflect.DeepEqual(report.FailedPaths, []string{broken}) {
		t.Errorf("failed paths = %v, want [%s]", report.FailedPaths, broken)
	}
	if !report.Verified {
		t.Error("expected verification to pass on the surviving files")
	}
	if report.LastState() != core.StateDone {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateDone)
	}
}

// Dry run walks the full pipeline through enumeration and leaves the
// destination byte-identical.
func TestRunDryRunLeavesDestinationUntouched(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{
		"slot1.sav": "a",
	}, map[string]string{
		"profile.ini": "b",
	})
	seedProfile(fake.Host("h2"), "/lib2", 200, map[string]string{
		"old.sav": "keep me",
	}, nil)

	before := fake.Snapshot("h2")

	report, err := newOrchestrator(fake, Options{
		DryRun:         true,
		Backup:         true,
		NonInteractive: true,
	}).Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	after := fake.Snapshot("h2")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("destination changed during dry run:\nbefore %v\nafter  %v", before, after)
	}
	if !report.DryRun {
		t.Error("report.DryRun not set")
	}
	if report.CloudFiles != 1 || report.CompatFiles != 1 {
		t.Errorf("cloud/compat = %d/%d, want 1/1", report.CloudFiles, report.CompatFiles)
	}
	if len(report.Backups) != 0 {
		t.Errorf("dry run created backups: %v", report.Backups)
	}
	if report.LastState() != core.StateDone {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateDone)
	}
}

// Cloud files go under the destination cloud root for the destination's
// own id; compat files go under the destination compat save dir. The
// origin tag decides, never the source layout.
func TestRunRoutesByOrigin(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{
		"cloud.sav": "c",
	}, map[string]string{
		"local.cfg": "l",
	})
	seedProfile(fake.Host("h2"), "/lib2", 999, map[string]string{}, nil)

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantCloud := cloudRoot("/lib2", 999) + "/cloud.sav"
	wantCompat := compatSaveDir("/lib2") + "/local.cfg"
	dst := fake.Host("h2")
	if _, ok := dst.Files[wantCloud]; !ok {
		t.Errorf("cloud file not at %s; copied: %v", wantCloud, fake.Copied)
	}
	if _, ok := dst.Files[wantCompat]; !ok {
		t.Errorf("compat file not at %s; copied: %v", wantCompat, fake.Copied)
	}
	if report.FilesCopied != 2 {
		t.Errorf("files copied = %d, want 2", report.FilesCopied)
	}
}

func TestRunBackupBeforeCopy(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{
		"slot1.sav": "new",
	}, nil)
	seedProfile(fake.Host("h2"), "/lib2", 200, map[string]string{
		"slot1.sav": "old",
	}, nil)

	report, err := newOrchestrator(fake, Options{
		Backup:         true,
		NonInteractive: true,
	}).Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Backups) != 1 {
		t.Fatalf("backups = %v, want one cloud-root backup", report.Backups)
	}

	// The pre-copy content must survive under the backup root
	found := false
	for p, content := range fake.Host("h2").Files {
		if p != report.Backups[0]+"/slot1.sav" {
			continue
		}
		found = true
		if string(content) != "old" {
			t.Errorf("backup content = %q, want old", content)
		}
	}
	if !found {
		t.Errorf("no backed-up file under %s", report.Backups[0])
	}

	// And the live root carries the new content
	live := cloudRoot("/lib2", 200) + "/slot1.sav"
	if got := fake.Host("h2").Files[live]; string(got) != "new" {
		t.Errorf("live content = %q, want new", got)
	}
}

func TestRunProvisionPolicyUsesOnlyCandidate(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{"a.sav": "1"}, nil)
	seedNames(fake.Host("h1"), "/lib1", map[int]string{100: "Bob"})
	seedProfile(fake.Host("h2"), "/lib2", 300, map[string]string{}, nil)
	seedNames(fake.Host("h2"), "/lib2", map[int]string{300: "Alice"})

	report, err := newOrchestrator(fake, Options{
		SourceUser:     "Bob",
		DestUser:       "Bob",
		NonInteractive: true,
		OnMissingDest:  core.MissingDestProvision,
	}).Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.DestProfile != "Alice" {
		t.Errorf("dest profile = %q, want Alice", report.DestProfile)
	}
	if len(report.Notes) == 0 {
		t.Error("expected a provision note in the report")
	}
}

// The default policy still fails on a missing named destination even
// when there is a single candidate.
func TestRunMissingDestFailsByDefault(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{"a.sav": "1"}, nil)
	seedNames(fake.Host("h1"), "/lib1", map[int]string{100: "Bob"})
	seedProfile(fake.Host("h2"), "/lib2", 300, map[string]string{}, nil)
	seedNames(fake.Host("h2"), "/lib2", map[int]string{300: "Alice"})

	_, err := newOrchestrator(fake, Options{
		SourceUser:     "Bob",
		DestUser:       "Bob",
		NonInteractive: true,
	}).Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var notFound *core.ProfileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProfileNotFoundError, got %v", err)
	}
}

func TestRunEmptyManifestFails(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	// Cloud root exists but holds nothing transferable
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{}, nil)
	seedProfile(fake.Host("h2"), "/lib2", 200, map[string]string{}, nil)

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var noFiles *core.NoSourceFilesError
	if !errors.As(err, &noFiles) {
		t.Fatalf("expected NoSourceFilesError, got %v", err)
	}
	if report.LastState() != core.StateEnumerate {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateEnumerate)
	}
}

func TestRunUnreachableDestination(t *testing.T) {
	fake := remotetest.New("h1", "h2")
	seedProfile(fake.Host("h1"), "/lib1", 100, map[string]string{"a.sav": "1"}, nil)
	fake.Unreachable["h2"] = true

	report, err := newOrchestrator(fake, Options{NonInteractive: true}).
		Run(context.Background(), testHost("h1", "/lib1"), testHost("h2", "/lib2"))

	var unreachable *core.UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
	if unreachable.Host.Addr != "h2" {
		t.Errorf("error host = %q, want h2", unreachable.Host.Addr)
	}
	if report.LastState() != core.StateConnectivityCheck {
		t.Errorf("last state = %q, want %q", report.LastState(), core.StateConnectivityCheck)
	}
}
