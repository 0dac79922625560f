package backup

import (
	"context"
	"testing"
	"time"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/paths"
	"github.com/saveshift/saveshift/pkg/remote/remotetest"
)

var testHost = core.Host{Addr: "h2", User: "steam", Port: 22, Library: "/srv/steam"}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func TestBackup_ExistingRoots(t *testing.T) {
	fake := remotetest.New("h2")
	fs := fake.Host("h2")

	sp, err := paths.Resolve("/srv/steam", 101, 570)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	fs.AddFile(sp.CloudRoot+"/slot1.sav", []byte("cloud"))
	fs.AddFile(sp.CompatSaveDir+"/game.cfg", []byte("compat"))

	m := New(fake).WithClock(fixedClock)
	created, warnings := m.Backup(context.Background(), testHost, sp)

	if len(warnings) != 0 {
		t.Fatalf("Unexpected warnings: %v", warnings)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 backups, got %d: %v", len(created), created)
	}

	wantCloud := sp.CloudRoot + ".bak-20240315-103000"
	if created[0] != wantCloud {
		t.Errorf("Expected %s, got %s", wantCloud, created[0])
	}

	// The copy actually landed
	if _, ok := fs.Files[wantCloud+"/slot1.sav"]; !ok {
		t.Error("Expected backed-up cloud file to exist")
	}
}

func TestBackup_MissingRootsSkipped(t *testing.T) {
	fake := remotetest.New("h2")

	sp, err := paths.Resolve("/srv/steam", 101, 570)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	created, warnings := New(fake).WithClock(fixedClock).Backup(context.Background(), testHost, sp)

	if len(warnings) != 0 {
		t.Errorf("Nothing to back up must not warn, got %v", warnings)
	}
	if len(created) != 0 {
		t.Errorf("Expected no backups, got %v", created)
	}
}

func TestBackup_BestEffort(t *testing.T) {
	fake := remotetest.New("h2")
	fake.Unreachable["h2"] = true

	sp, err := paths.Resolve("/srv/steam", 101, 570)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	created, warnings := New(fake).WithClock(fixedClock).Backup(context.Background(), testHost, sp)

	// Failures are warnings, never fatal
	if len(created) != 0 {
		t.Errorf("Expected no backups, got %v", created)
	}
	if len(warnings) != 2 {
		t.Errorf("Expected a warning per root, got %v", warnings)
	}
}
