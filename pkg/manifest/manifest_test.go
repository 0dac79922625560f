package manifest

import (
	"context"
	"testing"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/paths"
	"github.com/saveshift/saveshift/pkg/remote/remotetest"
)

var testHost = core.Host{Addr: "h1", User: "steam", Port: 22, Library: "/srv/steam"}

func testPaths(t *testing.T, id int) core.StoragePaths {
	t.Helper()
	sp, err := paths.Resolve("/srv/steam", id, 570)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return sp
}

func TestEnumerate_OrderAndTags(t *testing.T) {
	fake := remotetest.New("h1")
	fs := fake.Host("h1")

	sp := testPaths(t, 101)

	// Insert out of order to prove sorting
	fs.AddFile(sp.CloudRoot+"/zz.sav", []byte("zz"))
	fs.AddFile(sp.CloudRoot+"/aa.sav", []byte("aa"))
	fs.AddFile(sp.CompatSaveDir+"/Documents/game.cfg", []byte("cfg"))
	fs.AddFile(sp.CloudRoot+"/skip.png", []byte("not a save"))

	m, err := New(fake, nil).Enumerate(context.Background(), testHost, sp)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	if len(m) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %v", len(m), m)
	}

	// Cloud-rooted results precede compat-rooted results
	if m[0].Path != sp.CloudRoot+"/aa.sav" || m[0].Origin != core.OriginCloud {
		t.Errorf("Unexpected first entry: %+v", m[0])
	}
	if m[1].Path != sp.CloudRoot+"/zz.sav" || m[1].Origin != core.OriginCloud {
		t.Errorf("Unexpected second entry: %+v", m[1])
	}
	if m[2].Origin != core.OriginCompat {
		t.Errorf("Expected compat entry last: %+v", m[2])
	}
}

func TestEnumerate_EmptyIsNotAnError(t *testing.T) {
	fake := remotetest.New("h1")

	m, err := New(fake, nil).Enumerate(context.Background(), testHost, testPaths(t, 101))
	if err != nil {
		t.Fatalf("Expected empty manifest, got error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("Expected empty manifest, got %v", m)
	}
}

func TestEnumerate_UnreachableHost(t *testing.T) {
	fake := remotetest.New("h1")
	fake.Unreachable["h1"] = true

	_, err := New(fake, nil).Enumerate(context.Background(), testHost, testPaths(t, 101))
	if err == nil {
		t.Fatal("Expected error for unreachable host")
	}
	if _, ok := err.(*core.UnreachableError); !ok {
		t.Errorf("Expected UnreachableError, got %T", err)
	}
}

func TestSummarize(t *testing.T) {
	m := core.Manifest{
		{Path: "/a.sav", Origin: core.OriginCloud, Size: 10},
		{Path: "/b.sav", Origin: core.OriginCloud, Size: 20},
		{Path: "/c.cfg", Origin: core.OriginCompat, Size: 5},
	}

	s := Summarize(m)

	if s.CloudFiles != 2 || s.CompatFiles != 1 {
		t.Errorf("Unexpected counts: %+v", s)
	}
	if s.CloudBytes != 30 || s.CompatBytes != 5 || s.TotalBytes != 35 {
		t.Errorf("Unexpected byte totals: %+v", s)
	}
}
