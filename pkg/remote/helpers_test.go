package remote

import (
	"context"
	"testing"

	"github.com/saveshift/saveshift/pkg/core"
	"github.com/saveshift/saveshift/pkg/remote/remotetest"
)

var testHost = core.Host{Addr: "h1", User: "steam", Port: 22}

func TestPathExists(t *testing.T) {
	fake := remotetest.New("h1")
	fake.Host("h1").AddFile("/srv/steam/userdata/101/570/remote/slot1.sav", []byte("x"))

	ctx := context.Background()

	exists, err := PathExists(ctx, fake, testHost, "/srv/steam/userdata/101/570/remote/slot1.sav")
	if err != nil {
		t.Fatalf("PathExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected file to exist")
	}

	exists, err = PathExists(ctx, fake, testHost, "/srv/steam/userdata/999")
	if err != nil {
		t.Fatalf("PathExists failed: %v", err)
	}
	if exists {
		t.Error("Expected path to be absent")
	}
}

func TestListDir(t *testing.T) {
	fake := remotetest.New("h1")
	fake.Host("h1").AddFile("/srv/steam/userdata/101/x", []byte("a"))
	fake.Host("h1").AddFile("/srv/steam/userdata/202/x", []byte("b"))
	fake.Host("h1").AddFile("/srv/steam/userdata/notanid/x", []byte("c"))

	entries, ok, err := ListDir(context.Background(), fake, testHost, "/srv/steam/userdata")
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected directory to exist")
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %v", len(entries), entries)
	}
	if entries[0] != "101" || entries[1] != "202" || entries[2] != "notanid" {
		t.Errorf("Unexpected entries: %v", entries)
	}
}

func TestListDir_Absent(t *testing.T) {
	fake := remotetest.New("h1")

	_, ok, err := ListDir(context.Background(), fake, testHost, "/nope")
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if ok {
		t.Error("Expected absent directory")
	}
}

func TestReadFile(t *testing.T) {
	fake := remotetest.New("h1")
	fake.Host("h1").AddFile("/srv/steam/config/loginusers.vdf", []byte("\"users\"\n{\n}\n"))

	content, ok, err := ReadFile(context.Background(), fake, testHost, "/srv/steam/config/loginusers.vdf")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected file to exist")
	}
	if string(content) != "\"users\"\n{\n}\n" {
		t.Errorf("Unexpected content: %q", content)
	}

	_, ok, err = ReadFile(context.Background(), fake, testHost, "/missing")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if ok {
		t.Error("Expected missing file to report absent")
	}
}

func TestFindFiles(t *testing.T) {
	fake := remotetest.New("h1")
	fs := fake.Host("h1")
	fs.AddFile("/srv/save/slot1.sav", []byte("aaaa"))
	fs.AddFile("/srv/save/deep/slot2.sav", []byte("bb"))
	fs.AddFile("/srv/save/readme.txt", []byte("not a save"))

	files, ok, err := FindFiles(context.Background(), fake, testHost, "/srv/save", []string{".sav", ".cfg"})
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected root to exist")
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d: %v", len(files), files)
	}

	for _, f := range files {
		if f.Path == "/srv/save/slot1.sav" && f.Size != 4 {
			t.Errorf("Expected size 4 for slot1.sav, got %d", f.Size)
		}
	}
}

func TestFindFiles_AbsentRoot(t *testing.T) {
	fake := remotetest.New("h1")

	_, ok, err := FindFiles(context.Background(), fake, testHost, "/missing", []string{".sav"})
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}
	if ok {
		t.Error("Expected absent root")
	}
}

func TestUnreachableHost(t *testing.T) {
	fake := remotetest.New("h1")
	fake.Unreachable["h1"] = true

	_, err := fake.Run(context.Background(), testHost, "true")
	if err == nil {
		t.Fatal("Expected error for unreachable host")
	}

	if _, ok := err.(*core.UnreachableError); !ok {
		t.Errorf("Expected UnreachableError, got %T", err)
	}
}
