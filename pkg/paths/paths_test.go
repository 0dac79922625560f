package paths

import (
	"testing"
)

func TestResolve(t *testing.T) {
	sp, err := Resolve(".local/share/Steam", 101, 570)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if sp.CloudRoot != ".local/share/Steam/userdata/101/570/remote" {
		t.Errorf("Unexpected cloud root: %s", sp.CloudRoot)
	}

	if sp.CompatRoot != ".local/share/Steam/steamapps/compatdata/570" {
		t.Errorf("Unexpected compat root: %s", sp.CompatRoot)
	}

	if sp.CompatSaveDir != ".local/share/Steam/steamapps/compatdata/570/pfx/drive_c/users/steamuser" {
		t.Errorf("Unexpected compat save dir: %s", sp.CompatSaveDir)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	a, err := Resolve("/srv/steam", 42, 1091500)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	b, err := Resolve("/srv/steam", 42, 1091500)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if a != b {
		t.Errorf("Resolve is not idempotent: %+v != %+v", a, b)
	}
}

func TestResolve_NegativeID(t *testing.T) {
	_, err := Resolve("/srv/steam", -1, 570)
	if err == nil {
		t.Error("Expected error for negative id, got nil")
	}
}

func TestResolve_BadAppID(t *testing.T) {
	_, err := Resolve("/srv/steam", 1, 0)
	if err == nil {
		t.Error("Expected error for zero app id, got nil")
	}
}

func TestHasSaveExtension(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"slot1.sav", true},
		{"profile.json", true},
		{"settings.cfg", true},
		{"texture.png", false},
		{"noext", false},
	}

	for _, c := range cases {
		if got := HasSaveExtension(c.name, nil); got != c.want {
			t.Errorf("HasSaveExtension(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestHasSaveExtension_CustomSet(t *testing.T) {
	if !HasSaveExtension("world.db", []string{".db"}) {
		t.Error("Expected .db to match custom extension set")
	}
	if HasSaveExtension("slot1.sav", []string{".db"}) {
		t.Error("Expected .sav to miss custom extension set")
	}
}
