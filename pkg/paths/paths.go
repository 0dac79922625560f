// Package paths maps a (host library base, profile id) pair to the two
// candidate storage roots for that profile. Pure computation, no I/O.
package paths

import (
	"fmt"
	"path"

	"github.com/saveshift/saveshift/pkg/core"
)

// compatSaveSubpath is the fixed save-data subpath inside the
// compatibility-layer prefix.
const compatSaveSubpath = "pfx/drive_c/users/steamuser"

// SaveExtensions is the fixed set of save/config/preference file name
// extensions considered transferable.
var SaveExtensions = []string{
	".sav", ".save", ".dat", ".cfg", ".ini", ".bak", ".profile", ".json",
}

// Resolve computes the StoragePaths pair for a profile id within a
// library base. Running it twice with the same inputs yields identical
// results. The id must be a non-negative integer; the app id must be
// positive.
func Resolve(base string, id int, appID int) (core.StoragePaths, error) {
	if id < 0 {
		return core.StoragePaths{}, fmt.Errorf("profile id must be non-negative, got %d", id)
	}
	if appID <= 0 {
		return core.StoragePaths{}, fmt.Errorf("app id must be positive, got %d", appID)
	}

	cloudRoot := path.Join(base, "userdata", fmt.Sprintf("%d", id), fmt.Sprintf("%d", appID), "remote")
	compatRoot := path.Join(base, "steamapps", "compatdata", fmt.Sprintf("%d", appID))

	return core.StoragePaths{
		CloudRoot:     cloudRoot,
		CompatRoot:    compatRoot,
		CompatSaveDir: path.Join(compatRoot, compatSaveSubpath),
	}, nil
}

// UserdataDir returns the directory whose numeric children are the
// local profile ids.
func UserdataDir(base string) string {
	return path.Join(base, "userdata")
}

// LoginRecordPath returns the path of the login-record blob on a host.
func LoginRecordPath(base string) string {
	return path.Join(base, "config", "loginusers.vdf")
}

// HasSaveExtension reports whether a file name carries one of the
// transferable extensions.
func HasSaveExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		extensions = SaveExtensions
	}
	ext := path.Ext(name)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
