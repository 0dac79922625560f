package core

import (
	"fmt"
	"time"
)

// Host identifies one side of a migration. It is immutable for the
// duration of a run.
type Host struct {
	Addr    string // hostname or address
	User    string // transport credential user
	Port    int    // transport port
	Library string // game library base path on the host
}

// String returns a short user@host form for messages.
func (h Host) String() string {
	return fmt.Sprintf("%s@%s", h.User, h.Addr)
}

// Profile is a local user identity on a host that may own save data.
type Profile struct {
	ID            int    // numeric local-user id, unique per host
	Name          string // display name, synthetic fallback when unresolvable
	HasCloudData  bool   // save content in the cloud-style store
	HasCompatData bool   // save content in the compatibility-layer store
}

// HasData reports whether the profile owns save data in either store.
func (p Profile) HasData() bool {
	return p.HasCloudData || p.HasCompatData
}

// StoragePaths is the pair of candidate storage roots for a profile.
// It is computed deterministically from (host library base, profile id)
// and never persisted.
type StoragePaths struct {
	CloudRoot     string // per-profile, per-application cloud-style root
	CompatRoot    string // shared compatibility-layer root
	CompatSaveDir string // fixed save-data subpath inside CompatRoot
}

// Origin tags a manifest entry with the storage kind it was enumerated
// under. The destination root a file is copied to is determined solely
// by this tag.
type Origin string

const (
	OriginCloud  Origin = "cloud"
	OriginCompat Origin = "compat"
)

// ManifestEntry is one transferable file.
type ManifestEntry struct {
	Path   string // absolute path on the source host
	Origin Origin
	Size   int64 // bytes, best-effort from the listing
}

// Manifest is the ordered, origin-tagged list of transferable files for
// a profile. An empty manifest is valid and means "profile has no
// transferable files".
type Manifest []ManifestEntry

// CountByOrigin returns the number of entries with the given tag.
func (m Manifest) CountByOrigin(origin Origin) int {
	n := 0
	for _, e := range m {
		if e.Origin == origin {
			n++
		}
	}
	return n
}

// TotalBytes returns the summed size of all entries.
func (m Manifest) TotalBytes() int64 {
	var total int64
	for _, e := range m {
		total += e.Size
	}
	return total
}

// TransferPlan is built once selection and enumeration complete and is
// immutable from then on; the copy and verify stages consume it without
// mutating shared selection state.
type TransferPlan struct {
	Source        Host
	Dest          Host
	SourceProfile Profile
	DestProfile   Profile
	SourcePaths   StoragePaths
	DestPaths     StoragePaths
	Manifest      Manifest
}

// RunState represents the orchestrator's position in its linear state
// machine.
type RunState string

const (
	StateInit              RunState = "init"
	StateConnectivityCheck RunState = "connectivity-check"
	StateDiscoverSource    RunState = "discover-source"
	StateDiscoverDest      RunState = "discover-dest"
	StateSelectSource      RunState = "select-source"
	StateSelectDest        RunState = "select-dest"
	StateEnumerate         RunState = "enumerate"
	StateBackup            RunState = "backup"
	StateCopy              RunState = "copy"
	StateVerify            RunState = "verify"
	StateDone              RunState = "done"
)

// StateTransition records when the run entered a state.
type StateTransition struct {
	State RunState  `json:"state" yaml:"state"`
	At    time.Time `json:"at" yaml:"at"`
}

// RunReport is the in-memory record of a run. It is rendered at the end
// of the run and never persisted; timestamped backups on the destination
// host are the only state the tool leaves behind.
type RunReport struct {
	Source        string            `json:"source" yaml:"source"`
	Dest          string            `json:"dest" yaml:"dest"`
	SourceProfile string            `json:"source_profile,omitempty" yaml:"source_profile,omitempty"`
	DestProfile   string            `json:"dest_profile,omitempty" yaml:"dest_profile,omitempty"`
	DryRun        bool              `json:"dry_run" yaml:"dry_run"`
	States        []StateTransition `json:"states" yaml:"states"`
	CloudFiles    int               `json:"cloud_files" yaml:"cloud_files"`
	CompatFiles   int               `json:"compat_files" yaml:"compat_files"`
	BytesTotal    int64             `json:"bytes_total" yaml:"bytes_total"`
	FilesCopied   int               `json:"files_copied" yaml:"files_copied"`
	FilesFailed   int               `json:"files_failed" yaml:"files_failed"`
	FailedPaths   []string          `json:"failed_paths,omitempty" yaml:"failed_paths,omitempty"`
	Backups       []string          `json:"backups,omitempty" yaml:"backups,omitempty"`
	Verified      bool              `json:"verified" yaml:"verified"`
	Duration      time.Duration     `json:"duration" yaml:"duration"`
	Notes         []string          `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Enter appends a state transition to the report.
func (r *RunReport) Enter(state RunState) {
	r.States = append(r.States, StateTransition{State: state, At: time.Now()})
}

// LastState returns the most recently entered state.
func (r *RunReport) LastState() RunState {
	if len(r.States) == 0 {
		return StateInit
	}
	return r.States[len(r.States)-1].State
}

// CommandResult contains the result of a remote command execution.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// MissingDestPolicy decides what happens when a destination profile name
// was supplied but does not exist on the destination host.
type MissingDestPolicy string

const (
	// MissingDestFail fails the run with ProfileNotFound before any
	// file operation. This is the default.
	MissingDestFail MissingDestPolicy = "fail"

	// MissingDestProvision proceeds into the destination's only
	// discovered candidate and notes the name mismatch in the report.
	// It is rejected when the destination has more than one candidate.
	MissingDestProvision MissingDestPolicy = "provision"
)
