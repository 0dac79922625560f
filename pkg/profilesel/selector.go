// Package profilesel resolves a discovered profile set to exactly one
// profile, by exact name match or by operator choice.
package profilesel

import (
	"fmt"

	"github.com/saveshift/saveshift/pkg/core"
)

// Selector picks one profile from a candidate set. Selection is made
// once per run and never revisited.
type Selector struct {
	prompter    core.Prompter
	interactive bool
}

// New creates a selector. A nil prompter forces non-interactive
// behavior regardless of the interactive flag.
func New(prompter core.Prompter, interactive bool) *Selector {
	if prompter == nil {
		interactive = false
	}
	return &Selector{
		prompter:    prompter,
		interactive: interactive,
	}
}

// Select resolves the candidate set to one profile. With a target name
// it requires an exact display-name match; without one it auto-selects
// a single candidate, prompts when interactive, and fails as ambiguous
// otherwise.
func (s *Selector) Select(host core.Host, profiles []core.Profile, targetName string) (core.Profile, error) {
	if targetName != "" {
		return s.selectByName(host, profiles, targetName)
	}
	return s.selectByCount(host, profiles)
}

// selectByName scans for an exact display-name match. There is no
// fuzzy fallback.
func (s *Selector) selectByName(host core.Host, profiles []core.Profile, targetName string) (core.Profile, error) {
	for _, p := range profiles {
		if p.Name == targetName {
			return p, nil
		}
	}
	return core.Profile{}, &core.ProfileNotFoundError{Host: host, Name: targetName}
}

// selectByCount auto-selects a lone candidate and otherwise defers to
// the operator or fails.
func (s *Selector) selectByCount(host core.Host, profiles []core.Profile) (core.Profile, error) {
	switch {
	case len(profiles) == 0:
		return core.Profile{}, &core.ProfileNotFoundError{Host: host}

	case len(profiles) == 1:
		return profiles[0], nil

	case !s.interactive:
		return core.Profile{}, &core.AmbiguousSelectionError{Host: host, Count: len(profiles)}
	}

	options := make([]string, len(profiles))
	for i, p := range profiles {
		options[i] = describe(p)
	}

	choice, err := s.prompter.Pick(fmt.Sprintf("Select profile on %s", host), options)
	if err != nil {
		// Invalid operator input fails the selection; the caller
		// must restart the run
		return core.Profile{}, &core.AmbiguousSelectionError{Host: host, Count: len(profiles), Reason: err.Error()}
	}
	if choice < 0 || choice >= len(profiles) {
		return core.Profile{}, &core.AmbiguousSelectionError{Host: host, Count: len(profiles), Reason: fmt.Sprintf("selection %d out of range", choice+1)}
	}

	return profiles[choice], nil
}

// describe renders a profile for the enumerated choice list.
func describe(p core.Profile) string {
	stores := ""
	switch {
	case p.HasCloudData && p.HasCompatData:
		stores = "cloud+compat"
	case p.HasCloudData:
		stores = "cloud"
	case p.HasCompatData:
		stores = "compat"
	}
	return fmt.Sprintf("%s (id %d, %s)", p.Name, p.ID, stores)
}
