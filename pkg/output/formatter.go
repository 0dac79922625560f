// Package output renders run reports and discovery listings in the
// formats the CLI offers.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saveshift/saveshift/pkg/core"
)

// Format represents output format type
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formatter handles output formatting
type Formatter struct {
	format Format
	writer io.Writer
}

// New creates a new formatter
func New(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// Report renders a completed run report.
func (f *Formatter) Report(report *core.RunReport) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(report)
	case FormatYAML:
		return f.encodeYAML(report)
	case FormatCSV:
		return f.reportCSV(report)
	case FormatText:
		return f.reportText(report)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// Profiles renders a discovery listing for one host.
func (f *Formatter) Profiles(host core.Host, profiles []core.Profile) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(profileRows(profiles))
	case FormatYAML:
		return f.encodeYAML(profileRows(profiles))
	case FormatCSV:
		return f.profilesCSV(profiles)
	case FormatText:
		return f.profilesText(host, profiles)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// Error formats an error message
func (f *Formatter) Error(err error) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(map[string]string{"error": err.Error()})
	case FormatYAML:
		return f.encodeYAML(map[string]string{"error": err.Error()})
	default:
		_, werr := fmt.Fprintf(f.writer, "Error: %v\n", err)
		return werr
	}
}

func (f *Formatter) encodeJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) encodeYAML(data interface{}) error {
	encoder := yaml.NewEncoder(f.writer)
	defer encoder.Close()
	return encoder.Encode(data)
}

func (f *Formatter) reportText(r *core.RunReport) error {
	mode := "Migration"
	if r.DryRun {
		mode = "Dry run"
	}
	fmt.Fprintf(f.writer, "%s %s -> %s\n", mode, r.Source, r.Dest)
	fmt.Fprintf(f.writer, "  Profiles:   %s -> %s\n", r.SourceProfile, r.DestProfile)
	fmt.Fprintf(f.writer, "  Files:      %d cloud, %d compat (%d bytes)\n", r.CloudFiles, r.CompatFiles, r.BytesTotal)
	if !r.DryRun {
		fmt.Fprintf(f.writer, "  Copied:     %d", r.FilesCopied)
		if r.FilesFailed > 0 {
			fmt.Fprintf(f.writer, " (%d failed)", r.FilesFailed)
		}
		fmt.Fprintln(f.writer)
		fmt.Fprintf(f.writer, "  Verified:   %v\n", r.Verified)
	}
	for _, b := range r.Backups {
		fmt.Fprintf(f.writer, "  Backup:     %s\n", b)
	}
	for _, p := range r.FailedPaths {
		fmt.Fprintf(f.writer, "  Failed:     %s\n", p)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(f.writer, "  Note:       %s\n", n)
	}
	fmt.Fprintf(f.writer, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	return nil
}

func (f *Formatter) reportCSV(r *core.RunReport) error {
	writer := csv.NewWriter(f.writer)
	defer writer.Flush()

	rows := [][]string{
		{"source", r.Source},
		{"dest", r.Dest},
		{"source_profile", r.SourceProfile},
		{"dest_profile", r.DestProfile},
		{"dry_run", strconv.FormatBool(r.DryRun)},
		{"cloud_files", strconv.Itoa(r.CloudFiles)},
		{"compat_files", strconv.Itoa(r.CompatFiles)},
		{"bytes_total", strconv.FormatInt(r.BytesTotal, 10)},
		{"files_copied", strconv.Itoa(r.FilesCopied)},
		{"files_failed", strconv.Itoa(r.FilesFailed)},
		{"verified", strconv.FormatBool(r.Verified)},
	}
	return writer.WriteAll(rows)
}

// profileRow is the machine-readable shape of one discovered profile.
type profileRow struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Cloud  bool   `json:"cloud" yaml:"cloud"`
	Compat bool   `json:"compat" yaml:"compat"`
}

func profileRows(profiles []core.Profile) []profileRow {
	rows := make([]profileRow, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, profileRow{
			ID:     p.ID,
			Name:   p.Name,
			Cloud:  p.HasCloudData,
			Compat: p.HasCompatData,
		})
	}
	return rows
}

func (f *Formatter) profilesText(host core.Host, profiles []core.Profile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintf(f.writer, "No profiles with save data on %s\n", host)
		return err
	}

	fmt.Fprintf(f.writer, "Profiles with save data on %s:\n", host)
	for _, p := range profiles {
		stores := ""
		if p.HasCloudData {
			stores = "cloud"
		}
		if p.HasCompatData {
			if stores != "" {
				stores += "+"
			}
			stores += "compat"
		}
		fmt.Fprintf(f.writer, "  - %s (id %d, %s)\n", p.Name, p.ID, stores)
	}
	return nil
}

func (f *Formatter) profilesCSV(profiles []core.Profile) error {
	writer := csv.NewWriter(f.writer)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "name", "cloud", "compat"}); err != nil {
		return err
	}
	for _, p := range profiles {
		row := []string{
			strconv.Itoa(p.ID),
			p.Name,
			strconv.FormatBool(p.HasCloudData),
			strconv.FormatBool(p.HasCompatData),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}
