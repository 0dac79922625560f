// Package progress reports copy-stage progress. Transfers here are
// file-count shaped: manifests are small, so progress is counted in
// files rather than bytes.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter implements real-time progress reporting
type Reporter struct {
	writer    io.Writer
	mu        sync.Mutex
	startTime time.Time
	state     *State
	format    Format
	stream    *StreamWriter
}

// State represents the current progress state
type State struct {
	FilesTotal  int64
	FilesDone   int64
	CurrentFile string
	Status      string
}

// Format represents output format for progress
type Format string

const (
	FormatSimple Format = "simple" // Simple text output
	FormatBar    Format = "bar"    // Progress bar
	FormatJSON   Format = "json"   // Newline-delimited JSON events
	FormatNone   Format = "none"   // No output
)

// New creates a new progress reporter
func New(writer io.Writer, format Format) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		stream: NewStreamWriter(writer),
		state: &State{
			Status: "initialized",
		},
	}
}

// Start signals the beginning of the copy stage
func (r *Reporter) Start(total int64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.startTime = time.Now()
	r.state.FilesTotal = total
	r.state.Status = "running"

	r.render(message)
}

// Update reports one more file done
func (r *Reporter) Update(done int64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.FilesDone = done
	r.state.CurrentFile = message

	r.render(message)
}

// Complete signals successful completion
func (r *Reporter) Complete(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Status = "completed"
	r.render(message)

	// Print final newline for non-JSON formats
	if r.format == FormatSimple || r.format == FormatBar {
		fmt.Fprintln(r.writer)
	}
}

// Error reports an error
func (r *Reporter) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Status = "failed"
	r.render(fmt.Sprintf("Error: %v", err))

	if r.format == FormatSimple || r.format == FormatBar {
		fmt.Fprintln(r.writer)
	}
}

// GetState returns a copy of the current progress state
func (r *Reporter) GetState() *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	stateCopy := *r.state
	return &stateCopy
}

// render outputs the progress based on format
func (r *Reporter) render(message string) {
	switch r.format {
	case FormatSimple:
		r.renderSimple(message)
	case FormatBar:
		r.renderBar(message)
	case FormatJSON:
		r.renderJSON()
	case FormatNone:
		// No output
	}
}

// renderSimple outputs simple text progress
func (r *Reporter) renderSimple(message string) {
	fmt.Fprintf(r.writer, "\r%-50s %3d/%d files",
		truncate(message, 50),
		r.state.FilesDone,
		r.state.FilesTotal,
	)
}

// renderBar outputs a progress bar
func (r *Reporter) renderBar(message string) {
	barWidth := 40
	percent := 0.0
	if r.state.FilesTotal > 0 {
		percent = float64(r.state.FilesDone) / float64(r.state.FilesTotal) * 100
	}

	filled := int(percent / 100.0 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	bar := "["
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "="
		} else if i == filled {
			bar += ">"
		} else {
			bar += " "
		}
	}
	bar += "]"

	fmt.Fprintf(r.writer, "\r%s %6.1f%% %3d/%d files",
		bar,
		percent,
		r.state.FilesDone,
		r.state.FilesTotal,
	)
}

// renderJSON emits one event per update on the stream writer
func (r *Reporter) renderJSON() {
	_ = r.stream.Write(&ProgressEvent{
		Type:        r.state.Status,
		FilesTotal:  r.state.FilesTotal,
		FilesDone:   r.state.FilesDone,
		CurrentFile: r.state.CurrentFile,
	})
}

// truncate truncates a string to max length
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
