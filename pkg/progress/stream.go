package progress

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// ProgressEvent represents one progress update on the JSON stream
type ProgressEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"` // running, completed, failed
	Message     string    `json:"message,omitempty"`
	FilesTotal  int64     `json:"files_total,omitempty"`
	FilesDone   int64     `json:"files_done,omitempty"`
	CurrentFile string    `json:"current_file,omitempty"`
}

// StreamWriter writes newline-delimited JSON progress events
type StreamWriter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewStreamWriter creates a new stream writer
func NewStreamWriter(writer io.Writer) *StreamWriter {
	return &StreamWriter{
		writer: writer,
	}
}

// Write writes a progress event as newline-delimited JSON
func (s *StreamWriter) Write(event *ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = s.writer.Write(append(data, '\n'))
	return err
}
