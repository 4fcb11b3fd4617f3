package resultio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HistoryEntry is a single line of a run history log: a compact summary of
// one detection invocation, distinct from the full Result written by
// WriteJSON (which carries every keypoint and its descriptor).
type HistoryEntry struct {
	RunID      string    `json:"runId"`
	SourcePath string    `json:"sourcePath"`
	Keypoints  int       `json:"keypoints"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryWriter appends HistoryEntry records to a JSONL file, buffered and
// flushed explicitly, following the teacher's TraceWriter (internal/store/trace.go).
type HistoryWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewHistoryWriter opens (creating if needed) the history log at
// <baseDir>/history.jsonl for appending.
func NewHistoryWriter(baseDir string) (*HistoryWriter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("resultio: failed to create history directory: %w", err)
	}
	path := filepath.Join(baseDir, "history.jsonl")

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("resultio: failed to open history file: %w", err)
	}

	return &HistoryWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write appends one history entry. The write is buffered; call Flush or
// Close to write it to the file. Only Flush also fsyncs.
func (hw *HistoryWriter) Write(entry HistoryEntry) error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("resultio: failed to marshal history entry: %w", err)
	}
	if _, err := hw.writer.Write(data); err != nil {
		return fmt.Errorf("resultio: failed to write history entry: %w", err)
	}
	return hw.writer.WriteByte('\n')
}

// Flush writes buffered data to disk and fsyncs the file.
func (hw *HistoryWriter) Flush() error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	if err := hw.writer.Flush(); err != nil {
		return fmt.Errorf("resultio: failed to flush history writer: %w", err)
	}
	return hw.file.Sync()
}

// Close flushes and closes the history file.
func (hw *HistoryWriter) Close() error {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	if err := hw.writer.Flush(); err != nil {
		hw.file.Close()
		return fmt.Errorf("resultio: failed to flush on close: %w", err)
	}
	return hw.file.Close()
}

// Path returns the filesystem path to the history log.
func (hw *HistoryWriter) Path() string {
	return hw.path
}

// ReadHistory reads every entry from <baseDir>/history.jsonl. A missing
// file is treated as an empty history rather than an error.
func ReadHistory(baseDir string) ([]HistoryEntry, error) {
	path := filepath.Join(baseDir, "history.jsonl")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resultio: failed to open history file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []HistoryEntry
	for scanner.Scan() {
		var entry HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("resultio: failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("resultio: failed to scan history file: %w", err)
	}
	return entries, nil
}
