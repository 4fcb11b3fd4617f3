// Package resultio serializes detector output to the filesystem, following
// the teacher's internal/store checkpoint conventions: atomic temp-file
// writes, a Validate() method on the persisted schema, and UUID-tagged run
// identifiers for any request that also wants debug artifacts.
package resultio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/siftgo/internal/sift"
)

// Point is the serializable form of a sift.InterestPoint.
type Point struct {
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Octave      int       `json:"octave"`
	Index       int       `json:"index"`
	Scale       float64   `json:"scale"`
	Orientation float64   `json:"orientation"`
	Descriptor  []float64 `json:"descriptor"`
}

// Result is the top-level schema written by WriteJSON: the run's identity,
// source metadata and the ordered keypoint list.
type Result struct {
	// RunID uniquely identifies this detection invocation, mirroring the
	// teacher's jobID-tagged checkpoint directories.
	RunID string `json:"runId"`

	// SourcePath is the input image path, recorded for traceability.
	SourcePath string `json:"sourcePath"`

	// Width, Height are the input image's dimensions.
	Width, Height int `json:"width,omitempty"`

	// Timestamp records when the result was produced.
	Timestamp time.Time `json:"timestamp"`

	// Config is the configuration used to produce Points, so a reader can
	// tell which rejection thresholds were in effect.
	Config sift.Config `json:"config"`

	// Points is the final, deterministically ordered keypoint list.
	Points []Point `json:"points"`
}

// ValidationError reports an invalid Result field, following the teacher's
// store.ValidationError pattern.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("resultio: invalid field %s: %s", e.Field, e.Reason)
}

// Validate checks that a Result is well-formed before it is written.
func (r *Result) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.SourcePath == "" {
		return &ValidationError{Field: "SourcePath", Reason: "cannot be empty"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	for i, p := range r.Points {
		if len(p.Descriptor) != 0 && len(p.Descriptor) != 128 {
			return &ValidationError{
				Field:  fmt.Sprintf("Points[%d].Descriptor", i),
				Reason: "must have length 0 or 128",
			}
		}
	}
	return nil
}

// NewRunID generates a fresh, unique run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// NewResult builds a Result from a detector run, ready for Validate and
// WriteJSON.
func NewResult(runID, sourcePath string, width, height int, cfg sift.Config, points []sift.InterestPoint, at time.Time) *Result {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{
			X:           p.LocX,
			Y:           p.LocY,
			Octave:      p.Octave,
			Index:       p.Index,
			Scale:       p.Scale,
			Orientation: p.Orientation,
			Descriptor:  p.Descriptor,
		}
	}
	return &Result{
		RunID:      runID,
		SourcePath: sourcePath,
		Width:      width,
		Height:     height,
		Timestamp:  at,
		Config:     cfg,
		Points:     out,
	}
}

// WriteJSON validates and atomically writes result to path, via a temp
// file plus rename, following the teacher's FSStore.SaveCheckpoint pattern.
func WriteJSON(path string, result *Result) error {
	if err := result.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("resultio: failed to create directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("resultio: failed to marshal result: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("resultio: failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("resultio: failed to rename into place: %w", err)
	}
	return nil
}

// ReadJSON reads back a Result previously written by WriteJSON.
func ReadJSON(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resultio: failed to read %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("resultio: failed to unmarshal %s: %w", path, err)
	}
	return &result, nil
}

// DebugDir returns <baseDir>/runs/<runID>, the directory convention used
// for a run's optional debug artifacts (DoG dumps, keypoint overlay),
// mirroring the teacher's <baseDir>/jobs/<jobID> checkpoint layout.
func DebugDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID)
}
