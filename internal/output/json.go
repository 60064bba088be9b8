package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/scraper"
)

// JSONSink writes the full run result, failures and metrics included, as
// one indented JSON document.
type JSONSink struct {
	path string
}

// NewJSONSink writes to the given path, creating parent directories as
// needed.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// Name implements Sink.
func (s *JSONSink) Name() string { return "json" }

// Write implements Sink.
func (s *JSONSink) Write(_ context.Context, result *scraper.RunResult) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.json", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.json", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.json", err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONSink) Close() error { return nil }
