package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads dataset exports from disk: task T is read from <Dir>/T.json.
type FileSource struct {
	Dir string
}

// Fetch reads the export for taskID.
func (s FileSource) Fetch(_ context.Context, taskID string) ([]map[string]any, error) {
	if taskID == "" {
		return nil, ErrNoTask
	}
	return ReadFile(filepath.Join(s.Dir, taskID+".json"))
}

// ReadFile decodes a dataset export file.
func ReadFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return DecodeItems(data)
}

var _ Source = FileSource{}
