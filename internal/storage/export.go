package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/widthlab/internal/integration"
)

type ExportData struct {
	Run        RunMetadata             `json:"run"`
	Iterations []integration.Iteration `json:"iterations"`
}

// Export writes a run and its history as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	iters, err := s.LoadIterations(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Iterations: iters})
}

func (s *Store) ExportFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.Export(file, runID)
}
