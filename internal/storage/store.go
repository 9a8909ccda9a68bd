package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/widthlab/internal/integration"
)

const (
	metadataFile   = "metadata.json"
	iterationsFile = "iterations.csv"
)

var iterationHeader = []string{"iter", "calls", "value", "error", "cum_value", "cum_error", "chi2_dof"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID                 string             `json:"id"`
	Process            string             `json:"process"`
	Amplitude          string             `json:"amplitude"`
	Topology           string             `json:"topology"`
	Timestamp          time.Time          `json:"timestamp"`
	Incoming           []float64          `json:"incoming"`
	Outgoing           []float64          `json:"outgoing"`
	SqrtS              float64            `json:"sqrt_s"`
	Params             map[string]float64 `json:"params,omitempty"`
	Seed               uint64             `json:"seed"`
	Calls              int                `json:"calls"`
	MaxIterations      int                `json:"max_iterations"`
	State              string             `json:"state"`
	Value              float64            `json:"value"`
	Error              float64            `json:"error"`
	Chi2PerDof         float64            `json:"chi2_dof"`
	Passes             int                `json:"passes"`
	ImaginaryResiduals int                `json:"imaginary_residuals,omitempty"`
}

// Estimate returns the stored value and error.
func (m *RunMetadata) Estimate() integration.Estimate {
	return integration.Estimate{Value: m.Value, Error: m.Error}
}

// Save writes the metadata and the per-pass history under a new run ID.
func (s *Store) Save(meta RunMetadata, history []integration.Iteration) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runID, runDir, err := s.newRunDir(meta.Process, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID
	meta.Passes = len(history)

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, iterationsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(iterationHeader); err != nil {
		return "", err
	}
	for _, it := range history {
		row := []string{
			strconv.Itoa(it.Index),
			strconv.Itoa(it.Calls),
			formatFloat(it.Pass.Value),
			formatFloat(it.Pass.Error),
			formatFloat(it.Cumulative.Value),
			formatFloat(it.Cumulative.Error),
			formatFloat(it.Chi2PerDof),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) newRunDir(process string, ts time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", process, ts.Unix())
	runID := base
	for n := 2; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("storage: no runs in %s", s.baseDir)
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadIterations(runID string) ([]integration.Iteration, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, iterationsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(iterationHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []integration.Iteration{}, nil
	}

	iters := make([]integration.Iteration, 0, len(records)-1)
	for line, record := range records[1:] {
		var it integration.Iteration
		ints := []*int{&it.Index, &it.Calls}
		for i, dst := range ints {
			v, err := strconv.Atoi(record[i])
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", iterationsFile, line+2, err)
			}
			*dst = v
		}
		floats := []*float64{&it.Pass.Value, &it.Pass.Error, &it.Cumulative.Value, &it.Cumulative.Error, &it.Chi2PerDof}
		for i, dst := range floats {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", iterationsFile, line+2, err)
			}
			*dst = v
		}
		iters = append(iters, it)
	}

	return iters, nil
}
