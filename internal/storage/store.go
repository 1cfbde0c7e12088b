package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/ecodash/internal/observe"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	tableFile    = "table.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SpeciesMeta struct {
	Name     string  `json:"name"`
	Baseline float64 `json:"baseline"`
	Slope    float64 `json:"slope"`
	Sigma    float64 `json:"sigma"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	StartYear int                `json:"start_year"`
	EndYear   int                `json:"end_year"`
	TempMax   float64            `json:"temp_max"`
	TempSigma float64            `json:"temp_sigma"`
	Species   []SpeciesMeta      `json:"species"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and table.csv under a new run directory.
func (s *Store) Save(p observe.Params, seed int64, tbl *observe.Table, metrics map[string]float64) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("run_%s", now.Format("20060102_150405.000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: now,
		Seed:      seed,
		StartYear: p.StartYear,
		EndYear:   p.EndYear,
		TempMax:   p.TempMax,
		TempSigma: p.TempSigma,
		Species:   make([]SpeciesMeta, len(p.Species)),
		Metrics:   metrics,
	}
	for i, sp := range p.Species {
		meta.Species[i] = SpeciesMeta{Name: sp.Name, Baseline: sp.Baseline, Slope: sp.Slope, Sigma: sp.Sigma}
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, tableFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, tbl); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes the table with its schema names as the header row.
func WriteCSV(w io.Writer, tbl *observe.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tbl.Columns()); err != nil {
		return err
	}

	species := tbl.SpeciesNames()
	for _, r := range tbl.Rows() {
		row := []string{
			strconv.Itoa(r.Year),
			strconv.FormatFloat(r.Temperature, 'f', 6, 64),
		}
		for _, name := range species {
			row = append(row, strconv.FormatFloat(r.Populations[name], 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*observe.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, observe.ErrEmptyRange
	}

	header := records[0]
	if len(header) < 2 || header[0] != observe.ColumnYear || header[1] != observe.ColumnTemperature {
		return nil, fmt.Errorf("unexpected table header: %v", header)
	}
	order := header[2:]

	years := make([]int, 0, len(records)-1)
	temp := make([]float64, 0, len(records)-1)
	pops := make(map[string][]float64, len(order))

	for i, record := range records[1:] {
		year, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		years = append(years, year)
		temp = append(temp, t)
		for j, name := range order {
			v, err := strconv.ParseFloat(record[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", i+1, name, err)
			}
			pops[name] = append(pops[name], v)
		}
	}

	return observe.NewTable(years, temp, pops, order)
}

// List returns saved runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTable(runID string) (*observe.Table, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, tableFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}
