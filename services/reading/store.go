package reading

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kindlestats/lib/activity"
)

const datasetFile = "reading_data.json"

// Store owns the data directory: the single canonical dataset plus a
// timestamped archive of every raw fetch.
type Store struct {
	dir string
}

func NewStore(dir string) Store {
	return Store{dir: dir}
}

func (s Store) DatasetPath() string {
	return filepath.Join(s.dir, datasetFile)
}

// LoadDataset reads the canonical dataset. A missing file is a normal
// first run and yields an empty dataset.
func (s Store) LoadDataset() (activity.Dataset, error) {
	contents, err := os.ReadFile(s.DatasetPath())
	if os.IsNotExist(err) {
		return activity.Dataset{}, nil
	}
	if err != nil {
		return activity.Dataset{}, err
	}

	var dataset activity.Dataset
	if err := json.Unmarshal(contents, &dataset); err != nil {
		return activity.Dataset{}, fmt.Errorf("parse %s: %w", s.DatasetPath(), err)
	}
	return dataset, nil
}

// SaveDataset rewrites the canonical dataset in full. Only called once
// the whole run has succeeded, last successful write wins.
func (s Store) SaveDataset(dataset activity.Dataset) error {
	if err := os.MkdirAll(s.dir, 0777); err != nil {
		return err
	}
	contents, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.DatasetPath(), contents, 0644)
}

// SaveFetch archives one run's full fetch result to its own file,
// named by the run timestamp so it is never overwritten.
func (s Store) SaveFetch(result activity.FetchResult, at time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0777); err != nil {
		return "", err
	}
	contents, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("fetch_%s.json", at.Format("2006-01-02T150405")))
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return "", err
	}
	return path, nil
}
