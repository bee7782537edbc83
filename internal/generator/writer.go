package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanshika/geosocial/backend/internal/csvio"
)

// File names written by WriteDataset.
const (
	CheckInsFile = "user_total_checkin.csv"
	EdgesFile    = "user_edges.csv"
)

// WriteDataset writes the check-in and edge CSV files under dir.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	checkInsPath := filepath.Join(dir, CheckInsFile)
	if err := writeFile(checkInsPath, func(f *os.File) error { return csvio.WriteCheckIns(f, dataset.CheckIns) }); err != nil {
		return err
	}

	edgesPath := filepath.Join(dir, EdgesFile)
	if err := writeFile(edgesPath, func(f *os.File) error { return csvio.WriteEdges(f, dataset.Edges) }); err != nil {
		return err
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", path, cerr))
		}
	}()

	if err := write(file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
