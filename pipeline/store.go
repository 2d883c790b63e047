// Package pipeline persists actor record sets as tabular files and exports
// them in the configured output formats.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-actors/models"
)

// Columns is the stable output column order. ReadAll rejects files whose
// header does not match it.
var Columns = []string{"url", "title", "slug", "description", "author", "users", "rating"}

// CSVStore reads and writes complete record-set snapshots.
type CSVStore struct{}

// WriteAll serializes the record set to path: one header row, one row per
// record, UTF-8, no index column. Writing an empty set is a no-op with a
// warning and leaves the file untouched.
func (CSVStore) WriteAll(path string, actors []*models.Actor) error {
	if len(actors) == 0 {
		slog.Warn("record set is empty, skipping write", slog.String("path", path))
		return nil
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(Columns); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, actor := range actors {
		if err := writer.Write(record(actor)); err != nil {
			f.Close()
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv records: %w", err)
	}
	return f.Close()
}

// ReadAll loads a previously written snapshot, preserving row order.
func (CSVStore) ReadAll(path string) ([]*models.Actor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if len(rows[0]) != len(Columns) {
		return nil, fmt.Errorf("%s: header has %d columns, want %d", path, len(rows[0]), len(Columns))
	}
	for i, name := range Columns {
		if rows[0][i] != name {
			return nil, fmt.Errorf("%s: header column %d is %q, want %q", path, i, rows[0][i], name)
		}
	}

	actors := make([]*models.Actor, 0, len(rows)-1)
	for _, row := range rows[1:] {
		actors = append(actors, &models.Actor{
			URL:         row[0],
			Title:       row[1],
			Slug:        row[2],
			Description: row[3],
			Author:      row[4],
			Users:       row[5],
			Rating:      row[6],
		})
	}
	return actors, nil
}

func record(a *models.Actor) []string {
	return []string{a.URL, a.Title, a.Slug, a.Description, a.Author, a.Users, a.Rating}
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
