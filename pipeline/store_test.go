package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-scrape-actors/models"
)

func sampleActors() []*models.Actor {
	return []*models.Actor{
		{
			URL:         "/store/apify/web-scraper",
			Title:       "Web Scraper",
			Slug:        "apify/web-scraper",
			Description: "Crawls arbitrary websites",
			Author:      "Apify",
			Users:       "89k",
			Rating:      "4.6",
		},
		{
			URL:         "/store/drobnikj/email-extractor",
			Title:       "Email Extractor",
			Slug:        "drobnikj/email-extractor",
			Description: "description not found",
			Author:      "Jakub Drobník",
			Users:       "12.3k",
			Rating:      "rating not found",
		},
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actors.csv")
	store := CSVStore{}

	written := sampleActors()
	if err := store.WriteAll(path, written); err != nil {
		t.Fatalf("write all: %v", err)
	}

	loaded, err := store.ReadAll(path)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(loaded) != len(written) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(written))
	}
	for i := range written {
		if *loaded[i] != *written[i] {
			t.Fatalf("record %d = %+v, want %+v", i, *loaded[i], *written[i])
		}
	}
}

func TestCSVStoreWriteHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actors.csv")

	if err := (CSVStore{}).WriteAll(path, sampleActors()); err != nil {
		t.Fatalf("write all: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d, want header + 2 records", len(rows))
	}
	for i, name := range Columns {
		if rows[0][i] != name {
			t.Fatalf("header column %d = %q, want %q", i, rows[0][i], name)
		}
	}
}

func TestCSVStoreEmptySetIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actors.csv")

	if err := (CSVStore{}).WriteAll(path, nil); err != nil {
		t.Fatalf("write all: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty set should not create a file, stat err = %v", err)
	}
}

func TestCSVStoreReadAllRejectsForeignHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.csv")
	body := "name,price\nWidget,9.99\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := (CSVStore{}).ReadAll(path); err == nil {
		t.Fatalf("expected header mismatch error")
	}
}

func TestCSVStoreReadAllMissingFile(t *testing.T) {
	if _, err := (CSVStore{}).ReadAll(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
