package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aluiziolira/go-scrape-actors/models"
)

// Exporter writes a complete record set to its output file(s).
type Exporter interface {
	Export(actors []*models.Actor) error
}

// NewExporter builds the exporter for an output format. The path is the CSV
// output file; json and dual derive the JSONL path from it.
func NewExporter(format, path string) (Exporter, error) {
	switch format {
	case "csv":
		return &CSVExporter{Path: path}, nil
	case "json":
		return &JSONLExporter{Path: jsonlPath(path)}, nil
	case "dual":
		return &DualExporter{
			CSV:   &CSVExporter{Path: path},
			JSONL: &JSONLExporter{Path: jsonlPath(path)},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func jsonlPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".jsonl"
}

// CSVExporter writes the canonical CSV output.
type CSVExporter struct {
	Path string
}

func (e *CSVExporter) Export(actors []*models.Actor) error {
	return CSVStore{}.WriteAll(e.Path, actors)
}

// JSONLExporter writes newline-delimited JSON records.
type JSONLExporter struct {
	Path string
}

func (e *JSONLExporter) Export(actors []*models.Actor) error {
	if len(actors) == 0 {
		slog.Warn("record set is empty, skipping write", slog.String("path", e.Path))
		return nil
	}

	if err := ensureDir(e.Path); err != nil {
		return err
	}
	f, err := os.Create(e.Path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	for _, actor := range actors {
		if err := encoder.Encode(actor); err != nil {
			f.Close()
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return f.Close()
}

// DualExporter writes both CSV and JSONL outputs.
type DualExporter struct {
	CSV   *CSVExporter
	JSONL *JSONLExporter
}

func (e *DualExporter) Export(actors []*models.Actor) error {
	if err := e.CSV.Export(actors); err != nil {
		return fmt.Errorf("csv export failed: %w", err)
	}
	if err := e.JSONL.Export(actors); err != nil {
		return fmt.Errorf("json export failed: %w", err)
	}
	return nil
}
