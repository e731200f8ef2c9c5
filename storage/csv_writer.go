package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"printscout/models"
)

// CSVWriter appends raw (pre-enrichment) listings to a CSV file, an
// optional debug/export tap on the pipeline. It is safe for concurrent
// use across site pipelines sharing one output file.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens the CSV file at path in append mode, creating it
// (and the header row) when absent. Intermediate directories are created
// automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write([]string{
			"platform", "title", "price", "source_url", "thumbnail_url", "tags", "description", "scraped_at",
		}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// Append writes one raw listing.
func (c *CSVWriter) Append(l *models.RawListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		l.Platform,
		l.Title,
		l.Price,
		l.SourceURL,
		l.ThumbnailURL,
		strings.Join(l.Tags, ","),
		l.Description,
		l.ScrapedAt.Format(time.RFC3339),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
