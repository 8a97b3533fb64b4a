package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"bangalorelife-scraper/models"
)

// CSVWriter writes raw (unnormalized) listings to a CSV file, which is the
// quickest way to see what the selectors actually picked up.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"source", "source_record_id", "category", "title", "venue", "raw_price",
		"min_price", "start_date", "date_estimated", "image_url", "url", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends one row per listing.
func (c *CSVWriter) WriteRaw(listings []*models.ScrapedListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		minPrice := ""
		if l.ParsedMinPrice != nil {
			minPrice = strconv.Itoa(*l.ParsedMinPrice)
		}
		row := []string{
			string(l.Source),
			l.SourceRecordID,
			string(l.Category),
			l.Title,
			deref(l.VenueName),
			deref(l.RawPriceText),
			minPrice,
			l.StartDate.Format("2006-01-02"),
			strconv.FormatBool(l.StartDateEstimated),
			deref(l.ImageURL),
			l.DestinationURL,
			l.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
