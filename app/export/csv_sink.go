package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lysyi3m/topic-comb/app/feed"
)

// Columns mirrors the posts table column order.
var Columns = []string{
	"fingerprint", "topic", "title", "score", "sentiment_score", "external_meta", "captured_at",
}

// CSVSink appends enriched records to a flat file. It keeps every record it
// is given, including ones the store collapsed by fingerprint.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Path() string {
	return s.path
}

// Append writes records at the end of the file, adding the header only when
// the file is new or empty.
func (s *CSVSink) Append(records []feed.Record) error {
	if len(records) == 0 {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat export file: %w", err)
	}

	writer := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := writer.Write(Columns); err != nil {
			return fmt.Errorf("failed to write export header: %w", err)
		}
	}

	for _, record := range records {
		row := []string{
			record.Fingerprint,
			record.Topic,
			record.Title,
			strconv.Itoa(record.Score),
			strconv.FormatFloat(record.SentimentScore, 'f', -1, 64),
			record.ExternalMeta,
			record.CapturedAt,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export file: %w", err)
	}

	return file.Close()
}
