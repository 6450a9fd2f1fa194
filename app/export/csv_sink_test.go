package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/topic-comb/app/feed"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	return rows
}

func TestCSVSink_AppendKeepsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")
	sink := NewCSVSink(path)

	record := feed.Record{
		Fingerprint:    "abc",
		Topic:          "python",
		Title:          "Hello, world",
		Score:          12,
		SentimentScore: -0.5,
		ExternalMeta:   `{"gas":42,"vol":"high"}`,
		CapturedAt:     "2024-03-01T12:30:00Z",
	}

	if err := sink.Append([]feed.Record{record, record}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := sink.Append([]feed.Record{record}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d rows", len(rows))
	}

	if rows[0][0] != "fingerprint" || len(rows[0]) != len(Columns) {
		t.Errorf("Unexpected header: %v", rows[0])
	}

	want := []string{"abc", "python", "Hello, world", "12", "-0.5", `{"gas":42,"vol":"high"}`, "2024-03-01T12:30:00Z"}
	for i := 1; i < len(rows); i++ {
		for j := range want {
			if rows[i][j] != want[j] {
				t.Errorf("Row %d column %d: expected %q, got %q", i, j, want[j], rows[i][j])
			}
		}
	}
}

func TestCSVSink_EmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")

	if err := NewCSVSink(path).Append(nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be created for an empty batch")
	}
}
