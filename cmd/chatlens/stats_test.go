package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
)

func TestLoadStatsRecordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	text := "12/05/23, 14:03 - Alice: Hi there\n12/05/23, 14:05 - Bob: hello\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := loadStatsRecords(path)
	if err != nil {
		t.Fatalf("loadStatsRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestCountTableLimit(t *testing.T) {
	counts := []analytics.Count{{Key: "Alice", Count: 3}, {Key: "Bob", Count: 2}, {Key: "Carol", Count: 1}}
	out := countTable(counts, 2).String()
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Errorf("table missing rows:\n%s", out)
	}
	if strings.Contains(out, "Carol") {
		t.Errorf("limit not applied:\n%s", out)
	}
}
