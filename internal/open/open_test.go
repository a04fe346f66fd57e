package open

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   string
	}{
		{"nvim", "nvim +7 chat.txt"},
		{"code", "code --goto chat.txt:7"},
		{"less", "less +7 chat.txt"},
		{"nano", "nano chat.txt"},
	}
	for _, tt := range tests {
		cmd := editorCommand(tt.editor, "chat.txt", 7)
		if got := strings.Join(cmd.Args, " "); got != tt.want {
			t.Errorf("editorCommand(%s) = %q, want %q", tt.editor, got, tt.want)
		}
	}
}

func TestOpenRecordErrors(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := OpenRecord(db, "export:missing", 0); err == nil {
		t.Error("expected error for unknown import")
	}

	records, err := parse.Parse("12/05/23, 14:05 - Alice: Hi")
	if err != nil {
		t.Fatal(err)
	}
	imp := index.NewImportRow("upload:x", index.SourceUpload, "", parse.NewResult(records), time.Now())
	if err := db.ReplaceImport(context.Background(), imp, records); err != nil {
		t.Fatal(err)
	}
	if err := OpenRecord(db, "upload:x", 0); err == nil || !strings.Contains(err.Error(), "no file") {
		t.Errorf("err = %v, want no-file error", err)
	}

	gone := filepath.Join(t.TempDir(), "gone.txt")
	if err := os.WriteFile(gone, []byte("12/05/23, 14:05 - Alice: Hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := parse.ParseFile(gone)
	if err != nil {
		t.Fatal(err)
	}
	imp = index.NewImportRow("export:gone", index.SourceFile, "", result, time.Now())
	if err := db.ReplaceImport(context.Background(), imp, result.Records); err != nil {
		t.Fatal(err)
	}
	os.Remove(gone)
	if err := OpenRecord(db, "export:gone", 0); err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("err = %v, want file-not-found error", err)
	}
}
