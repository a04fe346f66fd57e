package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatlens/internal/index"
)

// OpenRecord opens the export file of an import in $EDITOR, positioned at
// the line where the given record starts.
func OpenRecord(db *index.DB, importKey string, seq int) error {
	imp, err := db.GetImport(importKey)
	if err != nil {
		return fmt.Errorf("get import: %w", err)
	}
	if imp == nil {
		return fmt.Errorf("import not found: %s", importKey)
	}
	if imp.FilePath == "" {
		return fmt.Errorf("import %s was uploaded and has no file", importKey)
	}

	filePath := imp.FilePath
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := 1
	if seq >= 0 {
		r, err := db.GetRecord(importKey, seq)
		if err == nil && r != nil && r.Line > 0 {
			lineNum = r.Line
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return openInEditor(editor, filePath, lineNum)
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}
	return cmd
}
