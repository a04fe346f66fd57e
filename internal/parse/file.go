package parse

import (
	"fmt"
	"io"
	"os"
)

const maxExportSize = 256 * 1024 * 1024 // 256MB

// ParseFile reads one export from disk and normalizes it.
func ParseFile(filePath string) (*ParseResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > maxExportSize {
		return nil, fmt.Errorf("export too large: %d bytes", info.Size())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	records, err := Parse(string(data))
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Meta: ExportMeta{
			FilePath: filePath,
			Mtime:    info.ModTime(),
			Size:     info.Size(),
		},
		Records: records,
	}
	result.Meta.fill(records)
	return result, nil
}

// NewResult wraps records that did not come from a file.
func NewResult(records []Record) *ParseResult {
	result := &ParseResult{Records: records}
	result.Meta.fill(records)
	return result
}

func (m *ExportMeta) fill(records []Record) {
	if len(records) == 0 {
		return
	}
	m.FirstDate = records[0].Date
	m.LastDate = records[len(records)-1].Date

	seen := make(map[string]struct{})
	for _, r := range records {
		if r.IsNotification() {
			continue
		}
		if _, ok := seen[r.User]; ok {
			continue
		}
		seen[r.User] = struct{}{}
		m.Users = append(m.Users, r.User)
	}
}
