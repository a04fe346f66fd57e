package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatlens/internal/index"
)

type Result struct {
	ImportKey string
	Seq       int
	Date      string
	User      string
	Snippet   string
	Rank      float64
}

type Options struct {
	Query  string
	Import string // "" = all imports
	User   string // "" = all senders
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
	// PerImport keeps only the best hit of each import.
	PerImport bool
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if query == "" || idx < 0 || len(lower) != len(text) {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	origLimit := opts.Limit
	if opts.PerImport {
		// fetch more before dedup so we still have enough after
		opts.Limit = origLimit * 3
	}

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}
	if !opts.PerImport {
		return results, nil
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ImportKey] {
			continue
		}
		seen[r.ImportKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// ListAll returns the newest messages first, optionally narrowed to
// messages or senders containing filter.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}
	conditions, args := filters(opts)
	if opts.Query != "" {
		conditions = append(conditions, "(r.message LIKE ? OR r.user LIKE ?)")
		args = append(args, "%"+opts.Query+"%", "%"+opts.Query+"%")
	}

	query := `
		SELECT r.import_key, r.seq, r.date, r.user, r.message
		FROM records r` + where(conditions) + `
		ORDER BY r.date DESC, r.seq DESC
		LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var message string
		if err := rows.Scan(&r.ImportKey, &r.Seq, &r.Date, &r.User, &message); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(message, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any

	if opts.Import != "" {
		conditions = append(conditions, "r.import_key = ?")
		args = append(args, opts.Import)
	}
	if opts.User != "" {
		conditions = append(conditions, "r.user = ?")
		args = append(args, opts.User)
	}
	if opts.Since != "" {
		conditions = append(conditions, "r.only_date >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(conditions, " AND ")
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	conditions = append([]string{"records_fts MATCH ?"}, conditions...)
	args = append([]any{opts.Query}, args...)

	query := `
		SELECT
			r.import_key,
			r.seq,
			r.date,
			r.user,
			snippet(records_fts, 0, '>>>','<<<', '...', 40) as snip,
			bm25(records_fts, 1.0) as rank
		FROM records_fts
		JOIN records r ON records_fts.rowid = r.rowid` + where(conditions) + `
		ORDER BY rank
		LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	// LIKE match for CJK substring search
	conditions = append([]string{"r.message LIKE ?"}, conditions...)
	args = append([]any{"%" + opts.Query + "%"}, args...)

	query := `
		SELECT r.import_key, r.seq, r.date, r.user, r.message
		FROM records r` + where(conditions) + `
		ORDER BY r.date DESC
		LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ImportKey, &r.Seq, &r.Date, &r.User, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ImportKey, &r.Seq, &r.Date, &r.User, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
