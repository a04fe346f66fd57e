package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorNotice  = "\033[2;35m" // dim magenta for group notifications
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

// senderColors are cycled per distinct sender so a conversation reads
// like the chat it came from.
var senderColors = []string{
	"\033[1;34m", // bold blue
	"\033[1;32m", // bold green
	"\033[1;33m", // bold yellow
	"\033[1;36m", // bold cyan
	"\033[1;31m", // bold red
}

type Options struct {
	HitSeq     int
	Context    int    // messages before/after hit to show
	Width      int    // wrap width (0 = no wrap)
	HideSystem bool   // drop group notifications
	Query      string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	var filtered []string
	for _, t := range terms {
		if !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return text
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderConversation renders an import and returns the content,
// the 0-based line number of the hit record header (-1 if no hit), and any error.
func RenderConversation(db *index.DB, importKey string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	imp, err := db.GetImport(importKey)
	if err != nil {
		return "", -1, fmt.Errorf("get import: %w", err)
	}
	if imp == nil {
		return "", -1, fmt.Errorf("import not found: %s", importKey)
	}

	records, hitIdx, startPos, totalCount, err := db.GetRecordsWindow(importKey, opts.HitSeq, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get records: %w", err)
	}

	if totalCount == 0 {
		return "(empty import)", -1, nil
	}

	skipAfter := totalCount - startPos - len(records)

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	wrapW := opts.Width
	colors := make(map[string]string)
	for i, u := range imp.Users {
		colors[u] = senderColors[i%len(senderColors)]
	}

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		wrapped := wrapLine(s, wrapW)
		for _, wl := range wrapped {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	// header
	writeLine(fmt.Sprintf("%s--- %s [%s] %d messages ---%s", colorDim, importKey, imp.Source, imp.RecordCount, colorReset))

	if startPos > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, startPos, colorReset))
	}

	lastDay := ""
	for i, r := range records {
		isHit := i == hitIdx
		if opts.HideSystem && r.IsNotification() && !isHit {
			continue
		}

		// day separator
		if r.OnlyDate != lastDay {
			writeLine(fmt.Sprintf("%s== %s, %d %s %d ==%s", colorDim, r.DayName, r.Day, r.Month, r.Year, colorReset))
			lastDay = r.OnlyDate
		}

		if isHit {
			hitLine = lineCount
		}

		clock := r.Date.Format("15:04")
		text := highlightKeywords(r.Message, opts.Query)

		if r.IsNotification() {
			line := fmt.Sprintf("%s %s* %s%s", clock, colorNotice, text, colorReset)
			if isHit {
				line = colorHit + ">>" + colorReset + " " + line
			}
			writeLine(line)
			continue
		}

		color, ok := colors[r.User]
		if !ok {
			color = senderColors[0]
		}
		header := fmt.Sprintf("%s%s %s%s%s", colorDim, clock, color, r.User, colorReset)
		if isHit {
			header = fmt.Sprintf("%s>> %s %s <<%s", colorHit, clock, r.User, colorReset)
		}

		lines := strings.Split(text, "\n")
		writeLine(header + ": " + lines[0])
		for _, tl := range lines[1:] {
			writeLine(indentLines(tl, "      "))
		}
	}

	if skipAfter > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, skipAfter, colorReset))
	}

	return b.String(), hitLine, nil
}

// RecordLine is the single-line form of a record used for TSV output and
// the clipboard.
func RecordLine(r parse.Record) string {
	date := r.Date.Format("02/01/2006, 15:04")
	if r.IsNotification() {
		return date + " - " + r.Message
	}
	return date + " - " + r.User + ": " + r.Message
}
