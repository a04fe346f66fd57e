package parse

import (
	"regexp"
	"strings"
)

// timestampPattern matches the "D/M/Y, H:M - " prefix that opens every
// message of an export: 1-2 digit day and month, 2-4 digit year,
// 1-2 digit hour and minute.
var timestampPattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4},\s\d{1,2}:\d{1,2}\s-\s`)

// Tokenize splits an export into entries at every timestamp prefix.
// Text before the first prefix is dropped. Timestamps and bodies come from
// the same match set, so entry i always pairs the i-th timestamp with the
// i-th body.
func Tokenize(text string) []Entry {
	locs := timestampPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(locs))
	line := 1 + strings.Count(text[:locs[0][0]], "\n")
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		entries = append(entries, Entry{
			Timestamp: strings.TrimSpace(text[loc[0]:loc[1]]),
			Body:      trimLineBreak(text[loc[1]:end]),
			Line:      line,
		})
		// the prefix itself may span a line break (\s matches \n)
		line += strings.Count(text[loc[0]:end], "\n")
	}
	return entries
}

// Split returns the timestamp and body columns of Tokenize. Both slices
// always have the same length.
func Split(text string) (timestamps, bodies []string) {
	entries := Tokenize(text)
	timestamps = make([]string, len(entries))
	bodies = make([]string, len(entries))
	for i, e := range entries {
		timestamps[i] = e.Timestamp
		bodies[i] = e.Body
	}
	return timestamps, bodies
}

// trimLineBreak drops the single line terminator that separates a body from
// the next timestamp.
func trimLineBreak(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
