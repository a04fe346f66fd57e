package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// renderList renders the visible slice of the message list.
func (m model) renderList(width, height int) string {
	if len(m.shown) == 0 {
		return styleEmpty.Width(width).Height(height).Render("no messages")
	}

	var lines []string
	for i, r := range m.shown {
		if i < m.offset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		rows := formatResultLine(r, width, i == m.cursor)
		lines = append(lines, rows...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatResultLine formats a single result as two lines:
//
//	line 1: [>] MM-DD HH:MM  sender
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	// "2023-05-12T14:05:00Z" -> "05-12 14:05"
	date := r.Date
	if len(date) >= 16 {
		date = date[5:10] + " " + date[11:16]
	}

	sender := styleSender.Render(r.User)
	if r.User == parse.GroupNotification {
		sender = styleNotice.Render("notice")
	}
	senderMax := width - 2 - len(date) - 1
	if senderMax < 0 {
		senderMax = 0
	}
	if runewidth.StringWidth(r.User) > senderMax {
		sender = styleSender.Render(runewidth.Truncate(r.User, senderMax, ""))
	}

	line1 := fmt.Sprintf("%s %s", date, sender)
	if selected {
		line1 = styleCursor.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := width - 4 // indent
	if snippetMax < 0 {
		snippetMax = 0
	}
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + styleMuted.Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleItems {
		m.offset = m.cursor - visibleItems + 1
	}
}
