// Package tui is the interactive message browser: a list of matching
// messages on the left and the surrounding conversation on the right.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/render"
	"github.com/Zuo-Peng/chatlens/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeBrowse
)

func (m tuiMode) String() string {
	if m == modeBrowse {
		return "browse"
	}
	return "search"
}

type resultsMsg struct {
	query   string
	results []search.Result
	err     error
}

type queryTickMsg struct {
	query string
}

type model struct {
	db    *index.DB
	opts  search.Options
	mode  tuiMode
	query string

	// all holds what the last query returned; shown is all minus
	// group notifications when those are hidden.
	all         []search.Result
	shown       []search.Result
	hideNotices bool
	err         error

	cursor  int
	offset  int
	input   textinput.Model
	chat    viewport.Model
	chatKey string

	width, height int
	ready         bool
	done          bool
	picked        *search.Result
}

func initialModel(db *index.DB, query string, opts search.Options) model {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "search messages"
	in.PromptStyle = stylePrompt
	in.TextStyle = styleQuery
	in.CharLimit = 256
	in.SetValue(query)
	in.Focus()

	return model{
		db:    db,
		opts:  opts,
		query: query,
		input: in,
		chat:  viewport.New(0, 0),
	}
}

// Run opens the browser on the results of query. The message picked with
// Enter is copied to the clipboard after the screen is restored.
func Run(db *index.DB, query string, opts search.Options) error {
	return runProgram(db, initialModel(db, query, opts))
}

// RunList opens the browser on every message, newest first.
func RunList(db *index.DB, opts search.Options) error {
	m := initialModel(db, "", opts)
	m.mode = modeBrowse
	m.input.Placeholder = "filter by text or sender"
	return runProgram(db, m)
}

func runProgram(db *index.DB, m model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if fm := final.(model); fm.picked != nil {
		return copyMessage(db, fm.picked.ImportKey, fm.picked.Seq)
	}
	return nil
}

// copyMessage puts the picked message on the clipboard in export line
// form; without a clipboard the line is printed.
func copyMessage(db *index.DB, importKey string, seq int) error {
	r, err := db.GetRecord(importKey, seq)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if r == nil {
		return fmt.Errorf("record not found: %s #%d", importKey, seq)
	}

	line := render.RecordLine(r.Record)
	if err := clipboard.WriteAll(line); err != nil {
		fmt.Println(line)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", line)
	return nil
}

func (m model) Init() tea.Cmd {
	if m.mode == modeBrowse || m.query != "" {
		return tea.Batch(textinput.Blink, m.fetch(m.query))
	}
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		l := m.layout()
		m.chat = viewport.New(l.chatW, l.paneH)
		m.chatKey = ""
		return m, m.renderSelected()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case queryTickMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.fetch(msg.query)

	case resultsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.err = msg.err
		m.all = msg.results
		m.cursor, m.offset = 0, 0
		m.refilter()
		return m, m.renderSelected()

	case chatRenderedMsg:
		if sel, ok := m.selected(); !ok || chatKey(sel, m.hideNotices) != msg.key {
			return m, nil
		}
		m.chatKey = msg.key
		if msg.err != nil {
			m.chat.SetContent("Could not load conversation: " + msg.err.Error())
			return m, nil
		}
		m.chat.SetContent(msg.content)
		m.chat.SetYOffset(msg.hitLine)
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.layout()
	switch {
	case key.Matches(msg, keys.Quit):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, keys.Copy):
		if sel, ok := m.selected(); ok {
			m.picked = &sel
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case key.Matches(msg, keys.Up):
		return m, m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		return m, m.moveCursor(1)
	case key.Matches(msg, keys.ToggleNotices):
		m.hideNotices = !m.hideNotices
		m.refilter()
		return m, m.renderSelected()
	case key.Matches(msg, keys.HalfUp):
		m.chat.LineUp(l.paneH / 2)
		return m, nil
	case key.Matches(msg, keys.HalfDown):
		m.chat.LineDown(l.paneH / 2)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.chat.LineUp(l.paneH)
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.chat.LineDown(l.paneH)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, debounce(q))
	}
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.shown) == 0 {
		return m, nil
	}
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch region, idx := m.hitTest(msg.X, msg.Y); {
	case region == regionList && wheel:
		step := 1
		if msg.Button == tea.MouseButtonWheelUp {
			step = -1
		}
		m.offset = clamp(m.offset+step, 0, max(0, len(m.shown)-m.layout().paneH/linesPerItem))
		return m, nil
	case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if idx < len(m.shown) && idx != m.cursor {
			return m, m.moveCursor(idx - m.cursor)
		}
		return m, nil
	case region == regionChat && wheel:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	return m, nil
}

// moveCursor shifts the selection by delta and re-renders the chat pane.
func (m *model) moveCursor(delta int) tea.Cmd {
	next := clamp(m.cursor+delta, 0, max(0, len(m.shown)-1))
	if next == m.cursor {
		return nil
	}
	m.cursor = next
	m.adjustListScroll(m.layout().paneH)
	return m.renderSelected()
}

// refilter rebuilds the visible list from the last results and keeps the
// cursor in range.
func (m *model) refilter() {
	m.shown = m.all
	if m.hideNotices {
		m.shown = make([]search.Result, 0, len(m.all))
		for _, r := range m.all {
			if r.User != parse.GroupNotification {
				m.shown = append(m.shown, r)
			}
		}
	}
	m.cursor = clamp(m.cursor, 0, max(0, len(m.shown)-1))
	m.adjustListScroll(m.layout().paneH)
	if len(m.shown) == 0 {
		m.chat.SetContent("")
		m.chatKey = ""
	}
}

func (m model) selected() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.shown) {
		return search.Result{}, false
	}
	return m.shown[m.cursor], true
}

func (m model) renderSelected() tea.Cmd {
	sel, ok := m.selected()
	if !ok || chatKey(sel, m.hideNotices) == m.chatKey {
		return nil
	}
	return renderChatCmd(m.db, sel, m.query, m.layout().chatW, m.hideNotices)
}

func (m model) fetch(query string) tea.Cmd {
	db, opts, mode := m.db, m.opts, m.mode
	opts.Query = query
	return func() tea.Msg {
		if mode == modeBrowse {
			results, err := search.ListAll(db, opts)
			return resultsMsg{query: query, results: results, err: err}
		}
		if query == "" {
			return resultsMsg{query: query}
		}
		results, err := search.Search(db, opts)
		return resultsMsg{query: query, results: results, err: err}
	}
}

func debounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return queryTickMsg{query: query}
	})
}

func (m model) View() string {
	if m.done || !m.ready {
		return ""
	}
	l := m.layout()

	m.chat.Width, m.chat.Height = l.chatW, l.paneH
	list := styleListPane.Width(l.listW).Height(l.paneH).Render(m.renderList(l.listW, l.paneH))
	chat := styleChatPane.Width(l.chatW).Height(l.paneH).Render(m.chatView(l))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.input.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, chat),
		m.statusBar(),
	)
}

func (m model) chatView(l layout) string {
	if len(m.shown) == 0 {
		return styleEmpty.Width(l.chatW).Height(l.paneH).Render(m.emptyText())
	}
	return m.chat.View()
}

// emptyText explains an empty list in terms of what the user did.
func (m model) emptyText() string {
	switch {
	case m.err != nil:
		return "Query failed: " + m.err.Error()
	case m.mode == modeSearch && m.query == "":
		return "Type to search your chats"
	case m.hideNotices && len(m.all) > 0:
		return "Only group notices match (C-n to show them)"
	case m.query != "":
		return fmt.Sprintf("No messages match %q", m.query)
	default:
		return "No messages indexed yet, run `chatlens import`"
	}
}

// statusBar summarizes the visible messages and lists the key bindings.
func (m model) statusBar() string {
	senders := make(map[string]struct{})
	chats := make(map[string]struct{})
	for _, r := range m.shown {
		chats[r.ImportKey] = struct{}{}
		if r.User != parse.GroupNotification {
			senders[r.User] = struct{}{}
		}
	}

	parts := []string{fmt.Sprintf("%d messages · %d senders · %d chats", len(m.shown), len(senders), len(chats))}
	if m.hideNotices {
		parts = append(parts, "notices hidden")
	}
	for _, b := range keys.hints() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleModeBadge.Render(m.mode.String()) + styleStatus.Render(strings.Join(parts, " │ "))
}

// layout holds the pane sizes for the current terminal.
type layout struct {
	listW, chatW, paneH int
}

// The list takes two fifths of the width; input row, status bar and the
// pane borders take six lines.
func (m model) layout() layout {
	if m.width <= 0 || m.height <= 0 {
		return layout{listW: 40, chatW: 60, paneH: 20}
	}
	return layout{
		listW: max(20, m.width*2/5-4),
		chatW: max(20, m.width*3/5-4),
		paneH: max(5, m.height-6),
	}
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionChat
)

// hitTest maps a terminal cell to a pane and, for the list, an item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	l := m.layout()
	top := 2 // input row + top border
	if y < top || y >= top+l.paneH {
		return regionNone, -1
	}
	switch {
	case x >= 1 && x <= l.listW:
		return regionList, m.offset + (y-top)/linesPerItem
	case x > l.listW+2:
		return regionChat, -1
	}
	return regionNone, -1
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
