package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/render"
	"github.com/Zuo-Peng/chatlens/internal/search"
)

// chatContext is how many messages around the selected one the
// conversation pane shows.
const chatContext = 50

// chatRenderedMsg carries a finished conversation render.
type chatRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

// chatKey identifies one rendering of the conversation pane.
func chatKey(r search.Result, hideNotices bool) string {
	return fmt.Sprintf("%s:%d:%t", r.ImportKey, r.Seq, hideNotices)
}

func renderChatCmd(db *index.DB, r search.Result, query string, width int, hideNotices bool) tea.Cmd {
	key := chatKey(r, hideNotices)
	return func() tea.Msg {
		content, hitLine, err := render.RenderConversation(db, r.ImportKey, render.Options{
			HitSeq:     r.Seq,
			Context:    chatContext,
			Width:      width,
			Query:      query,
			HideSystem: hideNotices,
		})
		return chatRenderedMsg{key: key, content: content, hitLine: hitLine, err: err}
	}
}
