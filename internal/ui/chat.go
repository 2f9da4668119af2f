package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/klemjul/studybuddy/internal/completion"
	"github.com/klemjul/studybuddy/internal/conversation"
	"github.com/klemjul/studybuddy/internal/format"
	"github.com/klemjul/studybuddy/internal/llm"
)

type ChatTUIModel struct {
	textInput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	title     string
	footer    string
	waiting   bool
	showGuide bool

	ctx      context.Context
	store    *conversation.Store
	streamer *completion.Streamer

	// turn is the in-flight turn; partial is what it streamed so far and
	// stays on screen after a failure until the next submission.
	turn    *completion.Turn
	partial string
	failure string
}

const (
	CHAT_TITLE             = "📚 Study Buddy - your AI learning companion"
	CHAT_INPUT_PLACEHOLDER = "What study questions do you have for me?"
	CHAT_WAITING_RESPONSE  = "Waiting for response..."
	CHAT_STREAMING_CURSOR  = "▌"
	CHAT_ERROR_PREFIX      = "❌ An error occurred: "
	CHAT_ERROR_HINT        = "💡 Please check that your API key is correct and your network connection is stable."
	CHAT_HELP              = "enter send • ctrl+r clear history • ctrl+g guide • esc quit"
)

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	botStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	titleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)
	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type InitialModelOptions struct {
	Title    string
	Footer   string
	Context  context.Context
	Store    *conversation.Store
	Streamer *completion.Streamer
}

type fragmentMsg struct {
	turn     *completion.Turn
	fragment string
	partial  string
}

type turnDoneMsg struct {
	turn *completion.Turn
}

type turnFailedMsg struct {
	turn *completion.Turn
	err  error
}

func InitialModel(opts InitialModelOptions) ChatTUIModel {
	ti := textinput.New()
	ti.Placeholder = CHAT_INPUT_PLACEHOLDER
	ti.Focus()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	title := opts.Title
	if title == "" {
		title = CHAT_TITLE
	}
	store := opts.Store
	if store == nil {
		store = conversation.New("")
	}
	store.Initialize()

	m := ChatTUIModel{
		textInput: ti,
		viewport:  viewport.New(0, 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		title:     title,
		footer:    opts.Footer,
		ctx:       ctx,
		store:     store,
		streamer:  opts.Streamer,
	}
	m.updateViewport()
	return m
}

func (m ChatTUIModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.EnableMouseCellMotion,
	)
}

func (m ChatTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		titleLines := 1
		if msg.Width > 0 {
			titleLines = (lipgloss.Width(m.title) / msg.Width) + 1
		}
		// the viewport panics on scroll with a negative height
		m.viewport = viewport.New(msg.Width, max(0, msg.Height-(4+titleLines)))
		m.updateViewport()

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.viewport.ScrollUp(1)
			case tea.MouseButtonWheelDown:
				m.viewport.ScrollDown(1)
			}
		}

	case spinner.TickMsg:
		if m.waiting {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case fragmentMsg:
		if msg.turn == m.turn {
			m.partial = msg.partial
			m.updateViewport()
			cmd = waitForFragment(msg.turn)
		}

	case turnDoneMsg:
		if msg.turn == m.turn {
			if _, err := msg.turn.Commit(m.store); err != nil {
				m.failure = errorMessage(err)
			} else {
				m.partial = ""
			}
			m.endTurn()
		}

	case turnFailedMsg:
		if msg.turn == m.turn {
			m.failure = errorMessage(msg.err)
			m.endTurn()
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			cmd = tea.Quit
		case tea.KeyCtrlG:
			m.showGuide = !m.showGuide
			m.updateViewport()
		case tea.KeyCtrlR:
			if !m.waiting {
				m.store.Reset()
				m.partial = ""
				m.failure = ""
				slog.Info("conversation reset", "session", m.store.ID())
				m.updateViewport()
			}
		case tea.KeyEnter:
			if m.textInput.Value() != "" && !m.waiting {
				cmd = m.submit(m.textInput.Value())
			}
		}
	}

	m.textInput, _ = m.textInput.Update(msg)

	if m.waiting {
		m.textInput.Blur()
	} else {
		m.textInput.Focus()
	}

	return m, cmd
}

func (m *ChatTUIModel) submit(text string) tea.Cmd {
	m.store.Append(llm.User, text)
	m.textInput.SetValue("")
	m.partial = ""
	m.failure = ""

	turn, err := m.streamer.Begin(m.ctx, m.store.Snapshot())
	if err != nil {
		m.failure = errorMessage(err)
		m.updateViewport()
		return nil
	}
	slog.Info("turn submitted", "session", m.store.ID(), "messages", m.store.Len())
	m.turn = turn
	m.waiting = true
	m.updateViewport()

	return tea.Batch(waitForFragment(turn), m.spinner.Tick)
}

func (m *ChatTUIModel) endTurn() {
	m.turn = nil
	m.waiting = false
	m.updateViewport()
}

// waitForFragment pulls one fragment off the turn. The model re-issues it
// after every fragment until the turn completes or fails.
func waitForFragment(turn *completion.Turn) tea.Cmd {
	return func() tea.Msg {
		if turn.Next() {
			return fragmentMsg{turn: turn, fragment: turn.Fragment(), partial: turn.Text()}
		}
		if err := turn.Err(); err != nil {
			return turnFailedMsg{turn: turn, err: err}
		}
		return turnDoneMsg{turn: turn}
	}
}

func errorMessage(err error) string {
	var completionErr *llm.CompletionError
	if errors.As(err, &completionErr) {
		return completionErr.Message
	}
	return err.Error()
}

func (m *ChatTUIModel) updateViewport() {
	visible := m.store.Visible()

	var blocks []string
	if m.showGuide || (len(visible) == 0 && m.partial == "" && m.failure == "") {
		blocks = append(blocks, renderGuide(m.viewport.Width))
	}

	for _, msg := range visible {
		switch msg.Role {
		case llm.Assistant:
			out, _ := format.FormatMarkdownWidth(msg.Content, m.viewport.Width)
			blocks = append(blocks, botStyle.Render(strings.TrimSpace(out)))
		case llm.User:
			blocks = append(blocks, userStyle.Render(fmt.Sprintf("> %s", msg.Content)))
		}
	}

	if m.waiting {
		blocks = append(blocks, m.wrap(botStyle).Render(m.partial+CHAT_STREAMING_CURSOR))
	} else if m.partial != "" {
		blocks = append(blocks, m.wrap(botStyle).Render(m.partial))
	}

	if m.failure != "" {
		blocks = append(blocks,
			m.wrap(errorStyle).Render(CHAT_ERROR_PREFIX+m.failure),
			m.wrap(hintStyle).Render(CHAT_ERROR_HINT))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *ChatTUIModel) wrap(style lipgloss.Style) lipgloss.Style {
	if m.viewport.Width > 0 {
		return style.Width(m.viewport.Width)
	}
	return style
}

func (m ChatTUIModel) View() string {
	input := m.textInput.View()

	if m.waiting {
		input = fmt.Sprintf("%s %s", m.spinner.View(), CHAT_WAITING_RESPONSE)
	}

	footer := CHAT_HELP
	if m.footer != "" {
		footer = fmt.Sprintf("%s • %s", m.footer, CHAT_HELP)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.viewport.Width).Render(m.title),
		m.viewport.View(),
		inputStyle.Width(m.viewport.Width).Render(input),
		footerStyle.Width(m.viewport.Width).Render(footer),
	)
}
