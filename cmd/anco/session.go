package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanakanji/anco-go/internal/config"
	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/kana"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	queryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const sessionHistory = 10

// SessionCmd runs an interactive conversion loop. With -f the config file is
// watched and the engine reopened when it changes.
type SessionCmd struct {
	Katakana bool `long:"katakana" description:"show the katakana reading next to each result"`

	app *app
}

func (c *SessionCmd) Execute(_ []string) error {
	cfg, err := c.app.loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	client, err := c.app.client(ctx, cfg)
	if err != nil {
		return err
	}

	m := newSessionModel(client, c.Katakana, func(cfg *config.Config) (*anco.Client, error) {
		c.app.applyFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return c.app.client(ctx, cfg)
	})
	defer m.close()

	p := tea.NewProgram(m, tea.WithInput(c.app.in), tea.WithOutput(c.app.out))

	if c.app.opts.Config != "" {
		loader := config.NewLoader(c.app.opts.Config)
		loader.OnChange(func(cfg *config.Config) { p.Send(reloadMsg{cfg: cfg}) })
		if err := loader.Watch(); err != nil {
			return err
		}
		defer loader.Close()

		done := make(chan struct{})
		defer close(done)
		go forwardErrors(loader.Errors(), p.Send, done)
	}

	_, err = p.Run()
	return err
}

func forwardErrors(errs <-chan error, send func(tea.Msg), done <-chan struct{}) {
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			send(reloadMsg{err: err})
		case <-done:
			return
		}
	}
}

type reloadMsg struct {
	cfg *config.Config
	err error
}

type convertedMsg struct {
	entry sessionEntry
}

type sessionEntry struct {
	query  string
	result string
	err    error
}

type sessionModel struct {
	input    textinput.Model
	client   *anco.Client
	reopen   func(*config.Config) (*anco.Client, error)
	katakana bool
	history  []sessionEntry
	status   string
	pending  bool
}

func newSessionModel(client *anco.Client, katakana bool, reopen func(*config.Config) (*anco.Client, error)) *sessionModel {
	ti := textinput.New()
	ti.Placeholder = "ひらがな"
	ti.Prompt = "> "
	ti.Width = 40
	ti.Focus()
	return &sessionModel{input: ti, client: client, reopen: reopen, katakana: katakana}
}

func (m *sessionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		}

	case convertedMsg:
		m.pending = false
		m.history = append(m.history, msg.entry)
		if len(m.history) > sessionHistory {
			m.history = m.history[len(m.history)-sessionHistory:]
		}
		return m, nil

	case reloadMsg:
		m.reload(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *sessionModel) submit() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	switch query {
	case "":
		return nil
	case ":q":
		return tea.Quit
	case ":c":
		m.history = nil
		m.status = ""
		return nil
	}
	if m.pending {
		m.status = "conversion in progress"
		return nil
	}
	m.pending = true
	client := m.client
	return func() tea.Msg {
		out, err := client.Convert(query)
		return convertedMsg{entry: sessionEntry{query: query, result: out, err: err}}
	}
}

func (m *sessionModel) reload(msg reloadMsg) {
	if msg.err != nil {
		m.status = fmt.Sprintf("config not applied: %v", msg.err)
		return
	}
	if msg.cfg == nil {
		return
	}
	if m.pending {
		m.status = "config changed during a conversion; not applied"
		return
	}
	client, err := m.reopen(msg.cfg)
	if err != nil {
		m.status = fmt.Sprintf("reopen engine: %v", err)
		return
	}
	_ = m.client.Close()
	m.client = client
	m.status = "config reloaded"
}

func (m *sessionModel) close() {
	if m.client != nil {
		_ = m.client.Close()
	}
}

func (m *sessionModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("anco session"))
	b.WriteString("\n\n")
	for _, e := range m.history {
		b.WriteString(queryStyle.Render(e.query))
		b.WriteString(" → ")
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", e.err)))
		} else {
			b.WriteString(resultStyle.Render(e.result))
			if m.katakana {
				b.WriteString(" ")
				b.WriteString(helpStyle.Render(kana.ToKatakana(e.query)))
			}
		}
		b.WriteString("\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(helpStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter convert • :c clear • :q or esc quit"))
	return b.String()
}
