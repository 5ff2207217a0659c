package chat

import (
	"errors"
	"io"

	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	view   func(styles) string
	styles styles
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.view(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// RenderNetworks lists every network that has sessions.
func RenderNetworks(networks []domain.NetworkSummary, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return networksView(networks, opts, s)
	})
}

// RenderLog renders the conversation of one network.
func RenderLog(log application.ChatLog, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return logView(log, opts, s)
	})
}

func run(view func(styles) string) (string, error) {
	p := tea.NewProgram(
		model{view: view, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
