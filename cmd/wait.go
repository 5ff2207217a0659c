package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newWaitCmd(app *app) *cobra.Command {
	var (
		timeoutSeconds float64
		showSpinner    bool
	)

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until a message arrives or the timeout passes",
		Long:  "wait polls the mailbox every 2 seconds and returns as soon as messages are pending. The timeout is capped at 90 seconds.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			timeout := time.Duration(timeoutSeconds * float64(time.Second))
			var result application.InboxResult
			wait := func(ctx context.Context) error {
				var err error
				result, err = app.waiter.Wait(ctx, timeout)
				return err
			}

			var err error
			if showSpinner {
				label := fmt.Sprintf("Waiting up to %s for messages...", application.ClampWaitTimeout(timeout))
				err = runWaitSpinner(cmd.Context(), cmd.ErrOrStderr(), label, wait)
			} else {
				err = wait(cmd.Context())
			}
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Float64Var(&timeoutSeconds, "timeout", domain.DefaultWaitTimeout.Seconds(), "seconds to wait (max 90)")
	cmd.Flags().BoolVar(&showSpinner, "spinner", false, "show a progress spinner on stderr while waiting")

	return cmd
}

type waitDoneMsg struct {
	err error
}

type waitSpinnerModel struct {
	spinner spinner.Model
	label   string
	wait    tea.Cmd
	err     error
	done    bool
}

func newWaitSpinnerModel(label string, wait tea.Cmd) waitSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return waitSpinnerModel{
		spinner: s,
		label:   label,
		wait:    wait,
	}
}

func (m waitSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m waitSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m waitSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runWaitSpinner(ctx context.Context, output io.Writer, label string, wait func(context.Context) error) error {
	waitCmd := func() tea.Msg {
		return waitDoneMsg{err: wait(ctx)}
	}

	p := tea.NewProgram(
		newWaitSpinnerModel(label, waitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(waitSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
