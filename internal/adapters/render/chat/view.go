package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const timestampLayout = "Jan 2, 3:04 PM"

type RenderOptions struct {
	// Location for timestamps; nil means time.Local.
	Location *time.Location
}

func networksView(networks []domain.NetworkSummary, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("### Active Networks")}

	if len(networks) == 0 {
		lines = append(lines, s.empty.Render("No networks found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, summary := range networks {
		agents := make([]string, 0, len(summary.Agents))
		for _, agent := range summary.Agents {
			agents = append(agents, string(agent))
		}

		line := lipgloss.JoinHorizontal(
			lipgloss.Top,
			"- ",
			s.network.Render("**"+string(summary.Network)+"**"),
			s.meta.Render(fmt.Sprintf(" — %d agent(s) (%s) — last active %s",
				len(summary.Agents), strings.Join(agents, ", "), stamp(summary.LastActive, opts))),
		)
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func logView(log application.ChatLog, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render(fmt.Sprintf("### Network: %s", log.Network))}

	if len(log.Entries) == 0 {
		lines = append(lines, s.empty.Render("No messages found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, entry := range log.Entries {
		lines = append(lines, s.section.Render(entryView(entry, opts, s)))
	}

	senders := make([]string, 0, len(log.Senders))
	for _, sender := range log.Senders {
		senders = append(senders, string(sender))
	}
	summary := fmt.Sprintf("_%d messages from %d agents: %s_", len(log.Entries), len(senders), strings.Join(senders, ", "))
	lines = append(lines, s.section.Render(s.summary.Render(summary)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func entryView(entry application.ChatEntry, opts RenderOptions, s styles) string {
	target := s.recipient.Render(" -> " + string(entry.Recipient))
	if entry.Broadcast {
		target = s.recipient.Render(" (broadcast)")
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.sender.Render("**"+string(entry.Sender)+"**"),
		target,
		s.meta.Render(" — "+stamp(entry.SentAt, opts)),
	)

	parts := []string{header}
	for _, line := range strings.Split(entry.Content, "\n") {
		parts = append(parts, s.quote.Render("> "+line))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func stamp(at time.Time, opts RenderOptions) string {
	if at.IsZero() {
		return "never"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return at.In(loc).Format(timestampLayout)
}
