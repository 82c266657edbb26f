package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nudgekit/internal/nudge"
)

// CardWidth is the default width of a rendered nudge card.
const CardWidth = 56

// footers add a line of social proof under some nudges.
var footers = map[nudge.TriggerType]string{
	nudge.TriggerStreak:        "Join 10,000+ users who upgraded this month",
	nudge.TriggerSecondAccount: "Track expenses • Set budgets • Reach goals",
	nudge.TriggerExport:        "PDF, CSV, Excel formats available",
	nudge.TriggerPDFExport:     "PDF, CSV, Excel formats available",
}

// RenderCard renders the scheduler state as a terminal card. An empty slot
// renders as the empty string; a resolved nudge renders dimmed while it
// exits.
func RenderCard(st nudge.State, width int) string {
	if st.Active == nil {
		return ""
	}
	if width <= 0 {
		width = CardWidth
	}
	cfg := st.Active.Config
	inner := width - 6

	lines := []string{Title.Width(inner).Render(cfg.Title)}
	if cfg.Priority >= 3 {
		lines = append(lines, Badge.Render("● High Priority"))
	}
	lines = append(lines, "", Body.Width(inner).Render(cfg.Description), "", ButtonActive.Render(cfg.CTAText))
	if f, ok := footers[cfg.Type]; ok {
		lines = append(lines, "", Hint.Render(f))
	}

	style := Card
	if !st.Visible {
		style = CardFading
	}
	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
