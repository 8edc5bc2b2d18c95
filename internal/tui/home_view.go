package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vashuvermamarch/portfolio/internal/activity"
	"github.com/vashuvermamarch/portfolio/internal/config"
)

type activityStatus int

const (
	activityOff activityStatus = iota
	activityLoading
	activityLoaded
	activityFailed
)

func renderHome(p config.Profile, entries []activity.Entry, status activityStatus, width, height int) string {
	nameStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 4)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	var lines []string

	lines = append(lines, nameStyle.Render(strings.ToUpper(p.Name)))
	lines = append(lines, "")
	if p.Tagline != "" {
		lines = append(lines, headingStyle.Render(p.Tagline))
	}
	if p.Location != "" {
		lines = append(lines, dimStyle.Render(p.Location))
	}
	lines = append(lines, "")
	lines = append(lines, "")

	lines = append(lines, keyStyle.Render("[p]")+"  "+labelStyle.Render("View my work"))
	lines = append(lines, keyStyle.Render("[c]")+"  "+labelStyle.Render("Get in touch"))

	if status != activityOff {
		lines = append(lines, "")
		lines = append(lines, "")
		lines = append(lines, sectionTitleStyle.Render("Recent activity"))
		lines = append(lines, renderActivity(entries, status, min(width-4, 80))...)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	contentHeight := lipgloss.Height(content)

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}

func renderActivity(entries []activity.Entry, status activityStatus, width int) []string {
	switch status {
	case activityLoading:
		return []string{dimStyle.Render("Fetching activity...")}
	case activityFailed:
		return []string{dimStyle.Render("Activity unavailable")}
	}
	if len(entries) == 0 {
		return []string{dimStyle.Render("Nothing public yet")}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		when := ""
		if !e.Published.IsZero() {
			when = " " + dimStyle.Render("· "+relativeTime(e.Published))
		}
		lines = append(lines, bodyStyle.Render(truncateStr(e.Title, width-10))+when)
	}
	return lines
}
