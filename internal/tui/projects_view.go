package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vashuvermamarch/portfolio/internal/config"
	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
)

const (
	loadingText     = "Loading repositories..."
	noReposText     = "No repositories found. Check back later!"
	noDescription   = "No description available"
	allReposCaption = "View all repositories on GitHub"
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderFeatured(p config.Project, width int) string {
	var b strings.Builder
	b.WriteString(itemTitleStyle.Render(truncateStr(p.Title, width)))
	for _, l := range wrapText(p.Description, width) {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(l))
	}
	if len(p.Technologies) > 0 {
		b.WriteString("\n")
		b.WriteString(renderBadges(p.Technologies, width))
	}
	if p.GitHubURL != "" {
		b.WriteString("\n")
		b.WriteString(linkStyle.Render(p.GitHubURL))
	}
	if p.LiveURL != "" {
		b.WriteString("\n")
		b.WriteString(linkStyle.Render(p.LiveURL))
	}
	return cardStyle.Width(width + 2).Render(b.String())
}

func renderRepoCard(r github.Repository, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var b strings.Builder
	if selected {
		b.WriteString(itemSelectedStyle.Render("> " + truncateStr(r.Name, width-2)))
	} else {
		b.WriteString(itemTitleStyle.Render("  " + truncateStr(r.Name, width-2)))
	}
	b.WriteString("\n")

	desc := noDescription
	if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
		desc = *r.Description
	}
	b.WriteString("  " + bodyStyle.Render(truncateStr(desc, width-2)))
	b.WriteString("\n")

	var meta []string
	if r.Language != nil && *r.Language != "" {
		meta = append(meta, languageStyle.Render(*r.Language))
	}
	meta = append(meta, starStyle.Render(fmt.Sprintf("★ %d", r.Stars)))
	meta = append(meta, dimStyle.Render(fmt.Sprintf("⑂ %d", r.Forks)))
	b.WriteString("  " + strings.Join(meta, dimStyle.Render(" · ")))

	style := cardStyle
	if selected {
		style = cardActiveStyle
	}
	return style.Width(width + 2).Render(b.String())
}

// renderRepos draws the loader-driven section. Failed and an empty success
// look the same to the visitor.
func renderRepos(st repolist.State, cursor int, spin string, width int) string {
	switch st.Status {
	case repolist.Idle, repolist.Loading:
		return spin + " " + dimStyle.Render(loadingText)
	case repolist.Failed:
		return dimStyle.Render(noReposText)
	}
	if len(st.Repos) == 0 {
		return dimStyle.Render(noReposText)
	}

	cards := make([]string, 0, len(st.Repos))
	for i, r := range st.Repos {
		cards = append(cards, renderRepoCard(r, i == cursor, width))
	}
	return strings.Join(cards, "\n")
}

func renderProjects(featured []config.Project, st repolist.State, cursor int, spin string, width int) string {
	inner := min(width-8, 90)

	var sections []string
	sections = append(sections, sectionTitleStyle.Render("Featured Projects"))
	for _, p := range featured {
		sections = append(sections, renderFeatured(p, inner))
	}

	sections = append(sections, "")
	title := "Latest GitHub Repositories"
	if st.Status == repolist.Succeeded && st.Cached {
		title += dimStyle.Render(" (cached)")
	}
	sections = append(sections, sectionTitleStyle.Render(title))
	sections = append(sections, renderRepos(st, cursor, spin, inner))
	sections = append(sections, "")
	sections = append(sections, linkStyle.Render("a  "+allReposCaption))

	return padLeft(lipgloss.JoinVertical(lipgloss.Left, sections...), 2)
}

// scrollTo trims content so the line containing marker stays visible in
// a window of height lines.
func scrollTo(content, marker string, height int) string {
	lines := strings.Split(content, "\n")
	if height <= 0 || len(lines) <= height || marker == "" {
		return content
	}
	at := -1
	for i, l := range lines {
		if strings.Contains(l, marker) {
			at = i
			break
		}
	}
	if at < height-3 {
		return content
	}
	start := at - height + 4
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return strings.Join(lines[start:], "\n")
}
