package tui

import (
	"strings"

	"github.com/vashuvermamarch/portfolio/internal/config"
)

func renderAbout(p config.Profile, width int) string {
	textWidth := min(width-4, 90)

	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("About Me"))
	b.WriteString("\n")

	for _, para := range p.Bio {
		for _, l := range wrapText(para, textWidth) {
			b.WriteString(bodyStyle.Render(l))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(p.Skills) > 0 {
		b.WriteString(headingStyle.Render("Skills"))
		b.WriteString("\n")
		b.WriteString(renderBadges(p.Skills, textWidth))
		b.WriteString("\n\n")
	}

	if len(p.Certifications) > 0 {
		b.WriteString(headingStyle.Render("Certifications"))
		b.WriteString("\n")
		for _, c := range p.Certifications {
			b.WriteString(itemTitleStyle.Render(c.Title))
			b.WriteString("\n")
			meta := c.Issuer
			if c.Date != "" {
				meta += " · " + c.Date
			}
			b.WriteString(dimStyle.Render(meta))
			b.WriteString("\n")
			for _, l := range wrapText(c.Description, textWidth) {
				b.WriteString(bodyStyle.Render(l))
				b.WriteString("\n")
			}
		}
	}

	return padLeft(strings.TrimRight(b.String(), "\n"), 2)
}

// renderBadges lays tags out left to right, wrapping at width.
func renderBadges(tags []string, width int) string {
	var rows []string
	row := ""
	rowWidth := 0
	for _, t := range tags {
		badge := badgeStyle.Render(t)
		w := len([]rune(t)) + 3
		if rowWidth > 0 && rowWidth+w > width {
			rows = append(rows, row)
			row, rowWidth = "", 0
		}
		row += badge + " "
		rowWidth += w
	}
	if row != "" {
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 60
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return lines
}

func padLeft(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}
