package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vashuvermamarch/portfolio/internal/config"
)

func renderContact(links []config.Link, cursor int, form *contactForm, width int) string {
	var info strings.Builder
	info.WriteString(sectionTitleStyle.Render("Get In Touch"))
	info.WriteString("\n")
	info.WriteString(bodyStyle.Render("Have a project in mind or just want to say hi?"))
	info.WriteString("\n\n")

	for i, l := range links {
		prefix := "  "
		title := labelStyle.Render(l.Title)
		if i == cursor && !form.editing {
			prefix = itemSelectedStyle.Render("> ")
			title = itemSelectedStyle.Render(l.Title)
		}
		info.WriteString(prefix + title + "\n")
		info.WriteString("  " + bodyStyle.Render(l.Value) + "\n")
		if l.URL != "" {
			info.WriteString("  " + linkStyle.Render(l.URL) + "\n")
		}
		info.WriteString("\n")
	}

	formTitle := sectionTitleStyle.Render("Send a Message")
	if !form.editing {
		formTitle += "\n" + dimStyle.Render("press i to write")
	}
	formView := formTitle + "\n" + form.view()

	left := strings.TrimRight(info.String(), "\n")
	if width >= 100 {
		infoCol := lipgloss.NewStyle().Width(width/2 - 4).Render(left)
		return padLeft(lipgloss.JoinHorizontal(lipgloss.Top, infoCol, "  ", formView), 2)
	}
	return padLeft(left+"\n\n"+formView, 2)
}
