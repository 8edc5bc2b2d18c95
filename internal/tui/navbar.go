package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// compactWidth is the width below which the tab row collapses into a menu.
const compactWidth = 70

type page int

const (
	pageHome page = iota
	pageAbout
	pageProjects
	pageContact
)

var pages = []page{pageHome, pageAbout, pageProjects, pageContact}

func (p page) String() string {
	switch p {
	case pageHome:
		return "Home"
	case pageAbout:
		return "About"
	case pageProjects:
		return "Projects"
	case pageContact:
		return "Contact"
	default:
		return "?"
	}
}

// parsePage maps a page name to its page, defaulting to Home.
func parsePage(name string) (page, bool) {
	for _, p := range pages {
		if strings.EqualFold(p.String(), name) {
			return p, true
		}
	}
	return pageHome, false
}

func (p page) next() page {
	return pages[(int(p)+1)%len(pages)]
}

func (p page) prev() page {
	return pages[(int(p)+len(pages)-1)%len(pages)]
}

func renderNavbar(brand string, current page, width int, menuOpen bool) string {
	left := brandStyle.Render(brand)

	if width < compactWidth {
		right := tabActiveStyle.Render(current.String()) + dimStyle.Render("  m menu ")
		gap := width - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 0 {
			gap = 0
		}
		bar := navBarStyle.Width(width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
		if !menuOpen {
			return bar
		}

		var items []string
		for i, p := range pages {
			label := fmt.Sprintf(" %d %s", i+1, p)
			if p == current {
				items = append(items, itemSelectedStyle.Render(">"+label))
			} else {
				items = append(items, bodyStyle.Render(" "+label))
			}
		}
		return bar + "\n" + strings.Join(items, "\n")
	}

	var tabs []string
	for i, p := range pages {
		label := fmt.Sprintf("%d %s", i+1, p)
		if p == current {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}
	right := strings.Join(tabs, tabSeparatorStyle.Render(" "))
	social := dimStyle.Render("  g github  l linkedin ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - lipgloss.Width(social)
	if gap < 1 {
		gap = 1
	}
	return navBarStyle.Width(width).Render(left + fmt.Sprintf("%*s", gap, "") + right + social)
}

func renderBottomBar(left, hints string, width int) string {
	if left != "" {
		left = " " + left
	}
	right := " " + hints + " "

	// statusBarStyle pads one column each side.
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
