package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vashuvermamarch/portfolio/internal/activity"
	"github.com/vashuvermamarch/portfolio/internal/browser"
	"github.com/vashuvermamarch/portfolio/internal/config"
	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/logging"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
)

const (
	activityTimeout = 5 * time.Second
	activityLimit   = 5
)

// LoaderFactory builds the loader for one visit to the Projects page.
// onChange must be passed through to the loader.
type LoaderFactory func(onChange func(repolist.State)) *repolist.Loader

// ActivitySource fetches recent public activity for the Home page.
type ActivitySource interface {
	Fetch(ctx context.Context, url string, limit int) ([]activity.Entry, error)
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Cfg       *config.Config
	NewLoader LoaderFactory
	// Activity may be nil to leave the Home feed out.
	Activity  ActivitySource
	Logger    *zap.Logger
	StartPage string
	// Open defaults to browser.Open.
	Open func(url string) error
}

// projectsView tracks the loader of the current Projects visit. Each visit
// bumps activation so messages from an earlier visit are dropped.
type projectsView struct {
	activation int
	loader     *repolist.Loader
	updates    chan repolist.State
	state      repolist.State
	cursor     int
}

type App struct {
	cfg         *config.Config
	newLoader   LoaderFactory
	activitySrc ActivitySource
	logger      *zap.Logger
	open        func(string) error

	page     page
	width    int
	height   int
	menuOpen bool
	showHelp bool

	spinner        spinner.Model
	projects       projectsView
	activity       []activity.Entry
	activityStatus activityStatus
	linkCursor     int
	contact        contactForm
	err            error
}

func NewApp(opts RunOpts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	start, _ := parsePage(opts.StartPage)

	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}
	open := opts.Open
	if open == nil {
		open = browser.Open
	}

	return &App{
		cfg:         opts.Cfg,
		newLoader:   opts.NewLoader,
		activitySrc: opts.Activity,
		logger:      logger,
		open:        open,
		page:        start,
		spinner:     sp,
		contact:     newContactForm(),
	}
}

func (a *App) Init() tea.Cmd {
	return a.enter(a.page)
}

// navigate leaves the current page and enters p.
func (a *App) navigate(p page) tea.Cmd {
	a.menuOpen = false
	if p == a.page {
		return nil
	}
	a.leave(a.page)
	a.page = p
	return a.enter(p)
}

func (a *App) enter(p page) tea.Cmd {
	switch p {
	case pageHome:
		return a.fetchActivity()
	case pageProjects:
		return a.activateProjects()
	}
	return nil
}

func (a *App) leave(p page) {
	switch p {
	case pageProjects:
		a.deactivateProjects()
	case pageContact:
		a.contact.stop()
	}
}

func (a *App) activateProjects() tea.Cmd {
	a.deactivateProjects()

	a.projects.activation++
	a.projects.state = repolist.State{}
	a.projects.cursor = 0
	if a.newLoader == nil {
		a.projects.state = repolist.State{Status: repolist.Failed}
		return nil
	}

	// An activation reports at most two transitions.
	updates := make(chan repolist.State, 2)
	loader := a.newLoader(func(s repolist.State) { updates <- s })
	a.projects.loader = loader
	a.projects.updates = updates

	if err := loader.Activate(context.Background()); err != nil {
		a.logger.Warn("activating repository loader", zap.Error(err))
		a.projects.state = repolist.State{Status: repolist.Failed}
		return nil
	}
	a.projects.state = loader.State()

	cmds := []tea.Cmd{waitForRepos(a.projects.activation, updates)}
	if !a.projects.state.Terminal() {
		cmds = append(cmds, a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// deactivateProjects tears down the current visit. The loader emits nothing
// once Deactivate returns, so closing updates is safe.
func (a *App) deactivateProjects() {
	if a.projects.loader == nil {
		return
	}
	a.projects.loader.Deactivate()
	close(a.projects.updates)
	a.projects.loader = nil
	a.projects.updates = nil
}

func waitForRepos(activation int, updates <-chan repolist.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return reposStateMsg{activation: activation, state: s}
	}
}

func (a *App) fetchActivity() tea.Cmd {
	if a.activitySrc == nil || !a.cfg.GitHub.Activity || a.activityStatus != activityOff {
		return nil
	}
	a.activityStatus = activityLoading

	src := a.activitySrc
	url := github.FeedURL(a.cfg.GitHub.User)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), activityTimeout)
		defer cancel()
		entries, err := src.Fetch(ctx, url, activityLimit)
		return activityLoadedMsg{entries: entries, err: err}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	open := a.open
	return func() tea.Msg {
		if err := open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) linkedInURL() string {
	for _, l := range a.cfg.Profile.Links {
		if strings.EqualFold(l.Title, "LinkedIn") {
			return l.URL
		}
	}
	return ""
}

func (a *App) quit() tea.Cmd {
	a.deactivateProjects()
	return tea.Quit
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.width >= compactWidth {
			a.menuOpen = false
		}
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case reposStateMsg:
		if msg.activation != a.projects.activation || a.projects.loader == nil {
			return a, nil
		}
		a.projects.state = msg.state
		if a.projects.cursor >= len(msg.state.Repos) {
			a.projects.cursor = max(0, len(msg.state.Repos)-1)
		}
		if !msg.state.Terminal() {
			return a, waitForRepos(msg.activation, a.projects.updates)
		}
		return a, nil

	case activityLoadedMsg:
		if msg.err != nil {
			a.logger.Info("activity feed unavailable", zap.Error(msg.err))
			a.activityStatus = activityFailed
			return a, nil
		}
		a.activity = msg.entries
		a.activityStatus = activityLoaded
		return a, nil

	case contactResetMsg:
		a.contact.reset(msg.gen)
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.page == pageProjects && a.projects.loader != nil && !a.projects.state.Terminal() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.contact.editing {
		return a, a.contact.update(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	if a.page == pageContact && a.contact.editing {
		return a, a.contact.update(msg)
	}

	if a.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			a.showHelp = false
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "?":
		a.showHelp = true
		return a, nil
	case "1", "2", "3", "4":
		idx, _ := strconv.Atoi(msg.String())
		return a, a.navigate(pages[idx-1])
	case "tab", "right":
		return a, a.navigate(a.page.next())
	case "shift+tab", "left":
		return a, a.navigate(a.page.prev())
	case "m":
		if a.width < compactWidth {
			a.menuOpen = !a.menuOpen
		}
		return a, nil
	case "esc":
		a.menuOpen = false
		return a, nil
	case "g":
		return a, a.openURL(github.ProfileURL(a.cfg.GitHub.User))
	case "l":
		return a, a.openURL(a.linkedInURL())
	}

	switch a.page {
	case pageHome:
		return a.handleHomeKey(msg)
	case pageProjects:
		return a.handleProjectsKey(msg)
	case pageContact:
		return a.handleContactKey(msg)
	}
	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p":
		return a, a.navigate(pageProjects)
	case "c":
		return a, a.navigate(pageContact)
	}
	return a, nil
}

func (a *App) handleProjectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	repos := a.projects.state.Repos
	switch msg.String() {
	case "j", "down":
		if a.projects.cursor < len(repos)-1 {
			a.projects.cursor++
		}
	case "k", "up":
		if a.projects.cursor > 0 {
			a.projects.cursor--
		}
	case "o", "enter":
		if a.projects.state.Status == repolist.Succeeded && a.projects.cursor < len(repos) {
			return a, a.openURL(repos[a.projects.cursor].HTMLURL)
		}
	case "a":
		return a, a.openURL(github.ProfileURL(a.cfg.GitHub.User))
	}
	return a, nil
}

func (a *App) handleContactKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	links := a.cfg.Profile.Links
	switch msg.String() {
	case "j", "down":
		if a.linkCursor < len(links)-1 {
			a.linkCursor++
		}
	case "k", "up":
		if a.linkCursor > 0 {
			a.linkCursor--
		}
	case "o", "enter":
		if a.linkCursor < len(links) {
			return a, a.openURL(links[a.linkCursor].URL)
		}
	case "i":
		return a, a.contact.start()
	}
	return a, nil
}

func (a *App) withBottomBar(content string, left, hints string) string {
	if a.err != nil {
		left = errorStyle.Render(a.err.Error())
	}
	bar := renderBottomBar(left, hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return brandStyle.Render(a.cfg.Profile.Name)
	}

	nav := renderNavbar(a.cfg.Profile.Name, a.page, a.width, a.menuOpen)
	bodyHeight := a.height - lipgloss.Height(nav) - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	if a.showHelp {
		return a.withBottomBar(nav+"\n"+a.renderHelp(bodyHeight), "", "? close  q quit")
	}

	var body, left, hints string
	switch a.page {
	case pageHome:
		body = renderHome(a.cfg.Profile, a.activity, a.activityStatus, a.width, bodyHeight)
		hints = "p projects  c contact  1-4 pages  ? help  q quit"
	case pageAbout:
		body = renderAbout(a.cfg.Profile, a.width)
		hints = "1-4 pages  g github  l linkedin  ? help  q quit"
	case pageProjects:
		st := a.projects.state
		body = renderProjects(a.cfg.Featured, st, a.projects.cursor, a.spinner.View(), a.width)
		if st.Status == repolist.Succeeded && len(st.Repos) > 0 {
			body = scrollTo(body, "> ", bodyHeight)
		}
		left = reposSummary(st)
		hints = "j/k move  o open  a all repos  ? help  q quit"
	case pageContact:
		body = renderContact(a.cfg.Profile.Links, a.linkCursor, &a.contact, a.width)
		hints = "j/k move  o open  i write  ? help  q quit"
		if a.contact.editing {
			hints = "tab next  enter send  ctrl+s send  esc done"
		}
	}

	return a.withBottomBar(nav+"\n"+body, left, hints)
}

func reposSummary(st repolist.State) string {
	switch st.Status {
	case repolist.Succeeded:
		s := strconv.Itoa(len(st.Repos)) + " repositories"
		if st.Cached {
			s += " · cached"
		}
		return s
	case repolist.Failed:
		return "offline"
	default:
		return "loading"
	}
}

func (a *App) renderHelp(height int) string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(a.cfg.Profile.Name)
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  1-4           Home, About, Projects, Contact\n" +
		"  tab, →/←      Next / previous page\n" +
		"  m             Menu (narrow terminals)\n\n" +
		dim.Render("Projects") + "\n" +
		"  j/k, ↑/↓     Select repository\n" +
		"  o, enter      Open repository in browser\n" +
		"  a             All repositories on GitHub\n\n" +
		dim.Render("Contact") + "\n" +
		"  i             Write a message\n" +
		"  tab           Next field\n" +
		"  ctrl+s        Send\n" +
		"  esc           Stop writing\n\n" +
		dim.Render("General") + "\n" +
		"  g / l         GitHub / LinkedIn\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application. Any Projects visit still loading is torn
// down before Run returns.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	app.deactivateProjects()
	return err
}
