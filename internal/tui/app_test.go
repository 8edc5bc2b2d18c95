package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/vashuvermamarch/portfolio/internal/activity"
	"github.com/vashuvermamarch/portfolio/internal/config"
	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/logging"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
	"github.com/vashuvermamarch/portfolio/internal/session"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	repos   []github.Repository
	err     error
}

func (f *stubFetcher) ListRepositories(ctx context.Context) ([]github.Repository, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.repos, f.err
}

type stubActivity struct {
	entries []activity.Entry
	err     error
	url     string
}

func (s *stubActivity) Fetch(ctx context.Context, url string, limit int) ([]activity.Entry, error) {
	s.url = url
	return s.entries, s.err
}

type opener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *opener) open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.err
}

func testConfig() *config.Config {
	return &config.Config{
		Profile: config.Profile{
			Name:    "Ada Lovelace",
			Tagline: "Analytical engines",
			Links: []config.Link{
				{Title: "Email", Value: "ada@example.com", URL: "mailto:ada@example.com"},
				{Title: "LinkedIn", Value: "Ada", URL: "https://www.linkedin.com/in/ada"},
				{Title: "Location", Value: "London"},
			},
		},
		Featured: []config.Project{{Title: "Difference Engine", Description: "Tables"}},
		GitHub:   config.GitHub{User: "ada", Activity: true},
	}
}

func strPtr(s string) *string { return &s }

func sampleRepos() []github.Repository {
	return []github.Repository{
		{ID: "1", Name: "engine", Description: strPtr("Computes tables"), Language: strPtr("Go"), Stars: 4, Forks: 1, HTMLURL: "https://github.com/ada/engine"},
		{ID: "2", Name: "notes", HTMLURL: "https://github.com/ada/notes"},
	}
}

type testEnv struct {
	app     *App
	store   *session.Memory
	fetcher *stubFetcher
	clock   clockwork.FakeClock
	opener  *opener
}

func newTestEnv(t *testing.T, fetcher *stubFetcher, width int) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   session.NewMemory(),
		fetcher: fetcher,
		clock:   clockwork.NewFakeClockAt(epoch),
		opener:  &opener{},
	}
	factory := func(onChange func(repolist.State)) *repolist.Loader {
		return repolist.New(repolist.Options{
			Store:    env.store,
			Fetcher:  env.fetcher,
			Clock:    env.clock,
			Logger:   zap.NewNop(),
			OnChange: onChange,
		})
	}
	env.app = NewApp(RunOpts{
		Cfg:       testConfig(),
		NewLoader: factory,
		Open:      env.opener.open,
	})
	env.app.Update(tea.WindowSizeMsg{Width: width, Height: 60})
	t.Cleanup(env.app.deactivateProjects)
	return env
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(a *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = a.Update(key(k))
	}
	return cmd
}

// settle feeds loader transitions into the app until the current visit is
// terminal.
func settle(t *testing.T, a *App) {
	t.Helper()
	for !a.projects.state.Terminal() {
		select {
		case s := <-a.projects.updates:
			a.Update(reposStateMsg{activation: a.projects.activation, state: s})
		case <-time.After(2 * time.Second):
			t.Fatalf("projects never settled, state %v", a.projects.state.Status)
		}
	}
}

func TestNavigation(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{release: make(chan struct{})}, 120)
	a := env.app

	steps := []struct {
		key  string
		want page
	}{
		{"2", pageAbout},
		{"tab", pageProjects},
		{"right", pageContact},
		{"tab", pageHome},
		{"shift+tab", pageContact},
		{"left", pageProjects},
		{"1", pageHome},
		{"4", pageContact},
	}
	for _, s := range steps {
		press(a, s.key)
		if a.page != s.want {
			t.Fatalf("after %q: page = %v, want %v", s.key, a.page, s.want)
		}
	}
}

func TestStartPage(t *testing.T) {
	a := NewApp(RunOpts{Cfg: testConfig(), StartPage: "contact"})
	if a.page != pageContact {
		t.Errorf("page = %v, want Contact", a.page)
	}
	a = NewApp(RunOpts{Cfg: testConfig(), StartPage: "nowhere"})
	if a.page != pageHome {
		t.Errorf("unknown start page should fall back to Home, got %v", a.page)
	}
}

func TestProjectsCacheHit(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, 120)
	env.store.Put(map[string]string{
		repolist.ReposKey: `[{"id":9,"name":"cached-repo","description":null,"language":null,"stargazers_count":0,"forks_count":0,"html_url":"https://github.com/ada/cached-repo"}]`,
		repolist.TimeKey:  strconv.FormatInt(epoch.Add(-time.Minute).UnixMilli(), 10),
	})

	press(env.app, "3")

	st := env.app.projects.state
	if st.Status != repolist.Succeeded || !st.Cached {
		t.Fatalf("expected cached success, got %+v", st)
	}
	if n := env.fetcher.calls.Load(); n != 0 {
		t.Errorf("cache hit made %d requests", n)
	}
	view := env.app.View()
	for _, want := range []string{"cached-repo", noDescription, "(cached)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestProjectsLoadAndOpen(t *testing.T) {
	fetcher := &stubFetcher{release: make(chan struct{}), repos: sampleRepos()}
	env := newTestEnv(t, fetcher, 120)
	a := env.app

	press(a, "3")
	if !strings.Contains(a.View(), loadingText) {
		t.Fatal("expected loading indicator while the request is in flight")
	}

	close(fetcher.release)
	settle(t, a)

	if a.projects.state.Status != repolist.Succeeded {
		t.Fatalf("status = %v, want succeeded", a.projects.state.Status)
	}
	view := a.View()
	for _, want := range []string{"engine", "notes", "Computes tables", "Go", "★ 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	press(a, "j")
	cmd := press(a, "o")
	if cmd == nil {
		t.Fatal("expected open command")
	}
	cmd()
	if len(env.opener.urls) != 1 || env.opener.urls[0] != "https://github.com/ada/notes" {
		t.Errorf("opened %v", env.opener.urls)
	}
}

func TestProjectsPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *stubFetcher
		status  repolist.Status
	}{
		{"empty list", &stubFetcher{repos: []github.Repository{}}, repolist.Succeeded},
		{"transport error", &stubFetcher{err: &github.TransportError{Err: errors.New("dial tcp: refused")}}, repolist.Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.fetcher, 120)
			press(env.app, "3")
			settle(t, env.app)

			if got := env.app.projects.state.Status; got != tt.status {
				t.Errorf("status = %v, want %v", got, tt.status)
			}
			if !strings.Contains(env.app.View(), noReposText) {
				t.Error("expected placeholder text")
			}
		})
	}
}

func TestProjectsTimeout(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{release: make(chan struct{})}, 120)
	press(env.app, "3")

	env.clock.BlockUntil(1)
	env.clock.Advance(repolist.DefaultTimeout)
	settle(t, env.app)

	if env.app.projects.state.Status != repolist.Failed {
		t.Errorf("status = %v, want failed", env.app.projects.state.Status)
	}
	if env.store.Len() != 0 {
		t.Error("timeout must not write the cache")
	}
}

func TestLeavingProjectsDeactivates(t *testing.T) {
	fetcher := &stubFetcher{release: make(chan struct{}), repos: sampleRepos()}
	env := newTestEnv(t, fetcher, 120)
	a := env.app

	press(a, "3")
	loader := a.projects.loader
	activation := a.projects.activation

	press(a, "1")
	if a.projects.loader != nil {
		t.Fatal("loader should be released when leaving Projects")
	}
	loader.Wait()
	if env.store.Len() != 0 {
		t.Error("deactivated visit wrote the cache")
	}

	before := a.projects.state
	a.Update(reposStateMsg{activation: activation, state: repolist.State{Status: repolist.Succeeded, Repos: sampleRepos()}})
	if a.projects.state.Status != before.Status {
		t.Errorf("stale message changed state to %v", a.projects.state.Status)
	}
}

func TestRevisitStartsNewActivation(t *testing.T) {
	fetcher := &stubFetcher{release: make(chan struct{})}
	env := newTestEnv(t, fetcher, 120)
	a := env.app

	press(a, "3")
	first := a.projects.loader
	press(a, "1", "3")
	first.Wait()

	if a.projects.activation != 2 {
		t.Errorf("activation = %d, want 2", a.projects.activation)
	}
	if n := fetcher.calls.Load(); n != 2 {
		t.Errorf("expected one request per visit, got %d", n)
	}
}

func TestQuitDeactivatesProjects(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{release: make(chan struct{})}, 120)
	a := env.app

	press(a, "3")
	loader := a.projects.loader
	cmd := press(a, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if a.projects.loader != nil {
		t.Error("quitting should deactivate the loader")
	}
	loader.Wait()
	if got := loader.State().Status; got != repolist.Loading {
		t.Errorf("deactivated loader moved to %v", got)
	}
}

func TestSocialLinks(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, 120)

	press(env.app, "g")()
	press(env.app, "l")()

	want := []string{"https://github.com/ada", "https://www.linkedin.com/in/ada"}
	if strings.Join(env.opener.urls, " ") != strings.Join(want, " ") {
		t.Errorf("opened %v, want %v", env.opener.urls, want)
	}
}

func TestOpenErrorShownInBar(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, 120)
	env.opener.err = errors.New("no browser available")

	msg := press(env.app, "g")()
	env.app.Update(msg)
	if !strings.Contains(env.app.View(), "no browser available") {
		t.Error("expected open error in bottom bar")
	}

	press(env.app, "2")
	if strings.Contains(env.app.View(), "no browser available") {
		t.Error("error should clear on the next key")
	}
}

func TestCompactNavbar(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, 60)
	a := env.app

	if !strings.Contains(a.View(), "m menu") {
		t.Fatal("narrow terminal should show the menu toggle")
	}
	press(a, "m")
	if !a.menuOpen || !strings.Contains(a.View(), "4 Contact") {
		t.Fatal("menu should list pages when open")
	}
	press(a, "2")
	if a.menuOpen || a.page != pageAbout {
		t.Errorf("choosing a page should close the menu, page %v open %v", a.page, a.menuOpen)
	}

	a.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	press(a, "m")
	if a.menuOpen {
		t.Error("menu toggle is only active below the compact width")
	}
}

func TestHomeActivity(t *testing.T) {
	src := &stubActivity{entries: []activity.Entry{{Title: "ada pushed to engine", Published: time.Now().Add(-2 * time.Hour)}}}
	a := NewApp(RunOpts{Cfg: testConfig(), Activity: src})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 60})

	cmd := a.Init()
	if cmd == nil {
		t.Fatal("Home should request activity")
	}
	if !strings.Contains(a.View(), "Fetching activity...") {
		t.Error("expected activity loading line")
	}
	a.Update(cmd())

	if src.url != "https://github.com/ada.atom" {
		t.Errorf("feed url = %q", src.url)
	}
	view := a.View()
	if !strings.Contains(view, "ada pushed to engine") || !strings.Contains(view, "2h") {
		t.Errorf("activity not rendered:\n%s", view)
	}

	// Returning to Home does not refetch.
	press(a, "2")
	if cmd := press(a, "1"); cmd != nil {
		t.Error("activity should be fetched once")
	}
}

func TestHomeActivityFailure(t *testing.T) {
	src := &stubActivity{err: errors.New("boom")}
	a := NewApp(RunOpts{Cfg: testConfig(), Activity: src})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	a.Update(a.Init()())

	if !strings.Contains(a.View(), "Activity unavailable") {
		t.Error("expected failure notice")
	}
}

func TestHelpOverlay(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, 120)
	a := env.app

	press(a, "?")
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("expected help overlay")
	}
	press(a, "2")
	if a.page != pageHome {
		t.Error("page keys are ignored while help is open")
	}
	press(a, "esc")
	if a.showHelp {
		t.Error("esc should close help")
	}
}

func TestNewAppUsesGlobalLogger(t *testing.T) {
	logger, err := logging.Init(logging.Config{Level: "info", OutputPath: filepath.Join(t.TempDir(), "tui.log")})
	if err != nil {
		t.Fatalf("logging.Init: %v", err)
	}
	a := NewApp(RunOpts{Cfg: testConfig()})
	if a.logger != logger {
		t.Error("NewApp without a logger should use the global one")
	}
}
