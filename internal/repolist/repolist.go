// Package repolist resolves the repository list for the Projects page,
// preferring a fresh session cache entry over a network round trip.
//
// A Loader serves exactly one activation. It moves Idle → Loading →
// Succeeded|Failed (or straight to Succeeded on a cache hit), and once
// Deactivate returns it neither reports a transition nor writes the cache,
// whatever the transport does afterwards.
package repolist

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/session"
)

// Session keys holding the cached list and its capture time (ms since epoch).
const (
	ReposKey = "githubRepos"
	TimeKey  = "githubReposTime"
)

const (
	DefaultFreshness = 5 * time.Minute
	DefaultTimeout   = 5 * time.Second
)

var (
	ErrAlreadyActivated = errors.New("loader already activated")
	ErrDeactivated      = errors.New("loader deactivated")
)

type Status int

const (
	Idle Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is what the presentation layer renders. Repos is only meaningful
// when Status is Succeeded, and may be empty.
type State struct {
	Status Status
	Repos  []github.Repository
	// Cached is set when Succeeded came from the session cache.
	Cached bool
}

// Terminal reports whether no further transition will follow.
func (s State) Terminal() bool {
	return s.Status == Succeeded || s.Status == Failed
}

// Fetcher issues the single outbound request of an activation. It must
// honor ctx cancellation.
type Fetcher interface {
	ListRepositories(ctx context.Context) ([]github.Repository, error)
}

type Options struct {
	Store   session.Store
	Fetcher Fetcher
	Clock   clockwork.Clock
	Logger  *zap.Logger
	// OnChange receives every transition. It runs while the loader's lock
	// is held and must not call back into the Loader.
	OnChange  func(State)
	Freshness time.Duration
	Timeout   time.Duration
}

type Loader struct {
	store     session.Store
	fetcher   Fetcher
	clock     clockwork.Clock
	logger    *zap.Logger
	onChange  func(State)
	freshness time.Duration
	timeout   time.Duration

	mu          sync.Mutex
	state       State
	activated   bool
	deactivated bool
	cancel      context.CancelFunc
	deadline    clockwork.Timer
	wg          sync.WaitGroup
}

func New(opts Options) *Loader {
	l := &Loader{
		store:     opts.Store,
		fetcher:   opts.Fetcher,
		clock:     opts.Clock,
		logger:    opts.Logger,
		onChange:  opts.OnChange,
		freshness: opts.Freshness,
		timeout:   opts.Timeout,
	}
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.freshness <= 0 {
		l.freshness = DefaultFreshness
	}
	if l.timeout <= 0 {
		l.timeout = DefaultTimeout
	}
	return l
}

// State returns the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Activate runs the activation. A fresh cache entry resolves it before
// Activate returns; otherwise it returns in Loading with the request in
// flight and the deadline armed.
func (l *Loader) Activate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deactivated {
		return ErrDeactivated
	}
	if l.activated {
		return ErrAlreadyActivated
	}
	l.activated = true

	if repos, ok := l.readCache(); ok {
		l.logger.Debug("repository cache hit", zap.Int("count", len(repos)))
		l.transition(State{Status: Succeeded, Repos: repos, Cached: true})
		return nil
	}

	if l.fetcher == nil {
		l.logger.Warn("no repository fetcher configured")
		l.transition(State{Status: Failed})
		return nil
	}

	l.transition(State{Status: Loading})

	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.deadline = l.clock.AfterFunc(l.timeout, l.expire)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		repos, err := l.fetcher.ListRepositories(fetchCtx)
		l.resolve(repos, err)
	}()
	return nil
}

// Deactivate tears the activation down. It is idempotent and safe at any
// point of the lifecycle.
func (l *Loader) Deactivate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deactivated {
		return
	}
	l.deactivated = true
	l.stop()
}

// Wait blocks until the request goroutine, if any, has returned.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// readCache returns the cached list if both slots are present and
// now - captured < freshness. Caller holds mu.
func (l *Loader) readCache() ([]github.Repository, bool) {
	if l.store == nil {
		return nil, false
	}
	stamp, ok, err := l.store.Get(TimeKey)
	if err != nil {
		l.logger.Warn("reading cache timestamp", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	captured, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		l.logger.Debug("ignoring malformed cache timestamp", zap.String("value", stamp))
		return nil, false
	}
	if l.clock.Now().UnixMilli()-captured >= l.freshness.Milliseconds() {
		return nil, false
	}

	data, ok, err := l.store.Get(ReposKey)
	if err != nil {
		l.logger.Warn("reading cached repositories", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var repos []github.Repository
	if err := json.Unmarshal([]byte(data), &repos); err != nil {
		l.logger.Debug("ignoring malformed cache entry", zap.Error(err))
		return nil, false
	}
	if repos == nil {
		repos = []github.Repository{}
	}
	return repos, true
}

// expire fires when the deadline elapses before the response.
func (l *Loader) expire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed() {
		return
	}
	l.logger.Info("repository request timed out", zap.Duration("timeout", l.timeout))
	l.stop()
	l.transition(State{Status: Failed})
}

// resolve handles the fetch outcome; it loses to expire and Deactivate.
func (l *Loader) resolve(repos []github.Repository, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed() {
		l.logger.Debug("dropping late repository response", zap.Error(err))
		return
	}
	l.stop()

	if err != nil {
		l.logger.Warn("repository request failed", zap.Error(err))
		l.transition(State{Status: Failed})
		return
	}
	if repos == nil {
		repos = []github.Repository{}
	}

	l.writeCache(repos)
	l.transition(State{Status: Succeeded, Repos: repos})
}

// writeCache overwrites both slots together. A failed write only costs the
// next activation a round trip. Caller holds mu.
func (l *Loader) writeCache(repos []github.Repository) {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(repos)
	if err != nil {
		l.logger.Warn("encoding repositories for cache", zap.Error(err))
		return
	}
	err = l.store.Put(map[string]string{
		ReposKey: string(data),
		TimeKey:  strconv.FormatInt(l.clock.Now().UnixMilli(), 10),
	})
	if err != nil {
		l.logger.Warn("writing repository cache", zap.Error(err))
	}
}

// closed reports whether the activation can no longer change. Caller holds mu.
func (l *Loader) closed() bool {
	return l.deactivated || l.state.Terminal()
}

// stop aborts the request and disarms the deadline. Caller holds mu.
func (l *Loader) stop() {
	if l.deadline != nil {
		l.deadline.Stop()
		l.deadline = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// transition records and publishes s. Caller holds mu.
func (l *Loader) transition(s State) {
	l.state = s
	if l.onChange != nil {
		l.onChange(s)
	}
}
