package cmd

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vashuvermamarch/portfolio/internal/activity"
	"github.com/vashuvermamarch/portfolio/internal/config"
	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/logging"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
	"github.com/vashuvermamarch/portfolio/internal/session"
	"github.com/vashuvermamarch/portfolio/internal/tui"
)

var validPages = []string{"home", "about", "projects", "contact"}

func runTUI(cmd *cobra.Command, args []string) error {
	if !validPage(flagPage) {
		return fmt.Errorf("invalid --page %q (valid: %s)", flagPage, strings.Join(validPages, ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer logging.Sync()

	store, closeStore, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := newGitHubClient(cfg, logger)

	var feed tui.ActivitySource
	if cfg.GitHub.Activity {
		feed = activity.NewFetcher()
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("page", flagPage),
		zap.String("session", cfg.SessionID()),
		zap.String("backend", cfg.Session.Backend),
	)

	return tui.Run(tui.RunOpts{
		Cfg:       cfg,
		NewLoader: loaderFactory(cfg, store, client, logger),
		Activity:  feed,
		Logger:    logger.Named("tui"),
		StartPage: flagPage,
	})
}

func validPage(p string) bool {
	for _, v := range validPages {
		if strings.EqualFold(p, v) {
			return true
		}
	}
	return false
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagSession != "" {
		cfg.Session.ID = flagSession
	}
	if flagMemory {
		cfg.Session.Backend = "memory"
	}
	return cfg, nil
}

// initLogging sends logs to a file; the terminal belongs to the UI.
func initLogging(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Log.Path
	if path == "" {
		path = config.LogPath()
	}
	logger, err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: path,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	if flagDebug {
		logging.SetLevel("debug")
	}
	return logger, nil
}

func openSession(cfg *config.Config) (session.Store, func() error, error) {
	store, closeStore, err := session.New(session.Options{
		Backend:   cfg.Session.Backend,
		Path:      config.SessionPath(),
		SessionID: cfg.SessionID(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, closeStore, nil
}

func newGitHubClient(cfg *config.Config, logger *zap.Logger) *github.Client {
	return github.NewClient(github.Options{
		BaseURL: cfg.GitHub.APIURL,
		User:    cfg.GitHub.User,
		PerPage: cfg.GetPerPage(),
		Sort:    cfg.GitHub.Sort,
		Token:   cfg.Token(),
		Logger:  logger.Named("github"),
	})
}

func loaderFactory(cfg *config.Config, store session.Store, fetcher repolist.Fetcher, logger *zap.Logger) tui.LoaderFactory {
	clock := clockwork.NewRealClock()
	return func(onChange func(repolist.State)) *repolist.Loader {
		return repolist.New(repolist.Options{
			Store:     store,
			Fetcher:   fetcher,
			Clock:     clock,
			Logger:    logger.Named("repolist"),
			OnChange:  onChange,
			Freshness: cfg.FreshnessDuration(),
			Timeout:   cfg.TimeoutDuration(),
		})
	}
}
