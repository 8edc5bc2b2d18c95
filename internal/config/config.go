package config

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "portfolio"

type Certification struct {
	Title       string `yaml:"title"`
	Issuer      string `yaml:"issuer"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

// Link is a contact or social entry. URL may be empty for plain values
// such as a location.
type Link struct {
	Title string `yaml:"title"`
	Value string `yaml:"value"`
	URL   string `yaml:"url,omitempty"`
}

type Profile struct {
	Name           string          `yaml:"name"`
	Tagline        string          `yaml:"tagline"`
	Location       string          `yaml:"location"`
	Email          string          `yaml:"email"`
	Bio            []string        `yaml:"bio"`
	Skills         []string        `yaml:"skills"`
	Certifications []Certification `yaml:"certifications"`
	Links          []Link          `yaml:"links"`
}

type Project struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	GitHubURL    string   `yaml:"github_url"`
	LiveURL      string   `yaml:"live_url,omitempty"`
}

type GitHub struct {
	User      string `yaml:"user"`
	APIURL    string `yaml:"api_url"`
	PerPage   int    `yaml:"per_page"`
	Sort      string `yaml:"sort"`
	Timeout   string `yaml:"timeout"`
	Freshness string `yaml:"freshness"`
	Activity  bool   `yaml:"activity"`
	Token     string `yaml:"token,omitempty"`
}

type Session struct {
	Backend   string `yaml:"backend"` // "sqlite" or "memory"
	ID        string `yaml:"id,omitempty"`
	Retention string `yaml:"retention"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path,omitempty"`
}

type Config struct {
	Profile  Profile   `yaml:"profile"`
	Featured []Project `yaml:"featured"`
	GitHub   GitHub    `yaml:"github"`
	Session  Session   `yaml:"session"`
	Log      Log       `yaml:"log"`
}

// Token returns the resolved GitHub token (config or env var).
func (c *Config) Token() string {
	if c.GitHub.Token != "" {
		return c.GitHub.Token
	}
	return os.Getenv("PORTFOLIO_GITHUB_TOKEN")
}

func (c *Config) TimeoutDuration() time.Duration {
	return parseDuration(c.GitHub.Timeout, 5*time.Second)
}

func (c *Config) FreshnessDuration() time.Duration {
	return parseDuration(c.GitHub.Freshness, 5*time.Minute)
}

func (c *Config) RetentionDuration() time.Duration {
	return parseDuration(c.Session.Retention, 7*24*time.Hour)
}

// GetPerPage returns the repository count, defaulting to 6.
func (c *Config) GetPerPage() int {
	if c.GitHub.PerPage <= 0 {
		return 6
	}
	return c.GitHub.PerPage
}

// SessionID returns the configured session, or one derived from the
// launching shell so each terminal gets its own cache scope.
func (c *Config) SessionID() string {
	if c.Session.ID != "" {
		return c.Session.ID
	}
	if id := os.Getenv("PORTFOLIO_SESSION"); id != "" {
		return id
	}
	return fmt.Sprintf("ppid-%d", os.Getppid())
}

// maxDays is the largest day count a time.Duration can hold.
const maxDays = math.MaxInt64 / int64(24*time.Hour)

// ParseDuration accepts Go durations plus an "Nd" day suffix, where N is
// a non-negative integer.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		n := s[:len(s)-1]
		if strings.Trim(n, "0123456789") != "" {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		days, err := strconv.ParseInt(n, 10, 64)
		if err != nil || days > maxDays {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func SessionPath() string {
	return filepath.Join(xdg.CacheHome, appName, "session.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path, layered over the embedded defaults. A
// missing file is replaced by the defaults, which are also written to disk.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := loadEnvFile(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := *defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile exports a .env next to the config (typically holding
// PORTFOLIO_GITHUB_TOKEN). Variables already set in the environment win.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile leaves new files with the temp file's 0600.
	return os.Chmod(path, 0o644)
}

func validate(cfg *Config) error {
	if cfg.GitHub.User == "" {
		return fmt.Errorf("github.user is required")
	}
	u, err := url.Parse(cfg.GitHub.APIURL)
	if err != nil {
		return fmt.Errorf("github.api_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("github.api_url: scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.GitHub.PerPage <= 0 {
		return fmt.Errorf("github.per_page must be positive, got %d", cfg.GitHub.PerPage)
	}
	switch cfg.Session.Backend {
	case "", "sqlite", "memory":
	default:
		return fmt.Errorf("session.backend: unknown backend %q (valid: sqlite, memory)", cfg.Session.Backend)
	}
	for i, p := range cfg.Featured {
		if p.Title == "" {
			return fmt.Errorf("featured project %d: title is required", i)
		}
	}
	return nil
}
