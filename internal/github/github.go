// Package github fetches the public repository list shown on the Projects page.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.github.com"

// maxBodySize caps how much of a response is read. A page of repositories
// is a few tens of kilobytes.
const maxBodySize = 1 << 20

// ID is a repository identifier. GitHub sends numbers, other hosts strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("repository id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Repository is one repository as it looked at fetch time.
type Repository struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Stars       int     `json:"stargazers_count"`
	Forks       int     `json:"forks_count"`
	HTMLURL     string  `json:"html_url"`
}

// TransportError reports a request that produced no usable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "github transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Options struct {
	BaseURL    string
	User       string
	PerPage    int
	Sort       string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	user       string
	perPage    int
	sort       string
	token      string
	logger     *zap.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		user:       opts.User,
		perPage:    opts.PerPage,
		sort:       opts.Sort,
		token:      opts.Token,
		logger:     opts.Logger,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.httpClient == nil {
		// Deadlines come from the caller's context.
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.perPage <= 0 {
		c.perPage = 6
	}
	if c.sort == "" {
		c.sort = "updated"
	}
	return c
}

// ReposURL is the endpoint ListRepositories requests.
func (c *Client) ReposURL() string {
	q := url.Values{}
	q.Set("sort", c.sort)
	q.Set("per_page", strconv.Itoa(c.perPage))
	return fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(c.user), q.Encode())
}

// ListRepositories requests the user's repositories. Any HTTP response
// counts as an answer: error bodies such as {"message": ...} parse to an
// empty list. Only a failed round trip or body read is an error, and
// nothing is parsed once ctx is done.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReposURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading body: %w", err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("github returned an error body",
			zap.Int("status", resp.StatusCode),
			zap.String("message", ErrorMessage(body)),
		)
	}

	repos := Parse(body)
	if len(repos) == 0 && len(bytes.TrimSpace(body)) > 0 && !isJSONArray(body) {
		c.logger.Debug("repository payload is not a list", zap.Int("bytes", len(body)))
	}
	return repos, nil
}

func isJSONArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

// Parse decodes a repository list. A payload that is not a JSON array
// yields an empty list; array elements that do not decode are skipped.
func Parse(data []byte) []Repository {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Repository{}
	}

	repos := make([]Repository, 0, len(raw))
	for _, r := range raw {
		var repo Repository
		if err := json.Unmarshal(r, &repo); err != nil {
			continue
		}
		if repo.Stars < 0 {
			repo.Stars = 0
		}
		if repo.Forks < 0 {
			repo.Forks = 0
		}
		repos = append(repos, repo)
	}
	return repos
}

// ErrorMessage extracts the "message" of a GitHub error body, if any.
func ErrorMessage(data []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return ""
	}
	return e.Message
}

func ProfileURL(user string) string {
	return "https://github.com/" + user
}

// FeedURL is the user's public activity Atom feed.
func FeedURL(user string) string {
	return "https://github.com/" + user + ".atom"
}
