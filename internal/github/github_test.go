package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

func strPtr(s string) *string { return &s }

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(Options{
		BaseURL: srv.URL,
		User:    "octocat",
		Logger:  zaptest.NewLogger(t),
	})
}

func TestReposURL(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://api.example.com/", User: "octocat"})
	want := "https://api.example.com/users/octocat/repos?per_page=6&sort=updated"
	if got := c.ReposURL(); got != want {
		t.Errorf("ReposURL() = %q, want %q", got, want)
	}
}

func TestListRepositories(t *testing.T) {
	var gotPath, gotQuery, gotAccept, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[
			{"id": 1, "name": "repo-a", "description": null, "language": "Go",
			 "stargazers_count": 3, "forks_count": 0, "html_url": "https://x/repo-a",
			 "full_name": "octocat/repo-a", "private": false}
		]`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, User: "octocat", Token: "secret"})
	repos, err := c.ListRepositories(context.Background())
	if err != nil {
		t.Fatalf("ListRepositories: %v", err)
	}

	want := []Repository{{ID: "1", Name: "repo-a", Language: strPtr("Go"), Stars: 3, HTMLURL: "https://x/repo-a"}}
	if diff := cmp.Diff(want, repos); diff != "" {
		t.Errorf("repositories mismatch (-want +got):\n%s", diff)
	}
	if gotPath != "/users/octocat/repos" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotQuery != "per_page=6&sort=updated" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("unexpected Accept %q", gotAccept)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected Authorization %q", gotAuth)
	}
}

func TestListRepositoriesErrorBodyIsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	}))
	defer srv.Close()

	repos, err := newTestClient(t, srv).ListRepositories(context.Background())
	if err != nil {
		t.Fatalf("expected error body to be a response, got %v", err)
	}
	if repos == nil || len(repos) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", repos)
	}
}

func TestListRepositoriesOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON, but the closing element lies past the read limit.
		w.Write([]byte("[" + strings.Repeat(" ", maxBodySize)))
		w.Write([]byte(`{"id": 1, "name": "repo-a", "html_url": "https://x/repo-a"}]`))
	}))
	defer srv.Close()

	repos, err := newTestClient(t, srv).ListRepositories(context.Background())
	if err != nil {
		t.Fatalf("ListRepositories: %v", err)
	}
	if repos == nil || len(repos) != 0 {
		t.Errorf("expected truncated body to parse as empty list, got %#v", repos)
	}
}

func TestListRepositoriesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.ListRepositories(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestListRepositoriesCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv).ListRepositories(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"array", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`, 2},
		{"empty array", `[]`, 0},
		{"error object", `{"message":"Not Found"}`, 0},
		{"malformed", `[{"id":`, 0},
		{"null", `null`, 0},
		{"not json", `<html>`, 0},
		{"bad element skipped", `[{"id":1,"name":"a"},{"id":{},"name":"b"},"x"]`, 1},
	}
	for _, tt := range tests {
		got := Parse([]byte(tt.input))
		if got == nil {
			t.Errorf("%s: Parse returned nil, want empty slice", tt.name)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d repositories, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestParseClampsCounts(t *testing.T) {
	got := Parse([]byte(`[{"id":1,"stargazers_count":-4,"forks_count":-1}]`))
	if got[0].Stars != 0 || got[0].Forks != 0 {
		t.Errorf("expected negative counts clamped, got %+v", got[0])
	}
}

func TestIDRoundTrip(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{`{"id":42}`, `{"id":42,`},
		{`{"id":"abc"}`, `{"id":"abc",`},
		{`{"id":"007"}`, `{"id":"007",`},
	}
	for _, tt := range tests {
		var r Repository
		if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if got := string(data[:len(tt.out)]); got != tt.out {
			t.Errorf("%s re-encoded as %s", tt.in, data)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage([]byte(`{"message":"Bad credentials"}`)); got != "Bad credentials" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if got := ErrorMessage([]byte(`[]`)); got != "" {
		t.Errorf("expected empty message for array, got %q", got)
	}
}
