package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vashuvermamarch/portfolio/internal/github"
	"github.com/vashuvermamarch/portfolio/internal/logging"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
	"github.com/vashuvermamarch/portfolio/internal/tui"
)

var errReposUnavailable = errors.New("repositories unavailable: request failed or timed out")

var flagReposJSON bool

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Print the latest GitHub repositories",
	Long: `Resolve the repository list once, the same way the Projects page does.

A cache entry younger than github.freshness (default: 5m) in the current session is
used as-is; otherwise GitHub is asked, with github.timeout (default: 5s) to answer.`,
	RunE: runRepos,
}

func init() {
	reposCmd.Flags().BoolVar(&flagReposJSON, "json", false, "print the list as JSON")
}

func runRepos(cmd *cobra.Command, args []string) error {
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
	st, err := resolveRepos(cmd.Context(), loaderFactory(cfg, store, client, logger))
	if err != nil {
		return err
	}
	if st.Status == repolist.Failed {
		return errReposUnavailable
	}

	return writeRepos(cmd.OutOrStdout(), st.Repos, flagReposJSON)
}

// resolveRepos runs one activation to its terminal state.
func resolveRepos(ctx context.Context, newLoader tui.LoaderFactory) (repolist.State, error) {
	states := make(chan repolist.State, 2)
	loader := newLoader(func(s repolist.State) { states <- s })
	defer func() {
		loader.Deactivate()
		loader.Wait()
	}()

	if err := loader.Activate(ctx); err != nil {
		return repolist.State{}, fmt.Errorf("activating loader: %w", err)
	}
	for {
		select {
		case s := <-states:
			if s.Terminal() {
				return s, nil
			}
		case <-ctx.Done():
			return repolist.State{}, ctx.Err()
		}
	}
}

func writeRepos(w io.Writer, repos []github.Repository, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(repos)
	}
	if len(repos) == 0 {
		_, err := fmt.Fprintln(w, "No repositories found. Check back later!")
		return err
	}
	_, err := fmt.Fprintln(w, renderReposTable(repos))
	return err
}

func renderReposTable(repos []github.Repository) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		desc := "No description available"
		if r.Description != nil && *r.Description != "" {
			desc = *r.Description
		}
		lang := "-"
		if r.Language != nil && *r.Language != "" {
			lang = *r.Language
		}
		rows = append(rows, []string{
			r.Name,
			truncate(desc, 48),
			lang,
			strconv.Itoa(r.Stars),
			strconv.Itoa(r.Forks),
			r.HTMLURL,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "DESCRIPTION", "LANGUAGE", "STARS", "FORKS", "URL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			// Headers are row 0; data rows start at 1.
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
