package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagPage    string
	flagSession string
	flagMemory  bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Terminal portfolio",
	Long:  "portfolio shows Vashu Verma's profile, featured work, latest GitHub repositories and a contact form in the terminal.",
	RunE:  runTUI,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session cache id (default: derived from the launching shell)")
	rootCmd.PersistentFlags().BoolVar(&flagMemory, "memory", false, "keep the session cache in memory only")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log at debug level regardless of config")
	rootCmd.Flags().StringVar(&flagPage, "page", "home", "start page: home, about, projects or contact")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(sessionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portfolio %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
