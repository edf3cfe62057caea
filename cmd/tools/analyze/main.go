// cmd/tools/analyze/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"review-sentiment/internal/app"
	"review-sentiment/internal/common/config"
	"review-sentiment/internal/common/logger"
)

var (
	cfgFile string
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run review sentiment analyses from the command line",
	Long: `analyze runs the same pipeline as the HTTP API without starting a server.

Example usage:
  analyze app "Spotify"          # Analyze the newest reviews of an app
  analyze search spot            # List catalog matches for a query`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var appCmd = &cobra.Command{
	Use:   "app <app name>",
	Short: "Analyze the newest reviews of an app",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runApp,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List catalog apps matching a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")

	rootCmd.AddCommand(appCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runApp(cmd *cobra.Command, args []string) error {
	return withComponents(cmd.Context(), func(ctx context.Context, components *app.Components) error {
		result, err := components.Service.Analyze(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withComponents(cmd.Context(), func(ctx context.Context, components *app.Components) error {
		apps, err := components.Service.SearchApps(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, apps)
	})
}

func withComponents(parent context.Context, fn func(context.Context, *app.Components) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if verbose {
		log = logger.FromZap(logger.New("debug", "console"))
	}

	components, err := app.Build(ctx, cfg, log, nil, app.BuildOptions{ConnectRetries: 1})
	if err != nil {
		return err
	}
	defer components.Close()

	return fn(ctx, components)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
