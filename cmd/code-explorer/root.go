package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	codeexplorer "github.com/tianjianchn/code-explorer"
	"github.com/tianjianchn/code-explorer/internal/platform"
	"github.com/tianjianchn/code-explorer/pkg/core"
)

var (
	verbose bool
	folder  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "code-explorer",
	Short: "Code bookmarks grouped into stacks, stored in a JSON sidecar file",
	Long: `code-explorer keeps ordered stacks of code bookmarks ("markers") per
workspace folder, persisted to .vscode/code-explorer.json. The file is safe
to edit externally; the store reloads it on change.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&folder, "folder", "f", "", "Workspace folder (defaults to the working directory)")
}

// openStore binds a store to the selected workspace folder, applying the
// user-level config file first and command-line flags on top.
func openStore() *core.Store {
	dir := folder
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fatal("failed to get working directory", err)
		}
		dir = wd
	}

	cfg, err := platform.LoadConfig(platform.ConfigPath())
	if err != nil {
		fatal("failed to load config", err)
	}

	opts := cfg.Options()
	opts = append(opts, codeexplorer.WithLogger(slog.Default()))

	store, err := codeexplorer.Open(dir, opts...)
	if err != nil {
		fatal("failed to open marker store", err)
	}
	return store
}
