// Command yuffin inspects, browses and extracts Yuffin containers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zbirow/yuffin/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	logLevel    string
	logFormat   string
	noProgress  bool
	pageSize    int
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "yuffin",
	Short: "Inspect, browse and extract Yuffin containers",
	Long: `yuffin reads Yuffin media containers and Yuffin image archives from
local files or HTTP(S) URLs.

Media containers hold video, audio and nested image archives behind a
base64 JSON index. Image archives hold images grouped into directories,
which are presented as natural-sorted chapters.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if cmd.Flags().Changed("page-size") {
			cfg.PageSize = pageSize
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = concurrency
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level:   level,
				NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
			})
		}
		slog.SetDefault(slog.New(handler))

		slog.Debug("configuration",
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat,
			"page_size", cfg.PageSize,
			"concurrency", cfg.Concurrency,
			"chapter_pattern", cfg.ChapterPattern,
			"cache_blocks", cfg.CacheBlocks,
			"block_size", cfg.BlockSize)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is yuffin.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0, "images per grid page")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "maximum concurrent image loads")

	rootCmd.AddCommand(inspectCmd, lsCmd, pageCmd, catCmd, extractCmd)
}
