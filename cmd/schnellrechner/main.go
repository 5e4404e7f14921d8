package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/codefionn/schnellrechner/internal/config"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/pprof"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configFile  string
	logLevel    string
	noHistory   bool
	showRPN     bool
	cpuProfile  string
	heapProfile string
)

// Set up by PersistentPreRunE for every command
var (
	cfg               *config.Config
	store             *history.Store
	profiler          *pprof.Profiler
	loggerInitialized bool
)

// errEvaluationFailed is returned after a failed evaluation was already
// reported to the user
var errEvaluationFailed = errors.New("evaluation failed")

// rootCmd evaluates its arguments, or starts an interactive calculator
var rootCmd = &cobra.Command{
	Use:   "schnellrechner [expression]",
	Short: "Calculator for arithmetic expressions",
	Long: `schnellrechner evaluates arithmetic expressions with + - * / and
parentheses, honouring operator precedence.

  schnellrechner "2 + 3 * 4"     evaluate once and print the result
  schnellrechner -- "-3+5"       use -- before an expression starting with "-"
  schnellrechner                 open the keypad (or read lines from stdin)
  schnellrechner serve           serve the HTTP and WebSocket API`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return evaluateExpression(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.Join(args, " "))
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runTUI(cmd.Context())
		}
		return evaluateLines(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w (put -- before an expression that starts with \"-\")", err)
	})
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (JSON), defaults to "+config.GetConfigPath())
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, none)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not read or record the evaluation history")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpu-profile", "", "Write a CPU profile to this file")
	rootCmd.PersistentFlags().StringVar(&heapProfile, "heap-profile", "", "Write a heap profile to this file on exit")
	rootCmd.Flags().BoolVar(&showRPN, "postfix", false, "Also print the expression in postfix notation")
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errEvaluationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() (err error) {
	defer func() {
		if profiler != nil {
			if stopErr := profiler.Stop(); stopErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to write profiles: %v\n", stopErr)
			}
		}
		if store != nil {
			if closeErr := store.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close history: %v\n", closeErr)
			}
		}
		if !loggerInitialized {
			return
		}
		if err != nil && !errors.Is(err, errEvaluationFailed) {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	return rootCmd.Execute()
}

// setup loads the configuration, initializes the logger and opens the
// history database
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loaded.ApplyEnv()
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	cfg = loaded

	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		return fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	loggerInitialized = true
	logger.Debug("configuration loaded: log_level=%s, log_path=%s, history=%v", cfg.LogLevel, cfg.LogPath, cfg.HistoryEnabled)

	if profiles := (pprof.Config{CPUProfile: cpuProfile, HeapProfile: heapProfile}); profiles.Enabled() {
		started, err := pprof.Start(profiles, logger.Global())
		if err != nil {
			return err
		}
		profiler = started
	}

	if cfg.HistoryEnabled && !noHistory {
		opened, err := history.Open(cfg.HistoryPath)
		if err != nil {
			// the calculator stays usable without its history
			logger.Warn("history disabled: %v", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history disabled: %v\n", err)
		} else {
			store = opened
		}
	}

	return nil
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.GetConfigPath()
}

// newSession creates a session wired to the configured display precision
// and history
func newSession(id string) *session.Session {
	opts := []session.Option{
		session.WithLogger(logger.Global()),
		session.WithPrecision(cfg.Display.Precision),
	}
	if id != "" {
		opts = append(opts, session.WithID(id))
	}
	if store != nil {
		opts = append(opts, session.WithRecorder(history.NewRecorder(store, cfg.HistoryLimit, nil)))
	}
	return session.New(opts...)
}
