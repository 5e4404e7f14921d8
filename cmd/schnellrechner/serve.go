package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codefionn/schnellrechner/internal/config"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/pidfile"
	"github.com/codefionn/schnellrechner/internal/pprof"
	"github.com/codefionn/schnellrechner/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAddr    string
	servePidfile string
	servePprof   string
)

// serveCmd runs the HTTP and WebSocket server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calculator HTTP server",
	Long: `Start an HTTP server with a JSON evaluation API, the evaluation history
and WebSocket keypad sessions. The API is described at /openapi.json.

Changes to the log level in the config file are applied without a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		if servePidfile != "" {
			pf := pidfile.New(servePidfile)
			if err := pf.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := pf.Release(); err != nil {
					logger.Warn("%v", err)
				}
			}()
		}

		if servePprof != "" {
			debugServer, err := pprof.Start(pprof.Config{HTTPAddr: servePprof}, logger.Global())
			if err != nil {
				return err
			}
			defer debugServer.Stop()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(cfg, store, logger.Global())
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		if err := srv.Start(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())

		go watchConfig(ctx)

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, localhost:8937)")
	serveCmd.Flags().StringVar(&servePidfile, "pidfile", "", "Write the server PID to this file")
	serveCmd.Flags().StringVar(&servePprof, "pprof-addr", "", "Serve /debug/pprof on this address")
}

// watchConfig applies log level changes from the config file until ctx is done
func watchConfig(ctx context.Context) {
	path := configPath()
	err := config.Watch(ctx, path, func(updated *config.Config) {
		if logLevel != "" {
			return
		}
		level := logger.ParseLevel(updated.LogLevel)
		logger.Global().SetLevel(level)
		logger.Info("log level set to %s", level)
	})
	if err != nil {
		logger.Warn("not watching config: %v", err)
	}
}
