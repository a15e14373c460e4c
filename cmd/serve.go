package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/board/cli"
	"github.com/grovetools/board/config"
	"github.com/grovetools/board/internal/boardd/notify"
	"github.com/grovetools/board/internal/boardd/pidfile"
	"github.com/grovetools/board/internal/boardd/server"
	"github.com/grovetools/board/internal/boardd/store"
	"github.com/grovetools/board/internal/boardd/watcher"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
	"github.com/grovetools/board/pkg/paths"
	"github.com/spf13/cobra"
)

// seedListing is created when the server starts on an empty store.
var seedListing = models.Item{
	Title:       "Luxury seaside villa",
	Description: "Panoramic ocean view, private pool.",
	Price:       550000,
	ImageURL:    "https://via.placeholder.com/400x250.png/007BFF/FFFFFF?text=Villa",
}

// NewServeCmd returns the store server command with subcommands.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the listings store",
		Long:  "Run the authoritative listings store that boards read from and post to.",
	}

	cmd.AddCommand(newServeStartCmd())
	cmd.AddCommand(newServeStopCmd())
	cmd.AddCommand(newServeStatusCmd())

	return cmd
}

func newServeStartCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the store in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			logger := cli.GetLogger(cmd, "board-serve")
			pidPath := paths.PidFilePath()

			// 1. Acquire lock
			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Open store
			backend, err := store.OpenBackend(cfg.Server.Database)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			st := store.New(backend)
			defer st.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if cfg.SeedEnabled() {
				if seeded, err := st.Seed(ctx, seedListing); err != nil {
					logger.WithError(err).Warn("Failed to seed store")
				} else if seeded {
					logger.Info("Seeded empty store with an example listing")
				}
			}

			// 3. Server
			srv, err := server.New(st, server.Options{
				Logger:      logger,
				CORSOrigins: cfg.Server.CORSOrigins,
				Notifier:    notify.FromConfig(cfg.Notify.Telegram, logger),
			})
			if err != nil {
				return err
			}

			// 4. Reload notifier credentials when board.yml changes
			if cfgPath != "" {
				w, err := watcher.New(cfgPath, 0, func(next *config.Config) {
					srv.SetNotifier(notify.FromConfig(next.Notify.Telegram, logger))
				}, logger)
				if err != nil {
					logger.WithError(err).Warn("Config watching disabled")
				} else {
					go w.Start(ctx)
				}
			}

			// 5. Shut down on signal
			go func() {
				<-ctx.Done()
				logger.Info("Received stop signal")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
			}()

			logger.WithFields(map[string]interface{}{
				"pid":    os.Getpid(),
				"driver": cfg.Server.Database.Driver,
			}).Info("Starting board store")
			if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides server.listen)")
	return cmd
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running store",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			console := logging.NewConsole(cmd.OutOrStdout())
			if !running {
				console.Warn("Store is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			console.Success(fmt.Sprintf("Sent SIGTERM to process %d", pid))
			return nil
		},
	}
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			console := logging.NewConsole(cmd.OutOrStdout())
			if !running {
				console.Warn("Stopped")
				return fmt.Errorf("store is not running")
			}

			console.Success("Running")
			console.Field("PID", pid)
			if cfg, _, err := cli.LoadConfig(cmd); err == nil {
				console.Field("API", cfg.APIURL)
				console.Field("Driver", cfg.Server.Database.Driver)
				if client, err := board.NewRemoteClient(cfg.APIURL, cfg.RequestTimeout()); err == nil {
					health := "ok"
					if err := client.Health(cmd.Context()); err != nil {
						health = err.Error()
					}
					client.Close()
					console.Field("Health", health)
				}
			}
			return nil
		},
	}
}
