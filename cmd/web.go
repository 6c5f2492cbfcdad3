package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kayz/boardctl/internal/api"
	"github.com/kayz/boardctl/internal/logger"
	"github.com/kayz/boardctl/internal/onboarding"
	"github.com/kayz/boardctl/internal/transcript"
	"github.com/kayz/boardctl/internal/webui"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web <board-id>",
	Short: "Serve the onboarding panel for a board in a browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebPanel,
}

func init() {
	rootCmd.AddCommand(webCmd)
	webCmd.Flags().IntVar(&webPort, "port", 0, "Panel listen port (default from config)")
}

func runWebPanel(cmd *cobra.Command, args []string) error {
	boardID := args[0]
	cfg := loadConfig()

	port := cfg.Web.Port
	if webPort > 0 {
		port = webPort
	}

	var recorder onboarding.Recorder
	var store *transcript.Store
	if !cfg.Transcript.Disabled {
		var err error
		store, err = transcript.NewStore(cfg.Transcript.Path)
		if err != nil {
			logger.Warn("[Web] transcript store unavailable: %v", err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	sync := onboarding.NewSynchronizer(onboarding.Config{
		Client:       api.NewClient(cfg.API.BaseURL, cfg.API.Token),
		BoardID:      boardID,
		PollInterval: time.Duration(cfg.Onboarding.PollIntervalMS) * time.Millisecond,
		Recorder:     recorder,
		OnConfirmed: func(b api.Board) {
			logger.Info("[Web] board %s confirmed: %s", b.ID, b.Name)
		},
	})

	server := webui.NewServer(sync, boardID)
	sync.SetOnChange(server.Publish)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go sync.Run(ctx)

	var janitor *cron.Cron
	if store != nil && cfg.Transcript.RetentionDays > 0 && cfg.Transcript.PruneSchedule != "" {
		janitor = cron.New(cron.WithSeconds())
		retention := time.Duration(cfg.Transcript.RetentionDays) * 24 * time.Hour
		_, err := janitor.AddFunc(cfg.Transcript.PruneSchedule, func() {
			removed, err := store.PruneOlderThan(time.Now().Add(-retention))
			if err != nil {
				logger.Warn("[Web] transcript prune failed: %v", err)
				return
			}
			if removed > 0 {
				logger.Info("[Web] pruned %d transcript row(s)", removed)
			}
		})
		if err != nil {
			logger.Warn("[Web] invalid prune schedule %q: %v", cfg.Transcript.PruneSchedule, err)
		} else {
			janitor.Start()
			defer janitor.Stop()
		}
	}

	httpServer := &http.Server{
		Addr:              panelAddr(port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Web] onboarding panel for board %s on http://127.0.0.1:%d", boardID, port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	return nil
}

// panelAddr always binds loopback: the panel has no authentication, so
// it must never listen on an external interface.
func panelAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}
