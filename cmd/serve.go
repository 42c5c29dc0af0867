package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/persist"
	"github.com/kayz/biometrics/internal/webui"
)

var (
	serveAddr     string
	serveSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	Long: `Run the dashboard server.

Endpoints:
  GET  /api/dashboard/data   Bootstrap snapshot (metrics + agents)
  GET  /ws/dashboard         Push channel
  POST /api/agents           Upsert one agent or a list
  POST /api/alerts           Raise an alert on every dashboard
  GET  /metrics              Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", webui.DefaultBroadcastSchedule, "Metrics broadcast schedule (cron spec)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	conf := loadedConfig()
	seedConfig()
	addr := serveAddr
	if addr == "" {
		addr = conf.Dashboard.Addr
	}

	store, err := persist.NewStore(conf.DBPath())
	if err != nil {
		return fmt.Errorf("open roster store: %w", err)
	}
	defer store.Close()
	logger.Info("[Dashboard] roster database %s", conf.DBPath())

	server := webui.NewServer(store)
	if err := server.Start(serveSchedule); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, addr)
}
