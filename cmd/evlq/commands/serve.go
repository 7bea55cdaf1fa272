package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/api"
	"github.com/wonny/evlq/internal/api/handlers"
	"github.com/wonny/evlq/internal/reconcile"
	"github.com/wonny/evlq/internal/scheduler"
	"github.com/wonny/evlq/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 헬스 스케줄러 시작",
	Long: `REST API 서버와 source-health 크론 작업을 함께 시작합니다.

Endpoints:
  GET  /health                    - Liveness + store ping
  POST /api/validate/{source_id}  - Validate a payload
  GET  /api/contracts             - List contracts
  GET  /api/fetches/{source_id}   - Recent fetch records
  GET  /api/health/{source_id}    - Source health
  GET  /api/quality/dashboard     - Quality dashboard
  GET  /api/alerts                - Alerts
  POST /api/reconcile             - Cross-source reconciliation

Example:
  go run ./cmd/evlq serve
  go run ./cmd/evlq serve --port 9000 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort   string
	noScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT env)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "헬스 스케줄러 비활성화")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	log := a.log.WithFields(map[string]interface{}{
		"port":    a.cfg.Port,
		"env":     a.cfg.Env,
		"backend": a.backend,
	})
	log.Info("Initializing API server")

	// 1. Scheduler
	sched := scheduler.New(a.log).WithRetry(1, 30*time.Second)
	if !noScheduler {
		job := jobs.NewSourceHealthJob(a.monitor, a.cfg.Quality.HealthSchedule, a.log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register health job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 2. Handlers + router
	h := api.Handlers{
		Quality: handlers.NewQualityHandler(a.validator, a.recorder, a.log),
		Health:  handlers.NewHealthHandler(a.monitor, a.registry, a.recorder, a.cache, a.log),
		Alerts:  handlers.NewAlertHandler(a.recorder, reconcile.New(a.recorder), a.log),
	}
	router := api.NewRouter(a.cfg, h, a.store, a.log)

	// 3. Server; ctx ends on SIGINT/SIGTERM
	fmt.Printf("\n✅ Server running on http://localhost:%s (store: %s)\n", a.cfg.Port, a.backend)
	fmt.Println("\nPress Ctrl+C to stop")

	server := api.New(a.cfg, a.log, router)
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
