package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/internal/monitoring"
	"github.com/MrEthical07/goGuard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the goGuard HTTP API. Configuration is read from GOGUARD_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	checks := map[string]server.Check{
		"redis":    func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		"postgres": a.db.Ping,
	}
	handler := server.NewRouter(server.Options{
		Engine:      a.engine,
		Monitor:     monitoring.NewMonitor(a.spec.ServiceName),
		CORSOrigins: a.spec.CORSOrigins,
		Checks:      checks,
		Tracing:     a.tracer.Enabled(),
	})

	if interval := a.engine.Config().Refresh.SweepInterval; interval > 0 {
		go sweepEvery(ctx, a, interval)
	}

	srv := server.New(a.spec.Addr(), handler, a.spec.ReadTimeout, a.spec.WriteTimeout, a.log)
	if err := srv.Run(ctx, a.spec.ShutdownTimeout); err != nil {
		a.log.Errorw("http server stopped", "error", err)
		return err
	}
	a.log.Infow("shutdown complete")
	return nil
}

func sweepEvery(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// errors are logged by the engine
			_, _ = a.engine.SweepExpiredRefreshTokens(ctx)
		}
	}
}
