package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/api"
	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interviews over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "address to listen on (default :8080)")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := setup()
	coordinator, store := a.coordinator(ctx)

	server := &http.Server{
		Addr:              a.config.Server.Address,
		Handler:           api.NewRouter(coordinator, a.catalogue, a.optimizer, a.engine, a.logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ttl := a.config.Interview.SessionTTL; ttl > 0 {
		go sweepSessions(ctx, store, ttl, a.logger)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting the welfare-interviewer",
			zap.String("version", version),
			zap.String("address", server.Addr),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("serving http", zap.Error(err))
		}
	case <-ctx.Done():
		a.logger.Info("shutting down", zap.String("reason", "got termination signal"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sweepSessions drops idle sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, store *interview.Store, ttl time.Duration, logger *zap.Logger) {
	interval := ttl / 2
	for {
		if err := utils.WaitFor(ctx, interval); err != nil {
			return
		}
		if removed := store.Sweep(ttl); removed > 0 {
			logger.Info("dropped idle sessions",
				zap.Int("count", removed),
				zap.Int("active", store.Len()),
			)
		}
	}
}
