package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiznufi-service/internal/logger"
	"quiznufi-service/internal/metrics"
	transport "quiznufi-service/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.Named("server")

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	m := metrics.NewManager()
	quiz, authService := b.services(cfg, m)

	// Sessions started over REST live until shutdown.
	sessionsCtx, stopSessions := context.WithCancel(context.Background())
	defer stopSessions()

	api := transport.NewAPI(transport.Options{
		Quiz:             quiz,
		Auth:             authService,
		Metrics:          m,
		Defaults:         defaultSessionConfig(cfg),
		LeaderboardLimit: cfg.Quiz.LeaderboardLimit,
		CORSOrigins:      cfg.CORS.Origins,
		BaseContext:      sessionsCtx,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// no WriteTimeout: it would cut long-lived websocket sessions
	}

	go func() {
		log.Info(ctx, "starting quiz service", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "failed to start server", logger.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info(ctx, "shutting down server")
	case <-ctx.Done():
		log.Info(ctx, "context canceled, shutting down server")
	}

	stopSessions()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
