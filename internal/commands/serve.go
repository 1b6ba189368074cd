package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/filesmanager/backend/internal/config"
	"github.com/filesmanager/backend/internal/handlers"
	"github.com/filesmanager/backend/internal/queue"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/internal/session"
	"github.com/filesmanager/backend/internal/worker"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	flagWithWorker  bool
	flagCORSOrigins string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagWithWorker, "with-worker", false, "Also consume fileQueue and userQueue in this process")
	serveCmd.Flags().StringVar(&flagCORSOrigins, "cors-origins", "*", "Allowed CORS origins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Init("api")
	serverCfg := config.Load()

	if serverCfg.Queue.Driver == config.QueueDriverMemory && !flagWithWorker {
		return fmt.Errorf("QUEUE_DRIVER=memory needs --with-worker: nothing else can consume the in-process queue")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openInfra(ctx, serverCfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	jobs := queue.NewJobs(rt.broker)
	sessions := session.NewStore(rt.cache, serverCfg.Session.TTL)
	auth := services.NewAuthService(rt.backend.Users(), sessions, jobs)
	files := services.NewFileService(rt.backend.Files(), rt.blobs, jobs)

	app := handlers.NewApp(handlers.Deps{
		Auth:        auth,
		Files:       files,
		Backend:     rt.backend,
		Cache:       rt.cache,
		BodyLimitMB: serverCfg.Server.BodyLimitMB,
		CORSOrigins: flagCORSOrigins,
	})

	waitWorkers := func() {}
	if flagWithWorker {
		waitWorkers = newPool(rt, serverCfg).Start(ctx)
	}

	listenAddr := fmt.Sprintf(":%s", serverCfg.Server.Port)
	logger.Info("server_starting", map[string]interface{}{
		"port":        serverCfg.Server.Port,
		"address":     listenAddr,
		"body_limit":  fmt.Sprintf("%dMB", serverCfg.Server.BodyLimitMB),
		"with_worker": flagWithWorker,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("server_shutting_down", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server_shutdown_failed", err, nil)
		}
		waitWorkers()
		return nil
	case err := <-errCh:
		stop()
		waitWorkers()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func newPool(rt *infra, serverCfg *config.Config) *worker.Pool {
	return &worker.Pool{
		Runner:    worker.NewRunner(rt.broker, serverCfg.Queue.PollTimeout),
		Thumbnail: worker.NewThumbnailProcessor(rt.backend.Files(), rt.blobs),
		Welcome:   worker.NewWelcomeProcessor(rt.backend.Users()),
	}
}
