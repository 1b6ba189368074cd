package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/filesmanager/backend/internal/config"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume fileQueue (thumbnails) and userQueue (welcome)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init("worker")
		serverCfg := config.Load()

		if serverCfg.Queue.Driver == config.QueueDriverMemory {
			return fmt.Errorf("QUEUE_DRIVER=memory is in-process only: use \"serve --with-worker\"")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := openInfra(ctx, serverCfg)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())

		wait := newPool(rt, serverCfg).Start(ctx)
		<-ctx.Done()
		wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
