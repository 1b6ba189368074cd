package worker

import (
	"context"
	"sync"

	"github.com/filesmanager/backend/internal/queue"
)

// Pool runs one Runner loop per queue.
type Pool struct {
	Runner    *Runner
	Thumbnail *ThumbnailProcessor
	Welcome   *WelcomeProcessor
}

// Start consumes fileQueue and userQueue until ctx is cancelled. The returned
// func blocks until both loops have exited.
func (p *Pool) Start(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	loops := map[string]Handler{
		queue.FileQueue: p.Thumbnail.Handle,
		queue.UserQueue: p.Welcome.Handle,
	}
	for name, handle := range loops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Runner.Run(ctx, name, handle)
		}()
	}
	return wg.Wait
}
