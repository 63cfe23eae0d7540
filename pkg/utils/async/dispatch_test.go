package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/utils/async"
	"github.com/m-mizutani/gt"
)

func TestDispatchRunsHandler(t *testing.T) {
	var called atomic.Int32
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		return nil
	})
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		return errors.New("ignored")
	})
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		panic("recovered")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gt.NoError(t, async.Wait(ctx))
	gt.Value(t, called.Load()).Equal(int32(3))
}

func TestDispatchDetachesFromCallerContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	async.Dispatch(parent, func(ctx context.Context) error {
		errCh <- ctx.Err()
		return nil
	})

	select {
	case err := <-errCh:
		gt.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not run")
	}
}
