package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPollAndResult(t *testing.T) {
	release := make(chan struct{})
	task := StartTask(context.Background(), 0, func(context.Context) (string, error) {
		<-release
		return "merged", nil
	})

	assert.False(t, task.Poll(10*time.Millisecond))
	close(release)
	assert.True(t, task.Poll(time.Second))

	text, err := task.Result()
	require.NoError(t, err)
	assert.Equal(t, "merged", text)
}

func TestTaskError(t *testing.T) {
	task := StartTask(context.Background(), 0, func(context.Context) (string, error) {
		return "", errors.New("provider down")
	})

	_, err := task.Result()
	assert.EqualError(t, err, "provider down")
}

func TestTaskRecoversPanic(t *testing.T) {
	task := StartTask(context.Background(), 0, func(context.Context) (string, error) {
		panic("boom")
	})

	_, err := task.Result()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTaskIsNotCancelledWithParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	task := StartTask(ctx, 0, func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "done", ctx.Err()
	})

	<-started
	cancel()
	close(release)

	require.True(t, task.Poll(time.Second), "task did not finish")
	text, err := task.Result()
	require.NoError(t, err)
	assert.Equal(t, "done", text)
}

func TestTaskTimeout(t *testing.T) {
	task := StartTask(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	require.True(t, task.Poll(time.Second), "task did not time out")
	_, err := task.Result()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
