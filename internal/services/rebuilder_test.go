package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedEmbedder blocks each rebuild until release is closed
type gatedEmbedder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newGatedEmbedder() *gatedEmbedder {
	return &gatedEmbedder{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedEmbedder) RebuildAllEmbeddings(ctx context.Context) (int, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return 7, g.err
}

func waitStarted(t *testing.T, g *gatedEmbedder) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild did not start")
	}
}

func TestRebuilderCoalescesRequests(t *testing.T) {
	embedder := newGatedEmbedder()
	notifier := &recordingNotifier{}
	r := NewRebuilder(embedder, notifier, 1, testLogger())
	r.Start()
	defer r.Shutdown()

	assert.True(t, r.Trigger("first"))
	waitStarted(t, embedder)

	// first rebuild is running; one more fits in the queue
	assert.True(t, r.Trigger("second"))
	assert.False(t, r.Trigger("third"), "queue full, request coalesced")
	assert.Equal(t, 1, r.GetQueueLength())

	close(embedder.release)
	waitStarted(t, embedder)

	require.Eventually(t, func() bool {
		return r.GetQueueLength() == 0 && notifier.count() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), embedder.calls.Load())

	room, msg := notifier.last()
	assert.Equal(t, models.GlobalRoom, room)
	assert.Equal(t, models.LiveEmbeddingsRebuilt, msg.Type)
	assert.Equal(t, 7, msg.Data["processed"])
}

func TestRebuilderRunNow(t *testing.T) {
	embedder := newGatedEmbedder()
	close(embedder.release)
	r := NewRebuilder(embedder, nil, 1, testLogger())

	count, err := r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestRebuilderRunNowReportsFailure(t *testing.T) {
	embedder := newGatedEmbedder()
	embedder.err = errors.New("disk full")
	close(embedder.release)
	notifier := &recordingNotifier{}
	r := NewRebuilder(embedder, notifier, 1, testLogger())

	count, err := r.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, 7, count)
	assert.Contains(t, err.Error(), "disk full")
	_, msg := notifier.last()
	assert.Nil(t, msg, "failed rebuilds are not announced")
}

func TestRebuilderRejectsAfterShutdown(t *testing.T) {
	r := NewRebuilder(newGatedEmbedder(), nil, 1, testLogger())
	r.Start()
	r.Shutdown()

	assert.False(t, r.Trigger("late"))
}
