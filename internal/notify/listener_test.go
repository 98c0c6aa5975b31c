package notify

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTrigger struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingTrigger) Trigger(reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	return true
}

func (r *recordingTrigger) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestRunTriggersOnNotifications(t *testing.T) {
	trigger := &recordingTrigger{}
	l := newListener(nil, "embeddings_rebuild", trigger, quietLog())

	notifications := make(chan *pq.Notification, 3)
	notifications <- &pq.Notification{Channel: "embeddings_rebuild", Extra: "eventctl"}
	notifications <- &pq.Notification{Channel: "embeddings_rebuild"}
	notifications <- nil

	done := make(chan struct{})
	go func() {
		l.run(notifications)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(trigger.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	close(l.stop)
	<-done

	assert.Equal(t, []string{"eventctl", "notification", "listener reconnected"}, trigger.snapshot())
}

func TestIdlePingStopsWithRun(t *testing.T) {
	l := newListener(nil, "embeddings_rebuild", &recordingTrigger{}, quietLog())
	l.idle = 5 * time.Millisecond
	var pings atomic.Int32
	l.ping = func() error {
		pings.Add(1)
		return nil
	}

	done := make(chan struct{})
	go func() {
		l.run(make(chan *pq.Notification))
		close(done)
	}()

	require.Eventually(t, func() bool { return pings.Load() >= 2 }, time.Second, time.Millisecond)
	close(l.stop)
	<-done

	stopped := pings.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, pings.Load(), "no ping may run once the loop has returned")
}
