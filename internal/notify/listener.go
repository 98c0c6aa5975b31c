package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Trigger receives rebuild requests
type Trigger interface {
	Trigger(reason string) bool
}

// Listener turns Postgres NOTIFY messages on a channel into rebuild requests
// so that other processes can ask a running server to rebuild.
type Listener struct {
	channel  string
	listener *pq.Listener
	trigger  Trigger
	log      *logrus.Entry
	stop     chan struct{}
	wg       sync.WaitGroup

	// ping runs on the run goroutine after idle without notifications
	ping func() error
	idle time.Duration
}

func NewListener(dsn, channel string, trigger Trigger, log *logrus.Entry) (*Listener, error) {
	log = log.WithField("channel", channel)
	pl := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.WithError(err).Warn("Notification listener connection problem")
		}
	})
	if err := pl.Listen(channel); err != nil {
		pl.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}
	return newListener(pl, channel, trigger, log), nil
}

func newListener(pl *pq.Listener, channel string, trigger Trigger, log *logrus.Entry) *Listener {
	l := &Listener{
		channel:  channel,
		listener: pl,
		trigger:  trigger,
		log:      log,
		stop:     make(chan struct{}),
		idle:     90 * time.Second,
	}
	if pl != nil {
		l.ping = pl.Ping
	}
	return l
}

func (l *Listener) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(l.listener.Notify)
	}()
	l.log.Info("Listening for rebuild requests")
}

func (l *Listener) run(notifications <-chan *pq.Notification) {
	for {
		select {
		case <-l.stop:
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			// nil is sent after a reconnect; anything missed meanwhile warrants a rebuild
			reason := "notification"
			if n == nil {
				reason = "listener reconnected"
			} else if n.Extra != "" {
				reason = n.Extra
			}
			if !l.trigger.Trigger(reason) {
				l.log.WithField("reason", reason).Debug("Rebuild already queued")
			}
		case <-time.After(l.idle):
			if l.ping == nil {
				continue
			}
			if err := l.ping(); err != nil {
				l.log.WithError(err).Warn("Notification listener ping failed")
			}
		}
	}
}

func (l *Listener) Stop() error {
	close(l.stop)
	l.wg.Wait()
	return l.listener.Close()
}

// Publish sends a rebuild request to every listening server
func Publish(ctx context.Context, db *gorm.DB, channel, reason string) error {
	if err := db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", channel, reason).Error; err != nil {
		return fmt.Errorf("failed to notify %s: %w", channel, err)
	}
	return nil
}
