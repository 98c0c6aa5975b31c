package scheduler

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countTrigger struct{ n int }

func (c *countTrigger) Trigger(string) bool {
	c.n++
	return true
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestNewDisabled(t *testing.T) {
	s, err := New("", &countTrigger{}, quietLog())
	require.NoError(t, err)
	assert.Nil(t, s)

	// nil scheduler is safe to start and stop
	s.Start()
	s.Stop()
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every now and then", &countTrigger{}, quietLog())
	require.Error(t, err)
}

func TestFireTriggersRebuild(t *testing.T) {
	trigger := &countTrigger{}
	s, err := New("@daily", trigger, quietLog())
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 1)

	s.cron.Entries()[0].Job.Run()
	assert.Equal(t, 1, trigger.n)

	s.Start()
	s.Stop()
}
