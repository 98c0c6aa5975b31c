package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Trigger interface {
	Trigger(reason string) bool
}

// Scheduler requests periodic embedding rebuilds
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	trigger Trigger
	log     *logrus.Entry
}

// New returns a scheduler for spec, or nil when spec is empty
func New(spec string, trigger Trigger, log *logrus.Entry) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}

	s := &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		trigger: trigger,
		log:     log.WithField("schedule", spec),
	}
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return nil, fmt.Errorf("invalid rebuild schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) fire() {
	s.log.Info("Scheduled embedding rebuild")
	if !s.trigger.Trigger("scheduled") {
		s.log.Debug("Rebuild already queued")
	}
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	s.log.Info("Rebuild scheduler started")
}

// Stop waits for a running job to return
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
