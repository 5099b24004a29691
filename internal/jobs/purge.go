// Package jobs runs periodic housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TokenPurger deletes tokens that have already expired.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron runner with the purge job.
type Scheduler struct {
	cron    *cron.Cron
	purger  TokenPurger
	log     *logrus.Logger
	timeout time.Duration
}

// NewScheduler registers the purge job on spec (standard cron or @descriptor).
func NewScheduler(spec string, purger TokenPurger, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		purger:  purger,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.PurgeOnce); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}
	return s, nil
}

// PurgeOnce runs a single purge with its own timeout.
func (s *Scheduler) PurgeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		s.log.WithError(err).Error("Expired token purge failed")
		return
	}
	s.log.WithField("deleted", n).Info("Expired tokens purged")
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
