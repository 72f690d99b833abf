// Package scheduler runs periodic housekeeping: idle session eviction and
// request analytics gauges.
package scheduler

import (
	"context"
	"log/slog"

	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"
	"resourcehub/internal/views"

	"github.com/robfig/cron/v3"
)

const (
	EvictSpec  = "@every 1m"
	GaugesSpec = "@every 30s"
)

// Evictor drops idle sessions.
type Evictor interface {
	EvictIdle() int
}

// StateSource yields the current collection state.
type StateSource interface {
	State() views.State
}

type Scheduler struct {
	cron *cron.Cron
}

// New registers the housekeeping jobs without starting them.
func New(sessions Evictor, state StateSource) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))

	if _, err := c.AddFunc(EvictSpec, func() { sessions.EvictIdle() }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(GaugesSpec, func() { RecordGauges(state.State()) }); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	middleware.Logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// RecordGauges publishes request counts per derived status.
func RecordGauges(st views.State) {
	counts := map[models.DerivedStatus]int{
		models.DerivedPending:    0,
		models.DerivedApproved:   0,
		models.DerivedRejected:   0,
		models.DerivedDownloaded: 0,
	}
	for _, r := range st.Requests {
		counts[models.DeriveStatus(r, st.Downloaded(r.Pair()))]++
	}
	for status, n := range counts {
		observability.RequestsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	middleware.Logger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	middleware.Logger.Error(msg, append(keysAndValues, "error", err)...)
}
