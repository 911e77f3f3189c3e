package tui

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitflow/internal/logger"
)

// dayWatcher signals on its channel at every local midnight.
type dayWatcher struct {
	cron *cron.Cron
	C    <-chan struct{}
}

func newDayWatcher(loc *time.Location) *dayWatcher {
	if loc == nil {
		loc = time.Local
	}
	ch := make(chan struct{}, 1)
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc("@midnight", func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}); err != nil {
		logger.Warn("failed to schedule day change", "error", err)
	}
	return &dayWatcher{cron: c, C: ch}
}

func (w *dayWatcher) Start() {
	w.cron.Start()
}

func (w *dayWatcher) Stop() {
	<-w.cron.Stop().Done()
}
