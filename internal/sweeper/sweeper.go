package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"lotkeeper/pkg/config"
	"lotkeeper/pkg/logger"
)

// PassiveSweeper is the subset of the reservation service the sweep needs.
type PassiveSweeper interface {
	Sweep(ctx context.Context) (expired, completed int, err error)
}

// Sweeper periodically applies the passive lifecycle rules so stale
// reservations do not linger until someone reads them. The access-path
// evaluation stays authoritative; this only narrows the staleness window.
type Sweeper struct {
	cron    *cron.Cron
	service PassiveSweeper
	timeout time.Duration
	log     *logger.Logger
}

func New(cfg *config.Config, service PassiveSweeper) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		service: service,
		timeout: cfg.RequestTimeout,
		log:     cfg.Log,
	}

	if _, err := s.cron.AddFunc(cfg.SweepSchedule, s.run); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("Reservation sweep scheduled")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Reservation sweep stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	expired, completed, err := s.service.Sweep(ctx)
	if err != nil {
		s.log.Error("Reservation sweep failed", "error", err)
		return
	}

	if expired > 0 || completed > 0 {
		s.log.Info("Reservation sweep finished",
			"expired", expired,
			"completed", completed,
			"duration", time.Since(started),
		)
	}
}
