package chat

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper evicts idle sessions on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	manager *Manager
	ttl     time.Duration
	logger  *slog.Logger
}

func NewSweeper(m *Manager, ttl time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		manager: m,
		ttl:     ttl,
		logger:  logger,
	}
}

// Start schedules the sweep with a cron spec such as "@every 10m".
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.manager.Sweep(s.ttl) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("chat.sweeper.started", "spec", spec, "idle_ttl", s.ttl.String())
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("chat.sweeper.stopped")
}
