package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type sessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically deletes expired session rows on a cron schedule.
type SessionSweeper struct {
	sessions sessionSweeper
	logger   *slog.Logger
	timeout  time.Duration
	cron     *cron.Cron
}

func NewSessionSweeper(sessions sessionSweeper, schedule string, logger *slog.Logger) (*SessionSweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &SessionSweeper{
		sessions: sessions,
		logger:   logger,
		timeout:  time.Minute,
		cron:     cron.New(),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *SessionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", "count", removed)
	}
}

func (s *SessionSweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *SessionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
