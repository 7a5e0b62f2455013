// Package scheduler periodically refreshes the dashboard of a signed-in
// company.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"skillmatch/internal/common/logger"
	"skillmatch/internal/session"
)

type Refresher interface {
	Resync(ctx context.Context) error
}

// RefreshScheduler wraps robfig/cron and runs one refresh per tick. Ticks
// that arrive while a refresh is still running are skipped.
type RefreshScheduler struct {
	cron      *cron.Cron
	spec      string
	session   session.Provider
	refresher Refresher
	logger    logger.Logger
}

// New creates a scheduler for spec, e.g. "@every 5m" or "*/10 * * * *".
func New(spec string, sess session.Provider, refresher Refresher, log logger.Logger) (*RefreshScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh spec %q: %w", spec, err)
	}
	log = log.WithFields(map[string]interface{}{"component": "refresh-scheduler"})
	cl := cronLogger{log}
	return &RefreshScheduler{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:      spec,
		session:   sess,
		refresher: refresher,
		logger:    log,
	}, nil
}

// Start registers the refresh job and starts the cron loop.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("refresh scheduler started", map[string]interface{}{"spec": s.spec})
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish.
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("refresh scheduler stopped", nil)
}

// RunOnce refreshes if a session is signed in and reports whether it did.
func (s *RefreshScheduler) RunOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, ok := s.session.Current(); !ok {
		s.logger.Debug("no session, skipping refresh", nil)
		return false
	}

	start := time.Now()
	if err := s.refresher.Resync(ctx); err != nil {
		s.logger.Warn("scheduled refresh failed", map[string]interface{}{"error": err})
		return true
	}
	s.logger.Debug("scheduled refresh done", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
	})
	return true
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err
	c.l.Error(msg, fields)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
