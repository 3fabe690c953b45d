package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cronv3 "github.com/robfig/cron/v3"
)

// Defaults for background renewal.
const (
	DefaultRenewSchedule = "@every 1h"
	DefaultRenewWithin   = 72 * time.Hour
)

// Renewer periodically renews the persisted token before it expires.
type Renewer struct {
	coord  *Coordinator
	within time.Duration
	logger *slog.Logger
	now    func() time.Time

	cron *cronv3.Cron
	ctx  context.Context
}

// NewRenewer creates a renewer that checks the token on schedule and renews
// it when it expires within the given window.
// The schedule accepts standard five-field expressions, an optional seconds
// field, and descriptors such as "@every 30m".
func NewRenewer(coord *Coordinator, schedule string, within time.Duration, logger *slog.Logger) (*Renewer, error) {
	if schedule == "" {
		schedule = DefaultRenewSchedule
	}
	if within <= 0 {
		within = DefaultRenewWithin
	}

	parser := cronv3.NewParser(cronv3.SecondOptional | cronv3.Minute | cronv3.Hour | cronv3.Dom | cronv3.Month | cronv3.Dow | cronv3.Descriptor)
	r := &Renewer{
		coord:  coord,
		within: within,
		logger: logger,
		now:    time.Now,
		cron:   cronv3.New(cronv3.WithParser(parser)),
		ctx:    context.Background(),
	}
	if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
		return nil, fmt.Errorf("invalid renew schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in the background. ctx is passed to renewals.
func (r *Renewer) Start(ctx context.Context) {
	r.ctx = ctx
	r.cron.Start()
	r.logger.Info("token renewer started", slog.Duration("within", r.within))
}

// Stop halts the schedule and waits for a running check to finish.
func (r *Renewer) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Renewer) tick() {
	if _, err := r.Check(r.ctx); err != nil {
		r.logger.Warn("scheduled token renewal failed",
			slog.String("error", err.Error()),
			slog.Bool("retryable", isRetryable(err)),
		)
	}
}

// Check renews the token if one is held and it expires within the window.
// It reports whether a renewal was attempted.
func (r *Renewer) Check(ctx context.Context) (bool, error) {
	state := r.coord.store.State()
	if !state.IsSignedIn() || state.CustomerAccessTokenExpiresAt == nil {
		return false, nil
	}
	remaining := state.CustomerAccessTokenExpiresAt.Sub(r.now())
	if remaining > r.within {
		return false, nil
	}

	r.logger.DebugContext(ctx, "token expiring soon", slog.Duration("remaining", remaining))
	_, err := r.coord.RenewToken(ctx)
	return true, err
}
