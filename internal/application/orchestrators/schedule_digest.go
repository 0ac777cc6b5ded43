package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"society/internal/domain/digest"
)

// ErrDigestIntervalTooShort guards against mail floods from a mistyped interval.
var ErrDigestIntervalTooShort = errors.New("digest interval must be at least one minute")

// ScheduleDashboardDigestInput carries input for ScheduleDashboardDigest.
type ScheduleDashboardDigestInput struct {
	Every      time.Duration
	Recipients []string
	Timeout    time.Duration // per run; defaults to one minute
}

// ExecuteScheduleDashboardDigest registers a recurring digest job on the scheduler.
// The caller owns the scheduler and starts and shuts it down.
// PRE: input.Every >= 1m; scheduler is non-nil
// POST: Returns the registered job; each run sends with digest.TriggerScheduled
func ExecuteScheduleDashboardDigest(scheduler gocron.Scheduler, input ScheduleDashboardDigestInput, deps SendDashboardDigestDeps) (gocron.Job, error) {
	if input.Every < time.Minute {
		return nil, ErrDigestIntervalTooShort
	}
	if len(cleanRecipients(input.Recipients)) == 0 {
		return nil, digest.ErrNoRecipients
	}
	timeout := input.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(input.Every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if _, err := ExecuteSendDashboardDigest(ctx, SendDashboardDigestInput{
				Recipients: input.Recipients,
				Trigger:    digest.TriggerScheduled,
			}, deps); err != nil {
				slog.Error("scheduled_digest_failed", "error", err)
			}
		}),
		gocron.WithName("dashboard-digest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	slog.Info("digest_scheduled", "every", input.Every.String(), "recipients", len(input.Recipients))
	return job, nil
}
