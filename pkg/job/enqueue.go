package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/riverqueue/river"
)

type enqueueOptions struct {
	scheduledAt time.Time
	maxAttempts int
	uniqueFor   time.Duration
	uniqueKey   string
}

// EnqueueOption adjusts how a single job is inserted.
type EnqueueOption func(*enqueueOptions)

// ScheduledAt delays execution until the given time.
func ScheduledAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = t
	}
}

// ScheduledIn delays execution by the given duration.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = time.Now().Add(d)
	}
}

// WithMaxAttempts overrides the retry budget for this job.
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithUniqueFor deduplicates identical jobs within the given window.
func WithUniqueFor(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.uniqueFor = d
	}
}

// WithUniqueKey scopes uniqueness to jobs sharing the same key.
func WithUniqueKey(key string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.uniqueKey = key
	}
}

func buildArgs(name string, payload any, opts ...EnqueueOption) (*taskArgs, *river.InsertOpts, error) {
	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}

	args := &taskArgs{TaskName: name, UniqueKey: o.uniqueKey}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		args.Payload = raw
	}

	insertOpts := &river.InsertOpts{}
	if !o.scheduledAt.IsZero() {
		insertOpts.ScheduledAt = o.scheduledAt
	}
	if o.maxAttempts > 0 {
		insertOpts.MaxAttempts = o.maxAttempts
	}
	if o.uniqueFor > 0 {
		insertOpts.UniqueOpts = river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: o.uniqueFor,
		}
	}

	return args, insertOpts, nil
}
