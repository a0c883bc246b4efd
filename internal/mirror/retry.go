package mirror

import "time"

// Default retry policy values.
const (
	DefaultMaxAttempts = 6
	DefaultBaseDelay   = time.Second
	DefaultDelayCap    = 5 * time.Minute
)

// RetryPolicy bounds the retry budget for failed jobs. Zero values take the
// defaults.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	DelayCap    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.DelayCap <= 0 {
		p.DelayCap = DefaultDelayCap
	}
	return p
}

// RetrySchedule is the outcome of a failed attempt: either a next attempt
// time, or a terminal give-up once the budget is exhausted.
type RetrySchedule struct {
	Terminal      bool
	NextAttemptAt *time.Time
}

// ComputeRetrySchedule decides retry-vs-terminal after a failure. attempts
// is the attempt count including the failure just recorded. Delays double
// from the base (1s, 2s, 4s, ...) up to the cap; once attempts reaches the
// maximum the job is terminal and never retried automatically.
func ComputeRetrySchedule(attempts int, now time.Time, policy RetryPolicy) RetrySchedule {
	p := policy.withDefaults()
	if attempts >= p.MaxAttempts {
		return RetrySchedule{Terminal: true}
	}

	delay := p.BaseDelay
	if attempts > 1 {
		delay = p.BaseDelay << (attempts - 1)
	}
	// A negative delay means the shift overflowed.
	if delay > p.DelayCap || delay <= 0 {
		delay = p.DelayCap
	}

	next := now.Add(delay)
	return RetrySchedule{NextAttemptAt: &next}
}
