package mirror

import (
	"fmt"
	"log"
	"time"

	"github.com/zulandar/waybridge/internal/models"
	"github.com/zulandar/waybridge/internal/realtime"
	"gorm.io/gorm"
)

const (
	// DefaultDrainLimit is the batch size when none is given.
	DefaultDrainLimit = 20
	// maxDrainLimit caps a single pass.
	maxDrainLimit = 100
	// maxErrorLen bounds the persisted last_error text.
	maxErrorLen = 2000
)

// DrainOpts holds parameters for a drain pass. Zero values take defaults.
type DrainOpts struct {
	Limit  int
	Policy RetryPolicy
	Now    func() time.Time // defaults to time.Now, injectable for tests
}

// Drain runs one pass over due mirror jobs: query oldest-first, claim each
// candidate atomically, dispatch to the direction's processor, and record
// the outcome. Lost claims are skipped silently; another worker owns the
// job. Returns the number of jobs completed in this pass.
func Drain(db *gorm.DB, pub realtime.Publisher, opts DrainOpts) (int, error) {
	if pub == nil {
		pub = realtime.NopPublisher{}
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	now := nowFn()
	var jobs []models.BridgeMirrorJob
	err := db.Where(
		"(status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)) OR (status = ? AND next_attempt_at <= ?)",
		models.JobPending, now, models.JobFailed, now,
	).
		Order("created_at ASC").
		Limit(clampLimit(opts.Limit)).
		Find(&jobs).Error
	if err != nil {
		return 0, fmt.Errorf("mirror: query due jobs: %w", err)
	}

	completed := 0
	for i := range jobs {
		job := &jobs[i]

		claimed, err := ClaimJob(db, job.ID, nowFn())
		if err != nil {
			// Storage trouble will hit every remaining job too; stop the pass.
			return completed, err
		}
		if !claimed {
			continue
		}

		// Refresh after winning the claim: another worker may have failed
		// the job between the batch query and now, moving its attempt count.
		var fresh models.BridgeMirrorJob
		if err := db.First(&fresh, job.ID).Error; err != nil {
			return completed, fmt.Errorf("mirror: reload job %d: %w", job.ID, err)
		}
		*job = fresh

		if procErr := dispatchJob(db, pub, job); procErr != nil {
			if err := recordFailure(db, job, procErr, nowFn(), opts.Policy); err != nil {
				return completed, err
			}
			continue
		}

		if err := recordSuccess(db, job); err != nil {
			return completed, err
		}
		completed++
	}
	return completed, nil
}

// DrainSafely runs Drain and swallows every error, including panics, so a
// scheduler callback never blows up. Outcomes are logged instead.
func DrainSafely(db *gorm.DB, pub realtime.Publisher, opts DrainOpts, label string) {
	if label == "" {
		label = "drain"
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("mirror: %s: panic: %v", label, r)
		}
	}()

	n, err := Drain(db, pub, opts)
	if err != nil {
		log.Printf("mirror: %s: %v", label, err)
		return
	}
	if n > 0 {
		log.Printf("mirror: %s: %d jobs completed", label, n)
	}
}

// dispatchJob routes a claimed job to the processor for its direction.
func dispatchJob(db *gorm.DB, pub realtime.Publisher, job *models.BridgeMirrorJob) error {
	switch job.Direction {
	case models.DirectionSessionToThread:
		return processSessionToThread(db, pub, job)
	case models.DirectionThreadToSession:
		return processThreadToSession(db, pub, job)
	default:
		return fmt.Errorf("mirror: job %d has unknown direction %q", job.ID, job.Direction)
	}
}

// recordSuccess marks a job completed, clearing its schedule and error and
// persisting the destination references the processor resolved.
func recordSuccess(db *gorm.DB, job *models.BridgeMirrorJob) error {
	updates := map[string]interface{}{
		"status":          models.JobCompleted,
		"next_attempt_at": nil,
		"last_error":      "",
		"session_id":      job.SessionID,
		"thread_id":       job.ThreadID,
		"interaction_id":  job.InteractionID,
		"message_id":      job.MessageID,
	}
	if err := db.Model(&models.BridgeMirrorJob{}).
		Where("id = ?", job.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("mirror: complete job %d: %w", job.ID, err)
	}
	job.Status = models.JobCompleted
	job.NextAttemptAt = nil
	job.LastError = ""
	return nil
}

// recordFailure increments the attempt count, computes the retry schedule,
// and persists the failed state. Terminal jobs keep a nil next-attempt and
// are never picked up again automatically.
func recordFailure(db *gorm.DB, job *models.BridgeMirrorJob, procErr error, now time.Time, policy RetryPolicy) error {
	attempts := job.Attempts + 1
	sched := ComputeRetrySchedule(attempts, now, policy)

	updates := map[string]interface{}{
		"status":          models.JobFailed,
		"attempts":        attempts,
		"next_attempt_at": sched.NextAttemptAt,
		"last_error":      truncateError(procErr),
	}
	if err := db.Model(&models.BridgeMirrorJob{}).
		Where("id = ?", job.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("mirror: record failure for job %d: %w", job.ID, err)
	}
	job.Status = models.JobFailed
	job.Attempts = attempts
	job.NextAttemptAt = sched.NextAttemptAt
	job.LastError = truncateError(procErr)
	return nil
}

// clampLimit bounds a batch limit to 1..maxDrainLimit, defaulting when unset.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultDrainLimit
	}
	if limit > maxDrainLimit {
		return maxDrainLimit
	}
	return limit
}

// truncateError renders an error for the last_error column.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}
