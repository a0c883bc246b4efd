package mirror

import (
	"fmt"
	"time"

	"github.com/zulandar/waybridge/internal/models"
	"gorm.io/gorm"
)

// SessionToThreadOpts holds parameters for enqueueing a session→thread
// mirror job.
type SessionToThreadOpts struct {
	InteractionID string
	SessionID     string
	ThreadID      string // optional: destination thread when already known
}

// ThreadToSessionOpts holds parameters for enqueueing a thread→session
// mirror job.
type ThreadToSessionOpts struct {
	MessageID string
	ThreadID  string
}

// EnqueueSessionToThread queues a mirror job for one session interaction.
// Idempotent: if a job with the same dedupe key already exists, the call is
// a no-op. Safe to call multiple times for the same interaction.
func EnqueueSessionToThread(db *gorm.DB, opts SessionToThreadOpts) error {
	if opts.InteractionID == "" {
		return fmt.Errorf("mirror: enqueue session-to-thread: interactionID is required")
	}
	if opts.SessionID == "" {
		return fmt.Errorf("mirror: enqueue session-to-thread: sessionID is required")
	}

	now := time.Now()
	job := models.BridgeMirrorJob{
		Direction:     models.DirectionSessionToThread,
		DedupeKey:     SessionToThreadKey(opts.InteractionID),
		Status:        models.JobPending,
		NextAttemptAt: &now,
		InteractionID: &opts.InteractionID,
		SessionID:     &opts.SessionID,
	}
	if opts.ThreadID != "" {
		job.ThreadID = &opts.ThreadID
	}

	if err := db.Create(&job).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil // job already queued for this interaction
		}
		return fmt.Errorf("mirror: enqueue session-to-thread %s: %w", opts.InteractionID, err)
	}
	return nil
}

// EnqueueThreadToSession queues a mirror job for one bridge message.
// Idempotent on the message's dedupe key, like EnqueueSessionToThread.
func EnqueueThreadToSession(db *gorm.DB, opts ThreadToSessionOpts) error {
	if opts.MessageID == "" {
		return fmt.Errorf("mirror: enqueue thread-to-session: messageID is required")
	}
	if opts.ThreadID == "" {
		return fmt.Errorf("mirror: enqueue thread-to-session: threadID is required")
	}

	now := time.Now()
	job := models.BridgeMirrorJob{
		Direction:     models.DirectionThreadToSession,
		DedupeKey:     ThreadToSessionKey(opts.MessageID),
		Status:        models.JobPending,
		NextAttemptAt: &now,
		MessageID:     &opts.MessageID,
		ThreadID:      &opts.ThreadID,
	}

	if err := db.Create(&job).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil
		}
		return fmt.Errorf("mirror: enqueue thread-to-session %s: %w", opts.MessageID, err)
	}
	return nil
}
