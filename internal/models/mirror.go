package models

import "time"

// Mirror job directions.
const (
	DirectionSessionToThread = "session_to_thread"
	DirectionThreadToSession = "thread_to_session"
)

// Mirror job statuses.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// BridgeMirrorLink is the idempotency ledger: a 1:1 mapping between one
// SessionInteraction and one BridgeMessage. Each side is independently
// unique, so a given source record can be mirrored at most once. Owned
// exclusively by the mirror engine.
type BridgeMirrorLink struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	InteractionID string `gorm:"size:32;not null;uniqueIndex"`
	MessageID     string `gorm:"size:32;not null;uniqueIndex"`
	CreatedAt     time.Time
}

// BridgeMirrorJob is one queued unit of mirror work. The dedupe key is
// derived deterministically from the source record id and direction, and its
// uniqueness makes enqueue idempotent. Foreign ids are nullable: which ones
// are set depends on the direction and how far resolution has progressed.
type BridgeMirrorJob struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	Direction     string     `gorm:"size:24;not null"`
	DedupeKey     string     `gorm:"size:64;not null;uniqueIndex"`
	Status        string     `gorm:"size:16;default:pending;index"`
	Attempts      int        `gorm:"default:0"`
	NextAttemptAt *time.Time `gorm:"index"`
	LastError     string     `gorm:"type:text"`
	SessionID     *string    `gorm:"size:32"`
	ThreadID      *string    `gorm:"size:32"`
	InteractionID *string    `gorm:"size:32"`
	MessageID     *string    `gorm:"size:32"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
