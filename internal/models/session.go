package models

import "time"

// Interaction types and the bridge message roles they mirror to. The
// mapping between the two is fixed and invertible (see internal/mirror).
const (
	InteractionPrompt   = "prompt"
	InteractionResponse = "response"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is an agent-facing conversation container. It is owned by the
// agent-session subsystem; the mirror engine reads it and creates new rows
// only when materializing the session half of a thread pairing.
type Session struct {
	ID        string `gorm:"primaryKey;size:32"`
	UserID    string `gorm:"size:64;not null;index"`
	Title     string `gorm:"size:256"`
	Metadata  string `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Interactions []SessionInteraction `gorm:"foreignKey:SessionID"`
}

// SessionInteraction is one message within a Session. Immutable once created.
type SessionInteraction struct {
	ID        string `gorm:"primaryKey;size:32"`
	SessionID string `gorm:"size:32;not null;index"`
	Type      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text"`
	Metadata  string `gorm:"type:json"`
	CreatedAt time.Time

	Session Session `gorm:"foreignKey:SessionID"`
}
