package models

import "time"

// BridgeThread is a chat-UI conversation container, optionally paired to one
// Session. The pairing is established lazily: either side may exist first,
// and only the resolver in internal/mirror fills in the missing half.
//
// session_id is unique so a session can be paired with at most one thread,
// and (user_id, station_key) is unique so concurrent creators cannot produce
// two threads for the same station.
type BridgeThread struct {
	ID         string  `gorm:"primaryKey;size:32"`
	SessionID  *string `gorm:"size:32;uniqueIndex"`
	UserID     *string `gorm:"size:64;uniqueIndex:idx_thread_user_station"`
	StationKey *string `gorm:"size:32;uniqueIndex:idx_thread_user_station"`
	Title      string  `gorm:"size:256"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Messages []BridgeMessage `gorm:"foreignKey:ThreadID"`
}

// BridgeMessage is one message within a BridgeThread. Immutable once created.
type BridgeMessage struct {
	ID        string `gorm:"primaryKey;size:32"`
	ThreadID  string `gorm:"size:32;not null;index"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time

	Thread BridgeThread `gorm:"foreignKey:ThreadID"`
}
