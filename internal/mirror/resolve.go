package mirror

import (
	"errors"
	"fmt"

	"github.com/zulandar/waybridge/internal/models"
	"github.com/zulandar/waybridge/internal/station"
	"gorm.io/gorm"
)

// EnsureThreadForSession finds or creates the bridge thread paired with a
// session. Resolution order: the preferred thread when given, then an
// existing thread linked to the session, then a new thread created from the
// session's metadata. Safe under concurrent invocation: if another worker
// creates the pairing first, the losing creator re-queries and returns the
// winner.
func EnsureThreadForSession(db *gorm.DB, sessionID string, preferredThreadID *string) (*models.BridgeThread, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("mirror: ensure thread: sessionID is required")
	}

	if preferredThreadID != nil && *preferredThreadID != "" {
		var thread models.BridgeThread
		err := db.First(&thread, "id = ?", *preferredThreadID).Error
		if err == nil {
			return &thread, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("mirror: load thread %s: %w", *preferredThreadID, err)
		}
		// Preferred thread is gone; fall through to resolution by session.
	}

	var existing models.BridgeThread
	err := db.First(&existing, "session_id = ?", sessionID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("mirror: find thread for session %s: %w", sessionID, err)
	}

	var sess models.Session
	if err := db.First(&sess, "id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("mirror: load session %s: %w", sessionID, err)
	}

	id, err := newID("bt")
	if err != nil {
		return nil, err
	}
	stationKey := station.FromMetadata(sess.Metadata)
	thread := models.BridgeThread{
		ID:        id,
		SessionID: &sess.ID,
		UserID:    &sess.UserID,
		Title:     threadTitle(stationKey, sess.Title),
	}
	if stationKey != "" {
		thread.StationKey = &stationKey
	}

	if err := db.Create(&thread).Error; err != nil {
		if isDuplicateKeyErr(err) {
			// Either we lost a creation race for this session, or the
			// user's (user_id, station_key) pair is already taken by a
			// thread serving a different session.
			var winner models.BridgeThread
			qerr := db.First(&winner, "session_id = ?", sessionID).Error
			if qerr == nil {
				return &winner, nil
			}
			if !errors.Is(qerr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("mirror: re-query thread for session %s: %w", sessionID, qerr)
			}
			// Station pair taken. The session still gets its own thread,
			// just without the station tag.
			thread.StationKey = nil
			thread.Title = threadTitle("", sess.Title)
			return createUntaggedThread(db, thread, sessionID)
		}
		return nil, fmt.Errorf("mirror: create thread for session %s: %w", sessionID, err)
	}
	return &thread, nil
}

// createUntaggedThread inserts a thread with no station key. A duplicate at
// this point can only be the session_id pairing, so the winner is returned.
func createUntaggedThread(db *gorm.DB, thread models.BridgeThread, sessionID string) (*models.BridgeThread, error) {
	if err := db.Create(&thread).Error; err != nil {
		if isDuplicateKeyErr(err) {
			var winner models.BridgeThread
			if qerr := db.First(&winner, "session_id = ?", sessionID).Error; qerr != nil {
				return nil, fmt.Errorf("mirror: re-query thread for session %s: %w", sessionID, qerr)
			}
			return &winner, nil
		}
		return nil, fmt.Errorf("mirror: create thread for session %s: %w", sessionID, err)
	}
	return &thread, nil
}

// EnsureSessionForThread finds or creates the session paired with a thread,
// and persists the pairing back onto the thread. A thread without an owning
// user cannot be mirrored to a session. When the thread carries a station
// key, the user's canonical session for that station is reused unless
// another thread already claims it.
func EnsureSessionForThread(db *gorm.DB, thread *models.BridgeThread) (*models.Session, error) {
	if thread == nil {
		return nil, fmt.Errorf("mirror: ensure session: thread is required")
	}

	if thread.SessionID != nil && *thread.SessionID != "" {
		var sess models.Session
		if err := db.First(&sess, "id = ?", *thread.SessionID).Error; err != nil {
			return nil, fmt.Errorf("mirror: load session %s: %w", *thread.SessionID, err)
		}
		return &sess, nil
	}

	if thread.UserID == nil || *thread.UserID == "" {
		return nil, fmt.Errorf("mirror: thread %s has no owning user; cannot create a session for it", thread.ID)
	}
	userID := *thread.UserID

	stationKey := ""
	if thread.StationKey != nil {
		stationKey = *thread.StationKey
	}

	var sess *models.Session
	if stationKey != "" {
		canonical, err := findStationSession(db, userID, stationKey)
		if err != nil {
			return nil, err
		}
		if canonical != nil {
			// Reuse only if no other thread is already paired to it.
			var count int64
			if err := db.Model(&models.BridgeThread{}).
				Where("session_id = ? AND id <> ?", canonical.ID, thread.ID).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("mirror: check session pairing %s: %w", canonical.ID, err)
			}
			if count == 0 {
				sess = canonical
			}
		}
	}

	if sess == nil {
		id, err := newID("ses")
		if err != nil {
			return nil, err
		}
		created := models.Session{
			ID:       id,
			UserID:   userID,
			Title:    sessionTitle(stationKey, thread.Title),
			Metadata: station.SessionMetadata(stationKey),
		}
		if err := db.Create(&created).Error; err != nil {
			return nil, fmt.Errorf("mirror: create session for thread %s: %w", thread.ID, err)
		}
		sess = &created
	}

	if err := db.Model(&models.BridgeThread{}).
		Where("id = ?", thread.ID).
		Update("session_id", sess.ID).Error; err != nil {
		return nil, fmt.Errorf("mirror: link thread %s to session %s: %w", thread.ID, sess.ID, err)
	}
	thread.SessionID = &sess.ID

	return sess, nil
}

// findStationSession returns the user's oldest session tagged with the
// station key, or nil when none exists. The station tag lives inside the
// JSON metadata blob; the LIKE match is portable across MySQL and the
// sqlite test driver, and the blob is only ever written through
// station.SessionMetadata so the shape is stable.
func findStationSession(db *gorm.DB, userID, stationKey string) (*models.Session, error) {
	var sess models.Session
	pattern := `%"station":"` + stationKey + `"%`
	err := db.Where("user_id = ? AND metadata LIKE ?", userID, pattern).
		Order("created_at ASC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mirror: find station session %s/%s: %w", userID, stationKey, err)
	}
	return &sess, nil
}

// threadTitle picks the display title for a new thread.
func threadTitle(stationKey, sessionTitle string) string {
	if stationKey != "" {
		return station.DefaultTitle(stationKey)
	}
	if sessionTitle != "" {
		return sessionTitle
	}
	return "Bridge Thread"
}

// sessionTitle picks the display title for a new session.
func sessionTitle(stationKey, threadTitle string) string {
	if stationKey != "" {
		return station.DefaultTitle(stationKey)
	}
	if threadTitle != "" {
		return threadTitle
	}
	return "Bridge Session"
}
