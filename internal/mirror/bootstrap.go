package mirror

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/waybridge/internal/models"
	"github.com/zulandar/waybridge/internal/station"
	"gorm.io/gorm"
)

// EnsureStationThreadsForUser bootstraps one bridge thread per known station
// for the user. On a thread's first creation the station's historical
// session interactions are imported into it, skipping any already linked.
// Calling again returns the same threads without duplicates.
func EnsureStationThreadsForUser(db *gorm.DB, userID string) ([]models.BridgeThread, error) {
	if userID == "" {
		return nil, fmt.Errorf("mirror: ensure station threads: userID is required")
	}

	stations := station.All()
	threads := make([]models.BridgeThread, 0, len(stations))
	for _, tpl := range stations {
		thread, err := ensureStationThread(db, userID, tpl)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *thread)
	}
	return threads, nil
}

// ensureStationThread finds or creates the user's thread for one station.
// The composite unique index on (user_id, station_key) guarantees a single
// winner under concurrent creation; the loser re-queries.
func ensureStationThread(db *gorm.DB, userID string, tpl station.Template) (*models.BridgeThread, error) {
	var existing models.BridgeThread
	err := db.First(&existing, "user_id = ? AND station_key = ?", userID, tpl.Key).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("mirror: find station thread %s/%s: %w", userID, tpl.Key, err)
	}

	// Pair with the user's canonical station session when it exists and is
	// not already claimed by another thread.
	var sessionID *string
	canonical, err := findStationSession(db, userID, tpl.Key)
	if err != nil {
		return nil, err
	}
	if canonical != nil {
		var count int64
		if err := db.Model(&models.BridgeThread{}).
			Where("session_id = ?", canonical.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("mirror: check session pairing %s: %w", canonical.ID, err)
		}
		if count == 0 {
			sessionID = &canonical.ID
		}
	}

	id, err := newID("bt")
	if err != nil {
		return nil, err
	}
	key := tpl.Key
	thread := models.BridgeThread{
		ID:         id,
		UserID:     &userID,
		StationKey: &key,
		SessionID:  sessionID,
		Title:      tpl.Callsign,
	}
	if err := db.Create(&thread).Error; err != nil {
		if isDuplicateKeyErr(err) {
			var winner models.BridgeThread
			if qerr := db.First(&winner, "user_id = ? AND station_key = ?", userID, tpl.Key).Error; qerr != nil {
				return nil, fmt.Errorf("mirror: re-query station thread %s/%s: %w", userID, tpl.Key, qerr)
			}
			return &winner, nil
		}
		return nil, fmt.Errorf("mirror: create station thread %s/%s: %w", userID, tpl.Key, err)
	}

	// First creation: import the station's history. Best-effort; a partial
	// import is retried naturally the next time someone mirrors.
	if sessionID != nil {
		if err := importSessionHistory(db, &thread, *sessionID); err != nil {
			log.Printf("mirror: import history for thread %s: %v", thread.ID, err)
		}
	}
	return &thread, nil
}

// importSessionHistory copies a session's interactions into a freshly
// created thread, skipping interactions that already have a mirror link.
func importSessionHistory(db *gorm.DB, thread *models.BridgeThread, sessionID string) error {
	var interactions []models.SessionInteraction
	if err := db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&interactions).Error; err != nil {
		return fmt.Errorf("load interactions for session %s: %w", sessionID, err)
	}

	for _, interaction := range interactions {
		role, err := RoleForInteractionType(interaction.Type)
		if err != nil {
			continue // unknown types are not importable
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var link models.BridgeMirrorLink
			lerr := tx.First(&link, "interaction_id = ?", interaction.ID).Error
			if lerr == nil {
				return nil // already mirrored
			}
			if !errors.Is(lerr, gorm.ErrRecordNotFound) {
				return lerr
			}

			id, err := newID("bm")
			if err != nil {
				return err
			}
			msg := models.BridgeMessage{
				ID:        id,
				ThreadID:  thread.ID,
				Role:      role,
				Content:   interaction.Content,
				CreatedAt: interaction.CreatedAt,
			}
			if err := tx.Create(&msg).Error; err != nil {
				return err
			}
			return tx.Create(&models.BridgeMirrorLink{
				InteractionID: interaction.ID,
				MessageID:     msg.ID,
			}).Error
		})
		if err != nil {
			if isDuplicateKeyErr(err) {
				continue // raced with a concurrent mirror of the same interaction
			}
			return fmt.Errorf("import interaction %s: %w", interaction.ID, err)
		}
	}
	return nil
}
