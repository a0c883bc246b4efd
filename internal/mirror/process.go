package mirror

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/waybridge/internal/models"
	"github.com/zulandar/waybridge/internal/realtime"
	"gorm.io/gorm"
)

// mirrorProvenance annotates interactions created by the thread→session
// processor with where they came from.
type mirrorProvenance struct {
	ThreadID  string `json:"threadId"`
	MessageID string `json:"messageId"`
}

// mirroredMetadata builds the metadata blob marking an interaction as
// mirrored from a bridge thread.
func mirroredMetadata(threadID, messageID string) string {
	data, err := json.Marshal(struct {
		MirroredFrom mirrorProvenance `json:"mirroredFrom"`
	}{mirrorProvenance{ThreadID: threadID, MessageID: messageID}})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// processSessionToThread mirrors one session interaction into its paired
// bridge thread. The message and its link row are written in a single
// transaction; if the link already exists (a previous attempt crashed after
// writing but before completing the job) the existing message is reused.
// On success the job's destination references are filled in.
func processSessionToThread(db *gorm.DB, pub realtime.Publisher, job *models.BridgeMirrorJob) error {
	if job.InteractionID == nil || *job.InteractionID == "" {
		return fmt.Errorf("mirror: job %d has no interaction id", job.ID)
	}

	var interaction models.SessionInteraction
	if err := db.First(&interaction, "id = ?", *job.InteractionID).Error; err != nil {
		return fmt.Errorf("mirror: load interaction %s: %w", *job.InteractionID, err)
	}

	thread, err := EnsureThreadForSession(db, interaction.SessionID, job.ThreadID)
	if err != nil {
		return err
	}

	role, err := RoleForInteractionType(interaction.Type)
	if err != nil {
		return err
	}

	var messageID string
	err = db.Transaction(func(tx *gorm.DB) error {
		var link models.BridgeMirrorLink
		lerr := tx.First(&link, "interaction_id = ?", interaction.ID).Error
		if lerr == nil {
			messageID = link.MessageID // already mirrored
			return nil
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
		if err := tx.Create(&models.BridgeMirrorLink{
			InteractionID: interaction.ID,
			MessageID:     msg.ID,
		}).Error; err != nil {
			return err
		}
		messageID = msg.ID
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror: session-to-thread %s: %w", interaction.ID, err)
	}

	job.SessionID = &interaction.SessionID
	job.ThreadID = &thread.ID
	job.MessageID = &messageID

	// Side effect outside the transaction; best-effort, never retried.
	pub.Publish(realtime.EventBridgeUpdated, realtime.BridgeUpdatedPayload{
		ThreadID:  thread.ID,
		MessageID: messageID,
	})
	return nil
}

// processThreadToSession mirrors one bridge message into its paired session,
// symmetric to processSessionToThread. The created interaction carries
// provenance metadata pointing back at the thread and message.
func processThreadToSession(db *gorm.DB, pub realtime.Publisher, job *models.BridgeMirrorJob) error {
	if job.MessageID == nil || *job.MessageID == "" {
		return fmt.Errorf("mirror: job %d has no message id", job.ID)
	}

	var msg models.BridgeMessage
	if err := db.Preload("Thread").First(&msg, "id = ?", *job.MessageID).Error; err != nil {
		return fmt.Errorf("mirror: load message %s: %w", *job.MessageID, err)
	}

	sess, err := EnsureSessionForThread(db, &msg.Thread)
	if err != nil {
		return err
	}

	interactionType, err := InteractionTypeForRole(msg.Role)
	if err != nil {
		return err
	}

	var interactionID string
	err = db.Transaction(func(tx *gorm.DB) error {
		var link models.BridgeMirrorLink
		lerr := tx.First(&link, "message_id = ?", msg.ID).Error
		if lerr == nil {
			interactionID = link.InteractionID
			return nil
		}
		if !errors.Is(lerr, gorm.ErrRecordNotFound) {
			return lerr
		}

		id, err := newID("int")
		if err != nil {
			return err
		}
		interaction := models.SessionInteraction{
			ID:        id,
			SessionID: sess.ID,
			Type:      interactionType,
			Content:   msg.Content,
			Metadata:  mirroredMetadata(msg.ThreadID, msg.ID),
			CreatedAt: msg.CreatedAt,
		}
		if err := tx.Create(&interaction).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.BridgeMirrorLink{
			InteractionID: interaction.ID,
			MessageID:     msg.ID,
		}).Error; err != nil {
			return err
		}
		interactionID = interaction.ID
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror: thread-to-session %s: %w", msg.ID, err)
	}

	job.ThreadID = &msg.ThreadID
	job.SessionID = &sess.ID
	job.InteractionID = &interactionID

	pub.Publish(realtime.EventSessionPrompted, realtime.SessionPromptedPayload{
		SessionID:     sess.ID,
		InteractionID: interactionID,
	})
	pub.Publish(realtime.EventBridgeUpdated, realtime.BridgeUpdatedPayload{
		ThreadID:  msg.ThreadID,
		MessageID: msg.ID,
	})
	return nil
}
