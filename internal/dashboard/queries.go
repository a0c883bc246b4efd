package dashboard

import (
	"errors"
	"time"

	"github.com/zulandar/waybridge/internal/models"
	"gorm.io/gorm"
)

// JobRow holds mirror job data for the API.
type JobRow struct {
	ID            uint       `json:"id"`
	Direction     string     `json:"direction"`
	DedupeKey     string     `json:"dedupe_key"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	SessionID     *string    `json:"session_id,omitempty"`
	ThreadID      *string    `json:"thread_id,omitempty"`
	InteractionID *string    `json:"interaction_id,omitempty"`
	MessageID     *string    `json:"message_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func jobRow(j models.BridgeMirrorJob) JobRow {
	return JobRow{
		ID:            j.ID,
		Direction:     j.Direction,
		DedupeKey:     j.DedupeKey,
		Status:        j.Status,
		Attempts:      j.Attempts,
		NextAttemptAt: j.NextAttemptAt,
		LastError:     j.LastError,
		SessionID:     j.SessionID,
		ThreadID:      j.ThreadID,
		InteractionID: j.InteractionID,
		MessageID:     j.MessageID,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

// JobList returns mirror jobs matching the optional status and direction
// filters, newest first.
func JobList(db *gorm.DB, status, direction string) ([]JobRow, error) {
	q := db.Model(&models.BridgeMirrorJob{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if direction != "" {
		q = q.Where("direction = ?", direction)
	}

	var jobs []models.BridgeMirrorJob
	if err := q.Order("created_at DESC").Limit(200).Find(&jobs).Error; err != nil {
		return nil, err
	}

	rows := make([]JobRow, len(jobs))
	for i, j := range jobs {
		rows[i] = jobRow(j)
	}
	return rows, nil
}

// JobDetail returns one job, or nil when it does not exist.
func JobDetail(db *gorm.DB, id uint) (*JobRow, error) {
	var job models.BridgeMirrorJob
	err := db.First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row := jobRow(job)
	return &row, nil
}

// JobSummaryResult holds queue counts for the summary endpoint.
type JobSummaryResult struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Due        int64 `json:"due"`
	Total      int64 `json:"total"`
}

// JobSummary returns job counts by status plus how many are due right now.
func JobSummary(db *gorm.DB) (*JobSummaryResult, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := db.Model(&models.BridgeMirrorJob{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var result JobSummaryResult
	for _, r := range rows {
		result.Total += r.Count
		switch r.Status {
		case models.JobPending:
			result.Pending += r.Count
		case models.JobProcessing:
			result.Processing += r.Count
		case models.JobCompleted:
			result.Completed += r.Count
		case models.JobFailed:
			result.Failed += r.Count
		}
	}

	now := time.Now()
	if err := db.Model(&models.BridgeMirrorJob{}).
		Where("(status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)) OR (status = ? AND next_attempt_at <= ?)",
			models.JobPending, now, models.JobFailed, now).
		Count(&result.Due).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// ThreadRow holds bridge thread data for the API.
type ThreadRow struct {
	ID         string    `json:"id"`
	SessionID  *string   `json:"session_id,omitempty"`
	UserID     *string   `json:"user_id,omitempty"`
	StationKey *string   `json:"station_key,omitempty"`
	Title      string    `json:"title"`
	Messages   int64     `json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadList returns bridge threads, optionally filtered by user, with a
// message count per thread.
func ThreadList(db *gorm.DB, userID string) ([]ThreadRow, error) {
	q := db.Model(&models.BridgeThread{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var threads []models.BridgeThread
	if err := q.Order("created_at ASC").Find(&threads).Error; err != nil {
		return nil, err
	}

	rows := make([]ThreadRow, len(threads))
	for i, th := range threads {
		var count int64
		if err := db.Model(&models.BridgeMessage{}).
			Where("thread_id = ?", th.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		rows[i] = ThreadRow{
			ID:         th.ID,
			SessionID:  th.SessionID,
			UserID:     th.UserID,
			StationKey: th.StationKey,
			Title:      th.Title,
			Messages:   count,
			CreatedAt:  th.CreatedAt,
		}
	}
	return rows, nil
}

// MessageRow holds bridge message data for the API.
type MessageRow struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadMessages returns a thread's messages oldest first. The second return
// is false when the thread does not exist.
func ThreadMessages(db *gorm.DB, threadID string) ([]MessageRow, bool, error) {
	var thread models.BridgeThread
	err := db.First(&thread, "id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var msgs []models.BridgeMessage
	if err := db.Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&msgs).Error; err != nil {
		return nil, false, err
	}

	rows := make([]MessageRow, len(msgs))
	for i, m := range msgs {
		rows[i] = MessageRow{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	}
	return rows, true, nil
}
