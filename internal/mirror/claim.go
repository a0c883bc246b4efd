package mirror

import (
	"fmt"
	"time"

	"github.com/zulandar/waybridge/internal/models"
	"gorm.io/gorm"
)

// ClaimJob attempts to transition a job into processing. The update is
// guarded on the job still being claimable (pending or failed, with no
// future next-attempt time), so concurrent workers racing on the same job
// have at most one winner; the storage layer applies the condition
// atomically. Returns false when another worker already took the job or it
// is no longer eligible.
func ClaimJob(db *gorm.DB, jobID uint, now time.Time) (bool, error) {
	result := db.Model(&models.BridgeMirrorJob{}).
		Where("id = ? AND status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
			jobID, []string{models.JobPending, models.JobFailed}, now).
		Update("status", models.JobProcessing)
	if result.Error != nil {
		return false, fmt.Errorf("mirror: claim job %d: %w", jobID, result.Error)
	}
	return result.RowsAffected == 1, nil
}
