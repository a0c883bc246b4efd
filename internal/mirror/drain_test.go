package mirror

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/waybridge/internal/models"
	"github.com/zulandar/waybridge/internal/realtime"
)

func TestDrain_SessionToThreadEndToEnd(t *testing.T) {
	db := openTestDB(t)
	createSession(t, db, "ses-1", "user-1", "{}")
	createInteraction(t, db, "int-1", "ses-1", models.InteractionPrompt, "set course for home")
	pub := &capturePublisher{}

	if err := EnqueueSessionToThread(db, SessionToThreadOpts{InteractionID: "int-1", SessionID: "ses-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	n, err := Drain(db, pub, DrainOpts{})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed = %d, want 1", n)
	}

	// A thread now pairs with the session and carries the mirrored message.
	var thread models.BridgeThread
	if err := db.First(&thread, "session_id = ?", "ses-1").Error; err != nil {
		t.Fatalf("query thread: %v", err)
	}
	var msg models.BridgeMessage
	if err := db.First(&msg, "thread_id = ?", thread.ID).Error; err != nil {
		t.Fatalf("query message: %v", err)
	}
	if msg.Role != models.RoleUser || msg.Content != "set course for home" {
		t.Errorf("message = %q/%q", msg.Role, msg.Content)
	}
	var link models.BridgeMirrorLink
	if err := db.First(&link, "interaction_id = ?", "int-1").Error; err != nil {
		t.Fatalf("query link: %v", err)
	}

	var job models.BridgeMirrorJob
	db.First(&job, "dedupe_key = ?", "s2t:int-1")
	if job.Status != models.JobCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
	if job.NextAttemptAt != nil {
		t.Errorf("NextAttemptAt = %v, want nil", job.NextAttemptAt)
	}
	if job.ThreadID == nil || *job.ThreadID != thread.ID {
		t.Errorf("job.ThreadID = %v, want %q", job.ThreadID, thread.ID)
	}
	if job.MessageID == nil || *job.MessageID != msg.ID {
		t.Errorf("job.MessageID = %v, want %q", job.MessageID, msg.ID)
	}

	if types := pub.typesSeen(); len(types) != 1 || types[0] != realtime.EventBridgeUpdated {
		t.Errorf("events = %v", types)
	}
}

func TestDrain_ThreadToSessionFailureSchedulesRetry(t *testing.T) {
	db := openTestDB(t)
	// A thread with no owning user cannot be mirrored to a session.
	th := createThread(t, db, "bt-1", nil, nil, nil)
	createMessage(t, db, "bm-1", th.ID, models.RoleUser, "hello out there")

	if err := EnqueueThreadToSession(db, ThreadToSessionOpts{MessageID: "bm-1", ThreadID: "bt-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	n, err := Drain(db, realtime.NopPublisher{}, DrainOpts{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 0 {
		t.Errorf("completed = %d, want 0", n)
	}

	var job models.BridgeMirrorJob
	db.First(&job, "dedupe_key = ?", "t2s:bm-1")
	if job.Status != models.JobFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if job.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", job.Attempts)
	}
	if job.NextAttemptAt == nil {
		t.Fatal("NextAttemptAt should be scheduled")
	}
	if got := job.NextAttemptAt.Sub(now); got != time.Second {
		t.Errorf("retry offset = %v, want 1s", got)
	}
	if !strings.Contains(job.LastError, "no owning user") {
		t.Errorf("LastError = %q", job.LastError)
	}

	// No session or interaction appeared.
	var sessCount int64
	db.Model(&models.Session{}).Count(&sessCount)
	if sessCount != 0 {
		t.Errorf("session count = %d, want 0", sessCount)
	}
}

func TestDrain_FailedJobRetriesWhenDue(t *testing.T) {
	db := openTestDB(t)
	th := createThread(t, db, "bt-1", nil, nil, nil)
	createMessage(t, db, "bm-1", th.ID, models.RoleUser, "hello")
	if err := EnqueueThreadToSession(db, ThreadToSessionOpts{MessageID: "bm-1", ThreadID: "bt-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	if _, err := Drain(db, nil, DrainOpts{Now: clock}); err != nil {
		t.Fatalf("first drain: %v", err)
	}

	// Before the retry is due, nothing happens.
	if _, err := Drain(db, nil, DrainOpts{Now: clock}); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	var job models.BridgeMirrorJob
	db.First(&job, "dedupe_key = ?", "t2s:bm-1")
	if job.Attempts != 1 {
		t.Fatalf("Attempts = %d after not-yet-due drain, want 1", job.Attempts)
	}

	// Fix the thread, advance past the backoff, and drain again.
	db.Model(&models.BridgeThread{}).Where("id = ?", "bt-1").Update("user_id", "user-1")
	now = now.Add(2 * time.Second)
	n, err := Drain(db, nil, DrainOpts{Now: clock})
	if err != nil {
		t.Fatalf("third drain: %v", err)
	}
	if n != 1 {
		t.Errorf("completed = %d, want 1", n)
	}
	db.First(&job, "dedupe_key = ?", "t2s:bm-1")
	if job.Status != models.JobCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
	if job.LastError != "" {
		t.Errorf("LastError = %q, want cleared", job.LastError)
	}
}

func TestDrain_FailureCountsCurrentAttempts(t *testing.T) {
	db := openTestDB(t)
	th := createThread(t, db, "bt-1", nil, nil, nil)
	createMessage(t, db, "bm-1", th.ID, models.RoleUser, "hello")
	if err := EnqueueThreadToSession(db, ThreadToSessionOpts{MessageID: "bm-1", ThreadID: "bt-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Another worker fails the job between the batch query and the claim;
	// the clock hook fires in exactly that window on its second call.
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 2 {
			db.Model(&models.BridgeMirrorJob{}).
				Where("dedupe_key = ?", "t2s:bm-1").
				Update("attempts", 3)
		}
		return base
	}

	n, err := Drain(db, nil, DrainOpts{Now: clock})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 0 {
		t.Errorf("completed = %d, want 0", n)
	}

	var job models.BridgeMirrorJob
	db.First(&job, "dedupe_key = ?", "t2s:bm-1")
	if job.Attempts != 4 {
		t.Fatalf("Attempts = %d, want 4 (stale snapshot must not undercount)", job.Attempts)
	}
	if job.NextAttemptAt == nil {
		t.Fatal("NextAttemptAt should be scheduled")
	}
	if got := job.NextAttemptAt.Sub(base); got != 8*time.Second {
		t.Errorf("retry offset = %v, want 8s for the fourth attempt", got)
	}
}

func TestDrain_TerminalJobStopsRetrying(t *testing.T) {
	db := openTestDB(t)
	th := createThread(t, db, "bt-1", nil, nil, nil)
	createMessage(t, db, "bm-1", th.ID, models.RoleUser, "hello")
	if err := EnqueueThreadToSession(db, ThreadToSessionOpts{MessageID: "bm-1", ThreadID: "bt-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	policy := RetryPolicy{MaxAttempts: 2}
	for i := 0; i < 2; i++ {
		if _, err := Drain(db, nil, DrainOpts{Policy: policy, Now: func() time.Time { return now }}); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
		now = now.Add(time.Minute)
	}

	var job models.BridgeMirrorJob
	db.First(&job, "dedupe_key = ?", "t2s:bm-1")
	if job.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", job.Attempts)
	}
	if job.NextAttemptAt != nil {
		t.Errorf("NextAttemptAt = %v, want nil for a terminal job", job.NextAttemptAt)
	}

	// Terminal jobs are never picked up again.
	if _, err := Drain(db, nil, DrainOpts{Now: func() time.Time { return now }}); err != nil {
		t.Fatalf("final drain: %v", err)
	}
	var got models.BridgeMirrorJob
	db.First(&got, "dedupe_key = ?", "t2s:bm-1")
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d after terminal drain, want 2", got.Attempts)
	}
}

func TestDrain_RespectsLimitOldestFirst(t *testing.T) {
	db := openTestDB(t)
	createSession(t, db, "ses-1", "user-1", "{}")
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"int-a", "int-b", "int-c"} {
		in := models.SessionInteraction{
			ID: id, SessionID: "ses-1", Type: models.InteractionPrompt,
			Content: "msg " + id, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&in).Error; err != nil {
			t.Fatalf("create interaction: %v", err)
		}
		if err := EnqueueSessionToThread(db, SessionToThreadOpts{InteractionID: id, SessionID: "ses-1"}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	n, err := Drain(db, nil, DrainOpts{Limit: 2})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 2 {
		t.Fatalf("completed = %d, want 2", n)
	}

	var pending []models.BridgeMirrorJob
	db.Where("status = ?", models.JobPending).Find(&pending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].DedupeKey != "s2t:int-c" {
		t.Errorf("leftover = %q, want the newest job s2t:int-c", pending[0].DedupeKey)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, DefaultDrainLimit},
		{-5, DefaultDrainLimit},
		{1, 1},
		{42, 42},
		{100, 100},
		{250, maxDrainLimit},
	}
	for _, c := range cases {
		if got := clampLimit(c.in); got != c.want {
			t.Errorf("clampLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTruncateError(t *testing.T) {
	long := errors.New(strings.Repeat("x", maxErrorLen+500))
	if got := truncateError(long); len(got) != maxErrorLen {
		t.Errorf("len = %d, want %d", len(got), maxErrorLen)
	}
	if got := truncateError(errors.New("short")); got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestDrainSafely_RecoversPanic(t *testing.T) {
	// A nil db makes Drain panic; DrainSafely must swallow it.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped DrainSafely: %v", r)
		}
	}()
	DrainSafely(nil, nil, DrainOpts{}, "test")
}

func TestDrain_UnknownDirectionFailsJob(t *testing.T) {
	db := openTestDB(t)
	job := models.BridgeMirrorJob{
		Direction:     "sideways",
		DedupeKey:     "odd:1",
		Status:        models.JobPending,
		NextAttemptAt: timePtr(time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)),
	}
	db.Create(&job)

	n, err := Drain(db, nil, DrainOpts{})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 0 {
		t.Errorf("completed = %d, want 0", n)
	}
	var got models.BridgeMirrorJob
	db.First(&got, job.ID)
	if got.Status != models.JobFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.LastError, "unknown direction") {
		t.Errorf("LastError = %q", got.LastError)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
