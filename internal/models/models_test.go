package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestSession_Fields(t *testing.T) {
	typ := reflect.TypeOf(Session{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:32")
	assertGormTag(t, typ, "UserID", "not null")
	assertGormTag(t, typ, "UserID", "index")
	assertGormTag(t, typ, "Metadata", "type:json")

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestSessionInteraction_Fields(t *testing.T) {
	typ := reflect.TypeOf(SessionInteraction{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SessionID", "index")
	assertGormTag(t, typ, "SessionID", "not null")
	assertGormTag(t, typ, "Type", "size:16")
	assertGormTag(t, typ, "Content", "type:text")
	assertGormTag(t, typ, "Metadata", "type:json")
}

func TestBridgeThread_Fields(t *testing.T) {
	typ := reflect.TypeOf(BridgeThread{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SessionID", "uniqueIndex")
	assertGormTag(t, typ, "UserID", "uniqueIndex:idx_thread_user_station")
	assertGormTag(t, typ, "StationKey", "uniqueIndex:idx_thread_user_station")

	assertFieldType(t, typ, "SessionID", "*string")
	assertFieldType(t, typ, "UserID", "*string")
	assertFieldType(t, typ, "StationKey", "*string")
}

func TestBridgeMessage_Fields(t *testing.T) {
	typ := reflect.TypeOf(BridgeMessage{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ThreadID", "index")
	assertGormTag(t, typ, "ThreadID", "not null")
	assertGormTag(t, typ, "Role", "size:16")
	assertGormTag(t, typ, "Content", "type:text")
}

func TestBridgeMirrorLink_Fields(t *testing.T) {
	typ := reflect.TypeOf(BridgeMirrorLink{})

	// Both sides of the link are independently unique; this is what makes
	// the link the source of truth for "already mirrored".
	assertGormTag(t, typ, "InteractionID", "uniqueIndex")
	assertGormTag(t, typ, "InteractionID", "not null")
	assertGormTag(t, typ, "MessageID", "uniqueIndex")
	assertGormTag(t, typ, "MessageID", "not null")
}

func TestBridgeMirrorJob_Fields(t *testing.T) {
	typ := reflect.TypeOf(BridgeMirrorJob{})

	assertGormTag(t, typ, "DedupeKey", "uniqueIndex")
	assertGormTag(t, typ, "DedupeKey", "not null")
	assertGormTag(t, typ, "Status", "default:pending")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "NextAttemptAt", "index")
	assertGormTag(t, typ, "LastError", "type:text")

	assertFieldType(t, typ, "NextAttemptAt", "*time.Time")
	assertFieldType(t, typ, "SessionID", "*string")
	assertFieldType(t, typ, "ThreadID", "*string")
	assertFieldType(t, typ, "InteractionID", "*string")
	assertFieldType(t, typ, "MessageID", "*string")
}

func TestDirectionConstants(t *testing.T) {
	if DirectionSessionToThread == DirectionThreadToSession {
		t.Fatal("directions must be distinct")
	}
	for _, s := range []string{JobPending, JobProcessing, JobCompleted, JobFailed} {
		if s == "" {
			t.Fatal("job status constant must not be empty")
		}
	}
}
