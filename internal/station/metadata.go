package station

import "encoding/json"

// sessionMetadata is the subset of a session's metadata blob this engine
// reads and writes. The blob is free-form JSON owned by the session
// subsystem; we parse defensively and never trust more than this shape.
type sessionMetadata struct {
	Station string `json:"station"`
}

// FromMetadata extracts the station key from a session metadata blob.
// Returns "" for empty, malformed, or station-less metadata.
func FromMetadata(raw string) string {
	if raw == "" {
		return ""
	}
	var m sessionMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return ""
	}
	return m.Station
}

// SessionMetadata builds the metadata blob for a station-backed session.
// Returns "{}" when no station applies.
func SessionMetadata(key string) string {
	if key == "" {
		return "{}"
	}
	data, err := json.Marshal(sessionMetadata{Station: key})
	if err != nil {
		return "{}"
	}
	return string(data)
}
