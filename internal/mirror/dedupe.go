package mirror

// SessionToThreadKey derives the dedupe key for mirroring a session
// interaction into a bridge thread. Deterministic and direction-prefixed so
// the same underlying id never collides across directions.
func SessionToThreadKey(interactionID string) string {
	return "s2t:" + interactionID
}

// ThreadToSessionKey derives the dedupe key for mirroring a bridge message
// into a session.
func ThreadToSessionKey(messageID string) string {
	return "t2s:" + messageID
}
