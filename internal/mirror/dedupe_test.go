package mirror

import "testing"

func TestDedupeKeys_Deterministic(t *testing.T) {
	if SessionToThreadKey("int-1") != SessionToThreadKey("int-1") {
		t.Error("SessionToThreadKey not deterministic")
	}
	if ThreadToSessionKey("bm-1") != ThreadToSessionKey("bm-1") {
		t.Error("ThreadToSessionKey not deterministic")
	}
}

func TestDedupeKeys_DirectionsNeverCollide(t *testing.T) {
	// Same underlying id must yield different keys per direction.
	for _, id := range []string{"", "x", "int-1", "t2s:sneaky"} {
		if SessionToThreadKey(id) == ThreadToSessionKey(id) {
			t.Errorf("keys collide for id %q", id)
		}
	}
}

func TestDedupeKeys_Prefixes(t *testing.T) {
	if got := SessionToThreadKey("int-1"); got != "s2t:int-1" {
		t.Errorf("SessionToThreadKey = %q, want s2t:int-1", got)
	}
	if got := ThreadToSessionKey("bm-1"); got != "t2s:bm-1" {
		t.Errorf("ThreadToSessionKey = %q, want t2s:bm-1", got)
	}
}
