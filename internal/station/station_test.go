package station

import "testing"

func TestAll_SixStations(t *testing.T) {
	all := All()
	if len(all) != 6 {
		t.Fatalf("len(All) = %d, want 6", len(all))
	}
	seen := make(map[string]bool)
	for _, tpl := range all {
		if tpl.Key == "" || tpl.Callsign == "" || tpl.Role == "" {
			t.Errorf("template %+v has empty fields", tpl)
		}
		if seen[tpl.Key] {
			t.Errorf("duplicate station key %q", tpl.Key)
		}
		seen[tpl.Key] = true
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0].Callsign = "Mutated"
	if All()[0].Callsign == "Mutated" {
		t.Error("All() must return a copy, not the backing slice")
	}
}

func TestLookup(t *testing.T) {
	tpl, ok := Lookup("dispatcher")
	if !ok {
		t.Fatal("Lookup(dispatcher) not found")
	}
	if tpl.Callsign != "Dispatch" {
		t.Errorf("Callsign = %q, want Dispatch", tpl.Callsign)
	}

	if _, ok := Lookup("unknown-station"); ok {
		t.Error("Lookup(unknown-station) should not be found")
	}
}

func TestDefaultTitle(t *testing.T) {
	if got := DefaultTitle("operations"); got != "Operations" {
		t.Errorf("DefaultTitle(operations) = %q", got)
	}
	if got := DefaultTitle("nope"); got != "Bridge Thread" {
		t.Errorf("DefaultTitle(nope) = %q, want generic fallback", got)
	}
}

func TestFromMetadata(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"malformed", "{not json", ""},
		{"no station", `{"other":"x"}`, ""},
		{"station", `{"station":"signals"}`, "signals"},
		{"extra fields", `{"station":"archives","foo":[1,2]}`, "archives"},
	}
	for _, tc := range cases {
		if got := FromMetadata(tc.raw); got != tc.want {
			t.Errorf("%s: FromMetadata(%q) = %q, want %q", tc.name, tc.raw, got, tc.want)
		}
	}
}

func TestSessionMetadata_RoundTrip(t *testing.T) {
	raw := SessionMetadata("logistics")
	if got := FromMetadata(raw); got != "logistics" {
		t.Errorf("round trip = %q, want logistics", got)
	}
	if got := SessionMetadata(""); got != "{}" {
		t.Errorf("SessionMetadata(\"\") = %q, want {}", got)
	}
}
