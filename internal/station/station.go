// Package station defines the fixed registry of conversational stations.
// Each station is a named role with its own canonical session/thread pairing
// per user.
package station

// Template describes one station: a stable key, a human-readable callsign
// used for default titles, and a short role description.
type Template struct {
	Key      string
	Callsign string
	Role     string
}

// templates is the full registry, in display order. Keys are stable and
// referenced from stored metadata; never rename them.
var templates = []Template{
	{Key: "dispatcher", Callsign: "Dispatch", Role: "routes incoming work and keeps the board current"},
	{Key: "operations", Callsign: "Operations", Role: "runs day-to-day execution and status"},
	{Key: "engineering", Callsign: "Engineering", Role: "designs and builds the technical work"},
	{Key: "signals", Callsign: "Signals", Role: "watches alerts, failures, and anomalies"},
	{Key: "logistics", Callsign: "Logistics", Role: "handles scheduling, resources, and handoffs"},
	{Key: "archives", Callsign: "Archives", Role: "keeps records, summaries, and history"},
}

// byKey indexes templates for lookup.
var byKey = func() map[string]Template {
	m := make(map[string]Template, len(templates))
	for _, t := range templates {
		m[t.Key] = t
	}
	return m
}()

// All returns every station template in display order.
func All() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Lookup returns the template for a station key.
func Lookup(key string) (Template, bool) {
	t, ok := byKey[key]
	return t, ok
}

// DefaultTitle returns the display title for a station key, falling back to
// a generic label for unknown keys. Absence of a match is never fatal.
func DefaultTitle(key string) string {
	if t, ok := byKey[key]; ok {
		return t.Callsign
	}
	return "Bridge Thread"
}
