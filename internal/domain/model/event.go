// Package model contains domain models passed between layers.
package model

import "strings"

// Action tags a telemetry event. Values match the Tacview debriefing schema.
type Action string

// Known actions. Anything else is carried through and ignored by the interpreter.
const (
	ActionDestroyed Action = "HasBeenDestroyed"
	ActionLanded    Action = "HasLanded"
	ActionEjected   Action = "HasEjected"
	ActionTookOff   Action = "HasTakenOff"
)

// UnknownLabel is the placeholder the simulator writes for unnamed pilots.
const UnknownLabel = "Unknown"

// Entity is an object mentioned by an event. Entities only exist attached
// to the event that mentions them.
type Entity struct {
	Pilot     string // raw in-sim pilot label, may be empty or "Unknown"
	Aircraft  string // unit type name, e.g. "F-16C Fighting Falcon"
	Type      string // object category, e.g. "Tank" or "Air+FixedWing"
	Coalition string // side tag, e.g. "Allies"
	Group     string // group label
}

// HasPilot reports whether the entity carries a usable pilot label.
func (e Entity) HasPilot() bool {
	p := strings.TrimSpace(e.Pilot)
	return p != "" && !strings.EqualFold(p, UnknownLabel)
}

// Sample is a time-stamped position. Time is seconds since mission start.
type Sample struct {
	Lat  float64
	Lon  float64
	Time float64
}

// Event is an immutable record produced by the reader in document order.
type Event struct {
	Index     int // position in the source document
	Action    Action
	Primary   Entity
	Secondary *Entity // actor responsible for the action, nil when absent

	// HasTime is set when Time was present and numeric.
	HasTime bool
	Time    float64

	// HasPosition is set when both coordinates were present and numeric.
	HasPosition bool
	Lat         float64
	Lon         float64
}

// Sample returns the event's position sample. ok is false unless the event
// carries both a timestamp and a position.
func (e Event) Sample() (s Sample, ok bool) {
	if !e.HasTime || !e.HasPosition {
		return Sample{}, false
	}
	return Sample{Lat: e.Lat, Lon: e.Lon, Time: e.Time}, true
}

// MissionMeta is mission-level metadata extracted by the reader.
type MissionMeta struct {
	Name            string `json:"name"`
	Date            string `json:"date"` // YYYY-MM-DD or the literal value found in the document
	DurationSeconds int    `json:"duration_seconds"`
	Platform        string `json:"platform"`
}
