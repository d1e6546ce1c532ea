package interpret

import (
	"strings"

	"github.com/loggers/logbook/internal/domain/model"
)

// Accumulator collects one pilot's counters for a single mission run. It is
// mutated only by the interpreter pass and read-only afterwards.
type Accumulator struct {
	Identity string

	AirKills      int
	GroundKills   int
	FriendlyKills int
	Landings      int
	Ejections     int
	Deaths        int
	KIA           int

	// Aircraft is the last aircraft seen for the pilot.
	Aircraft string
	// Aliases lists distinct raw labels in first-seen order.
	Aliases []string
	// Trace holds position samples in event order, unsorted.
	Trace []model.Sample

	aliasSet map[string]struct{}
}

func newAccumulator(identity string) *Accumulator {
	return &Accumulator{
		Identity: identity,
		Aircraft: model.UnknownLabel,
		aliasSet: make(map[string]struct{}),
	}
}

// Activity is the sum of all counters.
func (a *Accumulator) Activity() int {
	return a.AirKills + a.GroundKills + a.FriendlyKills + a.Landings + a.Ejections + a.Deaths + a.KIA
}

func (a *Accumulator) observe(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	if _, ok := a.aliasSet[label]; ok {
		return
	}
	a.aliasSet[label] = struct{}{}
	a.Aliases = append(a.Aliases, label)
}

func (a *Accumulator) hasAircraft() bool {
	ac := strings.TrimSpace(a.Aircraft)
	return ac != "" && !strings.EqualFold(ac, model.UnknownLabel)
}

// Skip records an event the interpreter could not apply.
type Skip struct {
	Index int
	Err   error
}

// Tally is the outcome of one interpreter pass.
type Tally struct {
	// Pilots maps identity to accumulator.
	Pilots map[string]*Accumulator
	// Order lists identities in first-seen order.
	Order   []string
	Skipped []Skip
}

func newTally() *Tally {
	return &Tally{Pilots: make(map[string]*Accumulator)}
}

// Get returns the accumulator for identity.
func (t *Tally) Get(identity string) (*Accumulator, bool) {
	a, ok := t.Pilots[identity]
	return a, ok
}

// Len returns the number of identities seen.
func (t *Tally) Len() int { return len(t.Order) }

// accumulator creates the identity's accumulator on first use.
func (t *Tally) accumulator(identity string) *Accumulator {
	if a, ok := t.Pilots[identity]; ok {
		return a
	}
	a := newAccumulator(identity)
	t.Pilots[identity] = a
	t.Order = append(t.Order, identity)
	return a
}
