// Package interpret walks mission events in order and accumulates per-pilot
// counters using the identity resolver and the combatant classifier.
package interpret

import (
	"context"
	"fmt"
	"strings"

	"github.com/loggers/logbook/internal/domain/classify"
	"github.com/loggers/logbook/internal/domain/identity"
	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/pkg/logger"
	"github.com/loggers/logbook/pkg/metrics"
)

// ErrEventSkipped marks an event that could not be applied.
var ErrEventSkipped = model.ErrEventSkipped

const skipStage = "interpreter"

// DefaultGroundTypes are the object types that make a kill a ground kill.
// Tacview compound types such as "Ground+Heavy+Armor+Vehicle+Tank" match when
// any '+'-separated tag is in the set.
var DefaultGroundTypes = []string{ //nolint:gochecknoglobals // read-only defaults
	"Infantry", "SAM/AAA", "Vehicle", "Tank", "Artillery",
	"Ship", "Boat", "Structure", "Ground",
	"Sea", "Watercraft", "Armor",
}

// Option applies a configuration option to the Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom logger for the interpreter.
func WithLogger(l logger.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithGroundTypes replaces the ground-target type set.
func WithGroundTypes(types []string) Option {
	return func(in *Interpreter) {
		if len(types) > 0 {
			in.groundTypes = typeSet(types)
		}
	}
}

// Interpreter applies events to accumulators. It keeps no state between
// passes, so one instance can serve many missions.
type Interpreter struct {
	resolver    *identity.Resolver
	classifier  *classify.Classifier
	groundTypes map[string]struct{}
	logger      logger.Logger
}

// New creates an interpreter around a resolver and a classifier.
func New(resolver *identity.Resolver, classifier *classify.Classifier, opts ...Option) *Interpreter {
	in := &Interpreter{
		resolver:    resolver,
		classifier:  classifier,
		groundTypes: typeSet(DefaultGroundTypes),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = logger.Get().Named("interpret")
	}
	return in
}

// Run makes a single forward pass over events. A bad event is logged and
// skipped; the pass itself never fails.
func (in *Interpreter) Run(ctx context.Context, events []model.Event) *Tally {
	t := newTally()
	for _, ev := range events {
		if err := in.apply(ctx, t, ev); err != nil {
			in.logger.Warn(ctx, "skipping event", logger.Int("index", ev.Index), logger.Error(err))
			metrics.RecordEventSkipped(skipStage)
			t.Skipped = append(t.Skipped, Skip{Index: ev.Index, Err: err})
		}
	}
	return t
}

func (in *Interpreter) apply(ctx context.Context, t *Tally, ev model.Event) error {
	if strings.TrimSpace(string(ev.Action)) == "" {
		return fmt.Errorf("%w: missing action", ErrEventSkipped)
	}

	// Primary-side effects only apply to an accepted pilot.
	pilot := in.admit(ctx, t, ev.Primary)
	if pilot != nil {
		pilot.Aircraft = ev.Primary.Aircraft
	}

	switch ev.Action {
	case model.ActionDestroyed:
		if ev.Secondary != nil {
			in.attributeKill(ctx, t, ev.Primary, *ev.Secondary)
		} else if pilot != nil {
			pilot.Deaths++
			pilot.KIA++
		}
	case model.ActionLanded:
		if pilot != nil {
			pilot.Landings++
		}
	case model.ActionEjected:
		if pilot != nil {
			pilot.Ejections++
		}
	case model.ActionTookOff:
		// reserved for sortie counting
	}

	if pilot != nil {
		if s, ok := ev.Sample(); ok {
			pilot.Trace = append(pilot.Trace, s)
		}
	}
	return nil
}

// attributeKill credits exactly one kill category to an accepted attacker.
func (in *Interpreter) attributeKill(ctx context.Context, t *Tally, victim, attacker model.Entity) {
	acc := in.admit(ctx, t, attacker)
	if acc == nil {
		return
	}
	if !acc.hasAircraft() {
		acc.Aircraft = attacker.Aircraft
	}

	switch {
	case victim.Coalition != "" && victim.Coalition == attacker.Coalition:
		acc.FriendlyKills++
	case in.isGround(victim.Type):
		acc.GroundKills++
	default:
		acc.AirKills++
	}
}

// admit classifies e and returns its accumulator, or nil when e is not a
// combatant.
func (in *Interpreter) admit(ctx context.Context, t *Tally, e model.Entity) *Accumulator {
	if !e.HasPilot() {
		return nil
	}
	label := strings.TrimSpace(e.Pilot)

	d := in.classifier.Classify(label, e.Aircraft, e.Group)
	metrics.RecordClassification(d.Rule, d.Combatant)
	if !d.Combatant {
		in.logger.Debug(ctx, "not a combatant",
			logger.String("label", label),
			logger.String("aircraft", e.Aircraft),
			logger.String("rule", d.Rule))
		return nil
	}

	id := in.resolver.Resolve(label)
	if id == "" {
		return nil
	}
	acc := t.accumulator(id)
	acc.observe(label)
	return acc
}

func (in *Interpreter) isGround(objectType string) bool {
	objectType = strings.TrimSpace(objectType)
	if objectType == "" {
		return false
	}
	if _, ok := in.groundTypes[objectType]; ok {
		return true
	}
	for _, tag := range strings.Split(objectType, "+") {
		if _, ok := in.groundTypes[strings.TrimSpace(tag)]; ok {
			return true
		}
	}
	return false
}

func typeSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
