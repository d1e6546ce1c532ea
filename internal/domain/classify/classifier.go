// Package classify decides whether a named entity is a human-controlled
// combatant or a computer-controlled unit.
//
// The decision is an ordered rule chain: the first rule that decides wins and
// later rules are never consulted. Reordering the chain changes results.
package classify

// Decision is a classifier verdict together with the rule that produced it.
type Decision struct {
	Combatant bool
	Rule      string
}

// Classifier evaluates the rule chain. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	rules []Rule
}

// New builds the chain from lists:
//  1. known-player allow-list       -> accept (directly or through an alias)
//  2. AI-like group label           -> reject
//  3. aircraft not player-flyable   -> reject
//  4. roster, when configured       -> accept on match, reject otherwise
//  5. lexical heuristics (no roster): unit codes, AI squadron patterns and
//     AI tokens reject; compound and bare alphabetic names accept; else reject.
func New(lists Lists) *Classifier {
	return &Classifier{rules: []Rule{
		knownPlayerRule(lists.KnownPlayers, lists.Aliases),
		aiGroupRule(),
		flyableRule(lists.FlyableAircraft),
		rosterRule(lists.Roster),
		unitCodeRule(),
		aiSquadronRule(),
		aiTokenRule(),
		compoundNameRule(),
		bareNameRule(),
		defaultRule(),
	}}
}

// Classify runs the chain and reports which rule decided.
func (c *Classifier) Classify(label, aircraft, group string) Decision {
	in := Input{Label: label, Aircraft: aircraft, Group: group}
	for _, r := range c.rules {
		if combatant, decided := r.Decide(in); decided {
			return Decision{Combatant: combatant, Rule: r.Name}
		}
	}
	return Decision{Rule: RuleDefault}
}

// IsCombatant reports whether label/aircraft/group describe a human pilot.
func (c *Classifier) IsCombatant(label, aircraft, group string) bool {
	return c.Classify(label, aircraft, group).Combatant
}

// RuleNames returns the chain's rule names in evaluation order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}
