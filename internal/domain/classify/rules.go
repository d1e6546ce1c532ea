package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/loggers/logbook/internal/domain/identity"
)

// Rule names, in evaluation order.
const (
	RuleKnownPlayer  = "known_player"
	RuleAIGroup      = "ai_group"
	RuleNotFlyable   = "aircraft_not_flyable"
	RuleRoster       = "roster"
	RuleUnitCode     = "unit_code"
	RuleAISquadron   = "ai_squadron_pattern"
	RuleAIToken      = "ai_token"
	RuleCompoundName = "compound_name"
	RuleBareName     = "bare_name"
	RuleDefault      = "default_reject"
)

// Input is what a rule looks at.
type Input struct {
	Label    string
	Aircraft string
	Group    string
}

// Rule is a predicate paired with a verdict. Decide returns decided=false to
// pass control to the next rule.
type Rule struct {
	Name   string
	Decide func(in Input) (combatant bool, decided bool)
}

var aiGroupPattern = regexp.MustCompile(`(?i)(\bai\b|\bbots?\b|\bcpu\b|computer|enemy|hostile|intel|threat)`)

var unitCodePattern = regexp.MustCompile(`(?i)^\d{4}\b.*\b(tank|mbt|apc|ifv|truck|ship|boat|frigate|destroyer|cruiser|corvette|carrier|sam|aaa|artillery|infantry|aircraft|fighter|bomber|helicopter|helo|transport|tanker)\b`)

var aiSquadronPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z]+\d{1,2}$`),
	regexp.MustCompile(`^[a-z]+\d{3}$`),
	regexp.MustCompile(`^\d{2,3}[a-z]+$`),
	regexp.MustCompile(`^[a-z]+\d{1,2}[a-z]+$`),
	regexp.MustCompile(`^[a-z]+pilot\d+$`),
	regexp.MustCompile(`^[a-z]+(cas|barcap|sead|strike)\d+pilot\d+$`),
}

// aiTokens are whole words that mark computer-controlled units.
var aiTokens = map[string]struct{}{
	"ai": {}, "bot": {}, "cpu": {}, "static": {}, "armor": {}, "armour": {},
	"ground": {}, "infantry": {}, "battalion": {}, "brigade": {}, "regiment": {},
	"division": {}, "company": {}, "platoon": {}, "convoy": {}, "sam": {},
	"aaa": {}, "ewr": {}, "naval": {}, "ship": {}, "fleet": {}, "carrier": {},
	"tanker": {}, "awacs": {}, "jtac": {}, "drone": {}, "uav": {}, "target": {},
	"decoy": {}, "dummy": {}, "enemy": {}, "hostile": {}, "aggressor": {},
	"unit": {}, "group": {},
}

// aiPhrases are multi-word markers checked against the space-collapsed label.
var aiPhrases = []string{"air defense", "air defence", "task force"}

// knownPlayerRule accepts a label equal to a known player, or one whose alias
// fragments resolve to a known player.
func knownPlayerRule(known []string, aliases identity.Table) Rule {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			set[k] = struct{}{}
		}
	}
	return Rule{Name: RuleKnownPlayer, Decide: func(in Input) (bool, bool) {
		if _, ok := set[strings.ToLower(strings.TrimSpace(in.Label))]; ok {
			return true, true
		}
		id, ok := aliases.Match(in.Label)
		if !ok {
			return false, false
		}
		_, ok = set[strings.ToLower(id)]
		return true, ok
	}}
}

func aiGroupRule() Rule {
	return Rule{Name: RuleAIGroup, Decide: func(in Input) (bool, bool) {
		return false, in.Group != "" && aiGroupPattern.MatchString(in.Group)
	}}
}

func flyableRule(aircraft []string) Rule {
	names := lowerAll(aircraft)
	return Rule{Name: RuleNotFlyable, Decide: func(in Input) (bool, bool) {
		a := strings.ToLower(strings.TrimSpace(in.Aircraft))
		if a == "" {
			return false, true
		}
		for _, n := range names {
			if strings.Contains(a, n) || strings.Contains(n, a) {
				return false, false
			}
		}
		return false, true
	}}
}

// rosterRule decides every label once a roster exists: matched labels are
// combatants, everything else is rejected.
func rosterRule(roster []string) Rule {
	callsigns := lowerAll(roster)
	return Rule{Name: RuleRoster, Decide: func(in Input) (bool, bool) {
		if len(callsigns) == 0 {
			return false, false
		}
		for _, cand := range rosterCandidates(in.Label) {
			for _, cs := range callsigns {
				if strings.Contains(cand, cs) || strings.Contains(cs, cand) {
					return true, true
				}
			}
		}
		return false, true
	}}
}

// rosterCandidates returns the lowercased label plus each side of a
// "flight | personal" or "flight - personal" compound name.
func rosterCandidates(label string) []string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return nil
	}
	out := []string{l}
	for _, sep := range []string{"|", " - "} {
		if !strings.Contains(l, sep) {
			continue
		}
		for _, part := range strings.Split(l, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func unitCodeRule() Rule {
	return Rule{Name: RuleUnitCode, Decide: func(in Input) (bool, bool) {
		return false, unitCodePattern.MatchString(strings.TrimSpace(in.Label))
	}}
}

func aiSquadronRule() Rule {
	return Rule{Name: RuleAISquadron, Decide: func(in Input) (bool, bool) {
		l := strings.ToLower(strings.TrimSpace(in.Label))
		for _, p := range aiSquadronPatterns {
			if p.MatchString(l) {
				return false, true
			}
		}
		return false, false
	}}
}

func aiTokenRule() Rule {
	return Rule{Name: RuleAIToken, Decide: func(in Input) (bool, bool) {
		l := strings.ToLower(in.Label)
		for _, tok := range words(l) {
			if _, ok := aiTokens[tok]; ok {
				return false, true
			}
		}
		collapsed := strings.Join(strings.Fields(l), " ")
		for _, p := range aiPhrases {
			if strings.Contains(collapsed, p) {
				return false, true
			}
		}
		return false, false
	}}
}

func compoundNameRule() Rule {
	return Rule{Name: RuleCompoundName, Decide: func(in Input) (bool, bool) {
		l := strings.TrimSpace(in.Label)
		ok := strings.Contains(l, "|") || strings.Contains(l, " - ") || len(strings.Fields(l)) > 1
		return true, ok
	}}
}

func bareNameRule() Rule {
	return Rule{Name: RuleBareName, Decide: func(in Input) (bool, bool) {
		l := strings.TrimSpace(in.Label)
		if len([]rune(l)) < 3 {
			return false, false
		}
		for _, r := range l {
			if !unicode.IsLetter(r) {
				return false, false
			}
		}
		_, ai := aiTokens[strings.ToLower(l)]
		return true, !ai
	}}
}

func defaultRule() Rule {
	return Rule{Name: RuleDefault, Decide: func(Input) (bool, bool) { return false, true }}
}

// words splits s into alphanumeric tokens.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
