// Package identity resolves raw in-sim pilot labels to canonical pilot
// identities using ordered alias fragment sets.
package identity

import (
	"strings"
	"unicode"
)

// Alias maps a canonical identity to the fragments that must all appear in a
// normalized raw label for it to match.
type Alias struct {
	Identity  string   `koanf:"identity" json:"identity"`
	Fragments []string `koanf:"fragments" json:"fragments"`
}

// Table is an ordered alias table. Iteration order is the slice order and
// the first full match wins.
type Table []Alias

// DefaultTable is used when no alias table is configured.
func DefaultTable() Table {
	return Table{
		{Identity: "drunkbonsai", Fragments: []string{"drunk", "bonsai"}},
		{Identity: "six", Fragments: []string{"hhc", "229", "six"}},
		{Identity: "machinegun817", Fragments: []string{"machinegun", "817", "gunner"}},
		{Identity: "bones", Fragments: []string{"bones", "springfield"}},
		{Identity: "fatal", Fragments: []string{"fatal", "101st"}},
	}
}

// Normalize strips every non-word character and lowercases the rest.
// Word characters are letters, digits and underscore.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Resolve returns the canonical identity for raw. It never fails: when no
// alias matches, the normalized label is its own identity.
func Resolve(raw string, table Table) string {
	if id, ok := table.Match(raw); ok {
		return id
	}
	return Normalize(raw)
}

// Match returns the identity of the first alias whose fragments all occur in
// raw, and false when none does.
func (t Table) Match(raw string) (string, bool) {
	norm := Normalize(raw)
	for _, a := range t {
		if a.matches(norm) {
			return a.Identity, true
		}
	}
	return "", false
}

// matches reports whether every fragment occurs in norm. An alias without
// usable fragments never matches.
func (a Alias) matches(norm string) bool {
	n := 0
	for _, f := range a.Fragments {
		f = Normalize(f)
		if f == "" {
			continue
		}
		if !strings.Contains(norm, f) {
			return false
		}
		n++
	}
	return n > 0
}

// Resolver binds a table so callers can resolve without passing it around.
type Resolver struct {
	table Table
}

// NewResolver returns a Resolver over a copy of table.
func NewResolver(table Table) *Resolver {
	cp := make(Table, len(table))
	for i, a := range table {
		cp[i] = Alias{Identity: a.Identity, Fragments: append([]string(nil), a.Fragments...)}
	}
	return &Resolver{table: cp}
}

// Resolve returns the canonical identity for raw.
func (r *Resolver) Resolve(raw string) string {
	return Resolve(raw, r.table)
}
