// Package incident implements the incident store (spec.md §3, §4.5.4):
// two maps derived from the incident feed, joined by (prefix, origin)
// then falling back to origin alone.
package incident

import "fmt"

// Row carries whichever incident fields applied to its source feed
// row; unused fields are empty strings, matching the enriched record's
// "empty/None encoded as empty string" rule (spec.md §6).
type Row struct {
	HijackVictim   string
	HijackAttacker string
	LeakPrefix     string
	LeakLeaker     string
	LeakLeakedTo   string
	OutageASN      string
}

func (r Row) Fields() map[string]string {
	return map[string]string{
		"hijack_victim":   r.HijackVictim,
		"hijack_attacker": r.HijackAttacker,
		"leak_prefix":     r.LeakPrefix,
		"leak_leaker":     r.LeakLeaker,
		"leak_leaked_to":  r.LeakLeakedTo,
		"outage_asn":      r.OutageASN,
	}
}

type pairKey struct {
	prefix string
	origin string
}

// Store holds by_(prefix,origin) and by_origin maps. Duplicate rows
// for the same key silently overwrite — spec.md §9 open question,
// decision: last one wins, insert-in-feed-order with no dedup pass.
type Store struct {
	byPair   map[pairKey]Row
	byOrigin map[string]Row
}

func New() *Store {
	return &Store{
		byPair:   make(map[pairKey]Row),
		byOrigin: make(map[string]Row),
	}
}

// AddHijackOrLeak inserts a by-(prefix,origin) row (hijack victim/
// attacker pairs, or route-leak prefix/leaker/leaked-to).
func (s *Store) AddHijackOrLeak(prefix, origin string, row Row) {
	s.byPair[pairKey{prefix: prefix, origin: origin}] = row
}

// AddOutage inserts a by-origin row.
func (s *Store) AddOutage(origin string, row Row) {
	s.byOrigin[origin] = row
}

// Lookup implements spec.md §4.5.4: (prefix,origin) in the by-pair
// map; fall back to origin in the by-origin map; fall back to
// all-nulls (an empty Row).
func (s *Store) Lookup(prefix, origin string) map[string]string {
	if row, ok := s.byPair[pairKey{prefix: prefix, origin: origin}]; ok {
		return row.Fields()
	}
	if row, ok := s.byOrigin[origin]; ok {
		return row.Fields()
	}
	return Row{}.Fields()
}

func (s *Store) String() string {
	return fmt.Sprintf("incident.Store{pairs=%d, origins=%d}", len(s.byPair), len(s.byOrigin))
}
