// Package topology implements the AS topology store (spec.md §3):
// per-ASN {providers, customers, peers}, the input-clique (tier-1)
// set, and the IXP-ASN set. Grounded on caida_file_readers.go's
// as_neighbors map and get_relationship/read_as_rel functions.
package topology

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Relationship is the edge classification spec.md §4.5.3 requires.
type Relationship int

const (
	Unknown Relationship = iota
	Customer
	Peer
	Provider
)

func (r Relationship) String() string {
	switch r {
	case Customer:
		return "CUSTOMER"
	case Peer:
		return "PEER"
	case Provider:
		return "PROVIDER"
	default:
		return "UNKNOWN"
	}
}

// Topology holds the relationship graph plus the clique and IXP sets.
// Read-only once built, handed to every S5 worker by reference.
type Topology struct {
	neighbors map[string]map[string]Relationship
	clique    map[string]struct{}
	ixps      map[string]struct{}
}

func New() *Topology {
	return &Topology{
		neighbors: make(map[string]map[string]Relationship),
		clique:    make(map[string]struct{}),
		ixps:      make(map[string]struct{}),
	}
}

// LoadASRel parses a CAIDA AS-relationship file:
// "<provider-as>|<customer-as>|-1" and "<peer-as>|<peer-as>|0" —
// ported line-for-line from read_as_rel (caida_file_readers.go).
func (t *Topology) LoadASRel(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load as-rel: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			continue
		}
		a, b, code := fields[0], fields[1], fields[2]
		switch code {
		case "0":
			t.setRelationship(a, b, Peer)
			t.setRelationship(b, a, Peer)
		case "-1":
			t.setRelationship(a, b, Customer) // b is a's customer
			t.setRelationship(b, a, Provider) // a is b's provider
		}
	}
	return scanner.Err()
}

func (t *Topology) setRelationship(from, to string, rel Relationship) {
	if t.neighbors[from] == nil {
		t.neighbors[from] = make(map[string]Relationship)
	}
	t.neighbors[from][to] = rel
}

// LoadClique reads one ASN per line into the input-clique set.
func (t *Topology) LoadClique(path string) error {
	return t.loadSet(path, t.clique)
}

// LoadIXPs reads one ASN per line into the IXP-ASN set.
func (t *Topology) LoadIXPs(path string) error {
	return t.loadSet(path, t.ixps)
}

func (t *Topology) loadSet(path string, dst map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load set %s: %w", path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		asn := strings.TrimSpace(scanner.Text())
		if asn != "" {
			dst[asn] = struct{}{}
		}
	}
	return scanner.Err()
}

// HasASN reports whether asn appears anywhere in the topology feed —
// its absence is the missing_caida_relationship / non_caida_asns
// trigger (spec.md §4.5.3).
func (t *Topology) HasASN(asn string) bool {
	_, ok := t.neighbors[asn]
	return ok
}

// IsClique reports clique (tier-1) membership.
func (t *Topology) IsClique(asn string) bool {
	_, ok := t.clique[asn]
	return ok
}

// IsIXP reports IXP-ASN membership.
func (t *Topology) IsIXP(asn string) bool {
	_, ok := t.ixps[asn]
	return ok
}

// Relationship classifies the edge from -> to: CUSTOMER if `to` is a
// customer of `from`, PROVIDER if `to` is a provider of `from`, PEER if
// peered, else UNKNOWN. Matches get_relationship's contract save for
// the integer encoding, which record.go/aspath own.
func (t *Topology) Relationship(from, to string) Relationship {
	if neighbors, ok := t.neighbors[from]; ok {
		if rel, ok := neighbors[to]; ok {
			return rel
		}
	}
	return Unknown
}
