// Package aspath implements the AS-path analyzer (spec.md §4.5.3):
// prepending, loop detection, clique-split, valley-free (Gao-Rexford)
// validation, and flagging of IXP/reserved/non-topology ASNs.
// Grounded on BGP_heuristics.go's get_relationship-driven valley-free
// selection and rib_reader.go's reserved_prefixes array idiom
// (reservedASNs below copies that "package-level fixed-size literal"
// shape for ASNs instead of IP networks). Clique-split detection reuses
// github.com/Emeline-1/basic_graph the way overlays_processing.go does,
// via connected-component membership rather than a manual gap scan.
package aspath

import (
	"strconv"
	"strings"

	graph "github.com/Emeline-1/basic_graph"

	"github.com/jfuruness/mrt-collector/internal/topology"
	"github.com/jfuruness/mrt-collector/internal/util"
)

// maxASN is the documented ceiling spec.md §4.5.3 names explicitly;
// any ASN above it is treated as invalid regardless of topology/
// reserved-set membership.
const maxASN = 401308

// reservedASNs are never expected to originate or transit real routes
// (IANA special-purpose registry: 0, 16-bit private-use, documentation,
// 23456 AS_TRANS, the 16-bit and 32-bit reserved-last values). Hardcoded
// per spec.md §9 open-question decision rather than loaded from a feed
// file; mirrors rib_reader.go's reserved_prefixes fixed package var.
var reservedASNs = map[string]struct{}{
	"0":          {},
	"23456":      {},
	"64496":      {},
	"65535":      {},
	"4294967295": {},
}

func init() {
	for as := 64512; as <= 65534; as++ {
		reservedASNs[strconv.Itoa(as)] = struct{}{}
	}
}

// isInvalid reports whether asn is reserved/non-public or exceeds
// maxASN (spec.md §4.5.3's invalid_as_path_asns criterion).
func isInvalid(asn string) bool {
	if _, ok := reservedASNs[asn]; ok {
		return true
	}
	n, err := strconv.Atoi(asn)
	if err != nil {
		return true
	}
	return n > maxASN
}

// Result carries every AS-path derived field spec.md §3 lists.
type Result struct {
	InvalidASPathASNs       []string
	IXPsInASPath            []string
	Prepending              bool
	ASPathLoop              bool
	ValleyFreeCaidaPath     bool
	NonCaidaASNs            []string
	InputCliqueSplit        bool
	MissingCaidaRelationship bool
	ASSets                  []string
	OriginASN               string
	CollectorASN            string
}

// token is one AS_PATH element: either a single ASN or an AS_SET of
// several, each expanded individually per spec.md §4.5.3.
type token struct {
	raw  string   // original text, e.g. "65001" or "{65001,65002}"
	asns []string // the ASN(s) this token expands to, in source order
}

func tokenize(rawPath string) []token {
	fields := strings.Fields(rawPath)
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "{") && strings.HasSuffix(f, "}") {
			inner := strings.Trim(f, "{}")
			var elems []string
			for _, e := range strings.Split(inner, ",") {
				e = strings.TrimSpace(e)
				if e != "" {
					elems = append(elems, e)
				}
			}
			tokens = append(tokens, token{raw: f, asns: elems})
		} else if f != "" {
			tokens = append(tokens, token{raw: f, asns: []string{f}})
		}
	}
	return tokens
}

// Analyze runs every AS-path heuristic against rawPath (the raw,
// space-separated AS_PATH attribute text) using topo as the
// relationship/clique/IXP reference. Tokens are read left (collector
// end) to right (origin end) as emitted by the decoder, then the
// analysis proper traverses in reverse — origin to collector — per
// spec.md §4.5.3.
func Analyze(rawPath string, topo *topology.Topology) Result {
	var r Result

	tokens := tokenize(rawPath)
	if len(tokens) == 0 {
		return r
	}

	for _, t := range tokens {
		if len(t.asns) > 1 {
			r.ASSets = append(r.ASSets, t.raw)
		}
	}

	r.CollectorASN = tokens[0].asns[0]
	lastTok := tokens[len(tokens)-1]
	r.OriginASN = lastTok.asns[0] // first element if it's an AS set

	// Flat, origin-to-collector ordered ASN sequence, set elements
	// expanded individually in place.
	var flat []string
	for i := len(tokens) - 1; i >= 0; i-- {
		flat = append(flat, tokens[i].asns...)
	}

	r.Prepending = hasAdjacentDuplicate(flat)
	r.ASPathLoop = util.HasLoop(flat)

	seenInvalid := map[string]struct{}{}
	seenIXP := map[string]struct{}{}
	seenNonCaida := map[string]struct{}{}
	missingRel := false

	for _, asn := range flat {
		if isInvalid(asn) {
			if _, dup := seenInvalid[asn]; !dup {
				r.InvalidASPathASNs = append(r.InvalidASPathASNs, asn)
				seenInvalid[asn] = struct{}{}
			}
		}
		if topo != nil && topo.IsIXP(asn) {
			if _, dup := seenIXP[asn]; !dup {
				r.IXPsInASPath = append(r.IXPsInASPath, asn)
				seenIXP[asn] = struct{}{}
			}
		}
		if topo != nil && !topo.HasASN(asn) {
			if _, dup := seenNonCaida[asn]; !dup {
				r.NonCaidaASNs = append(r.NonCaidaASNs, asn)
				seenNonCaida[asn] = struct{}{}
			}
			missingRel = true
		}
	}

	r.InputCliqueSplit = cliqueSplit(flat, topo)

	if topo != nil {
		sequence, edgeMissing := relationshipSequence(flat, topo)
		if edgeMissing {
			missingRel = true
		}
		r.ValleyFreeCaidaPath = valleyFree(sequence)
	} else {
		r.ValleyFreeCaidaPath = true
	}
	r.MissingCaidaRelationship = missingRel

	return r
}

func hasAdjacentDuplicate(asns []string) bool {
	for i := 1; i < len(asns); i++ {
		if asns[i] == asns[i-1] {
			return true
		}
	}
	return false
}

// cliqueSplit is true when a non-clique ASN appears between two
// clique-member ASNs along the path — the clique is expected to behave
// as a single fully-meshed core, so any interruption is a topology
// anomaly worth flagging (spec.md §4.5.3, end-to-end scenario 1).
//
// Clique occurrences are nodes in a graph, connected pairwise whenever
// nothing but clique members separates them; the connected-component
// split is then just "do all clique occurrences land in one component",
// the same graph.New/Add_edge/Set_iterator/Next_connected_component/
// Connected_component sequence overlays_processing.go uses to compute
// the transitive closure of overlapping prefixes.
func cliqueSplit(path []string, topo *topology.Topology) bool {
	if topo == nil {
		return false
	}

	var members []string
	g := graph.New()
	prev, prevIdx := "", -1

	for i, asn := range path {
		if !topo.IsClique(asn) {
			continue
		}
		members = append(members, asn)
		if prev != "" && uninterrupted(path, prevIdx, i, topo) {
			g.Add_edge(prev, asn)
		}
		prev, prevIdx = asn, i
	}
	if len(members) < 2 {
		return false
	}

	component := map[string]int{}
	idx := 0
	g.Set_iterator()
	for g.Next_connected_component() {
		for _, n := range g.Connected_component() {
			component[n] = idx
		}
		idx++
	}
	for _, m := range members {
		if _, ok := component[m]; !ok {
			component[m] = idx
			idx++
		}
	}

	first := component[members[0]]
	for _, m := range members[1:] {
		if component[m] != first {
			return true
		}
	}
	return false
}

// uninterrupted reports whether every ASN strictly between path[from]
// and path[to] is itself a clique member.
func uninterrupted(path []string, from, to int, topo *topology.Topology) bool {
	for j := from + 1; j < to; j++ {
		if !topo.IsClique(path[j]) {
			return false
		}
	}
	return true
}

// relationshipSequence classifies each consecutive pair last->current
// (in origin-to-collector order) per spec.md §4.5.3: CUSTOMER if last
// is current's provider, PROVIDER if last is current's customer, PEER
// if peered. An edge with no recorded relationship either way is
// dropped from the sequence and reported via the bool return.
func relationshipSequence(path []string, topo *topology.Topology) ([]topology.Relationship, bool) {
	var seq []topology.Relationship
	missing := false
	for i := 0; i < len(path)-1; i++ {
		last, current := path[i], path[i+1]
		rel := topo.Relationship(last, current)
		if rel == topology.Unknown {
			missing = true
			continue
		}
		seq = append(seq, rel)
	}
	return seq, missing
}

// valleyFree implements spec.md §4.5.3's literal rule: scanning
// left-to-right (origin-outward), once a PEER edge is seen no further
// PEER is permitted; once any CUSTOMER edge is followed by a
// non-CUSTOMER edge, no further CUSTOMER edge is permitted.
func valleyFree(seq []topology.Relationship) bool {
	hadCustomer := false
	customerThenNonCustomer := false
	peerSeen := false
	ok := true

	for _, rel := range seq {
		switch rel {
		case topology.Peer:
			if peerSeen {
				ok = false
			}
			peerSeen = true
			if hadCustomer {
				customerThenNonCustomer = true
			}
		case topology.Provider:
			if hadCustomer {
				customerThenNonCustomer = true
			}
		case topology.Customer:
			if customerThenNonCustomer {
				ok = false
			}
			hadCustomer = true
		}
	}
	return ok
}
