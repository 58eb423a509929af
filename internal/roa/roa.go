// Package roa implements the ROA store: a longest-prefix-match trie
// over IP networks (spec.md §3, §4.5.2). The trie is
// github.com/Emeline-1/radix, the teacher's own dependency — in
// overlays_processing.go it builds exactly this shape (insert a
// binary-prefix-string key, walk the tree) for overlay detection;
// here the same trie backs ROA lookups instead.
package roa

import (
	radix "github.com/Emeline-1/radix"

	"github.com/jfuruness/mrt-collector/internal/ipaddr"
	"github.com/jfuruness/mrt-collector/internal/record"
)

// Pair is one (origin_asn, max_length) ROA entry attached to a node.
type Pair struct {
	Origin    string
	MaxLength int
}

type node struct {
	pairs []Pair
}

// Store is the ROA trie. Loaded once from the ROA feed snapshot,
// read-only for the life of S5.
type Store struct {
	tree *radix.Tree
}

func New() *Store {
	return &Store{tree: radix.New()}
}

// Insert adds a ROA entry for prefix. Multiple ROAs covering the same
// exact prefix accumulate into that node's pair list.
func (s *Store) Insert(prefix, origin string, maxLength int) error {
	key, err := ipaddr.BinaryString(prefix)
	if err != nil {
		return err
	}
	if v, ok := s.tree.Get(key); ok {
		n := v.(*node)
		n.pairs = append(n.pairs, Pair{Origin: origin, MaxLength: maxLength})
		return nil
	}
	s.tree.Insert(key, &node{pairs: []Pair{{Origin: origin, MaxLength: maxLength}}})
	return nil
}

// lookupLPM walks the trie for the longest key that is a prefix of
// binaryPrefix, returning its pairs. The radix package exposes exact
// Get(); longest-prefix-match is implemented here by trying
// progressively shorter binary prefixes of the query key, the same
// "walk from most specific to least specific" approach
// other_examples' bgpfix-bgpipe stages-rpki.go uses in validatePrefix.
func (s *Store) lookupLPM(binaryPrefix string) (*node, bool) {
	for l := len(binaryPrefix); l >= 0; l-- {
		if v, ok := s.tree.Get(binaryPrefix[:l]); ok {
			return v.(*node), true
		}
	}
	return nil, false
}

// Verdict implements spec.md §4.5.2's classification for (prefix, origin).
func (s *Store) Verdict(prefix, origin string) (record.ROAVerdict, bool, error) {
	key, err := ipaddr.BinaryString(prefix)
	if err != nil {
		return record.ROAUnknown, false, err
	}
	maskLen := len(key)

	n, ok := s.lookupLPM(key)
	if !ok {
		return record.ROAUnknown, false, nil
	}

	routed := false
	originMatches := false
	lengthOK := false
	for _, p := range n.pairs {
		if p.Origin != "0" {
			routed = true
		}
		om := p.Origin == origin
		lok := maskLen <= p.MaxLength
		if om {
			originMatches = true
		}
		if lok {
			lengthOK = true
		}
		if om && lok {
			return record.ROAValid, routed || anyNonZero(n.pairs), nil
		}
	}

	switch {
	case !originMatches && !lengthOK:
		return record.ROAInvalidLengthAndOrigin, routed, nil
	case !originMatches:
		return record.ROAInvalidOrigin, routed, nil
	default:
		return record.ROAInvalidLength, routed, nil
	}
}

func anyNonZero(pairs []Pair) bool {
	for _, p := range pairs {
		if p.Origin != "0" {
			return true
		}
	}
	return false
}
