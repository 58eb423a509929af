// Package record defines the decoded-record and enriched-record shapes
// from spec.md §3, and the TSV encoding spec.md §6 requires for
// per-block output.
package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Decoded is one `|`-separated line from the external MRT decoder.
type Decoded struct {
	AggregatorASN    string
	AggregatorIP     string
	ASPath           string // raw token string, space-separated
	AtomicAggregate   bool
	Communities      string
	LocalPref        string
	OnlyToCustomer   string
	OriginProtocol   string // IGP/EGP/incomplete
	OriginASNs       string
	PeerASN          string
	PeerIP           string
	Prefix           string
	Timestamp        string
	RecordType       string
}

const decodedFieldCount = 14

// ParseDecoded splits a pipe-separated decoded line into a Decoded
// record. A field-count mismatch is a parse error the caller should
// log and drop (spec.md §4.5.7 / §7).
func ParseDecoded(line string) (Decoded, error) {
	fields := strings.Split(line, "|")
	if len(fields) != decodedFieldCount {
		return Decoded{}, fmt.Errorf("decoded record: expected %d fields, got %d", decodedFieldCount, len(fields))
	}
	return Decoded{
		AggregatorASN:   fields[0],
		AggregatorIP:    fields[1],
		ASPath:          fields[2],
		AtomicAggregate: fields[3] == "1" || strings.EqualFold(fields[3], "true"),
		Communities:     fields[4],
		LocalPref:       fields[5],
		OnlyToCustomer:  fields[6],
		OriginProtocol:  fields[7],
		OriginASNs:      fields[8],
		PeerASN:         fields[9],
		PeerIP:          fields[10],
		Prefix:          fields[11],
		Timestamp:       fields[12],
		RecordType:      fields[13],
	}, nil
}

// ROAVerdict is a stable integer code for the ROA validity
// classification (spec.md §4.5.2).
type ROAVerdict int

const (
	ROAUnknown ROAVerdict = iota
	ROAValid
	ROAInvalidLength
	ROAInvalidOrigin
	ROAInvalidLengthAndOrigin
)

func (v ROAVerdict) String() string {
	switch v {
	case ROAValid:
		return "VALID"
	case ROAInvalidLength:
		return "INVALID_LENGTH"
	case ROAInvalidOrigin:
		return "INVALID_ORIGIN"
	case ROAInvalidLengthAndOrigin:
		return "INVALID_LENGTH_AND_ORIGIN"
	default:
		return "UNKNOWN"
	}
}

// Enriched is the decoded record's fields plus every enrichment
// field named in spec.md §3.
type Enriched struct {
	Decoded

	PrefixID      int
	BlockID       int
	BlockPrefixID int

	ROAValidity ROAVerdict
	ROARouted   bool

	IncidentFields map[string]string

	CollectorASN string
	OriginASN    string

	InvalidASPathASNs      []string
	IXPsInASPath           []string
	Prepending             bool
	ASPathLoop             bool
	ValleyFreeCaidaPath    bool
	NonCaidaASNs           []string
	InputCliqueSplit       bool
	MissingCaidaRelationship bool
	ASSets                 []string

	SourceURL string
}

// Columns is the fixed output column order spec.md §6 requires.
var Columns = []string{
	"aggregator_asn", "aggregator_ip", "as_path", "atomic_aggregate",
	"communities", "local_pref", "only_to_customer", "origin_protocol",
	"origin_asns", "peer_asn", "peer_ip", "prefix", "timestamp", "record_type",
	"prefix_id", "block_id", "block_prefix_id",
	"roa_validity", "roa_routed",
	"collector_asn", "origin_asn",
	"invalid_as_path_asns", "ixps_in_as_path", "prepending", "as_path_loop",
	"valley_free_caida_path", "non_caida_asns", "input_clique_split",
	"missing_caida_relationship", "as_sets", "source_url",
}

// IncidentColumns lists the incident-join fields merged into every
// enriched record (spec.md §4.5.4); order fixed for deterministic
// output.
var IncidentColumns = []string{
	"hijack_victim", "hijack_attacker",
	"leak_prefix", "leak_leaker", "leak_leaked_to",
	"outage_asn",
}

// TSVHeader renders the fixed column order as one header line.
func TSVHeader() string {
	cols := make([]string, 0, len(Columns)+len(IncidentColumns))
	cols = append(cols, Columns...)
	cols = append(cols, IncidentColumns...)
	return strings.Join(cols, "\t")
}

// TSVLine renders e per spec.md §6: integer-coded ROA fields, empty
// string for nil/None, bracketed comma-separated text for list fields.
func (e Enriched) TSVLine() string {
	fields := []string{
		e.AggregatorASN, e.AggregatorIP, e.ASPath, boolStr(e.AtomicAggregate),
		e.Communities, e.LocalPref, e.OnlyToCustomer, e.OriginProtocol,
		e.OriginASNs, e.PeerASN, e.PeerIP, e.Prefix, e.Timestamp, e.RecordType,
		strconv.Itoa(e.PrefixID), strconv.Itoa(e.BlockID), strconv.Itoa(e.BlockPrefixID),
		strconv.Itoa(int(e.ROAValidity)), boolStr(e.ROARouted),
		e.CollectorASN, e.OriginASN,
		bracketed(e.InvalidASPathASNs), bracketed(e.IXPsInASPath), boolStr(e.Prepending), boolStr(e.ASPathLoop),
		boolStr(e.ValleyFreeCaidaPath), bracketed(e.NonCaidaASNs), boolStr(e.InputCliqueSplit),
		boolStr(e.MissingCaidaRelationship), bracketed(e.ASSets), e.SourceURL,
	}
	for _, col := range IncidentColumns {
		fields = append(fields, e.IncidentFields[col])
	}
	return strings.Join(fields, "\t")
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func bracketed(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return "[" + strings.Join(list, ",") + "]"
}
