package record

import (
	"strconv"
	"strings"
	"testing"
)

func TestParseDecoded(t *testing.T) {
	line := strings.Join([]string{
		"", "", "65001 65002", "0", "", "", "", "IGP", "65002",
		"65001", "192.0.2.1", "10.0.0.0/24", "1690000000", "UPDATE",
	}, "|")
	d, err := ParseDecoded(line)
	if err != nil {
		t.Fatalf("ParseDecoded: %v", err)
	}
	if d.ASPath != "65001 65002" {
		t.Errorf("ASPath = %q", d.ASPath)
	}
	if d.Prefix != "10.0.0.0/24" {
		t.Errorf("Prefix = %q", d.Prefix)
	}
}

func TestParseDecodedWrongFieldCount(t *testing.T) {
	if _, err := ParseDecoded("a|b|c"); err == nil {
		t.Error("expected an error for a malformed decoded line")
	}
}

func TestROAVerdictString(t *testing.T) {
	cases := map[ROAVerdict]string{
		ROAUnknown:                "UNKNOWN",
		ROAValid:                  "VALID",
		ROAInvalidLength:          "INVALID_LENGTH",
		ROAInvalidOrigin:          "INVALID_ORIGIN",
		ROAInvalidLengthAndOrigin: "INVALID_LENGTH_AND_ORIGIN",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", v, got, want)
		}
	}
}

func TestTSVLineEncoding(t *testing.T) {
	e := Enriched{
		Decoded: Decoded{Prefix: "10.0.0.0/24"},
		ROAValidity: ROAValid,
		ROARouted: true,
		Prepending: true,
		InvalidASPathASNs: []string{"0", "23456"},
		IncidentFields: map[string]string{
			"hijack_victim": "777",
		},
	}
	line := e.TSVLine()
	fields := strings.Split(line, "\t")

	wantCols := len(Columns) + len(IncidentColumns)
	if len(fields) != wantCols {
		t.Fatalf("got %d fields, want %d", len(fields), wantCols)
	}

	// roa_validity is an integer code.
	roaIdx := indexOf(Columns, "roa_validity")
	if fields[roaIdx] != strconv.Itoa(int(ROAValid)) {
		t.Errorf("roa_validity field = %q", fields[roaIdx])
	}

	invalidIdx := indexOf(Columns, "invalid_as_path_asns")
	if fields[invalidIdx] != "[0,23456]" {
		t.Errorf("invalid_as_path_asns field = %q, want [0,23456]", fields[invalidIdx])
	}

	emptyListIdx := indexOf(Columns, "ixps_in_as_path")
	if fields[emptyListIdx] != "" {
		t.Errorf("empty list field should render as empty string, got %q", fields[emptyListIdx])
	}

	prependingIdx := indexOf(Columns, "prepending")
	if fields[prependingIdx] != "1" {
		t.Errorf("prepending field = %q, want 1", fields[prependingIdx])
	}
}

func TestTSVHeaderMatchesLineWidth(t *testing.T) {
	header := strings.Split(TSVHeader(), "\t")
	line := strings.Split(Enriched{}.TSVLine(), "\t")
	if len(header) != len(line) {
		t.Errorf("header has %d columns, a zero-value line has %d", len(header), len(line))
	}
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
