package topology

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadASRel(t *testing.T) {
	path := writeTemp(t, "as-rel.txt", "# comment line\n1|2|-1\n2|3|0\n")
	topo := New()
	if err := topo.LoadASRel(path); err != nil {
		t.Fatalf("LoadASRel: %v", err)
	}

	if rel := topo.Relationship("1", "2"); rel != Customer {
		t.Errorf("Relationship(1,2) = %v, want Customer", rel)
	}
	if rel := topo.Relationship("2", "1"); rel != Provider {
		t.Errorf("Relationship(2,1) = %v, want Provider", rel)
	}
	if rel := topo.Relationship("2", "3"); rel != Peer {
		t.Errorf("Relationship(2,3) = %v, want Peer", rel)
	}
	if rel := topo.Relationship("3", "2"); rel != Peer {
		t.Errorf("Relationship(3,2) = %v, want Peer", rel)
	}
	if rel := topo.Relationship("9", "9"); rel != Unknown {
		t.Errorf("Relationship for unseen ASNs = %v, want Unknown", rel)
	}

	if !topo.HasASN("1") || !topo.HasASN("3") {
		t.Error("expected 1 and 3 to be known ASNs")
	}
	if topo.HasASN("404") {
		t.Error("404 should not be a known ASN")
	}
}

func TestLoadCliqueAndIXPs(t *testing.T) {
	cliquePath := writeTemp(t, "clique.txt", "1\n2\n\n3\n")
	ixpPath := writeTemp(t, "ixps.txt", "500\n501\n")

	topo := New()
	if err := topo.LoadClique(cliquePath); err != nil {
		t.Fatalf("LoadClique: %v", err)
	}
	if err := topo.LoadIXPs(ixpPath); err != nil {
		t.Fatalf("LoadIXPs: %v", err)
	}

	for _, asn := range []string{"1", "2", "3"} {
		if !topo.IsClique(asn) {
			t.Errorf("expected %s to be a clique member", asn)
		}
	}
	if topo.IsClique("4") {
		t.Error("4 should not be a clique member")
	}
	if !topo.IsIXP("500") || !topo.IsIXP("501") {
		t.Error("expected 500 and 501 to be IXP ASNs")
	}
	if topo.IsIXP("1") {
		t.Error("1 should not be an IXP ASN")
	}
}

func TestRelationshipString(t *testing.T) {
	cases := map[Relationship]string{
		Unknown:  "UNKNOWN",
		Customer: "CUSTOMER",
		Peer:     "PEER",
		Provider: "PROVIDER",
	}
	for rel, want := range cases {
		if got := rel.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", rel, got, want)
		}
	}
}
