package aspath_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jfuruness/mrt-collector/internal/aspath"
	"github.com/jfuruness/mrt-collector/internal/topology"
)

func newTopoFromASRel(lines ...string) *topology.Topology {
	dir, err := os.MkdirTemp("", "as-rel")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "as-rel.txt")
	contents := ""
	for _, l := range lines {
		contents += l + "\n"
	}
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())

	topo := topology.New()
	Expect(topo.LoadASRel(path)).To(Succeed())
	return topo
}

var _ = Describe("Analyze", func() {
	It("picks the first token as collector ASN and the last as origin ASN", func() {
		r := aspath.Analyze("100 200 300", nil)
		Expect(r.CollectorASN).To(Equal("100"))
		Expect(r.OriginASN).To(Equal("300"))
	})

	It("takes the first element of a trailing AS_SET as the origin", func() {
		r := aspath.Analyze("100 200 {300,301,302}", nil)
		Expect(r.OriginASN).To(Equal("300"))
		Expect(r.ASSets).To(ConsistOf("{300,301,302}"))
	})

	It("flags adjacent repeats as prepending", func() {
		r := aspath.Analyze("100 200 200 300", nil)
		Expect(r.Prepending).To(BeTrue())
	})

	It("does not flag non-adjacent repeats as prepending", func() {
		r := aspath.Analyze("100 200 300 200", nil)
		Expect(r.Prepending).To(BeFalse())
	})

	It("flags any repeated ASN, adjacent or not, as a loop", func() {
		r := aspath.Analyze("100 200 300 200", nil)
		Expect(r.ASPathLoop).To(BeTrue())
	})

	It("flags reserved and out-of-range ASNs as invalid", func() {
		r := aspath.Analyze("100 0 23456 999999999", nil)
		Expect(r.InvalidASPathASNs).To(ConsistOf("0", "23456", "999999999"))
	})

	It("does not flag ordinary public ASNs as invalid", func() {
		r := aspath.Analyze("100 200 300", nil)
		Expect(r.InvalidASPathASNs).To(BeEmpty())
	})

	When("topology has no information at all", func() {
		It("treats the path as valley-free by default and reports no missing relationships", func() {
			r := aspath.Analyze("100 200 300", nil)
			Expect(r.ValleyFreeCaidaPath).To(BeTrue())
			Expect(r.MissingCaidaRelationship).To(BeFalse())
		})
	})

	When("the path climbs straight up through providers to the collector", func() {
		It("is valley-free", func() {
			topo := newTopoFromASRel("200|300|-1", "100|200|-1")
			r := aspath.Analyze("100 200 300", topo)
			Expect(r.ValleyFreeCaidaPath).To(BeTrue())
			Expect(r.MissingCaidaRelationship).To(BeFalse())
		})
	})

	When("the path goes down to a customer and back up again", func() {
		It("is not valley-free", func() {
			topo := newTopoFromASRel("10|20|-1", "30|20|-1", "30|40|-1")
			r := aspath.Analyze("40 30 20 10", topo)
			Expect(r.ValleyFreeCaidaPath).To(BeFalse())
			Expect(r.MissingCaidaRelationship).To(BeFalse())
		})
	})

	When("an ASN along the path has no recorded relationship", func() {
		It("drops that edge from the sequence and reports a missing relationship", func() {
			topo := newTopoFromASRel("100|200|-1")
			r := aspath.Analyze("100 200 999", topo)
			Expect(r.MissingCaidaRelationship).To(BeTrue())
			Expect(r.NonCaidaASNs).To(ConsistOf("999"))
		})
	})

	When("a non-clique ASN interrupts two clique occurrences", func() {
		It("reports an input clique split", func() {
			topo := newTopoFromASRel("1|2|-1", "2|3|-1")
			Expect(topo.LoadClique(writeList("1", "3"))).To(Succeed())
			r := aspath.Analyze("1 2 3", topo)
			Expect(r.InputCliqueSplit).To(BeTrue())
		})
	})

	When("clique occurrences are uninterrupted by non-clique ASNs", func() {
		It("reports no input clique split", func() {
			topo := newTopoFromASRel("1|2|-1", "2|3|-1")
			Expect(topo.LoadClique(writeList("1", "2", "3"))).To(Succeed())
			r := aspath.Analyze("1 2 3", topo)
			Expect(r.InputCliqueSplit).To(BeFalse())
		})
	})

	When("an IXP ASN appears on the path", func() {
		It("is collected in IXPsInASPath", func() {
			topo := newTopoFromASRel("100|200|-1")
			Expect(topo.LoadIXPs(writeList("200"))).To(Succeed())
			r := aspath.Analyze("100 200 300", topo)
			Expect(r.IXPsInASPath).To(ConsistOf("200"))
		})
	})

	It("returns an empty result for an empty path", func() {
		r := aspath.Analyze("", nil)
		Expect(r.OriginASN).To(BeEmpty())
		Expect(r.CollectorASN).To(BeEmpty())
	})
})

func writeList(asns ...string) string {
	dir, err := os.MkdirTemp("", "asn-list")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "list.txt")
	contents := ""
	for _, a := range asns {
		contents += a + "\n"
	}
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
}
