package enrich_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jfuruness/mrt-collector/internal/enrich"
	"github.com/jfuruness/mrt-collector/internal/incident"
	"github.com/jfuruness/mrt-collector/internal/prefix"
	"github.com/jfuruness/mrt-collector/internal/record"
	"github.com/jfuruness/mrt-collector/internal/roa"
)

func decodedLine(asPath, originASNs, peerASN, prefixStr string) string {
	fields := []string{"", "", asPath, "0", "", "", "", "IGP", originASNs, peerASN, "192.0.2.1", prefixStr, "1690000000", "UPDATE"}
	return strings.Join(fields, "|")
}

var _ = Describe("EnrichLine", func() {
	var deps enrich.Deps

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "enrich")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(dir) })

		uniquePath := filepath.Join(dir, "unique_prefixes.txt")
		Expect(os.WriteFile(uniquePath, []byte("10.0.0.0/24\n"), 0o644)).To(Succeed())
		reg, err := prefix.Build(uniquePath, 100)
		Expect(err).NotTo(HaveOccurred())

		deps = enrich.Deps{Registry: reg}
	})

	It("derives origin/collector ASN from AS_PATH, not the decoder columns", func() {
		line := decodedLine("100 200 300", "999", "888", "10.0.0.0/24")
		e, err := enrich.EnrichLine(line, "https://example.test/rib.bz2", deps)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.OriginASN).To(Equal("300"))
		Expect(e.CollectorASN).To(Equal("100"))
		Expect(e.SourceURL).To(Equal("https://example.test/rib.bz2"))
	})

	It("fills in the dense prefix/block numbering from the registry", func() {
		line := decodedLine("100 200 300", "300", "100", "10.0.0.0/24")
		e, err := enrich.EnrichLine(line, "src", deps)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.PrefixID).To(Equal(0))
		Expect(e.BlockID).To(Equal(0))
		Expect(e.BlockPrefixID).To(Equal(0))
	})

	It("uses -1 sentinels for a prefix absent from the registry", func() {
		line := decodedLine("100 200 300", "300", "100", "192.0.2.0/24")
		e, err := enrich.EnrichLine(line, "src", deps)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.PrefixID).To(Equal(-1))
		Expect(e.BlockID).To(Equal(-1))
		Expect(e.BlockPrefixID).To(Equal(-1))
	})

	It("propagates a parse error for a malformed decoded line", func() {
		_, err := enrich.EnrichLine("too|few|fields", "src", deps)
		Expect(err).To(HaveOccurred())
	})

	When("a ROA store is present", func() {
		It("joins the ROA verdict keyed by the AS_PATH-derived origin", func() {
			store := roa.New()
			Expect(store.Insert("10.0.0.0/24", "300", 24)).To(Succeed())
			deps.ROA = store

			line := decodedLine("100 200 300", "999", "888", "10.0.0.0/24")
			e, err := enrich.EnrichLine(line, "src", deps)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.ROAValidity).To(Equal(record.ROAValid))
		})
	})

	When("an incident store is present", func() {
		It("joins incident fields keyed by the AS_PATH-derived origin", func() {
			store := incident.New()
			store.AddHijackOrLeak("10.0.0.0/24", "300", incident.Row{HijackVictim: "777", HijackAttacker: "300"})
			deps.Incidents = store

			line := decodedLine("100 200 300", "999", "888", "10.0.0.0/24")
			e, err := enrich.EnrichLine(line, "src", deps)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.IncidentFields["hijack_attacker"]).To(Equal("300"))
		})
	})
})

var _ = Describe("ProcessFile", func() {
	var outDir, decodedPath string
	var deps enrich.Deps

	BeforeEach(func() {
		outDir = filepath.Join(GinkgoT().TempDir(), "out")
		Expect(os.MkdirAll(outDir, 0o755)).To(Succeed())

		uniquePath := filepath.Join(GinkgoT().TempDir(), "unique_prefixes.txt")
		Expect(os.WriteFile(uniquePath, []byte("10.0.0.0/24\n"), 0o644)).To(Succeed())
		reg, err := prefix.Build(uniquePath, 100)
		Expect(err).NotTo(HaveOccurred())
		deps = enrich.Deps{Registry: reg}

		decodedDir := GinkgoT().TempDir()
		decodedPath = filepath.Join(decodedDir, "decoded.psv")
		line := decodedLine("100 200 300", "300", "100", "10.0.0.0/24")
		Expect(os.WriteFile(decodedPath, []byte(line+"\n"+line+"\n"), 0o644)).To(Succeed())
	})

	// A rerun of a file that already has a completed shard directory
	// must not duplicate its records — re-running it from scratch
	// wipes the file's own shard directory before writing, so the
	// shard always reflects exactly one pass over decodedPath.
	It("does not duplicate records when re-run after already succeeding once", func() {
		Expect(enrich.ProcessFile(decodedPath, "src", outDir, deps)).To(Succeed())
		Expect(enrich.ProcessFile(decodedPath, "src", outDir, deps)).To(Succeed())

		shardPath := filepath.Join(outDir, "shards", "decoded.psv", "block_0.tsv")
		body, err := os.ReadFile(shardPath)
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
		// one header line + 2 data lines, not 1 header + 4
		Expect(lines).To(HaveLen(3))
	})

	It("recovers from a simulated mid-file crash without duplicating partial output", func() {
		shardDir := filepath.Join(outDir, "shards", "decoded.psv")
		Expect(os.MkdirAll(shardDir, 0o755)).To(Succeed())
		partial := filepath.Join(shardDir, "block_0.tsv")
		Expect(os.WriteFile(partial, []byte("stale partial line\n"), 0o644)).To(Succeed())

		Expect(enrich.ProcessFile(decodedPath, "src", outDir, deps)).To(Succeed())

		body, err := os.ReadFile(partial)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).NotTo(ContainSubstring("stale partial line"))
		lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
		Expect(lines).To(HaveLen(3))
	})
})
