package roa_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jfuruness/mrt-collector/internal/record"
	"github.com/jfuruness/mrt-collector/internal/roa"
)

var _ = Describe("Store.Verdict", func() {
	var store *roa.Store

	BeforeEach(func() {
		store = roa.New()
	})

	When("no ROA covers the prefix", func() {
		It("returns UNKNOWN and not-routed", func() {
			Expect(store.Insert("10.0.0.0/24", "65001", 24)).To(Succeed())
			v, routed, err := store.Verdict("11.0.0.0/24", "65001")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAUnknown))
			Expect(routed).To(BeFalse())
		})
	})

	When("origin and length both match", func() {
		It("returns VALID", func() {
			Expect(store.Insert("10.0.0.0/24", "65001", 24)).To(Succeed())
			v, routed, err := store.Verdict("10.0.0.0/24", "65001")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAValid))
			Expect(routed).To(BeTrue())
		})
	})

	When("origin matches but announced prefix is more specific than max_length", func() {
		It("returns INVALID_LENGTH", func() {
			Expect(store.Insert("10.0.0.0/16", "65001", 20)).To(Succeed())
			v, _, err := store.Verdict("10.0.0.0/24", "65001")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAInvalidLength))
		})
	})

	When("length is fine but the announced origin differs", func() {
		It("returns INVALID_ORIGIN", func() {
			Expect(store.Insert("10.0.0.0/24", "65001", 24)).To(Succeed())
			v, _, err := store.Verdict("10.0.0.0/24", "65002")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAInvalidOrigin))
		})
	})

	When("neither origin nor length match", func() {
		It("returns INVALID_LENGTH_AND_ORIGIN", func() {
			Expect(store.Insert("10.0.0.0/16", "65001", 20)).To(Succeed())
			v, _, err := store.Verdict("10.0.0.0/24", "65002")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAInvalidLengthAndOrigin))
		})
	})

	When("the lookup uses the longest covering ROA, not a broader one", func() {
		It("prefers the more specific ROA entry", func() {
			Expect(store.Insert("10.0.0.0/8", "65099", 8)).To(Succeed())
			Expect(store.Insert("10.0.0.0/24", "65001", 24)).To(Succeed())
			v, _, err := store.Verdict("10.0.0.0/24", "65001")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(record.ROAValid))
		})
	})

	When("the announced prefix is malformed", func() {
		It("returns an error", func() {
			_, _, err := store.Verdict("not-a-prefix", "65001")
			Expect(err).To(HaveOccurred())
		})
	})
})
