package aspath_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestASPath(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "aspath suite")
}
