package tree

import (
	"strings"
	"testing"
)

func TestEffectiveStatusRollsUpFromChildren(t *testing.T) {
	root := New()
	root.Add([]string{"parsed", "a.psv"}, Done)
	root.Add([]string{"parsed", "b.psv"}, Pending)

	parsed := root.children["parsed"]
	if got := parsed.EffectiveStatus(); got != Pending {
		t.Errorf("expected Pending when one child is pending, got %v", got)
	}

	root.Add([]string{"parsed", "b.psv"}, Done)
	if got := parsed.EffectiveStatus(); got != Done {
		t.Errorf("expected Done once every child is done, got %v", got)
	}
}

func TestEffectiveStatusPropagatesError(t *testing.T) {
	root := New()
	root.Add([]string{"raw", "a.gz"}, Done)
	root.Add([]string{"raw", "b.gz"}, Errored)

	if got := root.children["raw"].EffectiveStatus(); got != Errored {
		t.Errorf("expected Errored when any child errored, got %v", got)
	}
}

func TestFprintRendersNestedPaths(t *testing.T) {
	root := New()
	root.Add([]string{"raw", "a.gz"}, Done)
	root.Add([]string{"prefixes", "unique_prefixes.txt"}, Pending)

	var sb strings.Builder
	root.Fprint(&sb, true, "")
	out := sb.String()

	if !strings.Contains(out, "raw/") || !strings.Contains(out, "[done]") {
		t.Errorf("expected raw/ rollup marked done, got %q", out)
	}
	if !strings.Contains(out, "unique_prefixes.txt") || !strings.Contains(out, "[pending]") {
		t.Errorf("expected unique_prefixes.txt marked pending, got %q", out)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{Pending: "[pending]", Done: "[done]", Errored: "[error]"}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
