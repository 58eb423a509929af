package incident

import "testing"

func TestLookupFallbackChain(t *testing.T) {
	s := New()
	s.AddHijackOrLeak("10.0.0.0/24", "666", Row{HijackVictim: "777", HijackAttacker: "666"})
	s.AddOutage("888", Row{OutageASN: "888"})

	t.Run("pair match wins", func(t *testing.T) {
		got := s.Lookup("10.0.0.0/24", "666")
		if got["hijack_attacker"] != "666" || got["hijack_victim"] != "777" {
			t.Errorf("unexpected pair-match row: %v", got)
		}
	})

	t.Run("falls back to origin", func(t *testing.T) {
		got := s.Lookup("11.0.0.0/24", "888")
		if got["outage_asn"] != "888" {
			t.Errorf("unexpected origin-fallback row: %v", got)
		}
	})

	t.Run("falls back to all-nulls", func(t *testing.T) {
		got := s.Lookup("12.0.0.0/24", "999")
		for k, v := range got {
			if v != "" {
				t.Errorf("expected empty fallback row, got %s=%q", k, v)
			}
		}
	})

	t.Run("pair beats origin when both exist", func(t *testing.T) {
		s.AddOutage("666", Row{OutageASN: "666"})
		got := s.Lookup("10.0.0.0/24", "666")
		if got["hijack_attacker"] != "666" {
			t.Errorf("pair-keyed row should win over origin-keyed row: %v", got)
		}
	})

	t.Run("last write wins for duplicate key", func(t *testing.T) {
		s.AddOutage("123", Row{OutageASN: "123"})
		s.AddOutage("123", Row{OutageASN: "123-updated"})
		got := s.Lookup("13.0.0.0/24", "123")
		if got["outage_asn"] != "123-updated" {
			t.Errorf("expected last write to win, got %v", got)
		}
	})
}
