// Package config parses the per-subcommand flag sets, in the same
// handle_args_<subcommand> style as the teacher's args.go: one
// flag.NewFlagSet per subcommand, required fields filled by reference.
package config

import (
	"flag"
	"os"
	"time"
)

// RunConfig is the single struct threaded through every stage. It is
// built once by the "run" subcommand's flag set and handed down
// read-only from there — mirroring the teacher's g_args global, except
// passed explicitly instead of read from a package-level variable,
// since spec.md's stores must be passed immutably into each worker
// (§5 "Shared mutable state: None").
type RunConfig struct {
	Snapshot      time.Time
	Sources       []string // "ripe", "route_views"; empty means all registered
	MaxBlockSize  int
	WorkDir       string
	AsRelFile     string
	RoaFile       string
	IncidentFile  string
	IxpFile       string
	CliqueFile    string
	DecoderPath   string
	MetricsAddr   string
	SingleFileOut bool
}

// HandleArgsRun parses the "run" subcommand's flags, the way
// handle_args_rib_parsing_multi parsed "-a/-c/-o/-s/-e/-h" in the
// teacher's args.go.
func HandleArgsRun(args []string) (RunConfig, error) {
	if len(args) == 0 {
		println("missing arguments")
		os.Exit(-1)
	}
	cmd := flag.NewFlagSet(args[0], flag.ExitOnError)

	var snapshot string
	var sources string
	cfg := RunConfig{}

	cmd.StringVar(&snapshot, "t", "", "snapshot timestamp, RFC3339 UTC")
	cmd.StringVar(&sources, "sources", "", "comma-separated source names; empty means all registered sources")
	cmd.IntVar(&cfg.MaxBlockSize, "block-size", 2000, "max_block_size: prefixes per output block")
	cmd.StringVar(&cfg.WorkDir, "d", "", "working directory for raw/parsed/prefixes/formatted/analysis/cache")
	cmd.StringVar(&cfg.AsRelFile, "asrel", "", "CAIDA AS-relationship file")
	cmd.StringVar(&cfg.RoaFile, "roa", "", "ROA feed snapshot file")
	cmd.StringVar(&cfg.IncidentFile, "incidents", "", "incident feed snapshot file")
	cmd.StringVar(&cfg.IxpFile, "ixps", "", "IXP ASN list file")
	cmd.StringVar(&cfg.CliqueFile, "clique", "", "input-clique (tier-1) ASN list file")
	cmd.StringVar(&cfg.DecoderPath, "decoder", "bgpkit-parser", "external MRT decoder binary")
	cmd.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "if non-empty, serve Prometheus metrics on this address")
	cmd.BoolVar(&cfg.SingleFileOut, "single-file", false, "also produce one cross-block output file in S6")

	if err := cmd.Parse(args[1:]); err != nil {
		return cfg, err
	}

	if snapshot == "" {
		cfg.Snapshot = time.Now().UTC().Truncate(time.Hour)
	} else {
		t, err := time.Parse(time.RFC3339, snapshot)
		if err != nil {
			return cfg, err
		}
		cfg.Snapshot = t.UTC()
	}
	if sources != "" {
		cfg.Sources = splitNonEmpty(sources, ',')
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return cfg, nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
