// Package pipeline wires S1 through S7 into the single top-level
// orchestrator the "run" subcommand drives. Grounded on rib.go's
// parse_ribs (directory setup, pool.Launch_pool over collectors, then
// post-processing) generalized from a single RIB-parsing stage into
// the full seven-stage run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	pool "github.com/Emeline-1/pool"
	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/aggregate"
	"github.com/jfuruness/mrt-collector/internal/analytics"
	"github.com/jfuruness/mrt-collector/internal/cache"
	"github.com/jfuruness/mrt-collector/internal/config"
	"github.com/jfuruness/mrt-collector/internal/decode"
	"github.com/jfuruness/mrt-collector/internal/download"
	"github.com/jfuruness/mrt-collector/internal/enrich"
	"github.com/jfuruness/mrt-collector/internal/incident"
	"github.com/jfuruness/mrt-collector/internal/mrtfile"
	"github.com/jfuruness/mrt-collector/internal/prefix"
	"github.com/jfuruness/mrt-collector/internal/roa"
	"github.com/jfuruness/mrt-collector/internal/source"
	"github.com/jfuruness/mrt-collector/internal/topology"
	"github.com/jfuruness/mrt-collector/internal/util"
)

// Dirs returns the run's full directory layout rooted at cfg.WorkDir.
func Dirs(cfg config.RunConfig) mrtfile.Dirs {
	root := cfg.WorkDir
	return mrtfile.Dirs{
		Raw:       filepath.Join(root, "raw"),
		Parsed:    filepath.Join(root, "parsed"),
		Prefixes:  filepath.Join(root, "prefixes"),
		Formatted: filepath.Join(root, "formatted"),
		Analysis:  filepath.Join(root, "analysis"),
		Cache:     filepath.Join(root, "cache"),
	}
}

// Run drives S1 (discovery) through S7 (analytics) to completion.
func Run(ctx context.Context, cfg config.RunConfig) error {
	dirs := Dirs(cfg)
	if err := dirs.MkdirAll(); err != nil {
		return err
	}

	respCache, err := cache.Open(filepath.Join(dirs.Cache, "responses.db"))
	if err != nil {
		return err
	}
	defer respCache.Close()

	// --- S1: discover URLs ---
	srcs, err := discoverSources(cfg)
	if err != nil {
		return err
	}
	var files []mrtfile.MRTFile
	for _, s := range srcs {
		urls, err := s.EnumerateURLs(ctx, cfg.Snapshot, respCache)
		if err != nil {
			return fmt.Errorf("s1 discovery for %s: %w", s.Name(), err)
		}
		for _, u := range urls {
			files = append(files, mrtfile.New(u, s.Name(), dirs))
		}
	}
	log.Info().Int("files", len(files)).Msg("s1 discovery complete")
	if len(files) == 0 {
		log.Warn().Msg("no files discovered, nothing to do")
		return nil
	}

	mrtfile.SortDescendingBySize(files)

	// --- S2: download ---
	downloadAll(ctx, files)
	mrtfile.SortDescendingBySize(files)

	// --- S3: decode ---
	if err := decodeAll(ctx, cfg.DecoderPath, files); err != nil {
		return err
	}
	mrtfile.SortDescendingBySize(files)

	// --- S4: harvest + merge unique prefixes ---
	uniquePrefixPath := filepath.Join(dirs.Prefixes, "unique_prefixes.txt")
	if err := harvestPrefixes(files, dirs, uniquePrefixPath); err != nil {
		return err
	}

	// --- S5.1: build the dense prefix registry ---
	registry, err := prefix.Build(uniquePrefixPath, cfg.MaxBlockSize)
	if err != nil {
		return err
	}
	log.Info().Int("prefixes", registry.Len()).Msg("s5.1 registry built")

	// --- load reference stores (ROA, incidents, topology) ---
	roaStore, incidentStore, topo, err := loadReferenceStores(cfg)
	if err != nil {
		return err
	}

	// --- S5.2-S5.7: enrich + shard ---
	deps := enrich.Deps{Registry: registry, ROA: roaStore, Incidents: incidentStore, Topology: topo}
	jobs := make([]enrich.Job, 0, len(files))
	for _, f := range files {
		ok, _ := f.DownloadSucceeded()
		if !ok {
			continue
		}
		jobs = append(jobs, enrich.Job{DecodedPath: f.DecodedPath, SourceURL: f.URL})
	}
	if err := enrich.RunAll(jobs, dirs.Formatted, cfg.MaxBlockSize, 16, deps); err != nil {
		return err
	}

	// --- S6: aggregate shards ---
	aggOpts := aggregate.Options{ShardDir: dirs.Formatted, DeleteShards: true}
	if cfg.SingleFileOut {
		aggOpts.SingleFileOut = filepath.Join(dirs.Formatted, "combined.tsv")
	}
	if err := aggregate.Run(aggOpts); err != nil {
		return err
	}

	// --- S7: analytics ---
	reportPath := filepath.Join(dirs.Analysis, "report.json")
	if _, err := analytics.Run(ctx, dirs.Formatted, reportPath, topo, 8); err != nil {
		return err
	}

	log.Info().Msg("run complete")
	return nil
}

func discoverSources(cfg config.RunConfig) ([]source.Source, error) {
	if len(cfg.Sources) == 0 {
		return source.All(), nil
	}
	return source.ByNames(cfg.Sources)
}

// downloadAll fans S2 out across the same 16-worker pool the teacher's
// parse_ribs used for its per-collector loop.
func downloadAll(ctx context.Context, files []mrtfile.MRTFile) {
	byURL := make(map[string]mrtfile.MRTFile, len(files))
	urls := make([]string, 0, len(files))
	for _, f := range files {
		byURL[f.URL] = f
		urls = append(urls, f.URL)
	}
	worker := func(url string) {
		defer util.Recover("download", url)
		if err := download.Fetch(ctx, byURL[url]); err != nil {
			log.Error().Err(err).Str("url", url).Msg("download failed")
		}
	}
	pool.Launch_pool(16, urls, worker)
}

func decodeAll(ctx context.Context, decoderPath string, files []mrtfile.MRTFile) error {
	byURL := make(map[string]mrtfile.MRTFile, len(files))
	var urls []string
	for _, f := range files {
		ok, _ := f.DownloadSucceeded()
		if !ok {
			continue
		}
		byURL[f.URL] = f
		urls = append(urls, f.URL)
	}
	var firstErr error
	worker := func(url string) {
		defer util.RecoverFatal("decode", url)
		if err := decode.Decode(ctx, decoderPath, byURL[url]); err != nil {
			log.Error().Err(err).Str("url", url).Msg("decode failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	pool.Launch_pool(8, urls, worker)
	return firstErr
}

func harvestPrefixes(files []mrtfile.MRTFile, dirs mrtfile.Dirs, uniquePrefixPath string) error {
	var perFile []string
	for _, f := range files {
		ok, _ := f.DownloadSucceeded()
		if !ok {
			continue
		}
		if err := prefix.HarvestFile(f.DecodedPath, f.PrefixesPath); err != nil {
			log.Warn().Err(err).Str("file", f.DecodedPath).Msg("s4 harvest failed")
			continue
		}
		perFile = append(perFile, f.PrefixesPath)
	}
	return prefix.MergeUnique(perFile, uniquePrefixPath)
}

func loadReferenceStores(cfg config.RunConfig) (*roa.Store, *incident.Store, *topology.Topology, error) {
	topo := topology.New()
	if cfg.AsRelFile != "" {
		if err := topo.LoadASRel(cfg.AsRelFile); err != nil {
			return nil, nil, nil, err
		}
	}
	if cfg.CliqueFile != "" {
		if err := topo.LoadClique(cfg.CliqueFile); err != nil {
			return nil, nil, nil, err
		}
	}
	if cfg.IxpFile != "" {
		if err := topo.LoadIXPs(cfg.IxpFile); err != nil {
			return nil, nil, nil, err
		}
	}

	roaStore := roa.New()
	if cfg.RoaFile != "" {
		if err := loadROAFile(cfg.RoaFile, roaStore); err != nil {
			return nil, nil, nil, err
		}
	}

	incidentStore := incident.New()
	if cfg.IncidentFile != "" {
		if err := loadIncidentFile(cfg.IncidentFile, incidentStore); err != nil {
			return nil, nil, nil, err
		}
	}

	return roaStore, incidentStore, topo, nil
}
