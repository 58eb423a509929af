// Package enrich implements S5: per-record enrichment and sharded
// emission by block_id, with sentinel-file resumability so a crashed
// or killed run can restart without redoing completed files. Grounded
// on rib.go's parse_ribs/pool.Launch_pool driving loop and on
// MRTFile's download/decode sentinel idiom (mrtfile.DLErrSentinel)
// generalized to the per-file and per-run completion markers spec.md
// §4.5 resumability requirement names.
//
// spec.md §4.5.5 opens N writers "per MRT file" — each decoded file
// gets its own shard subdirectory under outDir, never shared with any
// other file. That keeps a crash-and-retry confined to the one file
// being redone: ProcessFile wipes its own shard subdirectory before
// writing a single byte, so re-running it after a kill never appends
// a second copy of already-written lines, and S6 is responsible for
// concatenating every file's block_<id>.tsv into the combined
// per-block output.
package enrich

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	pool "github.com/Emeline-1/pool"
	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/aspath"
	"github.com/jfuruness/mrt-collector/internal/incident"
	"github.com/jfuruness/mrt-collector/internal/metrics"
	"github.com/jfuruness/mrt-collector/internal/prefix"
	"github.com/jfuruness/mrt-collector/internal/record"
	"github.com/jfuruness/mrt-collector/internal/roa"
	"github.com/jfuruness/mrt-collector/internal/topology"
	"github.com/jfuruness/mrt-collector/internal/util"
)

// Deps bundles the read-only lookup structures every worker shares
// (spec.md §5: "Shared mutable state: None" among these — each is
// built once up front and only read from during S5).
type Deps struct {
	Registry  *prefix.Registry
	ROA       *roa.Store
	Incidents *incident.Store
	Topology  *topology.Topology
}

// flushEvery controls how often a shard's count.txt progress file is
// rewritten — spec.md names 10,000 records as the flush interval.
const flushEvery = 10000

// EnrichLine parses one decoded `|`-delimited line and produces its
// fully enriched record. sourceURL threads through for the
// source_url output column.
func EnrichLine(line, sourceURL string, deps Deps) (record.Enriched, error) {
	decoded, err := record.ParseDecoded(line)
	if err != nil {
		return record.Enriched{}, err
	}

	e := record.Enriched{Decoded: decoded, SourceURL: sourceURL}

	if entry, ok := deps.Registry.Lookup(decoded.Prefix); ok {
		e.PrefixID, e.BlockID, e.BlockPrefixID = entry.PrefixID, entry.BlockID, entry.BlockPrefixID
	} else {
		e.PrefixID, e.BlockID, e.BlockPrefixID = -1, -1, -1
	}

	// origin_asn/collector_asn are derived from AS_PATH traversal
	// (spec.md §4.5.3's "Origin selection"/"Collector ASN" rules), not
	// from the decoder's own origin_asns/peer_asn columns.
	res := aspath.Analyze(decoded.ASPath, deps.Topology)
	origin := res.OriginASN
	e.OriginASN = origin
	e.CollectorASN = res.CollectorASN
	e.InvalidASPathASNs = res.InvalidASPathASNs
	e.IXPsInASPath = res.IXPsInASPath
	e.Prepending = res.Prepending
	e.ASPathLoop = res.ASPathLoop
	e.ValleyFreeCaidaPath = res.ValleyFreeCaidaPath
	e.NonCaidaASNs = res.NonCaidaASNs
	e.InputCliqueSplit = res.InputCliqueSplit
	e.MissingCaidaRelationship = res.MissingCaidaRelationship
	e.ASSets = res.ASSets

	if deps.ROA != nil {
		verdict, routed, err := deps.ROA.Verdict(decoded.Prefix, origin)
		if err != nil {
			log.Warn().Err(err).Str("prefix", decoded.Prefix).Msg("roa lookup failed")
		} else {
			e.ROAValidity = verdict
			e.ROARouted = routed
		}
	}

	if deps.Incidents != nil {
		e.IncidentFields = deps.Incidents.Lookup(decoded.Prefix, origin)
	}

	return e, nil
}

// shardWriter owns one block_id's output file plus its record count,
// flushed to a sibling count.txt every flushEvery records.
type shardWriter struct {
	mu      sync.Mutex
	w       *bufio.Writer
	f       *os.File
	path    string
	count   int
	flushed int
}

// Shards manages one shardWriter per block_id, created lazily.
type Shards struct {
	mu      sync.Mutex
	dir     string
	writers map[int]*shardWriter
}

func NewShards(dir string) *Shards {
	return &Shards{dir: dir, writers: make(map[int]*shardWriter)}
}

func (s *Shards) writerFor(blockID int) (*shardWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.writers[blockID]; ok {
		return w, nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("block_%d.tsv", blockID))
	isNew := !util.FileExists(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open shard %d: %w", blockID, err)
	}
	w := &shardWriter{w: bufio.NewWriter(f), f: f, path: path}
	if isNew {
		w.w.WriteString(record.TSVHeader() + "\n")
	}
	s.writers[blockID] = w
	return w, nil
}

// Write appends e to its block's shard, flushing and updating
// count.txt every flushEvery records.
func (s *Shards) Write(e record.Enriched) error {
	w, err := s.writerFor(e.BlockID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.WriteString(e.TSVLine() + "\n"); err != nil {
		return err
	}
	w.count++
	if w.count-w.flushed >= flushEvery {
		if err := w.flushLocked(); err != nil {
			return err
		}
	}
	metrics.RecordsEmitted.Inc()
	return nil
}

func (w *shardWriter) flushLocked() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	w.flushed = w.count
	countPath := w.path + ".count.txt"
	return os.WriteFile(countPath, []byte(strconv.Itoa(w.count)+"\n"), 0644)
}

// CloseAll flushes and closes every open shard.
func (s *Shards) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, w := range s.writers {
		w.mu.Lock()
		if err := w.flushLocked(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.mu.Unlock()
	}
	return firstErr
}

// fileSentinel is the per-decoded-file completion marker — its
// presence means every line of that file already landed in its shard.
func fileSentinel(decodedPath string) string { return decodedPath + ".completed" }

// FileDone reports whether decodedPath was already fully processed in
// a prior run.
func FileDone(decodedPath string) bool { return util.FileExists(fileSentinel(decodedPath)) }

// shardStem names a decoded file's shard directory after its base
// filename. mrtfile.New derives every decoded path's filename
// deterministically from its source URL into one flat parsed/
// directory, so base names are already unique across a run.
func shardStem(decodedPath string) string {
	return filepath.Base(decodedPath)
}

// perFileShardDir returns the shard directory private to decodedPath.
// spec.md §4.5.5 opens its N block writers "per MRT file"; giving each
// file its own subdirectory under outDir/shards is what makes
// ProcessFile's wipe-and-retry safe without touching any other file's
// output.
func perFileShardDir(outDir, decodedPath string) string {
	return filepath.Join(outDir, "shards", shardStem(decodedPath))
}

// ProcessFile enriches every line of decodedPath into a shard
// directory private to this file, then writes its completion
// sentinel. Safe to call again after a crash: the private directory is
// wiped and recreated at the start of every attempt, so a retry after
// a partial prior attempt never appends a second copy of lines already
// written — it starts that file's shards from empty. FileDone should
// still be checked by the caller first, to skip files that already
// reached the sentinel.
func ProcessFile(decodedPath, sourceURL, outDir string, deps Deps) error {
	shardDir := perFileShardDir(outDir, decodedPath)
	if err := os.RemoveAll(shardDir); err != nil {
		return fmt.Errorf("process %s: reset shard dir: %w", decodedPath, err)
	}
	if err := os.MkdirAll(shardDir, 0755); err != nil {
		return fmt.Errorf("process %s: create shard dir: %w", decodedPath, err)
	}
	shards := NewShards(shardDir)

	f, err := os.Open(decodedPath)
	if err != nil {
		return fmt.Errorf("process %s: %w", decodedPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var dropped int
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e, err := EnrichLine(line, sourceURL, deps)
		if err != nil {
			dropped++
			metrics.RecordsDropped.WithLabelValues("parse_error").Inc()
			continue
		}
		if e.BlockID < 0 {
			dropped++
			metrics.RecordsDropped.WithLabelValues("prefix_not_registered").Inc()
			continue
		}
		if err := shards.Write(e); err != nil {
			return fmt.Errorf("process %s: %w", decodedPath, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("process %s: %w", decodedPath, err)
	}
	if dropped > 0 {
		log.Warn().Str("file", decodedPath).Int("dropped", dropped).Msg("dropped malformed records")
	}
	if err := shards.CloseAll(); err != nil {
		return fmt.Errorf("process %s: %w", decodedPath, err)
	}
	return os.WriteFile(fileSentinel(decodedPath), []byte("ok\n"), 0644)
}

// RunSentinel is the whole-run completion marker, namespaced by
// max_block_size since changing it invalidates every existing shard's
// numbering (spec.md §9 decision: block layout is config-specific).
func RunSentinel(outDir string, maxBlockSize int) string {
	return filepath.Join(outDir, fmt.Sprintf("%d_completed.txt", maxBlockSize))
}

// RunDone reports whether a prior run with this outDir/maxBlockSize
// combination finished completely.
func RunDone(outDir string, maxBlockSize int) bool {
	return util.FileExists(RunSentinel(outDir, maxBlockSize))
}

// Job is one decoded file queued for S5 processing.
type Job struct {
	DecodedPath string
	SourceURL   string
}

// RunAll drives every job through pool.Launch_pool (the teacher's own
// concurrency primitive, spec.md §5), skipping files whose sentinel
// already exists, then writes the whole-run sentinel on full success.
// pool.Launch_pool takes a []string of work items, matching every
// teacher call site (rib.go, rib_reader.go, rocketfuel.go all pass
// collector/filename string slices) — jobs are keyed by decoded path
// and the source URL looked up from sourceByPath inside the worker.
func RunAll(jobs []Job, outDir string, maxBlockSize int, poolSize int, deps Deps) error {
	if RunDone(outDir, maxBlockSize) {
		log.Info().Str("dir", outDir).Msg("run already completed, skipping")
		return nil
	}

	sourceByPath := make(map[string]string, len(jobs))
	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		sourceByPath[j.DecodedPath] = j.SourceURL
		paths = append(paths, j.DecodedPath)
	}

	var mu sync.Mutex
	var firstErr error

	worker := func(decodedPath string) {
		if FileDone(decodedPath) {
			return
		}
		defer util.RecoverFatal("enrich", decodedPath)
		if err := ProcessFile(decodedPath, sourceByPath[decodedPath], outDir, deps); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			log.Error().Err(err).Str("file", decodedPath).Msg("enrichment failed")
		}
	}
	pool.Launch_pool(poolSize, paths, worker)

	if firstErr != nil {
		return firstErr
	}
	return os.WriteFile(RunSentinel(outDir, maxBlockSize), []byte("ok\n"), 0644)
}
