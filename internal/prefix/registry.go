// Package prefix implements S4 (prefix harvest) and S5.1 (prefix
// registry construction), grounded on MRTFile.store_unique_prefixes
// (original_source/mrt_collector/mrt_file.py, the cut/uniq and
// cat/uniq shell invocations) and on the teacher's SafeSet for the
// global merge set.
package prefix

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/ipaddr"
	"github.com/jfuruness/mrt-collector/internal/util"
)

// HarvestFile implements the per-file half of S4: extract the prefix
// column from decodedPath and de-duplicate with a streaming
// adjacent-uniq pass, writing the result to outPath. Sufficient
// because RIB dumps group identical prefixes (spec.md §4.4).
func HarvestFile(decodedPath, outPath string) error {
	in, err := os.Open(decodedPath)
	if err != nil {
		return fmt.Errorf("harvest %s: %w", decodedPath, err)
	}
	defer in.Close()

	var prefixes []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "|")
		if len(fields) < 12 {
			continue
		}
		prefixes = append(prefixes, fields[11])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("harvest %s: %w", decodedPath, err)
	}

	prefixes = util.RemoveAdjacentDuplicates(prefixes)

	out, f := util.NewBufioWriter(outPath)
	for _, p := range prefixes {
		if _, err := out.WriteString(p + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	out.Flush()
	return f.Close()
}

// MergeUnique implements the global half of S4: concatenate every
// per-file unique-prefix file and apply a hash-based unique filter
// that preserves first-occurrence order, writing one deterministic
// global unique-prefix file.
func MergeUnique(perFilePaths []string, outPath string) error {
	seen := NewSafeSet()
	var ordered []string

	for _, p := range perFilePaths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("merge unique: open %s: %w", p, err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if !seen.Contains(line) {
				seen.Add(line, struct{}{})
				ordered = append(ordered, line)
			}
		}
		f.Close()
	}

	out, file := util.NewBufioWriter(outPath)
	for _, p := range ordered {
		if _, err := out.WriteString(p + "\n"); err != nil {
			file.Close()
			return err
		}
	}
	out.Flush()
	return file.Close()
}

// Entry is the registry's per-prefix value: the stable
// (prefix_id, block_id, block_prefix_id) triplet from spec.md §3.
type Entry struct {
	PrefixID      int
	BlockID       int
	BlockPrefixID int
}

// Registry is the read-only, fully-populated mapping S5 consults.
// Populated once from the global unique-prefix file (§4.5.1), then
// shared by reference with every S5 worker, which only reads it — no
// locks needed in the hot path, per spec.md §5 "Shared mutable state: None".
type Registry struct {
	entries map[string]Entry
	n       int
}

// Build reads the unique-prefix file in order, drops malformed entries
// (host bits set), and numbers survivors densely — spec.md §4.5.1.
func Build(uniquePrefixPath string, maxBlockSize int) (*Registry, error) {
	if maxBlockSize <= 0 {
		return nil, fmt.Errorf("max_block_size must be positive, got %d", maxBlockSize)
	}

	f, err := os.Open(uniquePrefixPath)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	defer f.Close()

	r := &Registry{entries: make(map[string]Entry)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		p := strings.TrimSpace(scanner.Text())
		if p == "" {
			continue
		}
		if _, err := ipaddr.ParseNetwork(p); err != nil {
			log.Warn().Str("prefix", p).Err(err).Msg("dropping malformed prefix")
			continue
		}
		id := r.n
		r.entries[p] = Entry{
			PrefixID:      id,
			BlockID:       id / maxBlockSize,
			BlockPrefixID: id % maxBlockSize,
		}
		r.n++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the triplet for prefix, verbatim string match — no
// IPv6 canonicalization is performed (spec.md §9 open question,
// decision: preserve exact source text).
func (r *Registry) Lookup(prefix string) (Entry, bool) {
	e, ok := r.entries[prefix]
	return e, ok
}

// Len is the registry's size — 0 means S5 is a no-op (spec.md §8
// boundary behavior).
func (r *Registry) Len() int { return r.n }
