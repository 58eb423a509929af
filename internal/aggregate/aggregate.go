// Package aggregate implements S6: each decoded MRT file's enrichment
// pass (internal/enrich) opens its own per-file shard subdirectory
// under shardsRoot/shards/<file>/block_<id>.tsv (spec.md §4.5.5 opens
// shard writers "per MRT file"). S6's job is to merge those per-file
// shards by numeric block_id into one combined block_<id>.tsv per
// block — optionally also one cross-block file — then delete the
// per-file shard inputs. Grounded on rib.go's "cat ... > ...; rm ..."
// exec.Command shelling-out idiom, reimplemented as direct file I/O.
package aggregate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/record"
)

// Options configures the S6 pass.
type Options struct {
	ShardDir      string // root directory; per-file shards live under ShardDir/shards/<file>/block_<n>.tsv
	SingleFileOut string // when non-empty, also write one concatenated file here
	DeleteShards  bool   // remove the per-file shard subdirectories once aggregation succeeds
}

// Run merges every per-file block_<id>.tsv shard under opts.ShardDir
// into one combined block_<id>.tsv per block_id, optionally also one
// cross-block file, and, when opts.DeleteShards is set, removes the
// per-file shard subdirectories on success — spec.md §4.6.
func Run(opts Options) error {
	byBlock, blockIDs, err := discoverShardsByBlock(filepath.Join(opts.ShardDir, "shards"))
	if err != nil {
		return err
	}
	if len(blockIDs) == 0 {
		log.Warn().Str("dir", opts.ShardDir).Msg("no shards to aggregate")
		return nil
	}

	combinedPaths := make([]string, 0, len(blockIDs))
	for _, blockID := range blockIDs {
		outPath := filepath.Join(opts.ShardDir, fmt.Sprintf("block_%d.tsv", blockID))
		if err := concatenate(byBlock[blockID], outPath); err != nil {
			return err
		}
		combinedPaths = append(combinedPaths, outPath)
	}

	if opts.SingleFileOut != "" {
		if err := concatenate(combinedPaths, opts.SingleFileOut); err != nil {
			return err
		}
	}

	if opts.DeleteShards {
		shardsRoot := filepath.Join(opts.ShardDir, "shards")
		if err := os.RemoveAll(shardsRoot); err != nil {
			log.Warn().Err(err).Str("path", shardsRoot).Msg("failed to remove per-file shards after aggregation")
		}
	}
	return nil
}

// discoverShardsByBlock walks shardsRoot (one subdirectory per decoded
// MRT file) and groups every block_<id>.tsv it finds by numeric block
// ID, across all files. Grouping numerically rather than by
// lexicographic path sort keeps block_2.tsv ahead of block_10.tsv.
func discoverShardsByBlock(shardsRoot string) (map[int][]string, []int, error) {
	fileDirs, err := os.ReadDir(shardsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("discover shards: %w", err)
	}

	byBlock := make(map[int][]string)
	for _, fd := range fileDirs {
		if !fd.IsDir() {
			continue
		}
		dir := filepath.Join(shardsRoot, fd.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("discover shards: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			var blockID int
			if _, err := fmt.Sscanf(e.Name(), "block_%d.tsv", &blockID); err == nil {
				byBlock[blockID] = append(byBlock[blockID], filepath.Join(dir, e.Name()))
			}
		}
	}

	blockIDs := make([]int, 0, len(byBlock))
	for id := range byBlock {
		blockIDs = append(blockIDs, id)
	}
	sort.Ints(blockIDs)
	for _, id := range blockIDs {
		sort.Strings(byBlock[id])
	}
	return byBlock, blockIDs, nil
}

// concatenate writes one TSV header followed by every shard's data
// rows (skipping each shard's own header line) to outPath.
func concatenate(shardPaths []string, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("concatenate: create %s: %w", outPath, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	if _, err := w.WriteString(record.TSVHeader() + "\n"); err != nil {
		return err
	}

	for _, p := range shardPaths {
		if err := appendDataRows(w, p); err != nil {
			return err
		}
	}
	return w.Flush()
}

func appendDataRows(w *bufio.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("concatenate: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // drop this shard's own header row
		}
		if _, err := w.WriteString(scanner.Text() + "\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}
