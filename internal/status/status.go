// Package status renders a run's sentinel-file completion state as an
// ASCII tree, added operational surface beyond spec.md's Non-goals on
// observability (ambient stack, not a feature — see SPEC_FULL.md §10).
package status

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jfuruness/mrt-collector/internal/enrich"
	"github.com/jfuruness/mrt-collector/internal/mrtfile"
	"github.com/jfuruness/mrt-collector/internal/tree"
)

// Print walks workDir and renders each stage's completion state as a
// nested tree: raw/ and parsed/ each list their per-file status, so a
// handful of stuck or errored downloads/decodes are visible without
// grepping sentinel files by hand.
func Print(w io.Writer, workDir string, maxBlockSize int) {
	t := tree.New()

	addRawFiles(t, filepath.Join(workDir, "raw"))
	addParsedFiles(t, filepath.Join(workDir, "parsed"))

	uniquePrefixesPath := filepath.Join(workDir, "prefixes", "unique_prefixes.txt")
	t.Add([]string{"prefixes", "unique_prefixes.txt"}, statusOf(exists(uniquePrefixesPath)))

	addFormattedBlocks(t, filepath.Join(workDir, "formatted"), maxBlockSize)

	reportPath := filepath.Join(workDir, "analysis", "report.json")
	t.Add([]string{"analysis", "report.json"}, statusOf(exists(reportPath)))

	fmt.Fprintln(w, workDir)
	t.Fprint(w, true, "")
}

// addRawFiles adds one child per downloaded raw file, Errored if its
// first bytes are the download-failure sentinel (spec.md §4.2).
func addRawFiles(t *tree.Node, rawDir string) {
	names := sortedFileNames(rawDir)
	if len(names) == 0 {
		t.Add([]string{"raw"}, tree.Pending)
		return
	}
	for _, name := range names {
		f := mrtfile.MRTFile{RawPath: filepath.Join(rawDir, name)}
		ok, err := f.DownloadSucceeded()
		st := tree.Done
		if err != nil || !ok {
			st = tree.Errored
		}
		t.Add([]string{"raw", name}, st)
	}
}

// addParsedFiles adds one child per decoded file, Done iff enrich
// already wrote its per-file completion sentinel (spec.md §4.5.6).
func addParsedFiles(t *tree.Node, parsedDir string) {
	names := sortedFileNames(parsedDir)
	if len(names) == 0 {
		t.Add([]string{"parsed"}, tree.Pending)
		return
	}
	for _, name := range names {
		if filepath.Ext(name) == ".completed" {
			continue // enrich's per-file sentinel, not a decoded file
		}
		decodedPath := filepath.Join(parsedDir, name)
		t.Add([]string{"parsed", name}, statusOf(enrich.FileDone(decodedPath)))
	}
}

// addFormattedBlocks adds the whole-run sentinel plus one child per
// combined block_<id>.tsv that S6 has already written under
// formatted/, so the status view reflects real aggregation progress
// rather than only the single run-level completion flag.
func addFormattedBlocks(t *tree.Node, formattedDir string, maxBlockSize int) {
	runDone := enrich.RunDone(formattedDir, maxBlockSize)
	t.Add([]string{"formatted", fmt.Sprintf("%d_completed.txt", maxBlockSize)}, statusOf(runDone))

	for _, name := range sortedFileNames(formattedDir) {
		var blockID int
		if _, err := fmt.Sscanf(name, "block_%d.tsv", &blockID); err == nil {
			t.Add([]string{"formatted", name}, tree.Done)
		}
	}
}

func sortedFileNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func statusOf(done bool) tree.Status {
	if done {
		return tree.Done
	}
	return tree.Pending
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ErrorCount reports how many raw downloads under workDir recorded the
// terminal ERROR sentinel (spec.md §4.2) — a quick health signal for
// the status command.
func ErrorCount(workDir string) (int, error) {
	rawDir := filepath.Join(workDir, "raw")
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f := mrtfile.MRTFile{RawPath: filepath.Join(rawDir, e.Name())}
		ok, err := f.DownloadSucceeded()
		if err != nil {
			continue
		}
		if !ok {
			count++
		}
	}
	return count, nil
}
