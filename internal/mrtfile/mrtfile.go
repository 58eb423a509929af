// Package mrtfile defines the pipeline unit: one remote URL and its
// deterministic set of local paths, directly grounded on
// original_source/mrt_collector/mrt_file.py's MRTFile class.
package mrtfile

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DLErrSentinel is the one-line sentinel written into raw_path on
// persistent download failure (spec.md §4.2, §8 invariant 4).
const DLErrSentinel = "ERROR"

// Dirs is the run's directory layout, grounded on
// MRTCollector._initialize_dirs (original_source/mrt_collector/
// mrt_collector.py).
type Dirs struct {
	Raw       string
	Parsed    string
	Prefixes  string
	Formatted string
	Analysis  string
	Cache     string
}

func (d Dirs) MkdirAll() error {
	for _, p := range []string{d.Raw, d.Parsed, d.Prefixes, d.Formatted, d.Analysis, d.Cache} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", p, err)
		}
	}
	return nil
}

// MRTFile is the pipeline unit: one remote URL, its owning source
// name, and deterministic paths for its raw/decoded/prefix artifacts
// (per-block shard paths are derived by internal/enrich).
type MRTFile struct {
	URL          string
	SourceName   string
	RawPath      string
	DecodedPath  string
	PrefixesPath string
}

// New builds an MRTFile's deterministic paths from dirs, mirroring
// MRTFile.__init__'s path assignments.
func New(rawURL, sourceName string, dirs Dirs) MRTFile {
	return MRTFile{
		URL:          rawURL,
		SourceName:   sourceName,
		RawPath:      filepath.Join(dirs.Raw, urlToFname(rawURL, "")),
		DecodedPath:  filepath.Join(dirs.Parsed, urlToFname(rawURL, "psv")),
		PrefixesPath: filepath.Join(dirs.Prefixes, urlToFname(rawURL+"_unique", "csv")),
	}
}

// urlToFname percent-encodes url and prefixes it with "non_url" so an
// external tool can never mistake the filename stem for a URL — ported
// from MRTFile._url_to_fname.
func urlToFname(rawURL, ext string) string {
	fname := "non_url" + strings.ReplaceAll(url.QueryEscape(rawURL), "%2F", "_")
	fname = strings.ReplaceAll(fname, "/", "_")
	if ext != "" {
		fname = strings.ReplaceAll(fname, ".gz", "."+ext)
		fname = strings.ReplaceAll(fname, ".bz2", "."+ext)
		base := strings.TrimSuffix(fname, filepath.Ext(fname))
		fname = base + "." + ext
	}
	return fname
}

// Downloaded reports whether the raw file exists on disk.
func (f MRTFile) Downloaded() bool {
	_, err := os.Stat(f.RawPath)
	return err == nil
}

// DownloadSucceeded implements spec.md §8 invariant 4: true iff the
// first bytes of raw_path are not the ERROR sentinel. Reads only
// len(DLErrSentinel) bytes instead of the whole file — raw_path is a
// multi-gigabyte MRT dump on most runs, and this is called repeatedly
// across the pipeline just to check a handful of bytes.
func (f MRTFile) DownloadSucceeded() (bool, error) {
	f2, err := os.Open(f.RawPath)
	if err != nil {
		return false, err
	}
	defer f2.Close()

	buf := make([]byte, len(DLErrSentinel))
	_, err = io.ReadFull(f2, buf)
	switch {
	case err == nil:
		return string(buf) != DLErrSentinel, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		// Shorter than the sentinel itself, so it cannot equal it.
		return true, nil
	default:
		return false, err
	}
}

// SortDescendingBySize orders files so the largest decoded (or, absent
// that, raw) file is processed first — spec.md §5 "Back-pressure &
// work ordering", ported from MRTFile.__lt__.
func SortDescendingBySize(files []MRTFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return sizeOf(files[i]) > sizeOf(files[j])
	})
}

func sizeOf(f MRTFile) int64 {
	if fi, err := os.Stat(f.DecodedPath); err == nil {
		return fi.Size()
	}
	if fi, err := os.Stat(f.RawPath); err == nil {
		return fi.Size()
	}
	return 0
}
