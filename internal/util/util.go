// Package util holds small free functions shared across stages, in the
// same spirit as the teacher's misc.go: no state, no interfaces, just
// helpers.
package util

import (
	"bufio"
	"math"
	"os"

	"github.com/rs/zerolog/log"
)

// Recover turns a panic into a logged, non-fatal return — used at the
// per-record/per-file boundary where spec.md §7 says "log + drop".
func Recover(stage, context string) {
	if r := recover(); r != nil {
		log.Error().Str("stage", stage).Str("context", context).Interface("panic", r).Msg("recovered")
	}
}

// RecoverFatal turns a panic into log.Fatal — used at the coordinator
// boundary where spec.md §7 says "re-raise and abort".
func RecoverFatal(stage, context string) {
	if r := recover(); r != nil {
		log.Fatal().Str("stage", stage).Str("context", context).Interface("panic", r).Msg("fatal")
	}
}

// RemoveAdjacentDuplicates implements the "uniq-adjacent" pass from
// spec.md §4.4 — sufficient for RIB dumps because identical prefixes
// are already grouped by the decoder.
func RemoveAdjacentDuplicates(slice []string) []string {
	r := make([]string, 0, len(slice))
	prev := ""
	first := true
	for _, s := range slice {
		if first || s != prev {
			r = append(r, s)
		}
		prev = s
		first = false
	}
	return r
}

// HasLoop reports whether slice contains any repeated element,
// adjacent or not — grounds as_path_loop (spec.md §4.5.3).
func HasLoop(slice []string) bool {
	seen := make(map[string]struct{}, len(slice))
	for _, s := range slice {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
	}
	return false
}

// Float64s supports simple aggregate statistics (mean/variance) over a
// collection of numeric samples — used by the S7 vantage-point
// analytics summary.
type Float64s []float64

func (d Float64s) Sum() float64 {
	s := 0.0
	for _, v := range d {
		s += v
	}
	return s
}

func (d Float64s) Mean() float64 {
	if len(d) == 0 {
		return 0
	}
	return d.Sum() / float64(len(d))
}

func (d Float64s) Variance() float64 {
	if len(d) == 0 {
		return 0
	}
	m := d.Mean()
	devs := make(Float64s, 0, len(d))
	for _, v := range d {
		devs = append(devs, math.Pow(v-m, 2))
	}
	return devs.Mean()
}

// NewBufioWriter mirrors the teacher's new_bufio_writer: open-or-fatal
// since a failure to open an emit file is fatal for the file per
// spec.md §7's "I/O error on emit" row.
func NewBufioWriter(path string) (*bufio.Writer, *os.File) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot create output file")
	}
	return bufio.NewWriter(f), f
}

// FileExists is the sentinel-check primitive every stage's
// resumability logic uses.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
