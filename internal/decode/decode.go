// Package decode implements S3: a thin adapter over the external MRT
// decoder subprocess. Grounded on the subprocess + bufio.Scanner +
// done-channel shape used throughout rib_reader.go's
// generate_RIB_parser family, and on start_and_wait's Start/wait-for-
// done/Wait sequencing.
package decode

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/mrtfile"
)

// Decode spawns the external decoder over f.RawPath and redirects its
// pipe-separated stdout to f.DecodedPath. Absence of the decoded file
// at exit is a hard failure (spec.md §4.3). Skips if the decoded file
// already exists.
func Decode(ctx context.Context, decoderPath string, f mrtfile.MRTFile) error {
	if _, err := os.Stat(f.DecodedPath); err == nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, decoderPath, "-i", f.RawPath, "-o", "psv")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("decode %s: stdout pipe: %w", f.URL, err)
	}

	out, err := os.Create(f.DecodedPath)
	if err != nil {
		return fmt.Errorf("decode %s: create decoded path: %w", f.URL, err)
	}
	defer out.Close()

	done := make(chan error, 1)
	go func() {
		w := bufio.NewWriter(out)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if _, werr := w.WriteString(scanner.Text() + "\n"); werr != nil {
				done <- werr
				return
			}
		}
		done <- w.Flush()
	}()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("decode %s: start: %w", f.URL, err)
	}
	copyErr := <-done
	waitErr := cmd.Wait()

	if waitErr != nil {
		os.Remove(f.DecodedPath)
		return fmt.Errorf("decode %s: decoder exited non-zero: %w", f.URL, waitErr)
	}
	if copyErr != nil {
		os.Remove(f.DecodedPath)
		return fmt.Errorf("decode %s: copy stdout: %w", f.URL, copyErr)
	}
	if _, err := os.Stat(f.DecodedPath); err != nil {
		return fmt.Errorf("decode %s: decoded file missing at exit", f.URL)
	}
	log.Debug().Str("url", f.URL).Msg("decoded")
	return nil
}
