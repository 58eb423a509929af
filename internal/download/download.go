// Package download implements S2: fetch each MRT file's URL to its raw
// path with bounded retries, linear backoff, and a terminal ERROR
// sentinel on persistent failure. Grounded on MRTFile.download_raw
// (original_source/mrt_collector/mrt_file.py) and on the teacher's
// http.Get + defer/recover shape (rib.go's broker_get_collectors).
package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jfuruness/mrt-collector/internal/mrtfile"
)

const (
	maxRetries    = 3
	requestTimout = 60 * time.Second
)

// ErrNotFound is returned for a terminal 404 — spec.md §7 treats this
// distinctly from transport errors, but both end in the same ERROR
// sentinel at the file level.
var ErrNotFound = errors.New("404 not found")

// Fetch downloads f.URL into f.RawPath. A 404 is terminal and
// non-retryable; transport errors are tried up to maxRetries attempts in
// total, with a 10*n second linear backoff after the n-th failure. Persistent failure writes the ERROR
// sentinel into the raw path instead of returning an error, so the
// file is recorded as "attempted" and excluded by later stages via
// DownloadSucceeded.
func Fetch(ctx context.Context, f mrtfile.MRTFile) error {
	if f.Downloaded() {
		return nil
	}

	client := &http.Client{Timeout: requestTimout}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fetchOnce(ctx, client, f)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("url", f.URL).Int("attempt", attempt+1).Msg("404, not retrying")
			break
		}
		log.Warn().Err(err).Str("url", f.URL).Int("attempt", attempt+1).Msg("download failed, retrying")
		select {
		case <-time.After(time.Duration(attempt+1) * 10 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Warn().Err(lastErr).Str("url", f.URL).Msg("download exhausted retries, writing ERROR sentinel")
	return os.WriteFile(f.RawPath, []byte(mrtfile.DLErrSentinel), 0o644)
}

func fetchOnce(ctx context.Context, client *http.Client, f mrtfile.MRTFile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	out, err := os.Create(f.RawPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}
