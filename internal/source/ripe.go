package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RIPE mirrors original_source/mrt_collector/sources/ripe.py: RIS
// collectors publish every 8 hours, hrefs are filtered to those
// starting with the RIS data root, and 26 collectors are expected.
type RIPE struct{}

const ripeIndexURL = "http://data.ris.ripe.net/rrc00/"
const ripeHrefPrefix = "http://data.ris.ripe.net/rrc"
const ripeExpectedCollectors = 26

func init() {
	RegisterSource(RIPE{})
}

func (RIPE) Name() string { return "ripe" }

func (r RIPE) EnumerateURLs(ctx context.Context, timestamp time.Time, cache HTTPCache) ([]string, error) {
	if timestamp.UTC().Hour()%8 != 0 {
		return nil, fmt.Errorf("ripe: cadence violated: hour %d is not a multiple of 8", timestamp.UTC().Hour())
	}

	hrefs, err := fetchHrefs(ctx, ripeIndexURL, cache)
	if err != nil {
		return nil, fmt.Errorf("ripe: %w", err)
	}

	var collectors []string
	for _, h := range hrefs {
		if strings.HasPrefix(h, ripeHrefPrefix) {
			collectors = append(collectors, h)
		}
	}
	warnOnCollectorCountMismatch("ripe", len(collectors), ripeExpectedCollectors)

	urls := make([]string, 0, len(collectors))
	for _, c := range collectors {
		urls = append(urls, ripeURLFor(c, timestamp))
	}
	return urls, nil
}

func ripeURLFor(collectorBase string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%04d.%02d/bview.%04d%02d%02d.%02d00.gz",
		strings.TrimSuffix(collectorBase, "/"),
		t.Year(), t.Month(),
		t.Year(), t.Month(), t.Day(), t.Hour())
}
