package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RouteViews mirrors original_source/mrt_collector/sources/
// route_views.py: collectors publish every 2 hours, hrefs are filtered
// by the "/bgpdata" substring, and 40 collectors are expected.
type RouteViews struct{}

const routeViewsIndexURL = "http://archive.routeviews.org/"
const routeViewsHrefSubstr = "/bgpdata"
const routeViewsExpectedCollectors = 40

func init() {
	RegisterSource(RouteViews{})
}

func (RouteViews) Name() string { return "route_views" }

func (rv RouteViews) EnumerateURLs(ctx context.Context, timestamp time.Time, cache HTTPCache) ([]string, error) {
	if timestamp.UTC().Hour()%2 != 0 {
		return nil, fmt.Errorf("route_views: cadence violated: hour %d is not a multiple of 2", timestamp.UTC().Hour())
	}

	hrefs, err := fetchHrefs(ctx, routeViewsIndexURL, cache)
	if err != nil {
		return nil, fmt.Errorf("route_views: %w", err)
	}

	var collectors []string
	for _, h := range hrefs {
		if strings.Contains(h, routeViewsHrefSubstr) {
			collectors = append(collectors, h)
		}
	}
	warnOnCollectorCountMismatch("route_views", len(collectors), routeViewsExpectedCollectors)

	urls := make([]string, 0, len(collectors))
	for _, c := range collectors {
		urls = append(urls, routeViewsURLFor(c, timestamp))
	}
	return urls, nil
}

func routeViewsURLFor(collectorBase string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%04d.%02d/RIBS/rib.%04d%02d%02d.%02d00.bz2",
		strings.TrimSuffix(collectorBase, "/"),
		t.Year(), t.Month(),
		t.Year(), t.Month(), t.Day(), t.Hour())
}
