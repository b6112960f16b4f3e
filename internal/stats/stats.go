// Package stats aggregates subscription rows into the dashboard counters.
package stats

import (
	"sort"
	"time"

	"studyx-backend/internal/model"
	"studyx-backend/internal/parse"
)

// BrowserCount is one entry of the per-browser breakdown.
type BrowserCount struct {
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}

// Stats summarizes the subscription base.
type Stats struct {
	Total     int            `json:"total"`
	Last24h   int            `json:"last24h"`
	Last7d    int            `json:"last7d"`
	Last30d   int            `json:"last30d"`
	ByBrowser []BrowserCount `json:"byBrowser"`
}

// Compute reduces the subscription rows into counters relative to now.
func Compute(subs []model.PushSubscription, now time.Time) Stats {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	s := Stats{Total: len(subs)}
	browsers := make(map[string]int)
	for _, sub := range subs {
		if sub.CreatedAt.After(dayAgo) {
			s.Last24h++
		}
		if sub.CreatedAt.After(weekAgo) {
			s.Last7d++
		}
		if sub.CreatedAt.After(monthAgo) {
			s.Last30d++
		}
		browsers[parse.Browser(sub.UserAgent)]++
	}

	s.ByBrowser = make([]BrowserCount, 0, len(browsers))
	for browser, count := range browsers {
		s.ByBrowser = append(s.ByBrowser, BrowserCount{Browser: browser, Count: count})
	}
	// Highest count first; tie-break by name to keep the output stable.
	sort.Slice(s.ByBrowser, func(i, j int) bool {
		if s.ByBrowser[i].Count != s.ByBrowser[j].Count {
			return s.ByBrowser[i].Count > s.ByBrowser[j].Count
		}
		return s.ByBrowser[i].Browser < s.ByBrowser[j].Browser
	})
	return s
}
