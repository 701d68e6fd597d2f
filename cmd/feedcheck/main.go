// Command feedcheck runs a saved GDACS feed through the same parsing and
// normalization the service uses and reports per-phase checks. It is meant for
// vetting a captured feed before using it as a fixture, or for diagnosing a
// pass that failed in production.
//
// Usage:
//
//	curl -s https://www.gdacs.org/xml/rss_7d.xml > feed.xml
//	go run ./cmd/feedcheck -feed feed.xml -now 2026-10-17T12:00:00Z
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to a saved GDACS RSS document")
	nowFlag := flag.String("now", "", "RFC3339 time to classify against (default: current time)")
	window := flag.Duration("window", 24*time.Hour, "real-time window")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	now := time.Now().UTC()
	if *nowFlag != "" {
		t, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -now: %v\n", err)
			os.Exit(1)
		}
		now = t
	}

	raw, err := os.ReadFile(*feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read feed: %v\n", err)
		os.Exit(1)
	}

	ref, err := domain.LoadReferenceData()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reference data: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, raw, ref, now, *window))
}

func run(w io.Writer, raw []byte, ref domain.ReferenceData, now time.Time, window time.Duration) int {
	fmt.Fprintln(w, "=== GDACS Feed Check ===")

	geo := domain.NewGeoResolver(ref)
	norm := domain.NewNormalizer(geo, domain.DefaultTypeMapper())

	items, parse := checkParse(raw)
	records, normalize := checkNormalize(norm, items)
	phases := []*phase{
		parse,
		normalize,
		checkGeo(geo, items, records),
		checkClassification(records, now, window),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nCheck FAILED.")
	return 1
}

// ── Phase 1: document ──

func checkParse(raw []byte) ([]domain.FeedItem, *phase) {
	p := &phase{name: "Phase 1: RSS document"}

	items, err := domain.ParseFeed(raw)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	p.notef("%d items", len(items))

	seen := make(map[string]int, len(items))
	for i, it := range items {
		if prev, ok := seen[it.GUID]; ok && it.GUID != "" {
			p.errorf("item %d: guid %q repeats item %d", i, it.GUID, prev)
			continue
		}
		seen[it.GUID] = i
	}
	return items, p
}

// ── Phase 2: normalization ──
// Items are normalized one at a time so every failure is reported, not just
// the first one that would abort a pass.

func checkNormalize(norm *domain.Normalizer, items []domain.FeedItem) ([]domain.DisasterRecord, *phase) {
	p := &phase{name: "Phase 2: Normalization"}

	records := make([]domain.DisasterRecord, 0, len(items))
	for i, it := range items {
		rec, err := norm.NormalizeItem(it)
		if err != nil {
			p.errorf("item %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records, p
}

// ── Phase 3: geo resolution ──

func checkGeo(geo *domain.GeoResolver, items []domain.FeedItem, records []domain.DisasterRecord) *phase {
	p := &phase{name: "Phase 3: Geo resolution"}

	byID := make(map[string]domain.FeedItem, len(items))
	for _, it := range items {
		byID[it.GUID] = it
	}

	var countries, oceans, unresolved int
	for _, rec := range records {
		switch {
		case rec.CountryIso3 != nil:
			countries++
		case rec.Country != nil:
			oceans++
		default:
			unresolved++
		}

		iso3 := byID[rec.ID].ISO3
		if iso3 == "" {
			continue
		}
		// A code the feed publishes but the reference table lacks is a table gap.
		if _, ok := geo.ResolveCountry(iso3); !ok {
			p.errorf("%s: iso3 %q missing from reference table", rec.ID, iso3)
		}
	}
	p.notef("resolved: %d countries, %d oceans, %d unresolved", countries, oceans, unresolved)
	return p
}

// ── Phase 4: classification ──

func checkClassification(records []domain.DisasterRecord, now time.Time, window time.Duration) *phase {
	p := &phase{name: "Phase 4: Status classification"}

	counts := map[domain.Status]int{}
	for _, rec := range records {
		counts[domain.ClassifyAge(rec.EventDate, now, window)]++
		if rec.EventDate.After(now) {
			p.errorf("%s: event date %s is after %s", rec.ID, rec.EventDate.Format(time.RFC3339), now.Format(time.RFC3339))
		}
	}
	p.notef("as of %s: %d real-time, %d ongoing", now.Format(time.RFC3339),
		counts[domain.StatusRealTime], counts[domain.StatusOngoing])
	return p
}
