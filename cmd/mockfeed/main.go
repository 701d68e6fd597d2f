// Command mockfeed serves a generated GDACS-shaped RSS feed for local runs of
// feedsync. Items draw their type codes and countries from the same reference
// tables the service uses, so every generated item normalizes cleanly.
//
// Usage:
//
//	go run ./cmd/mockfeed -addr :9000 -items 20 -seed 7
//	FEED_URL=http://localhost:9000/xml/rss_7d.xml go run ./cmd/feedsync
//
// With -out the feed is written to a file instead of served.
package main

import (
	"bytes"
	"encoding/xml"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

var alertLevels = []string{"Green", "Green", "Green", "Orange", "Red"}

type mockItem struct {
	ID          string
	TypeCode    string
	TypeName    string
	AlertLevel  string
	Severity    string
	ISO3        string
	Place       string
	Lat, Lon    float64
	HasPoint    bool
	FromDate    time.Time
	Description string
}

var feedTemplate = template.Must(template.New("rss").Funcs(template.FuncMap{
	"esc":  escape,
	"date": func(t time.Time) string { return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT") },
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:gdacs="http://www.gdacs.org" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#">
  <channel>
    <title>GDACS mock feed</title>
{{- range .}}
    <item>
      <title>{{esc .AlertLevel}} {{esc .TypeName}} alert in {{esc .Place}}</title>
      <description>{{esc .Description}}</description>
      <link>https://www.gdacs.org/report.aspx?eventtype={{.TypeCode}}&amp;eventid={{.ID}}</link>
      <guid isPermaLink="false">{{.ID}}</guid>
      <gdacs:fromdate>{{date .FromDate}}</gdacs:fromdate>
      <gdacs:eventtype>{{.TypeCode}}</gdacs:eventtype>
      <gdacs:alertlevel>{{.AlertLevel}}</gdacs:alertlevel>
      <gdacs:severity>{{esc .Severity}}</gdacs:severity>
      <gdacs:iso3>{{.ISO3}}</gdacs:iso3>
{{- if .HasPoint}}
      <geo:Point>
        <geo:lat>{{printf "%.4f" .Lat}}</geo:lat>
        <geo:long>{{printf "%.4f" .Lon}}</geo:long>
      </geo:Point>
{{- end}}
    </item>
{{- end}}
  </channel>
</rss>
`))

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", ":9000", "listen address")
	count := flag.Int("items", 12, "number of feed items")
	seed := flag.Uint64("seed", 1, "random seed for reproducible feeds")
	out := flag.String("out", "", "write the feed to this file and exit")
	flag.Parse()

	if *count < 0 {
		return errors.New("-items must not be negative")
	}

	ref, err := domain.LoadReferenceData()
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	items := generate(ref, domain.DefaultTypeMapper(), *count, *seed, time.Now())
	body, err := render(items)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, body, 0o600); err != nil {
			return fmt.Errorf("write feed: %w", err)
		}
		log.Printf("wrote %d items to %s", len(items), *out)
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /xml/rss_7d.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = w.Write(body)
	})

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("serving %d items on http://localhost%s/xml/rss_7d.xml", len(items), *addr)
	return srv.ListenAndServe()
}

func generate(ref domain.ReferenceData, types *domain.TypeMapper, n int, seed uint64, now time.Time) []mockItem {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var countries []domain.CountryMapping
	for _, c := range ref.Countries {
		if c.ISO3 != "" {
			countries = append(countries, c)
		}
	}
	codes := types.Codes()

	items := make([]mockItem, 0, n)
	for i := range n {
		code := codes[rng.IntN(len(codes))]
		name, _ := types.Map(code)
		it := mockItem{
			ID:         fmt.Sprintf("%s%d", code, 1000000+i),
			TypeCode:   code,
			TypeName:   name,
			AlertLevel: alertLevels[rng.IntN(len(alertLevels))],
			Severity:   severity(code, rng),
			Lat:        rng.Float64()*140 - 70,
			Lon:        rng.Float64()*360 - 180,
			HasPoint:   rng.IntN(10) > 0,
			FromDate:   now.Add(-time.Duration(rng.IntN(7*24*60)) * time.Minute).Truncate(time.Minute),
		}

		// Roughly a quarter of items are offshore with no ISO3, like cyclones.
		if rng.IntN(4) == 0 {
			it.Place = "open water"
		} else {
			c := countries[rng.IntN(len(countries))]
			it.ISO3 = c.ISO3
			it.Place = c.CanonicalName
		}
		it.Description = fmt.Sprintf("%s %s in %s.", it.AlertLevel, strings.ToLower(name), it.Place)
		items = append(items, it)
	}
	return items
}

func severity(code string, rng *rand.Rand) string {
	switch code {
	case "EQ":
		return fmt.Sprintf("Magnitude %.1fM, Depth:%dkm", 4.5+rng.Float64()*3, 5+rng.IntN(60))
	case "TC":
		return fmt.Sprintf("Tropical Storm (maximum wind speed of %d km/h)", 60+rng.IntN(200))
	case "FL":
		return ""
	default:
		return fmt.Sprintf("Level %d", 1+rng.IntN(3))
	}
}

func render(items []mockItem) ([]byte, error) {
	var buf bytes.Buffer
	if err := feedTemplate.Execute(&buf, items); err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
