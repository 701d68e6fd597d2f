package domain

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// XML namespaces of the GDACS and W3C geo extensions.
const (
	NamespaceGDACS = "http://www.gdacs.org"
	NamespaceGeo   = "http://www.w3.org/2003/01/geo/wgs84_pos#"
)

// FeedItem is one <item> of the GDACS RSS document.
type FeedItem struct {
	GUID        string     `xml:"guid"`
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	Link        string     `xml:"link"`
	EventType   string     `xml:"http://www.gdacs.org eventtype"`
	AlertLevel  string     `xml:"http://www.gdacs.org alertlevel"`
	Severity    *string    `xml:"http://www.gdacs.org severity"`
	FromDate    string     `xml:"http://www.gdacs.org fromdate"`
	ISO3        string     `xml:"http://www.gdacs.org iso3"`
	Point       *feedPoint `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point"`
}

type feedPoint struct {
	Lat  string `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# lat"`
	Long string `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# long"`
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel *struct {
		Items []FeedItem `xml:"item"`
	} `xml:"channel"`
}

// ParseFeed decodes a GDACS RSS document into its items, in document order.
func ParseFeed(raw []byte) ([]FeedItem, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}

	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Channel == nil {
		return nil, &ParseError{Err: errors.New("missing rss channel")}
	}
	return doc.Channel.Items, nil
}

// Latitude returns the raw latitude text, or empty when the item has no point.
func (it FeedItem) Latitude() string {
	if it.Point == nil {
		return ""
	}
	return strings.TrimSpace(it.Point.Lat)
}

// Longitude returns the raw longitude text, or empty when the item has no point.
func (it FeedItem) Longitude() string {
	if it.Point == nil {
		return ""
	}
	return strings.TrimSpace(it.Point.Long)
}

var feedDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
}

// ParseFeedDate parses a gdacs:fromdate value. GDACS publishes RFC 1123 in GMT.
func ParseFeedDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Normalizer turns feed items into canonical disaster records.
type Normalizer struct {
	geo   *GeoResolver
	types *TypeMapper
}

// NewNormalizer creates a Normalizer over the injected reference tables.
func NewNormalizer(geo *GeoResolver, types *TypeMapper) *Normalizer {
	return &Normalizer{geo: geo, types: types}
}

// Normalize parses raw feed bytes and returns one record per item, in feed
// order. Any unknown type code fails the whole batch.
func (n *Normalizer) Normalize(raw []byte) ([]DisasterRecord, error) {
	items, err := ParseFeed(raw)
	if err != nil {
		return nil, err
	}

	records := make([]DisasterRecord, 0, len(items))
	for _, it := range items {
		rec, err := n.NormalizeItem(it)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeItem converts a single feed item. The status is always ongoing here;
// the reconciler reclassifies it against the pass time.
func (n *Normalizer) NormalizeItem(it FeedItem) (DisasterRecord, error) {
	id := strings.TrimSpace(it.GUID)
	if id == "" {
		return DisasterRecord{}, &ParseError{Err: errors.New("item without guid")}
	}

	typeCode := strings.TrimSpace(it.EventType)
	typeName, err := n.types.Map(typeCode)
	if err != nil {
		return DisasterRecord{}, &UnknownTypeCodeError{Code: typeCode, ItemID: id}
	}

	eventDate, err := ParseFeedDate(it.FromDate)
	if err != nil {
		return DisasterRecord{}, &ParseError{ItemID: id, Err: err}
	}

	lat, lon := it.Latitude(), it.Longitude()
	loc := n.geo.Resolve(it.ISO3, parseFloatOrNaN(lat), parseFloatOrNaN(lon))

	return DisasterRecord{
		ID:          id,
		Source:      SourceGDACS,
		Status:      StatusOngoing,
		AlertLevel:  strings.TrimSpace(it.AlertLevel),
		Severity:    trimOptional(it.Severity),
		Country:     loc.Country,
		CountryCode: loc.CountryCode,
		CountryIso3: loc.CountryIso3,
		Type:        typeName,
		TypeCode:    typeCode,
		EventDate:   eventDate,
		Latitude:    lat,
		Longitude:   lon,
		Title:       strings.TrimSpace(it.Title),
		Description: strings.TrimSpace(it.Description),
		URL:         strings.TrimSpace(it.Link),
	}, nil
}

// parseFloatOrNaN parses s as float64, returning NaN when it is absent or invalid.
func parseFloatOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(strings.TrimSpace(*s))
}
