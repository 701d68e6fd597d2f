package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/reference.yaml
var referenceYAML []byte

// CountryMapping is a static reference entry. Ocean entries have an empty ISO3.
type CountryMapping struct {
	ISO3          string `yaml:"iso3"`
	Code          string `yaml:"code"`
	CanonicalName string `yaml:"name"`
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// OceanRegion is a named latitude/longitude rectangle used when no country matches.
type OceanRegion struct {
	Name string `yaml:"name"`
	Lat  Range  `yaml:"lat"`
	Lon  Range  `yaml:"lon"`
}

// Contains reports whether the point falls in the region. Latitude is an
// inclusive range test; longitude matches when lon >= Min or lon <= Max.
func (r OceanRegion) Contains(lat, lon float64) bool {
	return lat >= r.Lat.Min && lat <= r.Lat.Max &&
		(lon >= r.Lon.Min || lon <= r.Lon.Max)
}

// ReferenceData is the country and ocean table the GeoResolver is built from.
type ReferenceData struct {
	Countries []CountryMapping `yaml:"countries"`
	Oceans    []OceanRegion    `yaml:"oceans"`
}

// LoadReferenceData decodes the embedded reference table.
func LoadReferenceData() (ReferenceData, error) {
	return ParseReferenceData(referenceYAML)
}

// ParseReferenceData decodes a YAML reference table.
func ParseReferenceData(data []byte) (ReferenceData, error) {
	var ref ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return ReferenceData{}, fmt.Errorf("decode reference data: %w", err)
	}
	if len(ref.Countries) == 0 {
		return ReferenceData{}, errors.New("reference data has no countries")
	}
	return ref, nil
}

// Location is the resolved country or ocean for a feed item. All fields are nil
// when resolution fails.
type Location struct {
	Country     *string
	CountryCode *string
	CountryIso3 *string
}

// GeoResolver maps ISO3 codes and coordinates to reference entries. It is
// read-only after construction and safe for concurrent use.
type GeoResolver struct {
	byISO3 map[string]CountryMapping
	byName map[string]CountryMapping
	oceans []OceanRegion
}

// NewGeoResolver indexes the reference data. Ocean regions keep their order,
// which is the match priority.
func NewGeoResolver(ref ReferenceData) *GeoResolver {
	g := &GeoResolver{
		byISO3: make(map[string]CountryMapping, len(ref.Countries)),
		byName: make(map[string]CountryMapping, len(ref.Countries)),
		oceans: append([]OceanRegion(nil), ref.Oceans...),
	}
	for _, c := range ref.Countries {
		if c.ISO3 != "" {
			g.byISO3[c.ISO3] = c
		}
		g.byName[c.CanonicalName] = c
	}
	return g
}

// ResolveCountry looks up a country by ISO3 code.
func (g *GeoResolver) ResolveCountry(iso3 string) (CountryMapping, bool) {
	c, ok := g.byISO3[strings.TrimSpace(iso3)]
	return c, ok
}

// ResolveOcean returns the first ocean region containing the point.
func (g *GeoResolver) ResolveOcean(lat, lon float64) (string, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return "", false
	}
	for _, r := range g.oceans {
		if r.Contains(lat, lon) {
			return r.Name, true
		}
	}
	return "", false
}

// Resolve tries the ISO3 code first, then the ocean regions. An ocean result has
// no ISO3. Failure is not an error; the returned Location is empty.
func (g *GeoResolver) Resolve(iso3 string, lat, lon float64) Location {
	if strings.TrimSpace(iso3) != "" {
		if c, ok := g.ResolveCountry(iso3); ok {
			return Location{
				Country:     strPtr(c.CanonicalName),
				CountryCode: strPtr(c.Code),
				CountryIso3: strPtr(c.ISO3),
			}
		}
	}

	if name, ok := g.ResolveOcean(lat, lon); ok {
		if c, ok := g.byName[name]; ok {
			return Location{
				Country:     strPtr(name),
				CountryCode: strPtr(c.Code),
			}
		}
	}

	return Location{}
}
