package domain

import (
	"maps"
	"slices"
)

// Canonical disaster types. Every stored record carries one of these.
const (
	TypeEarthquake      = "Earthquake"
	TypeTropicalCyclone = "Tropical Cyclone"
	TypeFlood           = "Flood"
	TypeVolcano         = "Volcano"
	TypeDrought         = "Drought"
	TypeForestFire      = "Forest Fire"
)

var defaultTypeCodes = map[string]string{
	"EQ": TypeEarthquake,
	"TC": TypeTropicalCyclone,
	"FL": TypeFlood,
	"VO": TypeVolcano,
	"DR": TypeDrought,
	"WF": TypeForestFire,
}

// TypeMapper maps GDACS short type codes to canonical type names. The table is
// copied at construction and never mutated afterwards.
type TypeMapper struct {
	codes map[string]string
}

// NewTypeMapper builds a mapper over the given code table.
func NewTypeMapper(codes map[string]string) *TypeMapper {
	m := make(map[string]string, len(codes))
	for code, name := range codes {
		m[code] = name
	}
	return &TypeMapper{codes: m}
}

// DefaultTypeMapper returns a mapper over the six GDACS event types.
func DefaultTypeMapper() *TypeMapper {
	return NewTypeMapper(defaultTypeCodes)
}

// Map returns the canonical type for code, or an *UnknownTypeCodeError.
// Codes are matched exactly; GDACS publishes them upper-case.
func (m *TypeMapper) Map(code string) (string, error) {
	name, ok := m.codes[code]
	if !ok {
		return "", &UnknownTypeCodeError{Code: code}
	}
	return name, nil
}

// Codes returns the known type codes in sorted order.
func (m *TypeMapper) Codes() []string {
	return slices.Sorted(maps.Keys(m.codes))
}
