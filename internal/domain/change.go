package domain

import (
	"math"
	"strconv"
	"strings"
)

// Field names a DisasterRecord attribute that takes part in change detection.
// Status is deliberately absent: only the reconciler moves it.
type Field string

const (
	FieldSource      Field = "source"
	FieldAlertLevel  Field = "alert_level"
	FieldSeverity    Field = "severity"
	FieldCountry     Field = "country"
	FieldCountryCode Field = "country_code"
	FieldCountryIso3 Field = "country_iso3"
	FieldType        Field = "type"
	FieldTypeCode    Field = "type_code"
	FieldEventDate   Field = "event_date"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldURL         Field = "url"
)

type fieldRule struct {
	field   Field
	changed func(existing, incoming *DisasterRecord) bool
	apply   func(dst, src *DisasterRecord)
}

var fieldRules = []fieldRule{
	{FieldSource,
		func(a, b *DisasterRecord) bool { return a.Source != b.Source },
		func(d, s *DisasterRecord) { d.Source = s.Source }},
	{FieldAlertLevel,
		func(a, b *DisasterRecord) bool { return a.AlertLevel != b.AlertLevel },
		func(d, s *DisasterRecord) { d.AlertLevel = s.AlertLevel }},
	{FieldSeverity,
		func(a, b *DisasterRecord) bool { return !equalOptional(a.Severity, b.Severity) },
		func(d, s *DisasterRecord) { d.Severity = cloneOptional(s.Severity) }},
	{FieldCountry,
		func(a, b *DisasterRecord) bool { return !equalOptional(a.Country, b.Country) },
		func(d, s *DisasterRecord) { d.Country = cloneOptional(s.Country) }},
	{FieldCountryCode,
		func(a, b *DisasterRecord) bool { return !equalOptional(a.CountryCode, b.CountryCode) },
		func(d, s *DisasterRecord) { d.CountryCode = cloneOptional(s.CountryCode) }},
	{FieldCountryIso3,
		func(a, b *DisasterRecord) bool { return !equalOptional(a.CountryIso3, b.CountryIso3) },
		func(d, s *DisasterRecord) { d.CountryIso3 = cloneOptional(s.CountryIso3) }},
	{FieldType,
		func(a, b *DisasterRecord) bool { return a.Type != b.Type },
		func(d, s *DisasterRecord) { d.Type = s.Type }},
	{FieldTypeCode,
		func(a, b *DisasterRecord) bool { return a.TypeCode != b.TypeCode },
		func(d, s *DisasterRecord) { d.TypeCode = s.TypeCode }},
	{FieldEventDate,
		func(a, b *DisasterRecord) bool { return !a.EventDate.Equal(b.EventDate) },
		func(d, s *DisasterRecord) { d.EventDate = s.EventDate }},
	{FieldLatitude,
		func(a, b *DisasterRecord) bool { return coordinateChanged(a.Latitude, b.Latitude) },
		func(d, s *DisasterRecord) { d.Latitude = s.Latitude }},
	{FieldLongitude,
		func(a, b *DisasterRecord) bool { return coordinateChanged(a.Longitude, b.Longitude) },
		func(d, s *DisasterRecord) { d.Longitude = s.Longitude }},
	{FieldTitle,
		func(a, b *DisasterRecord) bool { return a.Title != b.Title },
		func(d, s *DisasterRecord) { d.Title = s.Title }},
	{FieldDescription,
		func(a, b *DisasterRecord) bool { return a.Description != b.Description },
		func(d, s *DisasterRecord) { d.Description = s.Description }},
	{FieldURL,
		func(a, b *DisasterRecord) bool { return a.URL != b.URL },
		func(d, s *DisasterRecord) { d.URL = s.URL }},
}

// ComparedFields lists every field the change detector looks at, in order.
func ComparedFields() []Field {
	out := make([]Field, len(fieldRules))
	for i, r := range fieldRules {
		out[i] = r.field
	}
	return out
}

// Diff returns the fields whose values differ between the stored and incoming
// record. Coordinates compare by integer truncation and are skipped when either
// side is absent.
func Diff(existing, incoming DisasterRecord) []Field {
	var changed []Field
	for _, r := range fieldRules {
		if r.changed(&existing, &incoming) {
			changed = append(changed, r.field)
		}
	}
	return changed
}

// HasChanged reports whether Diff finds any changed field.
func HasChanged(existing, incoming DisasterRecord) bool {
	for _, r := range fieldRules {
		if r.changed(&existing, &incoming) {
			return true
		}
	}
	return false
}

// Merge copies the given fields from incoming onto a copy of existing.
func Merge(existing, incoming DisasterRecord, fields []Field) DisasterRecord {
	out := existing
	for _, f := range fields {
		for _, r := range fieldRules {
			if r.field == f {
				r.apply(&out, &incoming)
				break
			}
		}
	}
	return out
}

// coordinateChanged compares the integer parts of two decimal strings. Absent or
// unparseable values never count as a change.
func coordinateChanged(existing, incoming string) bool {
	a, okA := parseCoordinate(existing)
	b, okB := parseCoordinate(incoming)
	if !okA || !okB {
		return false
	}
	return math.Trunc(a) != math.Trunc(b)
}

func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(*s)
}
