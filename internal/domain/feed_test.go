package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedHeader = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#" xmlns:gdacs="http://www.gdacs.org" version="2.0"><channel>`

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(testResolver(t), DefaultTypeMapper())
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "rss_7d.xml"))
	require.NoError(t, err)
	return data
}

func feedWith(items ...string) []byte {
	body := testFeedHeader
	for _, it := range items {
		body += it
	}
	return []byte(body + `</channel></rss>`)
}

func item(guid, typeCode string) string {
	return fmt.Sprintf(`<item><guid>%s</guid><title>t</title>
<gdacs:eventtype>%s</gdacs:eventtype><gdacs:alertlevel>Green</gdacs:alertlevel>
<gdacs:fromdate>Fri, 16 Oct 2026 08:00:00 GMT</gdacs:fromdate><gdacs:iso3>JPN</gdacs:iso3>
<geo:Point><geo:lat>35.1</geo:lat><geo:long>139.2</geo:long></geo:Point></item>`, guid, typeCode)
}

func TestParseFeed_Fixture(t *testing.T) {
	items, err := ParseFeed(readFixture(t))
	require.NoError(t, err)
	require.Len(t, items, 4)

	eq := items[0]
	assert.Equal(t, "EQ1452031", eq.GUID)
	assert.Equal(t, "EQ", eq.EventType)
	assert.Equal(t, "Green", eq.AlertLevel)
	require.NotNil(t, eq.Severity)
	assert.Equal(t, "Magnitude 5.1M, Depth:10km", *eq.Severity)
	assert.Equal(t, "JPN", eq.ISO3)
	assert.Equal(t, "35.6895", eq.Latitude())
	assert.Equal(t, "139.6917", eq.Longitude())
	assert.Equal(t, "https://www.gdacs.org/report.aspx?eventtype=EQ&eventid=1452031", eq.Link)

	vo := items[3]
	assert.Nil(t, vo.Severity)
	assert.Empty(t, vo.Latitude())
	assert.Empty(t, vo.Longitude())
}

func TestParseFeed_Malformed(t *testing.T) {
	tests := map[string][]byte{
		"empty":           nil,
		"whitespace":      []byte("  \n"),
		"not xml":         []byte("{\"items\":[]}"),
		"truncated":       []byte(testFeedHeader + "<item><guid>EQ1"),
		"wrong root":      []byte(`<feed><entry/></feed>`),
		"missing channel": []byte(`<rss version="2.0"></rss>`),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeed(raw)
			require.Error(t, err)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParseFeed_EmptyChannel(t *testing.T) {
	items, err := ParseFeed(feedWith())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNormalize_Fixture(t *testing.T) {
	records, err := testNormalizer(t).Normalize(readFixture(t))
	require.NoError(t, err)
	require.Len(t, records, 4)

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		assert.Equal(t, StatusOngoing, r.Status, r.ID)
		assert.Equal(t, SourceGDACS, r.Source)
	}
	assert.Equal(t, []string{"EQ1452031", "TC1001190", "FL1103320", "VO1000050"}, ids)

	eq := records[0]
	assert.Equal(t, TypeEarthquake, eq.Type)
	assert.Equal(t, "EQ", eq.TypeCode)
	assert.Equal(t, "Japan", *eq.Country)
	assert.Equal(t, "JP", *eq.CountryCode)
	assert.Equal(t, "JPN", *eq.CountryIso3)
	assert.Equal(t, "35.6895", eq.Latitude)
	assert.Equal(t, "139.6917", eq.Longitude)
	assert.Equal(t, time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC), eq.EventDate)

	tc := records[1]
	assert.Equal(t, TypeTropicalCyclone, tc.Type)
	require.NotNil(t, tc.Country)
	assert.Equal(t, "Pacific Ocean", *tc.Country)
	assert.Nil(t, tc.CountryIso3)
	assert.Equal(t, "0.0", tc.Latitude)

	fl := records[2]
	assert.Equal(t, "Philippines", *fl.Country)
	assert.Nil(t, fl.Severity)

	vo := records[3]
	assert.Equal(t, TypeVolcano, vo.Type)
	assert.Nil(t, vo.Country)
	assert.Nil(t, vo.CountryCode)
	assert.Nil(t, vo.CountryIso3)
	assert.Empty(t, vo.Latitude)
}

func TestNormalize_KnownCodesNeverFail(t *testing.T) {
	n := testNormalizer(t)
	for i, code := range DefaultTypeMapper().Codes() {
		records, err := n.Normalize(feedWith(item(fmt.Sprintf("%s%d", code, i), code)))
		require.NoError(t, err, code)
		require.Len(t, records, 1)
	}
}

func TestNormalize_UnknownCodeFailsBatch(t *testing.T) {
	raw := feedWith(item("EQ1", "EQ"), item("TS2", "TS"), item("FL3", "FL"))

	records, err := testNormalizer(t).Normalize(raw)
	require.Error(t, err)
	assert.Nil(t, records)

	var unknown *UnknownTypeCodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "TS", unknown.Code)
	assert.Equal(t, "TS2", unknown.ItemID)
}

func TestNormalize_MissingGUID(t *testing.T) {
	_, err := testNormalizer(t).Normalize(feedWith(item("", "EQ")))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
}

func TestNormalize_BadDate(t *testing.T) {
	raw := feedWith(`<item><guid>EQ9</guid><gdacs:eventtype>EQ</gdacs:eventtype>
<gdacs:fromdate>yesterday</gdacs:fromdate></item>`)

	_, err := testNormalizer(t).Normalize(raw)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "EQ9", pe.ItemID)
}

func TestParseFeedDate(t *testing.T) {
	want := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"Fri, 16 Oct 2026 08:00:00 GMT",
		"Fri, 16 Oct 2026 10:00:00 +0200",
		"2026-10-16T08:00:00Z",
		"  Fri, 16 Oct 2026 08:00:00 GMT  ",
	} {
		got, err := ParseFeedDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location())
	}

	_, err := ParseFeedDate("16/10/2026")
	assert.Error(t, err)
}
