// Package domain models Global Disaster Alert and Coordination System (GDACS)
// disaster events and the rules used to reconcile them against stored state.
//
// # Data Source
//
// Events come from the GDACS 7-day RSS feed, https://www.gdacs.org/xml/rss_7d.xml.
// The feed is a plain RSS 2.0 document; each <item> carries the standard RSS
// fields plus GDACS and W3C geo extensions:
//
//	<guid>                    stable event identifier, e.g. "EQ1452031"
//	<gdacs:eventtype>         two-letter type code (EQ, TC, FL, VO, DR, WF)
//	<gdacs:alertlevel>        Green, Orange or Red
//	<gdacs:severity>          free-text magnitude, e.g. "Magnitude 5.1M, Depth:10km"
//	<gdacs:fromdate>          event start, RFC 1123 in GMT
//	<gdacs:iso3>              ISO 3166-1 alpha-3 country code, often empty at sea
//	<geo:Point><geo:lat>      decimal latitude
//	<geo:Point><geo:long>     decimal longitude
//
// # Normalization
//
// Coordinates are kept as the exact decimal strings published upstream. Numeric
// values are derived only for geo resolution and change detection. Type codes map
// through a closed table; an unknown code fails the whole batch because it usually
// means the upstream schema changed.
//
// # Location Resolution
//
// The ISO3 code is looked up first. When it is empty or unknown, the coordinates
// are matched against five fixed ocean regions in priority order (Pacific,
// Atlantic, Indian, Arctic, Southern). Longitude matching is an inclusive OR of
// the region bounds, so a region whose max is below its min wraps the antimeridian:
//
//	Pacific:  lat -60..60, lon >= 100 || lon <= -70
//	Atlantic: lat -60..60, lon >= -70 || lon <= 20
//
// Because the OR is applied to every region, Atlantic also accepts any longitude
// in its latitude band; only the priority order keeps Pacific points in the Pacific.
//
// # Lifecycle
//
// A record is real-time while its event date is within 24 hours of the pass time,
// ongoing while it stays in the feed after that, and past once it drops out of the
// feed. Records are never deleted.
package domain
