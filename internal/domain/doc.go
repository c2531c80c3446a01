// Package domain models SMHI impact-based weather warnings (IBWW) and the
// sensors they are correlated with, and turns both into a renderable map model.
//
// # Data Source
//
// Warnings originate from the SMHI IBWW open-data feed at
// https://opendata-download-warnings.smhi.se/ibww/api/version/1/warning.json.
// The poller in package pipeline fetches the feed on a schedule and keeps the
// latest snapshot in memory; the HTTP API filters and pages that snapshot.
//
// # IBWW Data Conventions
//
// Localized text:
//
//	Labels arrive as flat objects keyed by locale, optionally with a code:
//	{"code": "RED", "en": "Red warning", "sv": "Röd varning"}.
//	Every string-valued key other than "code" is treated as a locale.
//
// Warning levels:
//
//	RED, ORANGE, YELLOW and MESSAGE. Anything else is UNKNOWN and renders
//	with the fallback style.
//
// Geometry:
//
//	Each warning area carries an "area" GeoJSON Feature whose geometry is a
//	Polygon or MultiPolygon in [lon, lat] order. Areas without a geometry, or
//	with any other geometry type, are skipped when building map features.
//
// Times:
//
//	approximateStart and approximateEnd are ISO-8601 strings and are passed
//	through verbatim; the map layer never parses them.
//
// # Map Model
//
// [BuildFeature] converts one warning area into a [RenderFeature],
// [BuildFeatureCollection] flattens all areas of a result page in input order,
// and [BuildMapModel] pairs the collection with the style table and the
// positionable sensor markers.
package domain
