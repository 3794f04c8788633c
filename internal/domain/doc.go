// Package domain models client service areas and their resolution into
// geographic boundary polygons.
//
// # Service Area Text
//
// Each client record carries a free-text service-area field maintained by
// hand in the backing spreadsheet. The field mixes 5-digit ZIP codes and
// place names, separated by commas and/or newlines:
//
//	"49501, 49503, Grand Rapids, MI"
//	"Holland, MI
//	 49423"
//
// [NormalizeServiceArea] splits this into lookup tokens. ZIP codes (exactly
// five digits) become standalone tokens. The remaining comma-separated parts
// of a line are rejoined with ", " into a single compound place token, so
// "Grand Rapids, MI" is one geocoding query rather than two. Tokens are
// deduplicated; callers cap the list at [MaxTokensPerClient] to bound
// lookup cost against third-party rate limits.
//
// # Labels
//
// Resolved areas carry a human-readable label for map tooltips. For ZIP
// tokens the label is derived from the provider's formatted address as
// "City ST ZIP" (e.g. "Grand Rapids MI 49503"), degrading to "City ZIP" and
// finally the bare ZIP as parts are unavailable. The ZIP itself and any
// other 5-digit part are filtered out of the address before derivation so
// the label never repeats the code. Place tokens keep the user-provided
// text as their label. See [ZipLabel].
//
// # Fallback Geometry
//
// When no provider yields a boundary polygon but coordinates are known, a
// square of 5 km half-width is synthesized around the point so every
// resolvable token still renders. The square uses an equirectangular
// approximation: 1° of latitude ≈ 111 km, longitude scaled by cos(lat).
// Clients whose tokens all fail get a 5 km circle at their own location.
// See [SquareFeature] and [CircleFeature].
//
// # Invariant
//
// Every resolved polygon is a GeoJSON Feature, never a bare geometry, so
// rendering code needs no type branching. [EnsureFeature] wraps provider
// responses that return bare Polygon/MultiPolygon geometries.
package domain
