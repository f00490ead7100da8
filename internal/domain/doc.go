// Package domain models hurricane advisories, shelters, and the derived
// preparedness results HurriAid produces for a U.S. ZIP code.
//
// # Data Sources
//
// The active advisory is a single JSON document (sample_advisory.json, or an
// object in S3-compatible storage) describing the storm center, the radius of
// the advisory area, the Saffir-Simpson category, and whether the advisory is
// active. Shelters come from shelters.json or a Postgres table. ZIP codes are
// resolved through a local centroid table, falling back to Mapbox.
//
// # Advisory Conventions
//
// Category:
//
//	TS (tropical storm), CAT1 through CAT5. Input is case-insensitive and is
//	normalized to upper case. Anything else is rejected.
//
// Loose typing:
//
//	Numeric fields accept JSON numbers or numeric strings ("27.5").
//	The active flag accepts booleans, 0/1, and true/yes/y/on or
//	false/no/n/off in any case.
//
// Advisory area:
//
//	A circle of radius_km around the center, approximated for display as a
//	72-vertex ring in [lon, lat] order (GeoJSON convention). A ZIP is inside
//	the area when its Haversine distance to the center is <= radius_km.
//
// Freshness of issued_at:
//
//	FRESH  age <= 30 min
//	STALE  older; detail in minutes up to 180 min, hours beyond
//	UNKNOWN missing or unparseable timestamp
//
// # Risk and Derived Results
//
// SAFE is assigned locally when no advisory is active. LOW, MEDIUM, and HIGH
// come from the language model and always carry a rationale. ERROR marks a
// failed assessment, which hides the checklist and route.
//
// Checklist size is bounded by risk:
//
//	SAFE 0-2 | LOW 3-4 | MEDIUM 5-7 | HIGH 8-12
//
// Route ETA assumes an average evacuation speed that drops with category:
//
//	TS 45 | CAT1 40 | CAT2 35 | CAT3 30 | CAT4 25 | CAT5 20 km/h, minimum 2 min
//
// # Rumor Verdicts
//
// Each claim line gets TRUE, FALSE, MISLEADING, or CAUTION. The overall
// verdict is computed locally from the per-line verdicts; see [Rollup].
package domain
