// Package domain models the farm-survey dataset the ETL pipeline operates on.
//
// # Data Source
//
// Field records come from the agricultural survey database, queried as-is by
// the configured SQL statement. Each row describes one physical field:
// identifier, crop, elevation, soil and climate measurements, and the
// identifier of the weather station associated with the field.
//
// # Known Source Defects
//
// The survey export tool carries two long-standing defects this pipeline
// corrects rather than waiting on an upstream fix:
//
// Column labeling:
//
//	Two columns are swapped at export time (historically Crop_type and
//	Elevation). The configured rename pair undoes the swap. It is a true
//	name exchange performed through a collision-probed temporary column
//	name, so the data never moves and no third column is disturbed.
//
// Value encoding:
//
//	Elevation is sometimes exported with a negative sign; elevations in the
//	survey region are all above sea level, so the absolute value recovers
//	the intended reading. Crop labels contain known typos and legacy codes;
//	a configured lookup table remaps them, leaving labels without a mapping
//	entry unchanged.
//
// # Weather Station Enrichment
//
// A reference table served as CSV over HTTP maps Field_ID to its weather
// station. Enrichment fetches the table fresh on every run and left-joins it
// into the dataset on Field_ID: every survey row survives the join, and rows
// whose field has no station entry carry nil in the station columns.
package domain
