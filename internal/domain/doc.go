// Package domain models Strait of Georgia (SOG) monitoring data and the
// transformations that prepare it for exploratory analysis.
//
// # Data Sources
//
// CTD casts come from the Institute of Ocean Sciences water-property
// surveys of the Strait of Georgia. Each cast is identified by a CTDKey and
// carries vertically integrated physical variables at three depth ranges:
//
//	I10   0-10 m integration
//	I50   0-50 m integration
//	INet  net-tow depth integration (~0-20 m)
//
// Variables and units:
//
//	temperature  °C
//	salinity     PSU
//	density      sigma-t, kg/m³
//	oxygen       dissolved oxygen, mL/L
//
// Cast metadata (station code, position, date fields) is delivered as a
// separate table, one row per cast, joined to the physical table on CTDKey.
// CTDKey is unique within the metadata table; duplicate keys in delivered
// files are treated as data errors and only the first row is used.
//
// Satellite chlorophyll comes from monthly ocean-colour composites flattened
// to one record per grid cell per month. A cell is identified by its
// (lon, lat) centre pair exactly as delivered; chlorophyll-a is in mg/m³.
// Cells with sparse temporal coverage are excluded from spatial averages by
// a minimum-observation threshold computed once over the analysis year range.
//
// # Missing Values
//
// Missing readings are nil pointers, produced from empty or "NA" fields in
// CSV sources and NULL columns in SQLite sources. Missing values are
// excluded from every aggregate and never substituted with zero. Groups
// whose members are all missing are omitted from output tables entirely.
//
// # Station Grouping
//
// Analysis focuses on the most frequently sampled stations. The classifier
// ranks stations by observation count and keeps the top N (three by
// default) as their own labels; every other observation, including casts
// with no metadata row, is labeled with the literal "Other". See
// [ClassifyStations].
//
// # Time Axis
//
// Monthly satellite rows carry a fractional year value for plotting:
//
//	year_month = year + (month-1)/12
//
// so January 1997 is 1997.0 and December 1997 is 1997.9166...
package domain
