package domain

// CTDProfile holds the vertically integrated physical variables of one CTD
// cast. A nil field means the reading is missing from the source data.
type CTDProfile struct {
	CTDKey string `json:"ctd_key"`

	TemperatureI10  *float64 `json:"temperature_i10,omitempty"`
	TemperatureI50  *float64 `json:"temperature_i50,omitempty"`
	TemperatureINet *float64 `json:"temperature_inet,omitempty"`
	SalinityI10     *float64 `json:"salinity_i10,omitempty"`
	SalinityI50     *float64 `json:"salinity_i50,omitempty"`
	SalinityINet    *float64 `json:"salinity_inet,omitempty"`
	DensityI10      *float64 `json:"density_i10,omitempty"`
	DensityI50      *float64 `json:"density_i50,omitempty"`
	DensityINet     *float64 `json:"density_inet,omitempty"`
	OxygenI10       *float64 `json:"oxygen_i10,omitempty"`
	OxygenI50       *float64 `json:"oxygen_i50,omitempty"`
	OxygenINet      *float64 `json:"oxygen_inet,omitempty"`
}

// CastMetadata describes when and where a cast was taken. One row per
// distinct CTDKey.
type CastMetadata struct {
	CTDKey    string  `json:"ctd_key"`
	Station   string  `json:"station"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	DayOfYear int     `json:"day_of_year"`
}

// Observation is one cast after the left join of profiles to metadata.
// Meta is nil when no metadata row matched the profile's CTDKey.
// StationGroup is empty until the observation passes through the
// station classifier.
type Observation struct {
	Profile      CTDProfile    `json:"profile"`
	Meta         *CastMetadata `json:"meta,omitempty"`
	StationGroup string        `json:"station_group,omitempty"`
}

// SatRecord is one satellite grid cell in one month. Chl is nil when the
// composite has no reading for that cell-month; nil records still identify
// the cell for coverage counting but contribute nothing to averages.
type SatRecord struct {
	Lon   float64  `json:"lon"`
	Lat   float64  `json:"lat"`
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Chl   *float64 `json:"chl,omitempty"`
}

// MonthlySummary is the mean of one physical variable over one calendar
// month at the primary stations. Only groups with at least one non-missing
// value appear in output.
type MonthlySummary struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Variable string  `json:"variable"`
	Mean     float64 `json:"mean"`
	N        int     `json:"n"`
}

// ChlMonthly is the spatial chlorophyll summary for one month, with its
// calendar-month climatology and the anomaly relative to it. SD is the
// sample standard deviation and is nil when the month has fewer than two
// readings.
type ChlMonthly struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	YearMonth   float64  `json:"year_month"`
	Mean        float64  `json:"mean"`
	SD          *float64 `json:"sd,omitempty"`
	N           int      `json:"n"`
	Climatology float64  `json:"climatology"`
	Anomaly     float64  `json:"anomaly"`
}
