package domain

// Variable binds a physical field's column name to its accessors so the
// wide-to-long reshape, the loaders, and the writers all share one field
// list instead of reflecting over the struct.
type Variable struct {
	Name string
	Get  func(CTDProfile) *float64
	Set  func(*CTDProfile, *float64)
}

// CastVariables lists the twelve physical fields of a CTD profile in output
// order. Monthly summaries sort variables by position in this table.
var CastVariables = []Variable{
	{
		Name: "temperature_i10",
		Get:  func(p CTDProfile) *float64 { return p.TemperatureI10 },
		Set:  func(p *CTDProfile, v *float64) { p.TemperatureI10 = v },
	},
	{
		Name: "temperature_i50",
		Get:  func(p CTDProfile) *float64 { return p.TemperatureI50 },
		Set:  func(p *CTDProfile, v *float64) { p.TemperatureI50 = v },
	},
	{
		Name: "temperature_inet",
		Get:  func(p CTDProfile) *float64 { return p.TemperatureINet },
		Set:  func(p *CTDProfile, v *float64) { p.TemperatureINet = v },
	},
	{
		Name: "salinity_i10",
		Get:  func(p CTDProfile) *float64 { return p.SalinityI10 },
		Set:  func(p *CTDProfile, v *float64) { p.SalinityI10 = v },
	},
	{
		Name: "salinity_i50",
		Get:  func(p CTDProfile) *float64 { return p.SalinityI50 },
		Set:  func(p *CTDProfile, v *float64) { p.SalinityI50 = v },
	},
	{
		Name: "salinity_inet",
		Get:  func(p CTDProfile) *float64 { return p.SalinityINet },
		Set:  func(p *CTDProfile, v *float64) { p.SalinityINet = v },
	},
	{
		Name: "density_i10",
		Get:  func(p CTDProfile) *float64 { return p.DensityI10 },
		Set:  func(p *CTDProfile, v *float64) { p.DensityI10 = v },
	},
	{
		Name: "density_i50",
		Get:  func(p CTDProfile) *float64 { return p.DensityI50 },
		Set:  func(p *CTDProfile, v *float64) { p.DensityI50 = v },
	},
	{
		Name: "density_inet",
		Get:  func(p CTDProfile) *float64 { return p.DensityINet },
		Set:  func(p *CTDProfile, v *float64) { p.DensityINet = v },
	},
	{
		Name: "oxygen_i10",
		Get:  func(p CTDProfile) *float64 { return p.OxygenI10 },
		Set:  func(p *CTDProfile, v *float64) { p.OxygenI10 = v },
	},
	{
		Name: "oxygen_i50",
		Get:  func(p CTDProfile) *float64 { return p.OxygenI50 },
		Set:  func(p *CTDProfile, v *float64) { p.OxygenI50 = v },
	},
	{
		Name: "oxygen_inet",
		Get:  func(p CTDProfile) *float64 { return p.OxygenINet },
		Set:  func(p *CTDProfile, v *float64) { p.OxygenINet = v },
	},
}
