// Demand component recompute rules.
//
// When the base property tax is edited through the designated path, the six
// dependent components are fixed percentages of it: library cess 8%, water
// tax 8%, drainage tax 10%, lighting tax 10%, sports cess 3%, fire tax 1%,
// each rounded half-up. Editing any other component directly does not
// cascade; only the total is re-summed.
package core

// roundPercent computes pct% of base with half-up rounding.
func roundPercent(base, pct int64) int64 {
	return (base*pct + 50) / 100
}

// SetPropertyTax applies the designated property-tax edit: the dependent
// components are recomputed from the new base and the total is re-summed.
func (d *DemandDetail) SetPropertyTax(propertyTax int64) {
	d.PropertyTax = propertyTax
	d.LibraryCess = roundPercent(propertyTax, 8)
	d.WaterTax = roundPercent(propertyTax, 8)
	d.DrainageTax = roundPercent(propertyTax, 10)
	d.LightingTax = roundPercent(propertyTax, 10)
	d.SportsCess = roundPercent(propertyTax, 3)
	d.FireTax = roundPercent(propertyTax, 1)
	d.Recalc()
}

// Recalc re-sums the cached total from the seven components.
func (d *DemandDetail) Recalc() {
	d.TotalDemand = d.PropertyTax + d.LibraryCess + d.WaterTax +
		d.DrainageTax + d.LightingTax + d.SportsCess + d.FireTax
}
