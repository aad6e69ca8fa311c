// Package audit compares pre-edit and post-edit household snapshots and
// renders the differences as human-readable change strings for the audit
// trail.
package audit

import (
	"fmt"
	"reflect"
	"strings"

	"housetax/internal/core"
)

// demandFields are the per-year tax fields included in the diff. Sports
// cess and fire tax are excluded to keep existing audit trails stable; see
// DESIGN.md.
var demandFields = []struct {
	label string
	get   func(core.DemandDetail) int64
}{
	{"propertyTax", func(d core.DemandDetail) int64 { return d.PropertyTax }},
	{"drainageTax", func(d core.DemandDetail) int64 { return d.DrainageTax }},
	{"waterTax", func(d core.DemandDetail) int64 { return d.WaterTax }},
	{"lightingTax", func(d core.DemandDetail) int64 { return d.LightingTax }},
	{"libraryCess", func(d core.DemandDetail) int64 { return d.LibraryCess }},
}

// Diff returns one change string per field that differs between the two
// snapshots: top-level scalars first in declaration order, then the four
// boundary directions, then per-year demand fields by array position.
// Values are compared after string coercion, so a numeric field that kept
// its value never registers. An empty result means the edit changed nothing
// auditable.
func Diff(original, modified *core.Household) []string {
	var changes []string

	ov := reflect.ValueOf(*original)
	mv := reflect.ValueOf(*modified)
	t := ov.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		switch f.Type.Kind() {
		case reflect.String, reflect.Int64:
		default:
			continue
		}
		oldVal := coerce(ov.Field(i))
		newVal := coerce(mv.Field(i))
		if oldVal != newVal {
			changes = append(changes, fmt.Sprintf("%s: %q -> %q", fieldLabel(f), oldVal, newVal))
		}
	}

	changes = append(changes, diffBoundaries(original.Boundaries, modified.Boundaries)...)

	for i := 0; i < len(original.DemandDetails) && i < len(modified.DemandDetails); i++ {
		o, m := original.DemandDetails[i], modified.DemandDetails[i]
		for _, df := range demandFields {
			if df.get(o) != df.get(m) {
				// Labelled with the edited row's year, which also covers a
				// corrected year value.
				changes = append(changes, fmt.Sprintf("Demand[%s].%s: %d -> %d",
					m.DemandYear, df.label, df.get(o), df.get(m)))
			}
		}
	}
	return changes
}

func diffBoundaries(o, m core.Boundaries) []string {
	var changes []string
	pairs := []struct {
		dir      string
		old, new string
	}{
		{"east", o.East, m.East},
		{"west", o.West, m.West},
		{"north", o.North, m.North},
		{"south", o.South, m.South},
	}
	for _, p := range pairs {
		if p.old != p.new {
			changes = append(changes, fmt.Sprintf("Boundaries.%s: %q -> %q", p.dir, p.old, p.new))
		}
	}
	return changes
}

func coerce(v reflect.Value) string {
	if v.Kind() == reflect.Int64 {
		return fmt.Sprintf("%d", v.Int())
	}
	return v.String()
}

func fieldLabel(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
