package registry

import (
	c "github.com/wonny/evlq/internal/contracts"
)

// Builtin returns the contracts shipped with the service.
// Quality checks are written as CEL expressions over the `data` map.
func Builtin() []c.DataContract {
	return []c.DataContract{
		{
			SourceID:        "entsoe",
			SourceName:      "ENTSO-E Transparency Platform",
			FreshnessSLA:    c.FreshnessSLA{MaxLagHours: 6},
			UpdateFrequency: "realtime",
			RequiredFields: []c.FieldSpec{
				{Name: "total_generation_mw", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(200000)},
				{Name: "renewable_generation_mw", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(200000)},
				{Name: "renewable_share", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(1)},
				{Name: "available", Type: c.FieldBool, NotNull: true},
			},
			QualityChecks: []string{
				"data.renewable_share >= 0.0 && data.renewable_share <= 1.0",
				"data.renewable_generation_mw <= data.total_generation_mw",
				"data.total_generation_mw > 0",
			},
		},
		{
			SourceID:        "national_grid_eso",
			SourceName:      "National Grid ESO",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 1},
			UpdateFrequency: "daily",
			RequiredFields: []c.FieldSpec{
				{Name: "available", Type: c.FieldBool, NotNull: true},
				{Name: "nearest_connection", Type: c.FieldDict, Optional: true},
			},
			OptionalFields: []c.FieldSpec{
				{Name: "site_name", Type: c.FieldStr},
				{Name: "distance_km", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(200)},
				{Name: "capacity_mw", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(2000)},
			},
			QualityChecks: []string{
				"!has(data.nearest_connection) || !has(data.nearest_connection.distance_km) || data.nearest_connection.distance_km >= 0",
				"!has(data.nearest_connection) || !has(data.nearest_connection.capacity_mw) || data.nearest_connection.capacity_mw >= 0",
			},
		},
		{
			SourceID:        "dft_vehicle_licensing",
			SourceName:      "DfT Vehicle Licensing Statistics",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 120},
			UpdateFrequency: "quarterly",
			RequiredFields: []c.FieldSpec{
				{Name: "bevs", Type: c.FieldInt, Min: c.Bound(500000), Max: c.Bound(10000000)},
				{Name: "phevs", Type: c.FieldInt, Min: c.Bound(100000), Max: c.Bound(5000000)},
				{Name: "ev_percentage", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(50)},
				{Name: "growth_yoy_bev", Type: c.FieldFloat, Min: c.Bound(-50), Max: c.Bound(200)},
			},
			QualityChecks: []string{
				"data.bevs > 500000",
				"data.ev_percentage > 1 && data.ev_percentage < 50",
				"data.bevs + data.phevs > 0",
			},
		},
		{
			SourceID:        "ons_demographics",
			SourceName:      "ONS via postcodes.io",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 365},
			UpdateFrequency: "annual",
			RequiredFields: []c.FieldSpec{
				{Name: "available", Type: c.FieldBool, NotNull: true},
				{Name: "postcode", Type: c.FieldStr, Optional: true},
			},
			OptionalFields: []c.FieldSpec{
				{Name: "region", Type: c.FieldStr},
				{Name: "estimated_median_income_gbp", Type: c.FieldFloat, Min: c.Bound(10000), Max: c.Bound(200000)},
				{Name: "car_ownership_rate", Type: c.FieldFloat, Min: c.Bound(0), Max: c.Bound(1)},
			},
			QualityChecks: []string{
				"!has(data.car_ownership_rate) || (data.car_ownership_rate >= 0 && data.car_ownership_rate <= 1)",
				"!has(data.estimated_median_income_gbp) || data.estimated_median_income_gbp > 10000",
			},
		},
		{
			SourceID:        "openchargemap",
			SourceName:      "OpenChargeMap",
			FreshnessSLA:    c.FreshnessSLA{MaxLagHours: 24},
			UpdateFrequency: "realtime",
			RequiredFields: []c.FieldSpec{
				{Name: "total_chargers", Type: c.FieldInt, Min: c.Bound(0)},
				{Name: "chargers", Type: c.FieldList},
			},
			QualityChecks: []string{
				"data.total_chargers >= 0",
				"size(data.chargers) == data.total_chargers || data.total_chargers == 0",
			},
		},
		{
			SourceID:        "osm_traffic",
			SourceName:      "OpenStreetMap",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 7},
			UpdateFrequency: "continuous",
			RequiredFields: []c.FieldSpec{
				{Name: "roads", Type: c.FieldList},
			},
			QualityChecks: []string{
				"size(data.roads) >= 0",
			},
		},
		{
			SourceID:        "dft_traffic",
			SourceName:      "UK DfT Traffic Counts",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 365},
			UpdateFrequency: "annual",
			RequiredFields: []c.FieldSpec{
				{Name: "aadt", Type: c.FieldInt, Min: c.Bound(0), Max: c.Bound(500000)},
			},
			QualityChecks: []string{
				"data.aadt >= 0",
				"data.aadt < 500000",
			},
		},
		{
			SourceID:        "eafo",
			SourceName:      "European Alternative Fuels Observatory",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 90},
			UpdateFrequency: "quarterly",
			RequiredFields: []c.FieldSpec{
				{Name: "ev_stock", Type: c.FieldInt, Min: c.Bound(0)},
				{Name: "public_chargers", Type: c.FieldInt, Min: c.Bound(0)},
			},
			QualityChecks: []string{
				"data.ev_stock >= 0",
				"data.public_chargers >= 0",
			},
		},
		{
			SourceID:        "eurostat",
			SourceName:      "Eurostat",
			FreshnessSLA:    c.FreshnessSLA{MaxLagDays: 180},
			UpdateFrequency: "quarterly",
			RequiredFields: []c.FieldSpec{
				{Name: "available", Type: c.FieldBool},
			},
			QualityChecks: []string{},
		},
	}
}
