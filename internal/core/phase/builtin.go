package phase

// Built-in phase definitions covering the TTR planning lifecycle. The
// registry serves these ahead of custom definitions and rejects any
// attempt to edit or delete them.
//
// Window offsets are relative to the phase's timeline reference;
// negative offsets lie before the anchor date.
func BuiltIns() []Definition {
	defs := []Definition{
		{
			ID:                "capacity_planning",
			Label:             "Capacity Planning",
			Summary:           "Long-range capacity model alignment for the timetable period.",
			TimelineReference: RefServiceStart,
			AutoCreate:        true,
			Window:            WindowConfig{Unit: UnitWeeks, Start: -60, End: -36, Bucket: BucketYear, Label: "X-60 to X-36 weeks"},
			BlueprintID:       "tpl-capacity-planning",
		},
		{
			ID:                "annual_request",
			Label:             "Annual Request",
			Summary:           "Path request for the annual timetable.",
			TimelineReference: RefServiceStart,
			AutoCreate:        true,
			Window:            WindowConfig{Unit: UnitWeeks, Start: -36, End: -8, Bucket: BucketYear, Label: "X-36 to X-8 weeks"},
			BlueprintID:       "tpl-annual-request",
		},
		{
			ID:                "rolling_planning",
			Label:             "Rolling Planning",
			Summary:           "Rolling path planning between annual and short-term horizons.",
			TimelineReference: RefServiceStart,
			AutoCreate:        true,
			Window:            WindowConfig{Unit: UnitWeeks, Start: -8, End: -4, Bucket: BucketWeek, Label: "X-8 to X-4 weeks"},
			BlueprintID:       "tpl-rolling-planning",
		},
		{
			ID:                "short_term",
			Label:             "Short-Term Request",
			Summary:           "Short-term path request close to the service date.",
			TimelineReference: RefServiceStart,
			AutoCreate:        true,
			Window:            WindowConfig{Unit: UnitDays, Start: -30, End: -7, Bucket: BucketDay, Label: "X-30 to X-7 days"},
			BlueprintID:       "tpl-short-term",
		},
		{
			ID:                "ad_hoc",
			Label:             "Ad-hoc Request",
			Summary:           "Ad-hoc path request inside the operational horizon.",
			TimelineReference: RefServiceStart,
			AutoCreate:        true,
			Window:            WindowConfig{Unit: UnitHours, Start: -72, End: 0, Bucket: BucketHour, Label: "last 72 hours"},
			BlueprintID:       "tpl-ad-hoc",
		},
		{
			ID:                "feasibility_study",
			Label:             "Feasibility Study",
			Summary:           "Pre-booking feasibility check for unusual consists or routes.",
			TimelineReference: RefOrderCreated,
			AutoCreate:        false,
			Window:            WindowConfig{Unit: UnitDays, Start: 0, End: 14, Bucket: BucketDay, Label: "two weeks from order intake"},
			BlueprintID:       "tpl-feasibility-study",
		},
	}

	for i := range defs {
		defs[i].BuiltIn = true
	}
	return defs
}
