package task

// Built-in blueprint catalog. Every blueprint carries its own template
// tag (tpl:<id>) so instantiated tasks can be found again by tag pair.
func BuiltinBlueprints() []Blueprint {
	return []Blueprint{
		{
			ID:                    "tpl-capacity-planning",
			Title:                 "Prepare capacity planning input",
			Description:           "Collect expected volumes and consist parameters for the capacity model.",
			Tags:                  []string{"tpl:tpl-capacity-planning", "planning"},
			Category:              "planning",
			RecommendedAssignment: "capacity-team",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 45, Label: "45 days after window entry"},
			DefaultLeadTimeDays:   45,
		},
		{
			ID:                    "tpl-annual-request",
			Title:                 "File annual timetable request",
			Description:           "Bundle all line items for the timetable year into one path request.",
			Tags:                  []string{"tpl:tpl-annual-request", "request"},
			Category:              "request",
			RecommendedAssignment: "planning-desk",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 30, Label: "30 days after window entry"},
			DefaultLeadTimeDays:   30,
			Steps: []Step{
				{Title: "Check path availability"},
				{Title: "Confirm consist data with customer"},
				{Title: "Submit request to infrastructure manager"},
			},
		},
		{
			ID:                    "tpl-rolling-planning",
			Title:                 "Review rolling planning slot",
			Description:           "Verify the rolling-planning slot still matches the order parameters.",
			Tags:                  []string{"tpl:tpl-rolling-planning", "planning"},
			Category:              "planning",
			RecommendedAssignment: "planning-desk",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 14, Label: "two weeks after window entry"},
			DefaultLeadTimeDays:   14,
		},
		{
			ID:                    "tpl-short-term",
			Title:                 "File short-term path request",
			Description:           "Request a short-term path for items approaching their service date.",
			Tags:                  []string{"tpl:tpl-short-term", "request"},
			Category:              "request",
			RecommendedAssignment: "dispatch-desk",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 5, Label: "5 days after window entry"},
			DefaultLeadTimeDays:   5,
		},
		{
			ID:                    "tpl-ad-hoc",
			Title:                 "Handle ad-hoc request",
			Description:           "Coordinate an ad-hoc path inside the operational horizon.",
			Tags:                  []string{"tpl:tpl-ad-hoc", "request", "urgent"},
			Category:              "request",
			RecommendedAssignment: "dispatch-desk",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 1, Label: "next day"},
			DefaultLeadTimeDays:   1,
		},
		{
			ID:                    "tpl-feasibility-study",
			Title:                 "Run feasibility study",
			Description:           "Check route and consist feasibility before booking.",
			Tags:                  []string{"tpl:tpl-feasibility-study", "study"},
			Category:              "study",
			RecommendedAssignment: "engineering",
			DueRule:               DueRule{Anchor: "window_entry", OffsetDays: 10, Label: "10 days after window entry"},
			DefaultLeadTimeDays:   10,
			ParameterHints: map[string]string{
				"route":   "origin and destination service points",
				"consist": "locomotive class and wagon set",
			},
		},
	}
}
