package planner

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"travelbuddy/schedule"
)

const SystemPrompt = `You are an experienced travel companion for solo travellers and small groups.

You plan realistic, well-paced itineraries and help re-plan when something goes wrong.
- Respect the traveller's budget, travel style (chilled, balanced or packed), interests and constraints.
- Give concrete times, places, cost estimates and practical tips.
- Mix well-known sights with local favourites and leave time for meals, rest and getting around.
- Mention safety or accessibility notes when they matter.

When asked for structured output, answer with a single JSON object and nothing else.`

func joinOr(items []string, fallback string) string {
	items = lo.Compact(lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) }))
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func categoryList() string {
	return strings.Join(lo.Map(schedule.Categories, func(c schedule.Category, _ int) string { return string(c) }), "|")
}

func planPrompt(req Request, trip schedule.Trip, budgetPerDay float64) string {
	numDays := trip.NumDays()
	prefs := req.Preferences

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a detailed %d-day itinerary for %s.\n\n", numDays, trip.Destination)
	b.WriteString("Trip details:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", trip.Destination)
	fmt.Fprintf(&b, "- Dates: %s to %s (%d days)\n",
		trip.StartDate.Format(schedule.DateLayout), trip.EndDate.Format(schedule.DateLayout), numDays)
	fmt.Fprintf(&b, "- Budget: $%.2f per day\n", budgetPerDay)
	fmt.Fprintf(&b, "- Travel style: %s\n", prefs.Style())
	fmt.Fprintf(&b, "- Interests: %s\n", joinOr(prefs.Interests, "general sightseeing"))
	fmt.Fprintf(&b, "- Dietary restrictions: %s\n", joinOr(prefs.DietaryRestrictions, "none"))
	fmt.Fprintf(&b, "- Additional constraints: %s\n\n", lo.Ternary(strings.TrimSpace(req.Constraints) == "", "none", req.Constraints))

	b.WriteString("Respond with JSON in exactly this shape:\n")
	fmt.Fprintf(&b, `{
  "days": [
    {
      "day_number": 1,
      "date": "YYYY-MM-DD",
      "activities": [
        {
          "title": "Activity name",
          "description": "What to expect",
          "category": "%s",
          "start_time": "HH:MM",
          "end_time": "HH:MM",
          "location": "Address or place name",
          "latitude": 0.0,
          "longitude": 0.0,
          "cost_estimate": 0.0,
          "tips": "Practical tips"
        }
      ]
    }
  ]
}
`, categoryList())
	b.WriteString("\nInclude one entry per date in the range. Make the plan realistic, well-paced and tailored to the preferences above.")
	return b.String()
}

func alternativesPrompt(req AlternativesRequest) string {
	a := req.Activity
	var b strings.Builder
	fmt.Fprintf(&b, "A planned activity in %s is disrupted. Suggest %d alternative activities.\n\n", req.Destination, CandidateCount)
	fmt.Fprintf(&b, "Disruption: %s\n\n", req.Disruption)
	b.WriteString("Original activity:\n")
	fmt.Fprintf(&b, "- Title: %s\n", a.Title)
	fmt.Fprintf(&b, "- Category: %s\n", a.Category)
	fmt.Fprintf(&b, "- Time: %s - %s\n", a.StartTime.Format("15:04"), a.EndTime.Format("15:04"))
	fmt.Fprintf(&b, "- Location: %s\n", lo.Ternary(a.Location == "", "unknown", a.Location))
	fmt.Fprintf(&b, "- Budget: $%.2f\n\n", lo.FromPtr(a.CostEstimate))
	b.WriteString("Traveller preferences:\n")
	fmt.Fprintf(&b, "- Interests: %s\n", joinOr(req.Preferences.Interests, "general sightseeing"))
	fmt.Fprintf(&b, "- Travel style: %s\n\n", req.Preferences.Style())

	b.WriteString("Respond with JSON in exactly this shape, best fit first:\n")
	fmt.Fprintf(&b, `{
  "alternatives": [
    {
      "title": "Alternative activity name",
      "description": "Why this is a good replacement",
      "category": "%s",
      "start_time": "HH:MM",
      "end_time": "HH:MM",
      "location": "Location",
      "latitude": 0.0,
      "longitude": 0.0,
      "cost_estimate": 0.0,
      "fit_score": 0.85
    }
  ]
}
`, categoryList())
	b.WriteString("fit_score is between 0 and 1 and says how well the alternative matches the traveller.")
	return b.String()
}
