package trips

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"travelbuddy/schedule"
)

// ExportCalendar renders the itinerary as an iCalendar document with one
// event per activity.
func ExportCalendar(trip schedule.Trip, days []schedule.Day, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//travelbuddy//itinerary//EN")

	for _, d := range days {
		for i, a := range d.Activities {
			uid := a.ID
			if uid == "" {
				uid = fmt.Sprintf("%s-%d-%d", trip.ID, d.Index, i+1)
			}
			event := cal.AddEvent(uid + "@travelbuddy")
			event.SetDtStampTime(now)
			event.SetStartAt(a.StartTime)
			event.SetEndAt(a.EndTime)
			event.SetSummary(a.Title)
			event.SetProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(a.Category)))
			if a.Location != "" {
				event.SetLocation(a.Location)
			}
			if a.Latitude != nil && a.Longitude != nil {
				event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", *a.Latitude, *a.Longitude))
			}
			if desc := eventDescription(a); desc != "" {
				event.SetDescription(desc)
			}
		}
	}
	return cal.Serialize()
}

func eventDescription(a schedule.Activity) string {
	var parts []string
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.CostEstimate != nil {
		parts = append(parts, fmt.Sprintf("Estimated cost: $%.2f", *a.CostEstimate))
	}
	if tips := a.Tips(); tips != "" {
		parts = append(parts, "Tips: "+tips)
	}
	return strings.Join(parts, "\n")
}
