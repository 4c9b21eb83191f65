package planner

import (
	"errors"
	"strings"
	"testing"

	"travelbuddy/schedule"
)

func testTrip(t *testing.T, start, end string) schedule.Trip {
	t.Helper()
	trip, err := schedule.NewTrip("Lisbon", date(start), date(end), nil)
	if err != nil {
		t.Fatalf("new trip: %v", err)
	}
	return trip
}

func dayJSON(number, day, activities string) string {
	return `{"day_number": ` + number + `, "date": "` + day + `", "activities": [` + activities + `]}`
}

const museum = `{"title": "Gulbenkian", "category": "museum", "start_time": "10:00", "end_time": "12:00", "cost_estimate": 14}`

func TestParsePlanUnrecoverable(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-03")
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "I could not build a plan."},
		{"broken json", `{"days": [`},
		{"no days key", `{"itinerary": []}`},
		{"days not a list", `{"days": "tomorrow"}`},
		{"all days out of range", `{"days": [` + dayJSON("1", "2025-05-20", museum) + `]}`},
		{"no activities survive", `{"days": [` + dayJSON("1", "2025-06-01", `{"title": "x", "category": "food", "start_time": "11:00", "end_time": "10:00"}`) + `]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParsePlan(tc.raw, trip, DefaultRepairPolicy)
			if !errors.Is(err, ErrUnrecoverable) {
				t.Errorf("expected ErrUnrecoverable, got %v", err)
			}
		})
	}
}

func TestParsePlanFencedOutput(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-01")
	raw := "Here you go:\n```json\n{\"days\": [" + dayJSON("1", "2025-06-01", museum) + "]}\n```\nEnjoy!"
	plan, _, err := ParsePlan(raw, trip, DefaultRepairPolicy)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(plan.Days) != 1 || plan.Days[0].Activities[0].Title != "Gulbenkian" {
		t.Errorf("unexpected plan %+v", plan)
	}
}

func TestParsePlanDateClamping(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-03")
	cases := []struct {
		name      string
		day       string
		tolerance int
		want      string
	}{
		{"in range", "2025-06-02", 1, "2025-06-02"},
		{"one before start", "2025-05-31", 1, "2025-06-01"},
		{"one after end", "2025-06-04", 1, "2025-06-03"},
		{"two after end", "2025-06-05", 1, ""},
		{"two after end with wider tolerance", "2025-06-05", 2, "2025-06-03"},
		{"one before start with no tolerance", "2025-05-31", 0, ""},
		{"datetime string", "2025-06-02T00:00:00Z", 1, "2025-06-02"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy := RepairPolicy{DateTolerance: tc.tolerance, CoerceUnknownCategory: true}
			raw := `{"days": [` + dayJSON("1", tc.day, museum) + `]}`
			plan, report, err := ParsePlan(raw, trip, policy)
			if tc.want == "" {
				if !errors.Is(err, ErrUnrecoverable) {
					t.Fatalf("expected the day to be dropped, got %v", err)
				}
				if len(report.Dropped) != 1 || !errors.Is(report.Dropped[0], schedule.ErrDomainValidation) {
					t.Errorf("expected one dropped validation error, got %v", report.Dropped)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := plan.Days[0].Date.Format(schedule.DateLayout); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
			if a := plan.Days[0].Activities[0]; !schedule.SameDate(plan.Days[0].Date, a.StartTime) {
				t.Errorf("activity not moved with its day: %s", a.StartTime)
			}
		})
	}
}

func TestParsePlanReindexesDays(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-03")
	raw := `{"days": [` +
		dayJSON("4", "2025-06-01", museum) + `,` +
		dayJSON("0", "2025-06-02", museum) + `,` +
		dayJSON("9", "2025-06-03", museum) + `]}`
	plan, report, err := ParsePlan(raw, trip, DefaultRepairPolicy)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(plan.Days) != 2 {
		t.Fatalf("expected the day numbered 0 to be dropped, got %d days", len(plan.Days))
	}
	if plan.Days[0].Index != 1 || plan.Days[1].Index != 2 {
		t.Errorf("expected indexes 1,2 got %d,%d", plan.Days[0].Index, plan.Days[1].Index)
	}
	if len(report.Dropped) != 1 {
		t.Errorf("expected one dropped day, got %v", report.Dropped)
	}
}

func TestParseActivityRepairs(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-01")
	cases := []struct {
		name     string
		activity string
		strict   bool
		dropped  bool
		check    func(t *testing.T, a schedule.Activity)
	}{
		{
			name:     "category is case-insensitive",
			activity: `{"title": "Fado", "category": "NightLife", "start_time": "21:00", "end_time": "23:00"}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.Category != schedule.CategoryNightlife {
					t.Errorf("expected nightlife, got %s", a.Category)
				}
			},
		},
		{
			name:     "unknown category coerced",
			activity: `{"title": "Surf", "category": "water sports", "start_time": "09:00", "end_time": "11:00"}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.Category != schedule.CategoryOther {
					t.Errorf("expected other, got %s", a.Category)
				}
			},
		},
		{
			name:     "unknown category dropped when strict",
			activity: `{"title": "Surf", "category": "water sports", "start_time": "09:00", "end_time": "11:00"}`,
			strict:   true,
			dropped:  true,
		},
		{
			name:     "negative cost becomes null",
			activity: `{"title": "Tour", "category": "outdoor", "start_time": "09:00", "end_time": "11:00", "cost_estimate": -10}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.CostEstimate != nil {
					t.Errorf("expected nil cost, got %v", *a.CostEstimate)
				}
			},
		},
		{
			name:     "non-numeric cost becomes null",
			activity: `{"title": "Tour", "category": "outdoor", "start_time": "09:00", "end_time": "11:00", "cost_estimate": "free-ish"}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.CostEstimate != nil {
					t.Errorf("expected nil cost, got %v", *a.CostEstimate)
				}
			},
		},
		{
			name:     "placeholder coordinates ignored",
			activity: `{"title": "Tour", "category": "outdoor", "start_time": "09:00", "end_time": "11:00", "latitude": 0.0, "longitude": 0.0}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.Latitude != nil || a.Longitude != nil {
					t.Error("expected no coordinates")
				}
			},
		},
		{
			name:     "twelve hour clock",
			activity: `{"title": "Sunset", "category": "outdoor", "start_time": "6:30 pm", "end_time": "7:45 PM"}`,
			check: func(t *testing.T, a schedule.Activity) {
				if a.StartTime.Format("15:04") != "18:30" || a.EndTime.Format("15:04") != "19:45" {
					t.Errorf("unexpected window %s-%s", a.StartTime.Format("15:04"), a.EndTime.Format("15:04"))
				}
			},
		},
		{
			name:     "end equal to start dropped",
			activity: `{"title": "Blink", "category": "food", "start_time": "10:00", "end_time": "10:00"}`,
			dropped:  true,
		},
		{
			name:     "datetime on another date dropped",
			activity: `{"title": "Elsewhere", "category": "food", "start_time": "2025-06-02T10:00", "end_time": "2025-06-02T11:00"}`,
			dropped:  true,
		},
		{
			name:     "missing title dropped",
			activity: `{"category": "food", "start_time": "10:00", "end_time": "11:00"}`,
			dropped:  true,
		},
		{
			name:     "unparsable time dropped",
			activity: `{"title": "Later", "category": "food", "start_time": "after lunch", "end_time": "11:00"}`,
			dropped:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy := DefaultRepairPolicy
			policy.CoerceUnknownCategory = !tc.strict
			// pair each case with a valid activity so the day survives
			raw := `{"days": [` + dayJSON("1", "2025-06-01", museum+","+tc.activity) + `]}`
			plan, _, err := ParsePlan(raw, trip, policy)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			acts := plan.Days[0].Activities
			if tc.dropped {
				if len(acts) != 1 {
					t.Errorf("expected activity to be dropped, got %d activities", len(acts))
				}
				return
			}
			if len(acts) != 2 {
				t.Fatalf("expected 2 activities, got %d", len(acts))
			}
			for _, a := range acts {
				if a.Title != "Gulbenkian" {
					tc.check(t, a)
				}
			}
		})
	}
}

func TestParsePlanOrdersActivitiesByStart(t *testing.T) {
	trip := testTrip(t, "2025-06-01", "2025-06-01")
	late := `{"title": "Dinner", "category": "food", "start_time": "20:00", "end_time": "22:00"}`
	early := `{"title": "Coffee", "category": "food", "start_time": "07:30", "end_time": "08:00"}`
	raw := `{"days": [` + dayJSON("1", "2025-06-01", late+","+museum+","+early) + `]}`

	plan, _, err := ParsePlan(raw, trip, DefaultRepairPolicy)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var titles []string
	for _, a := range plan.Days[0].Activities {
		titles = append(titles, a.Title)
	}
	if got := strings.Join(titles, ","); got != "Coffee,Gulbenkian,Dinner" {
		t.Errorf("unexpected order %s", got)
	}
}
