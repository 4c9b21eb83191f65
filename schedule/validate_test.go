package schedule

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func TestNewTrip(t *testing.T) {
	trip, err := NewTrip("  Lisbon ", day(2025, 3, 1), day(2025, 3, 3), ptr(300))
	if err != nil {
		t.Fatal(err)
	}
	if trip.Destination != "Lisbon" || trip.Status != TripPlanning || trip.NumDays() != 3 {
		t.Errorf("unexpected trip %+v", trip)
	}
	if trip.Location() != time.UTC {
		t.Errorf("expected UTC without timezone metadata, got %s", trip.Location())
	}

	if _, err := NewTrip("Lisbon", day(2025, 3, 3), day(2025, 3, 1), nil); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
	if _, err := NewTrip("", day(2025, 3, 1), day(2025, 3, 1), nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected validation error for empty destination, got %v", err)
	}
	_, err = NewTrip("Lisbon", day(2025, 3, 1), day(2025, 3, 1), ptr(-1))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "total_budget" {
		t.Errorf("expected total_budget validation error, got %v", err)
	}
}

func TestNewTripLength(t *testing.T) {
	start := day(2025, 3, 1)
	trip, err := NewTrip("Lisbon", start, start.AddDate(0, 0, MaxTripDays-1), nil)
	if err != nil {
		t.Fatalf("expected a %d day trip to be accepted, got %v", MaxTripDays, err)
	}
	if trip.NumDays() != MaxTripDays {
		t.Errorf("NumDays = %d, want %d", trip.NumDays(), MaxTripDays)
	}

	_, err = NewTrip("Lisbon", start, start.AddDate(0, 0, MaxTripDays), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "dates" {
		t.Errorf("expected dates validation error one day past the limit, got %v", err)
	}
	if _, err := NewTrip("Lisbon", day(2020, 1, 1), day(2030, 1, 1), nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected a decade long trip to fail, got %v", err)
	}
}

func TestTripLocationFromMetadata(t *testing.T) {
	trip := Trip{Metadata: map[string]any{"timezone": "Asia/Tokyo"}}
	if trip.Location().String() != "Asia/Tokyo" {
		t.Errorf("expected Asia/Tokyo, got %s", trip.Location())
	}
	trip.Metadata["timezone"] = "Mars/Olympus"
	if trip.Location() != time.UTC {
		t.Error("expected UTC for an unknown zone")
	}
}

func TestDaysBetweenIgnoresClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 15, 0, 0, time.UTC)
	if got := DaysBetween(start, end); got != 1 {
		t.Errorf("DaysBetween = %d, want 1", got)
	}
	if got := DaysBetween(end, start); got != -1 {
		t.Errorf("DaysBetween reversed = %d, want -1", got)
	}
}

func TestNewActivity(t *testing.T) {
	d := day(2025, 3, 1)
	valid := Activity{
		Title:     "Breakfast",
		Category:  CategoryFood,
		StartTime: At(d, 8, 0),
		EndTime:   At(d, 9, 0),
	}

	got, err := NewActivity(d, valid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceAI || got.Status != ActivityPlanned || got.Metadata == nil {
		t.Errorf("expected defaults, got %+v", got)
	}

	cases := []struct {
		name   string
		mutate func(a *Activity)
		field  string
	}{
		{"empty title", func(a *Activity) { a.Title = " " }, "title"},
		{"unknown category", func(a *Activity) { a.Category = "karaoke" }, "category"},
		{"end before start", func(a *Activity) { a.EndTime = At(d, 7, 0) }, "end_time"},
		{"equal times", func(a *Activity) { a.EndTime = a.StartTime }, "end_time"},
		{"other date", func(a *Activity) { a.StartTime, a.EndTime = At(d.AddDate(0, 0, 1), 8, 0), At(d.AddDate(0, 0, 1), 9, 0) }, "start_time"},
		{"negative cost", func(a *Activity) { a.CostEstimate = ptr(-5) }, "cost_estimate"},
		{"nan cost", func(a *Activity) { a.CostEstimate = ptr(math.NaN()) }, "cost_estimate"},
		{"latitude", func(a *Activity) { a.Latitude = ptr(91) }, "latitude"},
		{"longitude", func(a *Activity) { a.Longitude = ptr(-181) }, "longitude"},
		{"status", func(a *Activity) { a.Status = "lost" }, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.mutate(&a)
			_, err := NewActivity(d, a)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
		})
	}
}

func TestNewDayOrdersActivities(t *testing.T) {
	trip, _ := NewTrip("Lisbon", day(2025, 3, 1), day(2025, 3, 2), nil)
	d := day(2025, 3, 2)
	got, err := NewDay(trip, 2, d, "", []Activity{
		{Title: "Dinner", Category: CategoryFood, StartTime: At(d, 19, 0), EndTime: At(d, 21, 0)},
		{Title: "Museum", Category: CategoryMuseum, StartTime: At(d, 10, 0), EndTime: At(d, 12, 0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Activities[0].Title != "Museum" {
		t.Errorf("expected activities ordered by start, got %s first", got.Activities[0].Title)
	}

	if _, err := NewDay(trip, 1, day(2025, 3, 5), "", nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected out-of-range day to fail, got %v", err)
	}
	if _, err := NewDay(trip, 0, d, "", nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected index 0 to fail, got %v", err)
	}
}

func TestValidatePlan(t *testing.T) {
	trip, _ := NewTrip("Lisbon", day(2025, 3, 1), day(2025, 3, 2), nil)
	days := []Day{{Date: day(2025, 3, 1), Index: 1}, {Date: day(2025, 3, 2), Index: 2}}
	if err := ValidatePlan(trip, days); err != nil {
		t.Fatalf("expected valid plan, got %v", err)
	}

	gap := []Day{{Date: day(2025, 3, 1), Index: 1}, {Date: day(2025, 3, 2), Index: 3}}
	if err := ValidatePlan(trip, gap); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected index gap to fail, got %v", err)
	}
	dup := []Day{{Date: day(2025, 3, 1), Index: 1}, {Date: day(2025, 3, 1), Index: 2}}
	if err := ValidatePlan(trip, dup); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected duplicate date to fail, got %v", err)
	}
}

func TestNewAlertAndMessage(t *testing.T) {
	alert, err := NewAlert("trip", "act", AlertWeather, SeverityCritical, "storm", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !alert.Active() || alert.Alternatives == nil {
		t.Errorf("unexpected alert %+v", alert)
	}
	if _, err := NewAlert("trip", "act", "meteor", SeverityInfo, "x", nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected unknown alert type to fail, got %v", err)
	}

	if _, err := NewMessage(RoleUser, "  ", nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected empty message to fail, got %v", err)
	}
	if _, err := NewMessage("robot", "hi", nil); !errors.Is(err, ErrDomainValidation) {
		t.Errorf("expected unknown role to fail, got %v", err)
	}
}

func TestPreferencesStyle(t *testing.T) {
	cases := map[Style]Style{
		"":        StyleBalanced,
		"PACKED":  StylePacked,
		"chilled": StyleChilled,
		"wild":    StyleBalanced,
	}
	for in, want := range cases {
		if got := (Preferences{TravelStyle: in}).Style(); got != want {
			t.Errorf("Style(%q) = %q, want %q", in, got, want)
		}
	}
}
