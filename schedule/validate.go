package schedule

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// MaxTripDays bounds the inclusive length of a trip.
const MaxTripDays = 60

// NewTrip validates the trip parameters and returns a trip in planning status.
func NewTrip(destination string, start, end time.Time, budget *float64) (Trip, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Trip{}, invalid("destination", "must not be empty")
	}
	if start.IsZero() || end.IsZero() {
		return Trip{}, invalid("dates", "start and end dates are required")
	}
	if DaysBetween(start, end) < 0 {
		return Trip{}, ErrInvalidDateRange
	}
	if DaysBetween(start, end)+1 > MaxTripDays {
		return Trip{}, invalid("dates", "a trip spans at most %d days", MaxTripDays)
	}
	if budget != nil && !ValidCost(*budget) {
		return Trip{}, invalid("total_budget", "must be a finite non-negative number")
	}
	return Trip{
		Destination: destination,
		StartDate:   start,
		EndDate:     end,
		Status:      TripPlanning,
		TotalBudget: budget,
		Metadata:    map[string]any{},
	}, nil
}

// InRange reports whether date lies within the trip's inclusive date range.
func (t Trip) InRange(date time.Time) bool {
	return DaysBetween(t.StartDate, date) >= 0 && DaysBetween(date, t.EndDate) >= 0
}

// ValidCost reports whether v is an acceptable cost estimate or budget.
func ValidCost(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// NewActivity checks a against the invariants of an activity scheduled on day
// and fills in the default source and status.
func NewActivity(day time.Time, a Activity) (Activity, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return Activity{}, invalid("title", "must not be empty")
	}
	if _, ok := ParseCategory(string(a.Category)); !ok {
		return Activity{}, invalid("category", "unknown category %q", a.Category)
	}
	if !a.EndTime.After(a.StartTime) {
		return Activity{}, invalid("end_time", "must be after start_time")
	}
	if !SameDate(day, a.StartTime) || !SameDate(day, a.EndTime) {
		return Activity{}, invalid("start_time", "activity must fall on %s", day.Format(DateLayout))
	}
	if a.CostEstimate != nil && !ValidCost(*a.CostEstimate) {
		return Activity{}, invalid("cost_estimate", "must be a finite non-negative number")
	}
	if a.Latitude != nil && (*a.Latitude < -90 || *a.Latitude > 90) {
		return Activity{}, invalid("latitude", "out of range")
	}
	if a.Longitude != nil && (*a.Longitude < -180 || *a.Longitude > 180) {
		return Activity{}, invalid("longitude", "out of range")
	}
	if a.Source == "" {
		a.Source = SourceAI
	}
	if a.Status == "" {
		a.Status = ActivityPlanned
	}
	if !lo.Contains(ActivityStatuses, a.Status) {
		return Activity{}, invalid("status", "unknown status %q", a.Status)
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	return a, nil
}

// NewDay builds a day of trip with its activities ordered by start time.
func NewDay(trip Trip, index int, date time.Time, notes string, activities []Activity) (Day, error) {
	if index < 1 {
		return Day{}, invalid("index", "must be a positive integer")
	}
	if !trip.InRange(date) {
		return Day{}, invalid("date", "%s outside trip range", date.Format(DateLayout))
	}
	for i, a := range activities {
		v, err := NewActivity(date, a)
		if err != nil {
			return Day{}, err
		}
		activities[i] = v
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartTime.Before(activities[j].StartTime)
	})
	return Day{Date: date, Index: index, Notes: notes, Activities: activities}, nil
}

// ValidatePlan checks the day indexes run 1..N without gaps and every date
// lies within the trip range.
func ValidatePlan(trip Trip, days []Day) error {
	seen := map[string]bool{}
	for i, d := range days {
		if d.Index != i+1 {
			return invalid("index", "day %d has index %d", i+1, d.Index)
		}
		if !trip.InRange(d.Date) {
			return invalid("date", "%s outside trip range", d.Date.Format(DateLayout))
		}
		key := d.Date.Format(DateLayout)
		if seen[key] {
			return invalid("date", "%s appears twice", key)
		}
		seen[key] = true
		for _, a := range d.Activities {
			if _, err := NewActivity(d.Date, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func NewAlert(tripID, activityID string, typ AlertType, severity Severity, message string, alternatives []Candidate) (Alert, error) {
	if !lo.Contains(AlertTypes, typ) {
		return Alert{}, invalid("type", "unknown alert type %q", typ)
	}
	if !lo.Contains(Severities, severity) {
		return Alert{}, invalid("severity", "unknown severity %q", severity)
	}
	if strings.TrimSpace(message) == "" {
		return Alert{}, invalid("message", "must not be empty")
	}
	if alternatives == nil {
		alternatives = []Candidate{}
	}
	return Alert{
		TripID:       tripID,
		ActivityID:   activityID,
		Type:         typ,
		Severity:     severity,
		Message:      message,
		Alternatives: alternatives,
	}, nil
}

func NewMessage(role Role, content string, metadata map[string]any) (Message, error) {
	if !lo.Contains(Roles, role) {
		return Message{}, invalid("role", "unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, invalid("content", "must not be empty")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Message{Role: role, Content: content, Metadata: metadata, CreatedAt: time.Now().UTC()}, nil
}
