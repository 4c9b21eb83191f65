package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"travelbuddy/schedule"
)

// ErrUnrecoverable means the generated output cannot be repaired into a plan
// and the deterministic fallback must be used instead.
var ErrUnrecoverable = errors.New("generated output is unrecoverable")

// RepairPolicy sets how lenient the parser is with generated output.
type RepairPolicy struct {
	// DateTolerance is how many days outside the trip range a day may be
	// before it is dropped instead of clamped to the nearest trip date.
	DateTolerance int
	// CoerceUnknownCategory maps unknown categories to "other". When false
	// such activities are dropped.
	CoerceUnknownCategory bool
}

var DefaultRepairPolicy = RepairPolicy{DateTolerance: 1, CoerceUnknownCategory: true}

// Report lists what the parser changed or removed while repairing output.
type Report struct {
	Dropped  []error
	Repaired []string
}

func (r *Report) drop(path string, err error) {
	r.Dropped = append(r.Dropped, fmt.Errorf("%s: %w", path, err))
}

func (r *Report) repair(path, format string, args ...any) {
	r.Repaired = append(r.Repaired, path+": "+fmt.Sprintf(format, args...))
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n(.+?)\\n\\s*```")

// decodeObject extracts the JSON object from raw, tolerating markdown fences
// and prose around it.
func decodeObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object found")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ParsePlan turns raw generated text into a plan for trip, repairing what the
// policy allows and dropping what it does not. Day indexes are reassigned in
// generation order.
func ParsePlan(raw string, trip schedule.Trip, policy RepairPolicy) (schedule.Plan, Report, error) {
	var report Report

	payload, err := decodeObject(raw)
	if err != nil {
		return schedule.Plan{}, report, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	entries, ok := payload["days"].([]any)
	if !ok {
		return schedule.Plan{}, report, fmt.Errorf("%w: missing days list", ErrUnrecoverable)
	}

	days := make([]schedule.Day, 0, len(entries))
	for i, item := range entries {
		path := fmt.Sprintf("days[%d]", i)
		entry, ok := item.(map[string]any)
		if !ok {
			report.drop(path, &schedule.ValidationError{Field: "day", Reason: "not an object"})
			continue
		}
		day, err := parseDay(path, entry, trip, len(days)+1, policy, &report)
		if err != nil {
			report.drop(path, err)
			continue
		}
		days = append(days, day)
	}

	if len(days) == 0 {
		return schedule.Plan{}, report, fmt.Errorf("%w: no valid days", ErrUnrecoverable)
	}
	return schedule.Plan{Days: days}, report, nil
}

func parseDay(path string, entry map[string]any, trip schedule.Trip, index int, policy RepairPolicy, report *Report) (schedule.Day, error) {
	if n, ok := toInt(entry["day_number"]); !ok || n < 1 {
		return schedule.Day{}, &schedule.ValidationError{Field: "day_number", Reason: "must be a positive integer"}
	}

	loc := trip.StartDate.Location()
	date, err := parseDate(toString(entry["date"]), loc)
	if err != nil {
		return schedule.Day{}, &schedule.ValidationError{Field: "date", Reason: err.Error()}
	}
	date, err = clampDate(date, trip, policy.DateTolerance)
	if err != nil {
		return schedule.Day{}, err
	}
	if raw := toString(entry["date"]); !strings.HasPrefix(raw, date.Format(schedule.DateLayout)) {
		report.repair(path+".date", "clamped %s to %s", raw, date.Format(schedule.DateLayout))
	}

	items, _ := entry["activities"].([]any)
	activities := make([]schedule.Activity, 0, len(items))
	for j, item := range items {
		apath := fmt.Sprintf("%s.activities[%d]", path, j)
		m, ok := item.(map[string]any)
		if !ok {
			report.drop(apath, &schedule.ValidationError{Field: "activity", Reason: "not an object"})
			continue
		}
		a, err := parseActivity(apath, m, date, policy, report)
		if err != nil {
			report.drop(apath, err)
			continue
		}
		activities = append(activities, a)
	}
	if len(activities) == 0 {
		return schedule.Day{}, &schedule.ValidationError{Field: "activities", Reason: "no valid activities"}
	}

	return schedule.NewDay(trip, index, date, toString(entry["notes"]), activities)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(schedule.DateLayout) {
		s = s[:len(schedule.DateLayout)]
	}
	return time.ParseInLocation(schedule.DateLayout, s, loc)
}

// clampDate pulls a date that misses the trip range by at most tolerance days
// back onto the nearest trip date.
func clampDate(date time.Time, trip schedule.Trip, tolerance int) (time.Time, error) {
	if before := schedule.DaysBetween(date, trip.StartDate); before > 0 {
		if before > tolerance {
			return time.Time{}, &schedule.ValidationError{Field: "date", Reason: fmt.Sprintf("%d days before trip start", before)}
		}
		return schedule.Midnight(trip.StartDate, date.Location()), nil
	}
	if after := schedule.DaysBetween(trip.EndDate, date); after > 0 {
		if after > tolerance {
			return time.Time{}, &schedule.ValidationError{Field: "date", Reason: fmt.Sprintf("%d days after trip end", after)}
		}
		return schedule.Midnight(trip.EndDate, date.Location()), nil
	}
	return date, nil
}

func parseActivity(path string, m map[string]any, date time.Time, policy RepairPolicy, report *Report) (schedule.Activity, error) {
	a := schedule.Activity{
		Title:       strings.TrimSpace(toString(m["title"])),
		Description: strings.TrimSpace(toString(m["description"])),
		Location:    strings.TrimSpace(toString(m["location"])),
		Source:      schedule.SourceAI,
		Status:      schedule.ActivityPlanned,
		Metadata:    map[string]any{},
	}

	raw := toString(m["category"])
	category, ok := schedule.ParseCategory(raw)
	switch {
	case ok:
		a.Category = category
	case policy.CoerceUnknownCategory:
		a.Category = schedule.CategoryOther
		report.repair(path+".category", "coerced %q to other", raw)
	default:
		return schedule.Activity{}, &schedule.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", raw)}
	}

	var err error
	if a.StartTime, err = parseClock(m["start_time"], date); err != nil {
		return schedule.Activity{}, &schedule.ValidationError{Field: "start_time", Reason: err.Error()}
	}
	if a.EndTime, err = parseClock(m["end_time"], date); err != nil {
		return schedule.Activity{}, &schedule.ValidationError{Field: "end_time", Reason: err.Error()}
	}

	if v, present := m["cost_estimate"]; present && v != nil {
		if cost, ok := toFloat(v); ok && schedule.ValidCost(cost) {
			a.CostEstimate = &cost
		} else {
			report.repair(path+".cost_estimate", "dropped invalid cost %v", v)
		}
	}

	lat, latOK := toFloat(m["latitude"])
	lng, lngOK := toFloat(m["longitude"])
	if latOK && lngOK && !(lat == 0 && lng == 0) && math.Abs(lat) <= 90 && math.Abs(lng) <= 180 {
		a.Latitude, a.Longitude = &lat, &lng
	}

	if tips := strings.TrimSpace(toString(m["tips"])); tips != "" {
		a.Metadata["tips"] = tips
	}

	return schedule.NewActivity(date, a)
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM", "3PM"}

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// parseClock reads a wall-clock time and places it on date. Full date-times
// are accepted as long as the later domain check finds them on the same date.
func parseClock(v any, date time.Time) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(toString(v)))
	if s == "" {
		return time.Time{}, errors.New("missing time")
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return schedule.At(date, t.Hour(), t.Minute()), nil
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, date.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// ParseAlternatives turns raw generated text into at most limit candidates
// replacing original, ordered by descending fit score.
func ParseAlternatives(raw string, original schedule.Activity, limit int, policy RepairPolicy) ([]schedule.Candidate, Report, error) {
	var report Report

	payload, err := decodeObject(raw)
	if err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	entries, ok := payload["alternatives"].([]any)
	if !ok {
		return nil, report, fmt.Errorf("%w: missing alternatives list", ErrUnrecoverable)
	}

	date := schedule.Midnight(original.StartTime, original.StartTime.Location())
	candidates := make([]schedule.Candidate, 0, len(entries))
	for i, item := range entries {
		path := fmt.Sprintf("alternatives[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			report.drop(path, &schedule.ValidationError{Field: "alternative", Reason: "not an object"})
			continue
		}
		if m["start_time"] == nil && m["end_time"] == nil {
			m["start_time"] = original.StartTime.Format("15:04")
			m["end_time"] = original.EndTime.Format("15:04")
			report.repair(path, "inherited the original time window")
		}
		a, err := parseActivity(path, m, date, policy, &report)
		if err != nil {
			report.drop(path, err)
			continue
		}
		score, _ := toFloat(m["fit_score"])
		if math.IsNaN(score) {
			score = 0
		}
		candidates = append(candidates, schedule.Candidate{Activity: a, FitScore: lo.Clamp(score, 0, 1)})
	}

	if len(candidates) == 0 {
		return nil, report, fmt.Errorf("%w: no valid alternatives", ErrUnrecoverable)
	}
	RankCandidates(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, report, nil
}

// RankCandidates sorts by descending fit score, keeping input order on ties.
func RankCandidates(candidates []schedule.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FitScore > candidates[j].FitScore
	})
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "$"))
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
