package trips

import (
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"travelbuddy/schedule"
)

var ErrNotFound = errors.New("record not found")

func jsonFloat(r *core.Record, field string) *float64 {
	var v *float64
	if err := r.UnmarshalJSONField(field, &v); err != nil {
		return nil
	}
	return v
}

func jsonMap(r *core.Record, field string) map[string]any {
	m := map[string]any{}
	if err := r.UnmarshalJSONField(field, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func timeIn(r *core.Record, field string, loc *time.Location) time.Time {
	dt := r.GetDateTime(field)
	if dt.IsZero() {
		return time.Time{}
	}
	return dt.Time().In(loc)
}

// TripFromRecord converts a trips record. Dates are read in the trip
// timezone stored in metadata.
func TripFromRecord(r *core.Record) schedule.Trip {
	trip := schedule.Trip{
		ID:          r.Id,
		UserID:      r.GetString("user"),
		Destination: r.GetString("destination"),
		Status:      schedule.TripStatus(r.GetString("status")),
		TotalBudget: jsonFloat(r, "total_budget"),
		Metadata:    jsonMap(r, "metadata"),
	}
	loc := trip.Location()
	trip.StartDate = schedule.Midnight(timeIn(r, "start_date", loc), loc)
	trip.EndDate = schedule.Midnight(timeIn(r, "end_date", loc), loc)
	if trip.Status == "" {
		trip.Status = schedule.TripPlanning
	}
	return trip
}

// CreateTrip stores trip for userID and returns it with its id.
func CreateTrip(app core.App, userID string, trip schedule.Trip) (*core.Record, schedule.Trip, error) {
	collection, err := app.FindCollectionByNameOrId(TripsCollection)
	if err != nil {
		return nil, schedule.Trip{}, err
	}
	r := core.NewRecord(collection)
	r.Set("user", userID)
	r.Set("destination", trip.Destination)
	r.Set("start_date", trip.StartDate.UTC())
	r.Set("end_date", trip.EndDate.UTC())
	r.Set("status", string(lo.Ternary(trip.Status == "", schedule.TripPlanning, trip.Status)))
	r.Set("total_budget", trip.TotalBudget)
	r.Set("metadata", lo.Ternary(trip.Metadata == nil, map[string]any{}, trip.Metadata))
	if err := app.Save(r); err != nil {
		return nil, schedule.Trip{}, err
	}
	return r, TripFromRecord(r), nil
}

// SetTripStatus updates the lifecycle status of a stored trip.
func SetTripStatus(app core.App, r *core.Record, status schedule.TripStatus) error {
	if !lo.Contains(schedule.TripStatuses, status) {
		return &schedule.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	r.Set("status", string(status))
	return app.Save(r)
}

// UpdateTrip stores the dates, budget and status of trip on r. When the date
// range moves, the stored itinerary is dropped along with its activities.
func UpdateTrip(app core.App, r *core.Record, trip schedule.Trip) (schedule.Trip, error) {
	before := TripFromRecord(r)
	moved := !schedule.SameDate(before.StartDate, trip.StartDate) || !schedule.SameDate(before.EndDate, trip.EndDate)

	err := app.RunInTransaction(func(txApp core.App) error {
		r.Set("start_date", trip.StartDate.UTC())
		r.Set("end_date", trip.EndDate.UTC())
		r.Set("total_budget", trip.TotalBudget)
		if err := SetTripStatus(txApp, r, trip.Status); err != nil {
			return err
		}
		if !moved {
			return nil
		}

		days, err := txApp.FindAllRecords(DaysCollection, dbx.HashExp{"trip": r.Id})
		if err != nil {
			return err
		}
		for _, d := range days {
			if err := txApp.Delete(d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return schedule.Trip{}, err
	}
	return TripFromRecord(r), nil
}

func ActivityFromRecord(r *core.Record, loc *time.Location) schedule.Activity {
	return schedule.Activity{
		ID:           r.Id,
		Title:        r.GetString("title"),
		Description:  r.GetString("description"),
		Category:     schedule.Category(r.GetString("category")),
		StartTime:    timeIn(r, "start_time", loc),
		EndTime:      timeIn(r, "end_time", loc),
		Location:     r.GetString("location"),
		Latitude:     jsonFloat(r, "latitude"),
		Longitude:    jsonFloat(r, "longitude"),
		CostEstimate: jsonFloat(r, "cost_estimate"),
		Source:       schedule.Source(r.GetString("source")),
		Status:       schedule.ActivityStatus(r.GetString("status")),
		Metadata:     jsonMap(r, "metadata"),
	}
}

func activityRecord(collection *core.Collection, tripID, dayID string, a schedule.Activity) *core.Record {
	r := core.NewRecord(collection)
	r.Set("trip", tripID)
	r.Set("day", dayID)
	r.Set("title", a.Title)
	r.Set("description", a.Description)
	r.Set("category", string(a.Category))
	r.Set("start_time", a.StartTime.UTC())
	r.Set("end_time", a.EndTime.UTC())
	r.Set("location", a.Location)
	r.Set("latitude", a.Latitude)
	r.Set("longitude", a.Longitude)
	r.Set("cost_estimate", a.CostEstimate)
	r.Set("source", string(a.Source))
	r.Set("status", string(a.Status))
	r.Set("metadata", lo.Ternary(a.Metadata == nil, map[string]any{}, a.Metadata))
	return r
}

// FindActivity loads an activity that belongs to trip.
func FindActivity(app core.App, trip schedule.Trip, activityID string) (schedule.Activity, error) {
	r, err := app.FindFirstRecordByFilter(ActivitiesCollection, "id = {:id} && trip = {:trip}",
		dbx.Params{"id": activityID, "trip": trip.ID})
	if err != nil {
		return schedule.Activity{}, fmt.Errorf("activity %s: %w", activityID, ErrNotFound)
	}
	return ActivityFromRecord(r, trip.Location()), nil
}

func alertFromRecord(r *core.Record) schedule.Alert {
	alert := schedule.Alert{
		ID:           r.Id,
		TripID:       r.GetString("trip"),
		ActivityID:   r.GetString("activity"),
		Type:         schedule.AlertType(r.GetString("type")),
		Severity:     schedule.Severity(r.GetString("severity")),
		Message:      r.GetString("message"),
		Alternatives: []schedule.Candidate{},
	}
	_ = r.UnmarshalJSONField("alternatives", &alert.Alternatives)
	if resolved := r.GetDateTime("resolved_at"); !resolved.IsZero() {
		alert.ResolvedAt = lo.ToPtr(resolved.Time())
	}
	return alert
}

func CreateAlert(app core.App, alert schedule.Alert) (schedule.Alert, error) {
	collection, err := app.FindCollectionByNameOrId(AlertsCollection)
	if err != nil {
		return schedule.Alert{}, err
	}
	r := core.NewRecord(collection)
	r.Set("trip", alert.TripID)
	r.Set("activity", alert.ActivityID)
	r.Set("type", string(alert.Type))
	r.Set("severity", string(alert.Severity))
	r.Set("message", alert.Message)
	r.Set("alternatives", alert.Alternatives)
	if err := app.Save(r); err != nil {
		return schedule.Alert{}, err
	}
	return alertFromRecord(r), nil
}

// ActiveAlerts lists the unresolved alerts of a trip, newest first.
func ActiveAlerts(app core.App, tripID string) ([]schedule.Alert, error) {
	records, err := app.FindRecordsByFilter(AlertsCollection, "trip = {:trip} && resolved_at = ''", "-created", 0, 0,
		dbx.Params{"trip": tripID})
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *core.Record, _ int) schedule.Alert { return alertFromRecord(r) }), nil
}

// ResolveAlert marks an alert of trip as resolved. Resolving twice keeps the
// first resolution time.
func ResolveAlert(app core.App, tripID, alertID string, now time.Time) (schedule.Alert, error) {
	r, err := app.FindFirstRecordByFilter(AlertsCollection, "id = {:id} && trip = {:trip}",
		dbx.Params{"id": alertID, "trip": tripID})
	if err != nil {
		return schedule.Alert{}, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	if r.GetDateTime("resolved_at").IsZero() {
		r.Set("resolved_at", now.UTC())
		if err := app.Save(r); err != nil {
			return schedule.Alert{}, err
		}
	}
	return alertFromRecord(r), nil
}

func messageFromRecord(r *core.Record) schedule.Message {
	return schedule.Message{
		ID:        r.Id,
		TripID:    r.GetString("trip"),
		UserID:    r.GetString("user"),
		Role:      schedule.Role(r.GetString("role")),
		Content:   r.GetString("content"),
		Metadata:  jsonMap(r, "metadata"),
		CreatedAt: r.GetDateTime("created").Time(),
	}
}

func AppendMessage(app core.App, tripID, userID string, msg schedule.Message) (schedule.Message, error) {
	collection, err := app.FindCollectionByNameOrId(MessagesCollection)
	if err != nil {
		return schedule.Message{}, err
	}
	r := core.NewRecord(collection)
	r.Set("trip", tripID)
	r.Set("user", userID)
	r.Set("role", string(msg.Role))
	r.Set("content", msg.Content)
	r.Set("metadata", lo.Ternary(msg.Metadata == nil, map[string]any{}, msg.Metadata))
	if err := app.Save(r); err != nil {
		return schedule.Message{}, err
	}
	return messageFromRecord(r), nil
}

// History returns the most recent limit messages of a trip, oldest first.
// Messages saved within the same millisecond keep their insertion order.
func History(app core.App, tripID string, limit int) ([]schedule.Message, error) {
	records := []*core.Record{}
	q := app.RecordQuery(MessagesCollection).
		AndWhere(dbx.HashExp{"trip": tripID}).
		OrderBy("created DESC", "rowid DESC")
	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if err := q.All(&records); err != nil {
		return nil, err
	}
	messages := lo.Map(records, func(r *core.Record, _ int) schedule.Message { return messageFromRecord(r) })
	return lo.Reverse(messages), nil
}

// UserPreferences reads the traveller preferences; a missing or malformed
// value yields the zero preferences.
func UserPreferences(app core.App, userID string) schedule.Preferences {
	var prefs schedule.Preferences
	r, err := app.FindRecordById(UsersCollection, userID)
	if err != nil {
		return prefs
	}
	if err := r.UnmarshalJSONField("preferences", &prefs); err != nil {
		app.Logger().Warn("Unable to parse user preferences", "error", err, "userId", userID)
		return schedule.Preferences{}
	}
	return prefs
}
