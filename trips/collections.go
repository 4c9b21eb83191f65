// Package trips persists trips, itineraries, alerts and chat messages as
// PocketBase records and converts them to and from the schedule types.
package trips

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/samber/lo"

	"travelbuddy/schedule"
)

const (
	TripsCollection      = "trips"
	DaysCollection       = "trip_days"
	ActivitiesCollection = "activities"
	AlertsCollection     = "alerts"
	MessagesCollection   = "chat_messages"
	UsersCollection      = "users"
)

func selectValues[T ~string](values []T) []string {
	return lo.Map(values, func(v T, _ int) string { return string(v) })
}

// EnsureCollections creates the travel collections and the users
// preferences field when they are missing. It is safe to call repeatedly.
func EnsureCollections(app core.App) error {
	users, err := app.FindCollectionByNameOrId(UsersCollection)
	if err != nil {
		return fmt.Errorf("users collection: %w", err)
	}
	if users.Fields.GetByName("preferences") == nil {
		users.Fields.Add(&core.JSONField{Name: "preferences", MaxSize: 1 << 16})
		if err := app.Save(users); err != nil {
			return fmt.Errorf("add users.preferences: %w", err)
		}
	}

	trips, err := ensure(app, TripsCollection, func(c *core.Collection) {
		c.ListRule = types.Pointer("user = @request.auth.id")
		c.ViewRule = types.Pointer("user = @request.auth.id")
		c.Fields.Add(
			&core.RelationField{Name: "user", CollectionId: users.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			&core.TextField{Name: "destination", Required: true, Max: 200},
			&core.DateField{Name: "start_date", Required: true},
			&core.DateField{Name: "end_date", Required: true},
			&core.SelectField{Name: "status", Values: selectValues(schedule.TripStatuses), MaxSelect: 1},
			&core.JSONField{Name: "total_budget"},
			&core.JSONField{Name: "metadata"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		c.AddIndex("idx_trips_user", false, "user", "")
	})
	if err != nil {
		return err
	}

	days, err := ensure(app, DaysCollection, func(c *core.Collection) {
		c.ListRule = types.Pointer("trip.user = @request.auth.id")
		c.ViewRule = types.Pointer("trip.user = @request.auth.id")
		c.Fields.Add(
			&core.RelationField{Name: "trip", CollectionId: trips.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			&core.DateField{Name: "date", Required: true},
			&core.NumberField{Name: "day_index", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.TextField{Name: "notes"},
		)
		c.AddIndex("idx_trip_days_trip_date", true, "trip, date", "")
		c.AddIndex("idx_trip_days_trip_index", true, "trip, day_index", "")
	})
	if err != nil {
		return err
	}

	activities, err := ensure(app, ActivitiesCollection, func(c *core.Collection) {
		c.ListRule = types.Pointer("trip.user = @request.auth.id")
		c.ViewRule = types.Pointer("trip.user = @request.auth.id")
		c.Fields.Add(
			&core.RelationField{Name: "trip", CollectionId: trips.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			&core.RelationField{Name: "day", CollectionId: days.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			&core.TextField{Name: "title", Required: true, Max: 300},
			&core.TextField{Name: "description"},
			&core.SelectField{Name: "category", Required: true, Values: selectValues(schedule.Categories), MaxSelect: 1},
			&core.DateField{Name: "start_time", Required: true},
			&core.DateField{Name: "end_time", Required: true},
			&core.TextField{Name: "location"},
			&core.JSONField{Name: "latitude"},
			&core.JSONField{Name: "longitude"},
			&core.JSONField{Name: "cost_estimate"},
			&core.SelectField{Name: "source", Values: []string{string(schedule.SourceAI), string(schedule.SourceUser), string(schedule.SourceExternal)}, MaxSelect: 1},
			&core.SelectField{Name: "status", Values: selectValues(schedule.ActivityStatuses), MaxSelect: 1},
			&core.JSONField{Name: "metadata"},
		)
		c.AddIndex("idx_activities_day", false, "day", "")
	})
	if err != nil {
		return err
	}

	_, err = ensure(app, AlertsCollection, func(c *core.Collection) {
		c.ListRule = types.Pointer("trip.user = @request.auth.id")
		c.ViewRule = types.Pointer("trip.user = @request.auth.id")
		c.Fields.Add(
			&core.RelationField{Name: "trip", CollectionId: trips.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			// not required: regenerating the itinerary removes the activity
			&core.RelationField{Name: "activity", CollectionId: activities.Id, MaxSelect: 1},
			&core.SelectField{Name: "type", Required: true, Values: selectValues(schedule.AlertTypes), MaxSelect: 1},
			&core.SelectField{Name: "severity", Required: true, Values: selectValues(schedule.Severities), MaxSelect: 1},
			&core.TextField{Name: "message", Required: true},
			&core.JSONField{Name: "alternatives", MaxSize: 1 << 18},
			&core.DateField{Name: "resolved_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
	})
	if err != nil {
		return err
	}

	_, err = ensure(app, MessagesCollection, func(c *core.Collection) {
		c.ListRule = types.Pointer("trip.user = @request.auth.id")
		c.ViewRule = types.Pointer("trip.user = @request.auth.id")
		c.Fields.Add(
			&core.RelationField{Name: "trip", CollectionId: trips.Id, Required: true, CascadeDelete: true, MaxSelect: 1},
			&core.RelationField{Name: "user", CollectionId: users.Id, MaxSelect: 1},
			&core.SelectField{Name: "role", Required: true, Values: selectValues(schedule.Roles), MaxSelect: 1},
			&core.TextField{Name: "content", Required: true},
			&core.JSONField{Name: "metadata"},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		c.AddIndex("idx_chat_messages_trip", false, "trip, created", "")
	})
	return err
}

func ensure(app core.App, name string, define func(*core.Collection)) (*core.Collection, error) {
	if existing, err := app.FindCollectionByNameOrId(name); err == nil {
		return existing, nil
	}
	c := core.NewBaseCollection(name)
	define(c)
	if err := app.Save(c); err != nil {
		return nil, fmt.Errorf("create %s collection: %w", name, err)
	}
	return c, nil
}

// DropCollections removes what EnsureCollections created, dependents first.
func DropCollections(app core.App) error {
	for _, name := range []string{MessagesCollection, AlertsCollection, ActivitiesCollection, DaysCollection, TripsCollection} {
		c, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			continue
		}
		if err := app.Delete(c); err != nil {
			return fmt.Errorf("drop %s collection: %w", name, err)
		}
	}
	return nil
}
