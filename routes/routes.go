package routes

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travelbuddy/assistant"
	"travelbuddy/geo"
	"travelbuddy/planner"
	"travelbuddy/schedule"
	"travelbuddy/trips"
)

// API holds the services the trip handlers share.
type API struct {
	Planner      *planner.Generator
	Assistant    *assistant.Assistant
	Geo          *geo.Service
	HistoryLimit int
	Now          func() time.Time
}

func (api *API) now() time.Time {
	if api.Now == nil {
		return time.Now().UTC()
	}
	return api.Now()
}

// Register mounts the trip endpoints under /api/trips. Every route requires
// an authenticated user; the /{id} routes also require trip ownership.
func (api *API) Register(se *core.ServeEvent) {
	g := se.Router.Group("/api/trips")
	g.Bind(apis.RequireAuth())
	g.POST("", api.CreateTrip)
	g.POST("/generate", api.GenerateTrip)

	t := g.Group("/{id}")
	t.BindFunc(loadTrip)
	t.PATCH("", api.UpdateTrip)
	t.DELETE("", api.DeleteTrip)
	t.GET("/itinerary", api.GetItinerary)
	t.POST("/itinerary", api.RegenerateItinerary)
	t.GET("/calendar.ics", api.GetCalendar)
	t.POST("/activities/{activityId}/alternatives", api.ActivityAlternatives)
	t.GET("/alerts", api.ListAlerts)
	t.POST("/alerts/{alertId}/resolve", api.ResolveAlert)
	t.POST("/assistant", api.TripAssistant)
	t.GET("/messages", api.ListMessages)
	t.GET("/safety", api.TripSafety)
}

// loadTrip puts the requested trip record in the request store under "trip".
// Trips of other users are reported as missing.
func loadTrip(e *core.RequestEvent) error {
	record, err := e.App.FindRecordById(trips.TripsCollection, e.Request.PathValue("id"))
	if err != nil || e.Auth == nil || record.GetString("user") != e.Auth.Id {
		return errorJSON(e, http.StatusNotFound, "trip not found")
	}
	e.Set("trip", record)
	return e.Next()
}

func currentTrip(e *core.RequestEvent) schedule.Trip {
	return trips.TripFromRecord(e.Get("trip").(*core.Record))
}

// origin returns the geocoded trip coordinates, if any.
func origin(trip schedule.Trip) *planner.Coordinates {
	coords, ok := trip.Metadata["coordinates"].(map[string]any)
	if !ok {
		return nil
	}
	lat, latOK := coords["lat"].(float64)
	lng, lngOK := coords["lng"].(float64)
	if !latOK || !lngOK {
		return nil
	}
	return &planner.Coordinates{Lat: lat, Lng: lng}
}

func errorJSON(e *core.RequestEvent, status int, msg string) error {
	return e.JSON(status, map[string]string{"error": msg})
}
