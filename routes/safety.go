package routes

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"travelbuddy/geo"
	"travelbuddy/planner"
	"travelbuddy/schedule"
	"travelbuddy/trips"
)

type safetyResponse struct {
	Destination  string           `json:"destination"`
	Safety       geo.Safety       `json:"safety"`
	Forecast     geo.Forecast     `json:"forecast"`
	ActiveAlerts []schedule.Alert `json:"active_alerts"`
}

// TripSafety reports safety and weather around the trip destination along
// with its unresolved alerts.
func (api *API) TripSafety(e *core.RequestEvent) error {
	trip := currentTrip(e)
	coords := planner.DefaultOrigin
	if o := origin(trip); o != nil {
		coords = *o
	}

	alerts, err := trips.ActiveAlerts(e.App, trip.ID)
	if err != nil {
		e.App.Logger().Error("TripSafety load error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load alerts")
	}

	ctx := e.Request.Context()
	return e.JSON(http.StatusOK, safetyResponse{
		Destination:  trip.Destination,
		Safety:       api.Geo.Safety(ctx, coords.Lat, coords.Lng, trip.Destination),
		Forecast:     api.Geo.Forecast(ctx, coords.Lat, coords.Lng, trip.StartDate),
		ActiveAlerts: alerts,
	})
}
