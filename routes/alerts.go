package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"travelbuddy/planner"
	"travelbuddy/schedule"
	"travelbuddy/trips"
)

type alternativesRequest struct {
	Disruption string `json:"disruption"`
	Type       string `json:"type"`
	Severity   string `json:"severity"`
}

// ActivityAlternatives records a disruption of one activity as an alert that
// carries ranked replacement candidates.
func (api *API) ActivityAlternatives(e *core.RequestEvent) error {
	var req alternativesRequest
	if err := decodeBody(e, &req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}
	req.Disruption = strings.TrimSpace(req.Disruption)
	if req.Disruption == "" {
		return errorJSON(e, http.StatusBadRequest, "disruption is required")
	}
	alertType := schedule.AlertType(strings.ToLower(strings.TrimSpace(req.Type)))
	if alertType == "" {
		alertType = schedule.AlertGeneral
	}
	severity := schedule.Severity(strings.ToLower(strings.TrimSpace(req.Severity)))
	if severity == "" {
		severity = schedule.SeverityWarning
	}

	trip := currentTrip(e)
	activity, err := trips.FindActivity(e.App, trip, e.Request.PathValue("activityId"))
	if err != nil {
		return errorJSON(e, http.StatusNotFound, "activity not found")
	}

	candidates, err := api.Planner.Alternatives(e.Request.Context(), planner.AlternativesRequest{
		Disruption:  req.Disruption,
		Activity:    activity,
		Preferences: trips.UserPreferences(e.App, e.Auth.Id),
		Destination: trip.Destination,
	})
	if err != nil {
		e.App.Logger().Error("ActivityAlternatives generation error", "error", err, "tripId", trip.ID, "activityId", activity.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to generate alternatives")
	}

	alert, err := schedule.NewAlert(trip.ID, activity.ID, alertType, severity, req.Disruption, candidates)
	if err != nil {
		return errorJSON(e, http.StatusBadRequest, err.Error())
	}
	stored, err := trips.CreateAlert(e.App, alert)
	if err != nil {
		e.App.Logger().Error("ActivityAlternatives save error", "error", err, "tripId", trip.ID, "activityId", activity.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the alert")
	}
	return e.JSON(http.StatusCreated, stored)
}

func (api *API) ListAlerts(e *core.RequestEvent) error {
	trip := currentTrip(e)
	alerts, err := trips.ActiveAlerts(e.App, trip.ID)
	if err != nil {
		e.App.Logger().Error("ListAlerts load error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load alerts")
	}
	return e.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}

func (api *API) ResolveAlert(e *core.RequestEvent) error {
	trip := currentTrip(e)
	alert, err := trips.ResolveAlert(e.App, trip.ID, e.Request.PathValue("alertId"), api.now())
	if err != nil {
		if errors.Is(err, trips.ErrNotFound) {
			return errorJSON(e, http.StatusNotFound, "alert not found")
		}
		e.App.Logger().Error("ResolveAlert save error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to resolve the alert")
	}
	return e.JSON(http.StatusOK, alert)
}
