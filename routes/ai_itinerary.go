package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"travelbuddy/planner"
	"travelbuddy/schedule"
	"travelbuddy/trips"
)

type tripRequest struct {
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	TotalBudget *float64 `json:"total_budget"`
}

type tripUpdateRequest struct {
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	Status      *string  `json:"status"`
	TotalBudget *float64 `json:"total_budget"`
}

type generateRequest struct {
	tripRequest
	Interests   []string `json:"interests"`
	TravelStyle string   `json:"travel_style"`
	Constraints string   `json:"constraints"`
}

type itineraryResponse struct {
	Trip       schedule.Trip  `json:"trip"`
	Days       []schedule.Day `json:"days"`
	Fallback   bool           `json:"fallback"`
	FilledDays int            `json:"filled_days"`
}

// decodeBody reads an optional JSON body into v; an empty body is accepted.
func decodeBody(e *core.RequestEvent, v any) error {
	if err := json.NewDecoder(e.Request.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// preferencesFor merges request overrides into the stored user preferences.
func preferencesFor(e *core.RequestEvent, interests []string, style string) (schedule.Preferences, error) {
	prefs := trips.UserPreferences(e.App, e.Auth.Id)
	if len(interests) > 0 {
		prefs.Interests = lo.Compact(lo.Map(interests, func(s string, _ int) string { return strings.TrimSpace(s) }))
	}
	if style != "" {
		s, ok := lo.Find(schedule.Styles, func(s schedule.Style) bool { return strings.EqualFold(string(s), style) })
		if !ok {
			return prefs, errors.New("travel_style must be one of chilled, balanced or packed")
		}
		prefs.TravelStyle = s
	}
	return prefs, nil
}

// newTrip validates the request, geocodes the destination and stores the
// trip. Dates are calendar dates in the destination timezone.
func (api *API) newTrip(e *core.RequestEvent, req tripRequest) (*core.Record, schedule.Trip, error) {
	start, err := parseDate("start_date", req.StartDate, time.UTC)
	if err != nil {
		return nil, schedule.Trip{}, err
	}
	end, err := parseDate("end_date", req.EndDate, time.UTC)
	if err != nil {
		return nil, schedule.Trip{}, err
	}

	metadata := map[string]any{
		"destination_city":    nil,
		"destination_country": nil,
		"coordinates":         nil,
		"timezone":            nil,
	}
	loc := time.UTC
	if place, ok := api.Geo.Geocode(e.Request.Context(), req.Destination); ok {
		metadata["destination_city"] = place.City
		metadata["destination_country"] = place.Country
		metadata["coordinates"] = map[string]any{"lat": place.Latitude, "lng": place.Longitude}
		if l, err := time.LoadLocation(place.Timezone); err == nil && place.Timezone != "" {
			metadata["timezone"] = place.Timezone
			loc = l
		}
	}

	trip, err := schedule.NewTrip(req.Destination,
		time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
		time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc),
		req.TotalBudget)
	if err != nil {
		return nil, schedule.Trip{}, err
	}
	trip.Metadata = metadata
	return trips.CreateTrip(e.App, e.Auth.Id, trip)
}

// parseDate reads a YYYY-MM-DD value as midnight in loc.
func parseDate(field, raw string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(schedule.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &schedule.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

func (api *API) plan(ctx context.Context, trip schedule.Trip, prefs schedule.Preferences, constraints string) (schedule.Plan, error) {
	return api.Planner.Plan(ctx, planner.Request{
		Destination: trip.Destination,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
		Preferences: prefs,
		Budget:      trip.TotalBudget,
		Constraints: constraints,
		Origin:      origin(trip),
		Location:    trip.Location(),
	})
}

func badInput(err error) bool {
	return errors.Is(err, schedule.ErrInvalidDateRange) || errors.Is(err, schedule.ErrDomainValidation)
}

func (api *API) CreateTrip(e *core.RequestEvent) error {
	var req tripRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}

	_, trip, err := api.newTrip(e, req)
	if err != nil {
		if badInput(err) {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}
		e.App.Logger().Error("CreateTrip save error", "error", err, "destination", req.Destination)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the trip")
	}
	return e.JSON(http.StatusCreated, trip)
}

// UpdateTrip changes the dates, budget or status of the trip. Fields missing
// from the body keep their stored values.
func (api *API) UpdateTrip(e *core.RequestEvent) error {
	var req tripUpdateRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}

	record := e.Get("trip").(*core.Record)
	trip := trips.TripFromRecord(record)
	next, err := patchTrip(trip, req)
	if err == nil {
		trip, err = trips.UpdateTrip(e.App, record, next)
	}
	if err != nil {
		if badInput(err) {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}
		e.App.Logger().Error("UpdateTrip save error", "error", err, "tripId", record.Id)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the trip")
	}
	return e.JSON(http.StatusOK, trip)
}

// patchTrip applies req to trip and checks the result like a new trip.
func patchTrip(trip schedule.Trip, req tripUpdateRequest) (schedule.Trip, error) {
	loc := trip.Location()
	start, end := trip.StartDate, trip.EndDate
	var err error
	if req.StartDate != nil {
		if start, err = parseDate("start_date", *req.StartDate, loc); err != nil {
			return schedule.Trip{}, err
		}
	}
	if req.EndDate != nil {
		if end, err = parseDate("end_date", *req.EndDate, loc); err != nil {
			return schedule.Trip{}, err
		}
	}

	next, err := schedule.NewTrip(trip.Destination, start, end, lo.Ternary(req.TotalBudget != nil, req.TotalBudget, trip.TotalBudget))
	if err != nil {
		return schedule.Trip{}, err
	}
	next.ID, next.UserID, next.Metadata = trip.ID, trip.UserID, trip.Metadata
	next.Status = trip.Status
	if req.Status != nil {
		next.Status = schedule.TripStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
	}
	return next, nil
}

// DeleteTrip removes the trip. Its days, activities, alerts and messages go
// with it.
func (api *API) DeleteTrip(e *core.RequestEvent) error {
	record := e.Get("trip").(*core.Record)
	if err := e.App.Delete(record); err != nil {
		e.App.Logger().Error("DeleteTrip error", "error", err, "tripId", record.Id)
		return errorJSON(e, http.StatusInternalServerError, "unable to delete the trip")
	}
	return e.NoContent(http.StatusNoContent)
}

// GenerateTrip creates a trip and its itinerary in one call.
func (api *API) GenerateTrip(e *core.RequestEvent) error {
	var req generateRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}
	prefs, err := preferencesFor(e, req.Interests, req.TravelStyle)
	if err != nil {
		return errorJSON(e, http.StatusBadRequest, err.Error())
	}

	_, trip, err := api.newTrip(e, req.tripRequest)
	if err != nil {
		if badInput(err) {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}
		e.App.Logger().Error("GenerateTrip save error", "error", err, "destination", req.Destination)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the trip")
	}

	resp, err := api.replan(e.Request.Context(), e.App, trip, prefs, req.Constraints)
	if err != nil {
		e.App.Logger().Error("GenerateTrip itinerary error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to generate the itinerary")
	}
	return e.JSON(http.StatusCreated, resp)
}

// RegenerateItinerary replaces every day of the trip with a fresh plan.
func (api *API) RegenerateItinerary(e *core.RequestEvent) error {
	var req struct {
		Interests   []string `json:"interests"`
		TravelStyle string   `json:"travel_style"`
		Constraints string   `json:"constraints"`
	}
	if err := decodeBody(e, &req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}
	prefs, err := preferencesFor(e, req.Interests, req.TravelStyle)
	if err != nil {
		return errorJSON(e, http.StatusBadRequest, err.Error())
	}

	trip := currentTrip(e)
	resp, err := api.replan(e.Request.Context(), e.App, trip, prefs, req.Constraints)
	if err != nil {
		e.App.Logger().Error("RegenerateItinerary error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to generate the itinerary")
	}
	return e.JSON(http.StatusOK, resp)
}

func (api *API) replan(ctx context.Context, app core.App, trip schedule.Trip, prefs schedule.Preferences, constraints string) (itineraryResponse, error) {
	plan, err := api.plan(ctx, trip, prefs, constraints)
	if err != nil {
		return itineraryResponse{}, fmt.Errorf("generate itinerary: %w", err)
	}
	days, err := trips.ReplaceItinerary(app, trip, plan)
	if err != nil {
		return itineraryResponse{}, fmt.Errorf("save itinerary: %w", err)
	}
	switch {
	case plan.Fallback:
		app.Logger().Warn("Itinerary served from the offline template", "tripId", trip.ID,
			"destination", trip.Destination, "activities", plan.ActivityCount())
	case plan.FilledDays > 0:
		app.Logger().Warn("Itinerary partly served from the offline template", "tripId", trip.ID,
			"destination", trip.Destination, "filledDays", plan.FilledDays, "activities", plan.ActivityCount())
	}
	return itineraryResponse{Trip: trip, Days: days, Fallback: plan.Fallback, FilledDays: plan.FilledDays}, nil
}

func (api *API) GetItinerary(e *core.RequestEvent) error {
	trip := currentTrip(e)
	days, err := trips.LoadItinerary(e.App, trip)
	if err != nil {
		e.App.Logger().Error("GetItinerary load error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the itinerary")
	}
	return e.JSON(http.StatusOK, itineraryResponse{Trip: trip, Days: days})
}

func (api *API) GetCalendar(e *core.RequestEvent) error {
	trip := currentTrip(e)
	days, err := trips.LoadItinerary(e.App, trip)
	if err != nil {
		e.App.Logger().Error("GetCalendar load error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the itinerary")
	}

	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.ics"`, trip.ID))
	return e.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(trips.ExportCalendar(trip, days, api.now())))
}
