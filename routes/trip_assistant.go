package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"travelbuddy/assistant"
	"travelbuddy/schedule"
	"travelbuddy/trips"
)

const (
	defaultMessagesLimit = 50
	maxMessagesLimit     = 200
)

type tripAssistantRequest struct {
	Message string `json:"message"`
}

type tripAssistantResponse struct {
	Message  schedule.Message   `json:"message"`
	Actions  []assistant.Action `json:"actions"`
	Degraded bool               `json:"degraded"`
}

// TripAssistant answers one chat turn about the trip. Both turns are stored;
// when the model is unavailable the stored reply is the apology.
func (api *API) TripAssistant(e *core.RequestEvent) error {
	var req tripAssistantRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "invalid request body")
	}
	userMessage, err := schedule.NewMessage(schedule.RoleUser, strings.TrimSpace(req.Message), nil)
	if err != nil {
		return errorJSON(e, http.StatusBadRequest, "message is required")
	}

	trip := currentTrip(e)
	limit := lo.Ternary(api.HistoryLimit > 0, min(api.HistoryLimit, assistant.DefaultHistoryLimit), assistant.DefaultHistoryLimit)
	history, err := trips.History(e.App, trip.ID, limit)
	if err != nil {
		e.App.Logger().Error("TripAssistant history error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the conversation")
	}
	days, err := trips.LoadItinerary(e.App, trip)
	if err != nil {
		e.App.Logger().Error("TripAssistant build context error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the latest trip context")
	}
	alerts, err := trips.ActiveAlerts(e.App, trip.ID)
	if err != nil {
		e.App.Logger().Error("TripAssistant build context error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the latest trip context")
	}

	if _, err := trips.AppendMessage(e.App, trip.ID, e.Auth.Id, userMessage); err != nil {
		e.App.Logger().Error("TripAssistant save error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the message")
	}

	summary := assistant.Summarize(trip, days, alerts, api.now())
	prefs := trips.UserPreferences(e.App, e.Auth.Id)
	reply := api.Assistant.Reply(e.Request.Context(), summary, prefs, history, userMessage.Content)
	if reply.Degraded {
		e.App.Logger().Warn("TripAssistant answered with the apology", "tripId", trip.ID)
	}

	assistantMessage, err := schedule.NewMessage(schedule.RoleAssistant, reply.Content, map[string]any{
		"actions":  reply.Actions,
		"degraded": reply.Degraded,
	})
	if err != nil {
		return err
	}
	stored, err := trips.AppendMessage(e.App, trip.ID, "", assistantMessage)
	if err != nil {
		e.App.Logger().Error("TripAssistant save error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to save the reply")
	}

	return e.JSON(http.StatusOK, tripAssistantResponse{
		Message:  stored,
		Actions:  reply.Actions,
		Degraded: reply.Degraded,
	})
}

// ListMessages returns the latest chat messages of the trip, oldest first.
func (api *API) ListMessages(e *core.RequestEvent) error {
	limit := defaultMessagesLimit
	if raw := e.Request.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return errorJSON(e, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = lo.Min([]int{n, maxMessagesLimit})
	}

	trip := currentTrip(e)
	messages, err := trips.History(e.App, trip.ID, limit)
	if err != nil {
		e.App.Logger().Error("ListMessages load error", "error", err, "tripId", trip.ID)
		return errorJSON(e, http.StatusInternalServerError, "unable to load the conversation")
	}
	return e.JSON(http.StatusOK, map[string]any{"messages": messages})
}
