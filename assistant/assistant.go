// Package assistant keeps the trip chat grounded: it builds a bounded prompt
// window from the trip summary, preferences and recent turns, and always
// produces a reply even when the backend is down.
package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"travelbuddy/provider"
	"travelbuddy/schedule"
)

const (
	DefaultHistoryLimit = 10
	maxDigestDays       = 7
)

const Persona = "You are a friendly AI travel companion. Use the trip context to answer questions, " +
	"reference the actual plan and offer alternatives when something does not fit. " +
	"Give specific, actionable advice, stay culturally sensitive and safety-conscious, and keep answers concise."

const Apology = "I apologize, but I'm having trouble processing your request right now. Please try again."

// TripSummary is the trip state shown to the assistant.
type TripSummary struct {
	Destination  string
	StartDate    time.Time
	EndDate      time.Time
	Status       schedule.TripStatus
	CurrentDate  time.Time
	Days         []schedule.Day
	ActiveAlerts []schedule.Alert
}

func Summarize(trip schedule.Trip, days []schedule.Day, alerts []schedule.Alert, now time.Time) TripSummary {
	return TripSummary{
		Destination:  trip.Destination,
		StartDate:    trip.StartDate,
		EndDate:      trip.EndDate,
		Status:       trip.Status,
		CurrentDate:  now,
		Days:         days,
		ActiveAlerts: lo.Filter(alerts, func(a schedule.Alert, _ int) bool { return a.Active() }),
	}
}

// Action is a follow-up the client may offer alongside a reply.
type Action struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

type Reply struct {
	Content  string   `json:"content"`
	Actions  []Action `json:"actions"`
	Degraded bool     `json:"degraded"`
}

type Assistant struct {
	provider provider.Provider
	limit    int
	logger   *slog.Logger
}

// New returns an assistant. p may be nil, in which case every reply is the
// apology. historyLimit is capped at DefaultHistoryLimit.
func New(p provider.Provider, historyLimit int, logger *slog.Logger) *Assistant {
	if historyLimit <= 0 || historyLimit > DefaultHistoryLimit {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assistant{provider: p, limit: historyLimit, logger: logger}
}

// BuildWindow returns the persona turn, the context turn, the last
// DefaultHistoryLimit user/assistant turns of history in order, and the new
// user message.
func BuildWindow(summary TripSummary, prefs schedule.Preferences, history []schedule.Message, newMessage string) []provider.Message {
	return buildWindow(summary, prefs, history, newMessage, DefaultHistoryLimit)
}

func buildWindow(summary TripSummary, prefs schedule.Preferences, history []schedule.Message, newMessage string, limit int) []provider.Message {
	turns := lo.Filter(history, func(m schedule.Message, _ int) bool {
		return (m.Role == schedule.RoleUser || m.Role == schedule.RoleAssistant) && strings.TrimSpace(m.Content) != ""
	})
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	window := make([]provider.Message, 0, len(turns)+3)
	window = append(window,
		provider.Message{Role: string(schedule.RoleSystem), Content: Persona},
		provider.Message{Role: string(schedule.RoleSystem), Content: contextPrompt(summary, prefs)},
	)
	for _, m := range turns {
		window = append(window, provider.Message{Role: string(m.Role), Content: m.Content})
	}
	return append(window, provider.Message{Role: string(schedule.RoleUser), Content: newMessage})
}

func contextPrompt(s TripSummary, prefs schedule.Preferences) string {
	var b strings.Builder
	b.WriteString("Current trip context:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", lo.Ternary(s.Destination == "", "unknown", s.Destination))
	if !s.StartDate.IsZero() {
		fmt.Fprintf(&b, "- Dates: %s to %s\n", s.StartDate.Format(schedule.DateLayout), s.EndDate.Format(schedule.DateLayout))
	}
	if !s.CurrentDate.IsZero() {
		fmt.Fprintf(&b, "- Current date: %s\n", s.CurrentDate.Format(schedule.DateLayout))
	}
	fmt.Fprintf(&b, "- Trip status: %s\n", lo.Ternary(s.Status == "", schedule.TripPlanning, s.Status))

	b.WriteString("\nTraveller preferences:\n")
	fmt.Fprintf(&b, "- Interests: %s\n", lo.Ternary(len(prefs.Interests) == 0, "not specified", strings.Join(prefs.Interests, ", ")))
	if prefs.BudgetPerDay != nil {
		fmt.Fprintf(&b, "- Budget: $%.0f/day\n", *prefs.BudgetPerDay)
	}
	fmt.Fprintf(&b, "- Travel style: %s\n", prefs.Style())
	if len(prefs.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "- Dietary restrictions: %s\n", strings.Join(prefs.DietaryRestrictions, ", "))
	}

	if len(s.Days) > 0 {
		b.WriteString("\nItinerary:\n")
		for _, d := range lo.Slice(s.Days, 0, maxDigestDays) {
			titles := lo.Map(d.Activities, func(a schedule.Activity, _ int) string {
				return a.StartTime.Format("15:04") + " " + a.Title
			})
			fmt.Fprintf(&b, "- Day %d (%s): %s\n", d.Index, d.Date.Format(schedule.DateLayout), strings.Join(titles, "; "))
		}
		if extra := len(s.Days) - maxDigestDays; extra > 0 {
			fmt.Fprintf(&b, "- ... %d more days\n", extra)
		}
	}

	if len(s.ActiveAlerts) > 0 {
		b.WriteString("\nActive alerts:\n")
		for _, a := range s.ActiveAlerts {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", a.Severity, a.Type, a.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reply answers newMessage. Provider failures are logged and answered with
// the fixed apology.
func (a *Assistant) Reply(ctx context.Context, summary TripSummary, prefs schedule.Preferences, history []schedule.Message, newMessage string) Reply {
	degraded := Reply{Content: Apology, Actions: []Action{}, Degraded: true}
	if a.provider == nil {
		return degraded
	}

	window := buildWindow(summary, prefs, history, newMessage, a.limit)
	text, err := a.provider.Generate(ctx, provider.Request{Messages: window, Shape: provider.ShapeText})
	if err != nil {
		a.logger.Warn("Assistant reply failed", "error", err, "destination", summary.Destination)
		return degraded
	}
	return Reply{Content: text, Actions: []Action{}}
}
