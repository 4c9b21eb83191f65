package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"travelbuddy/provider"
	"travelbuddy/schedule"
)

type fakeProvider struct {
	text string
	err  error
	last provider.Request
}

func (f *fakeProvider) Generate(ctx context.Context, req provider.Request) (string, error) {
	f.last = req
	return f.text, f.err
}

func history(n int) []schedule.Message {
	msgs := make([]schedule.Message, n)
	for i := range msgs {
		role := schedule.RoleUser
		if i%2 == 1 {
			role = schedule.RoleAssistant
		}
		msgs[i] = schedule.Message{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}
	return msgs
}

func summary() TripSummary {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return TripSummary{
		Destination: "Lisbon",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 2),
		Status:      schedule.TripInProgress,
		CurrentDate: start.AddDate(0, 0, 1),
	}
}

func TestBuildWindowBounds(t *testing.T) {
	cases := []struct {
		name       string
		history    int
		wantPrior  int
		firstPrior string
	}{
		{"empty", 0, 0, ""},
		{"short", 4, 4, "turn 0"},
		{"exact", 10, 10, "turn 0"},
		{"long", 25, 10, "turn 15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			window := BuildWindow(summary(), schedule.Preferences{}, history(tc.history), "what now?")
			if got := len(window) - 3; got != tc.wantPrior {
				t.Fatalf("expected %d prior turns, got %d", tc.wantPrior, got)
			}
			if window[0].Role != "system" || window[0].Content != Persona {
				t.Error("expected persona first")
			}
			if window[1].Role != "system" || !strings.Contains(window[1].Content, "Lisbon") {
				t.Error("expected trip context second")
			}
			last := window[len(window)-1]
			if last.Role != "user" || last.Content != "what now?" {
				t.Errorf("expected new message last, got %+v", last)
			}
			if tc.wantPrior > 0 && window[2].Content != tc.firstPrior {
				t.Errorf("expected %q first, got %q", tc.firstPrior, window[2].Content)
			}
			for i := 3; i < len(window)-1; i++ {
				var prev, cur int
				fmt.Sscanf(window[i-1].Content, "turn %d", &prev)
				fmt.Sscanf(window[i].Content, "turn %d", &cur)
				if cur <= prev {
					t.Errorf("history out of order at %d", i)
				}
			}
		})
	}
}

func TestBuildWindowSkipsSystemAndEmptyTurns(t *testing.T) {
	h := []schedule.Message{
		{Role: schedule.RoleSystem, Content: "itinerary regenerated"},
		{Role: schedule.RoleUser, Content: "hi"},
		{Role: schedule.RoleAssistant, Content: "   "},
		{Role: schedule.RoleAssistant, Content: "hello!"},
	}
	window := BuildWindow(summary(), schedule.Preferences{}, h, "next")
	if len(window) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(window))
	}
	if window[2].Content != "hi" || window[3].Content != "hello!" {
		t.Errorf("unexpected turns %+v", window[2:4])
	}
}

func TestContextPrompt(t *testing.T) {
	s := summary()
	day := s.StartDate
	s.Days = []schedule.Day{{
		Index: 1, Date: day,
		Activities: []schedule.Activity{{Title: "Breakfast", StartTime: schedule.At(day, 8, 0)}},
	}}
	now := time.Now()
	s.ActiveAlerts = []schedule.Alert{
		{Type: schedule.AlertWeather, Severity: schedule.SeverityWarning, Message: "Heavy rain"},
	}
	prefs := schedule.Preferences{Interests: []string{"food"}, BudgetPerDay: new(float64), TravelStyle: "PACKED"}
	*prefs.BudgetPerDay = 120

	got := contextPrompt(s, prefs)
	for _, want := range []string{
		"Destination: Lisbon",
		"Current date: 2025-06-02",
		"Trip status: in_progress",
		"Interests: food",
		"Budget: $120/day",
		"Travel style: packed",
		"Day 1 (2025-06-01): 08:00 Breakfast",
		"[warning/weather] Heavy rain",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}

	resolved := Summarize(schedule.Trip{Destination: "Lisbon"}, nil, []schedule.Alert{
		{Message: "old", ResolvedAt: &now},
	}, now)
	if len(resolved.ActiveAlerts) != 0 {
		t.Error("expected resolved alerts to be left out")
	}
}

func TestReply(t *testing.T) {
	fake := &fakeProvider{text: "Try the Tile Museum."}
	a := New(fake, 4, nil)

	reply := a.Reply(context.Background(), summary(), schedule.Preferences{}, history(9), "rainy, ideas?")
	if reply.Content != "Try the Tile Museum." || reply.Degraded {
		t.Errorf("unexpected reply %+v", reply)
	}
	if reply.Actions == nil {
		t.Error("expected an empty, non-nil action list")
	}
	if n := len(fake.last.Messages); n != 4+3 {
		t.Errorf("expected configured limit of 4 prior turns, got %d messages", n)
	}
	if fake.last.Shape != provider.ShapeText {
		t.Error("expected text shape")
	}
}

func TestReplyCapsConfiguredLimit(t *testing.T) {
	fake := &fakeProvider{text: "ok"}
	New(fake, 40, nil).Reply(context.Background(), summary(), schedule.Preferences{}, history(30), "anything else?")

	if n := len(fake.last.Messages); n != DefaultHistoryLimit+3 {
		t.Errorf("expected at most %d prior turns, got %d messages", DefaultHistoryLimit, n)
	}
	if got := fake.last.Messages[2].Content; got != "turn 20" {
		t.Errorf("expected the oldest kept turn to be turn 20, got %q", got)
	}
}

func TestReplyDegrades(t *testing.T) {
	cases := []struct {
		name string
		p    provider.Provider
	}{
		{"no provider", nil},
		{"unavailable", &fakeProvider{err: provider.ErrUnavailable}},
		{"provider error", &fakeProvider{err: &provider.Error{StatusCode: 500, Err: errors.New("boom")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := New(tc.p, 0, nil).Reply(context.Background(), summary(), schedule.Preferences{}, nil, "hello")
			if reply.Content != Apology || !reply.Degraded {
				t.Errorf("expected apology, got %+v", reply)
			}
			if reply.Actions == nil || len(reply.Actions) != 0 {
				t.Errorf("expected empty actions, got %v", reply.Actions)
			}
		})
	}
}
