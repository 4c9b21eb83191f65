// Package schedule holds the trip, day, activity, alert and message types
// shared by the planner, the assistant and the persistence layer.
package schedule

import (
	"strings"
	"time"
)

type TripStatus string

const (
	TripPlanning   TripStatus = "planning"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

var TripStatuses = []TripStatus{TripPlanning, TripInProgress, TripCompleted, TripCancelled}

type Category string

const (
	CategoryFood          Category = "food"
	CategoryMuseum        Category = "museum"
	CategorySightseeing   Category = "sightseeing"
	CategoryShopping      Category = "shopping"
	CategoryNightlife     Category = "nightlife"
	CategoryOutdoor       Category = "outdoor"
	CategoryCultural      Category = "cultural"
	CategoryRelaxation    Category = "relaxation"
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryFood,
	CategoryMuseum,
	CategorySightseeing,
	CategoryShopping,
	CategoryNightlife,
	CategoryOutdoor,
	CategoryCultural,
	CategoryRelaxation,
	CategoryTransport,
	CategoryAccommodation,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Source string

const (
	SourceAI       Source = "ai"
	SourceUser     Source = "user"
	SourceExternal Source = "external"
)

type ActivityStatus string

const (
	ActivityPlanned    ActivityStatus = "planned"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivityCancelled  ActivityStatus = "cancelled"
	ActivitySkipped    ActivityStatus = "skipped"
)

var ActivityStatuses = []ActivityStatus{ActivityPlanned, ActivityInProgress, ActivityCompleted, ActivityCancelled, ActivitySkipped}

type AlertType string

const (
	AlertWeather AlertType = "weather"
	AlertClosure AlertType = "closure"
	AlertSafety  AlertType = "safety"
	AlertTransit AlertType = "transit"
	AlertEvent   AlertType = "event"
	AlertGeneral AlertType = "general"
)

var AlertTypes = []AlertType{AlertWeather, AlertClosure, AlertSafety, AlertTransit, AlertEvent, AlertGeneral}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityCritical}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

var Roles = []Role{RoleUser, RoleAssistant, RoleSystem}

type Style string

const (
	StyleChilled  Style = "chilled"
	StyleBalanced Style = "balanced"
	StylePacked   Style = "packed"
)

var Styles = []Style{StyleChilled, StyleBalanced, StylePacked}

// Trip is a planned journey to one destination over an inclusive date range.
type Trip struct {
	ID          string         `json:"id,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	Destination string         `json:"destination"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Status      TripStatus     `json:"status"`
	TotalBudget *float64       `json:"totalBudget,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NumDays is the inclusive number of calendar days the trip spans.
func (t Trip) NumDays() int {
	return DaysBetween(t.StartDate, t.EndDate) + 1
}

// Location returns the trip timezone recorded in metadata, or UTC.
func (t Trip) Location() *time.Location {
	name, _ := t.Metadata["timezone"].(string)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Day struct {
	ID         string     `json:"id,omitempty"`
	Date       time.Time  `json:"date"`
	Index      int        `json:"index"`
	Notes      string     `json:"notes,omitempty"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	ID           string         `json:"id,omitempty"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Category     Category       `json:"category"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime"`
	Location     string         `json:"location,omitempty"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	CostEstimate *float64       `json:"costEstimate,omitempty"`
	Source       Source         `json:"source"`
	Status       ActivityStatus `json:"status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Tips returns the free-text tip stored in the activity metadata.
func (a Activity) Tips() string {
	s, _ := a.Metadata["tips"].(string)
	return s
}

// Candidate is a ranked replacement for a disrupted activity.
type Candidate struct {
	Activity
	FitScore float64 `json:"fitScore"`
}

type Alert struct {
	ID           string      `json:"id,omitempty"`
	TripID       string      `json:"tripId"`
	ActivityID   string      `json:"activityId,omitempty"`
	Type         AlertType   `json:"type"`
	Severity     Severity    `json:"severity"`
	Message      string      `json:"message"`
	Alternatives []Candidate `json:"alternatives"`
	ResolvedAt   *time.Time  `json:"resolvedAt,omitempty"`
}

// Active reports whether the alert has not been resolved yet.
func (a Alert) Active() bool {
	return a.ResolvedAt == nil
}

type Message struct {
	ID        string         `json:"id,omitempty"`
	TripID    string         `json:"tripId,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Preferences are the traveler settings that shape generation.
type Preferences struct {
	TravelStyle         Style    `json:"travel_style,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	BudgetPerDay        *float64 `json:"budget_per_day,omitempty"`
}

// Style returns the travel style, defaulting to balanced.
func (p Preferences) Style() Style {
	for _, s := range Styles {
		if strings.EqualFold(string(p.TravelStyle), string(s)) {
			return s
		}
	}
	return StyleBalanced
}

// Plan is a complete validated itinerary for a trip's date range.
type Plan struct {
	Days []Day `json:"days"`
	// Fallback is set when the plan came from the offline template.
	Fallback bool `json:"fallback"`
	// FilledDays counts the days of a live plan taken from the offline
	// template because the model left their dates out.
	FilledDays int `json:"filled_days,omitempty"`
}

// ActivityCount is the total number of activities across all days.
func (p Plan) ActivityCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Activities)
	}
	return n
}
