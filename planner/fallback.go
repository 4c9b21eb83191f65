package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"travelbuddy/schedule"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultOrigin is used by the offline template when the destination could
// not be geocoded.
var DefaultOrigin = Coordinates{Lat: 48.8566, Lng: 2.3522}

const (
	dayOffset           = 0.01
	fallbackNote        = "Offline itinerary"
	nominalCandidateFee = 20.0
)

type templateSlot struct {
	title       string
	description string
	category    schedule.Category
	start, end  string
	place       string
	dLat, dLng  float64
	cost        float64
	tips        string
}

// dayTemplate is the fixed offline day. {dest} and {day} are substituted.
var dayTemplate = []templateSlot{
	{
		title: "Breakfast at Local Café", description: "Start day {day} with a local breakfast",
		category: schedule.CategoryFood, start: "08:00", end: "09:00", place: "{dest} City Center",
		cost: 15, tips: "Try the local pastries!",
	},
	{
		title: "Visit Famous {dest} Museum", description: "Explore the history and culture of the city",
		category: schedule.CategoryMuseum, start: "10:00", end: "13:00", place: "{dest} Museum District",
		dLat: 0.0040, dLng: -0.0146, cost: 25, tips: "Book tickets online to skip the queue",
	},
	{
		title: "Lunch at Traditional Restaurant", description: "Enjoy authentic local cuisine",
		category: schedule.CategoryFood, start: "13:30", end: "15:00", place: "{dest} Old Town",
		dLat: -0.0037, dLng: -0.0023, cost: 30, tips: "Ask for the chef's recommendation",
	},
	{
		title: "Walking Tour of Historic District", description: "Discover hidden corners and local stories",
		category: schedule.CategorySightseeing, start: "15:30", end: "18:00", place: "{dest} Historic Center",
		dLat: 0.0018, dLng: -0.0577, cost: 0, tips: "Comfortable shoes recommended",
	},
	{
		title: "Dinner with Sunset Views", description: "Dinner at a rooftop restaurant",
		category: schedule.CategoryFood, start: "19:00", end: "21:00", place: "{dest} Rooftop District",
		dLat: 0.0172, dLng: -0.0572, cost: 50, tips: "Make a reservation in advance",
	},
}

// wire types mirror the JSON shape requested from the live backend.
type wirePlan struct {
	Days []wireDay `json:"days"`
}

type wireDay struct {
	DayNumber  int            `json:"day_number"`
	Date       string         `json:"date"`
	Notes      string         `json:"notes,omitempty"`
	Activities []wireActivity `json:"activities"`
}

type wireActivity struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	CostEstimate float64  `json:"cost_estimate"`
	Tips         string   `json:"tips,omitempty"`
	FitScore     float64  `json:"fit_score,omitempty"`
}

type wireAlternatives struct {
	Alternatives []wireActivity `json:"alternatives"`
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func fallbackDay(destination string, origin Coordinates, date time.Time, offset int) wireDay {
	r := strings.NewReplacer("{dest}", destination, "{day}", fmt.Sprint(offset+1))
	shift := float64(offset) * dayOffset

	activities := lo.Map(dayTemplate, func(s templateSlot, _ int) wireActivity {
		lat, lng := round4(origin.Lat+s.dLat+shift), round4(origin.Lng+s.dLng+shift)
		return wireActivity{
			Title:        r.Replace(s.title),
			Description:  r.Replace(s.description),
			Category:     string(s.category),
			StartTime:    s.start,
			EndTime:      s.end,
			Location:     r.Replace(s.place),
			Latitude:     &lat,
			Longitude:    &lng,
			CostEstimate: s.cost,
			Tips:         s.tips,
		}
	})

	return wireDay{
		DayNumber:  offset + 1,
		Date:       date.Format(schedule.DateLayout),
		Notes:      fallbackNote,
		Activities: activities,
	}
}

// renderFallbackPlan produces the offline template for every day of trip.
func renderFallbackPlan(trip schedule.Trip, origin Coordinates) (string, error) {
	start := schedule.Midnight(trip.StartDate, trip.StartDate.Location())
	days := make([]wireDay, trip.NumDays())
	for i := range days {
		days[i] = fallbackDay(trip.Destination, origin, schedule.AddDays(start, i), i)
	}
	b, err := json.Marshal(wirePlan{Days: days})
	return string(b), err
}

type candidateVariant struct {
	title       string
	description string
	costFactor  float64
	fit         float64
	dLat, dLng  float64
}

var candidateVariants = []candidateVariant{
	{title: "Alternative Indoor %s Experience", description: "A weather-proof backup option", costFactor: 1.0, fit: 0.9},
	{title: "Nearby %s Venue", description: "Close to the original plan", costFactor: 0.8, fit: 0.85, dLat: 0.0040, dLng: -0.0146},
	{title: "Budget-Friendly %s", description: "A more affordable option", costFactor: 0.5, fit: 0.75, dLat: -0.0037, dLng: -0.0023},
}

// renderFallbackAlternatives keeps the original category and time window and
// scales the cost down for each successive candidate.
func renderFallbackAlternatives(original schedule.Activity) (string, error) {
	category := lo.Ternary(original.Category == "", schedule.CategoryOther, original.Category)
	label := cases.Title(language.English).String(string(category))
	base := lo.FromPtrOr(original.CostEstimate, nominalCandidateFee)

	alternatives := lo.Map(candidateVariants, func(v candidateVariant, i int) wireActivity {
		a := wireActivity{
			Title:        fmt.Sprintf(v.title, label),
			Description:  v.description,
			Category:     string(category),
			StartTime:    original.StartTime.Format("15:04"),
			EndTime:      original.EndTime.Format("15:04"),
			Location:     fmt.Sprintf("Alternative Location %d", i+1),
			CostEstimate: base * v.costFactor,
			FitScore:     v.fit,
		}
		if original.Location != "" {
			a.Location = fmt.Sprintf("Near %s (option %d)", original.Location, i+1)
		}
		if original.Latitude != nil && original.Longitude != nil {
			lat, lng := round4(*original.Latitude+v.dLat), round4(*original.Longitude+v.dLng)
			a.Latitude, a.Longitude = &lat, &lng
		}
		return a
	})

	b, err := json.Marshal(wireAlternatives{Alternatives: alternatives})
	return string(b), err
}
