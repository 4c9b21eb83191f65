// Package planner turns trip parameters into validated day-by-day itineraries
// and ranks replacement activities when a planned one is disrupted.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"travelbuddy/provider"
	"travelbuddy/schedule"
)

const DefaultBudgetPerDay = 100.0

// Request carries the parameters of one itinerary generation.
type Request struct {
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Preferences schedule.Preferences
	Budget      *float64
	Constraints string
	// Origin anchors the offline template; DefaultOrigin when nil.
	Origin *Coordinates
	// Location is the destination timezone; UTC when nil.
	Location *time.Location
}

func (r Request) trip() (schedule.Trip, error) {
	loc := lo.Ternary(r.Location == nil, time.UTC, r.Location)
	start := time.Date(r.StartDate.Year(), r.StartDate.Month(), r.StartDate.Day(), 0, 0, 0, 0, loc)
	end := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, loc)
	return schedule.NewTrip(r.Destination, start, end, r.Budget)
}

func (r Request) origin() Coordinates {
	if r.Origin == nil {
		return DefaultOrigin
	}
	return *r.Origin
}

// Generator builds itineraries and alternatives from a live provider and
// falls back to the offline template when the provider or its output fails.
type Generator struct {
	live          provider.Provider
	offline       provider.Provider
	policy        RepairPolicy
	defaultBudget float64
	logger        *slog.Logger
}

type Option func(*Generator)

func WithRepairPolicy(p RepairPolicy) Option {
	return func(g *Generator) { g.policy = p }
}

func WithDefaultBudget(perDay float64) Option {
	return func(g *Generator) {
		if schedule.ValidCost(perDay) {
			g.defaultBudget = perDay
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a generator. live may be nil, in which case every request is
// answered offline.
func New(live provider.Provider, opts ...Option) *Generator {
	g := &Generator{
		live:          live,
		offline:       provider.Offline{},
		policy:        DefaultRepairPolicy,
		defaultBudget: DefaultBudgetPerDay,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) budgetPerDay(req Request, numDays int) float64 {
	if req.Budget != nil {
		return *req.Budget / float64(numDays)
	}
	if b := req.Preferences.BudgetPerDay; b != nil && schedule.ValidCost(*b) {
		return *b
	}
	return g.defaultBudget
}

// Plan generates a complete itinerary with exactly one day per date of the
// requested range. Only invalid caller input is reported as an error.
func (g *Generator) Plan(ctx context.Context, req Request) (schedule.Plan, error) {
	trip, err := req.trip()
	if err != nil {
		return schedule.Plan{}, err
	}
	origin := req.origin()

	pr := provider.Prompt(SystemPrompt, planPrompt(req, trip, g.budgetPerDay(req, trip.NumDays())), provider.ShapeJSON)
	pr.Offline = func() (string, error) { return renderFallbackPlan(trip, origin) }

	if g.live != nil {
		raw, err := g.live.Generate(ctx, pr)
		if errors.Is(err, context.Canceled) {
			return schedule.Plan{}, err
		}
		if err == nil {
			var plan schedule.Plan
			var report Report
			if plan, report, err = ParsePlan(raw, trip, g.policy); err == nil {
				if plan, err = g.complete(plan, trip, origin); err == nil {
					g.logger.Debug("Itinerary repaired", "destination", trip.Destination,
						"dropped", len(report.Dropped), "repaired", len(report.Repaired))
					return plan, nil
				}
			}
		}
		g.logger.Warn("Itinerary generation fell back to the offline template", "error", err, "destination", trip.Destination)
	}

	raw, err := g.offline.Generate(ctx, pr)
	if err != nil {
		return schedule.Plan{}, fmt.Errorf("offline itinerary: %w", err)
	}
	plan, _, err := ParsePlan(raw, trip, g.policy)
	if err != nil {
		return schedule.Plan{}, fmt.Errorf("offline itinerary: %w", err)
	}
	plan.Fallback = true
	return plan, nil
}

// complete orders a repaired plan by date, keeps the first day per date,
// fills uncovered dates from the offline template and re-indexes 1..N.
func (g *Generator) complete(plan schedule.Plan, trip schedule.Trip, origin Coordinates) (schedule.Plan, error) {
	days := lo.UniqBy(plan.Days, func(d schedule.Day) string { return d.Date.Format(schedule.DateLayout) })

	covered := lo.SliceToMap(days, func(d schedule.Day) (string, bool) { return d.Date.Format(schedule.DateLayout), true })
	start := schedule.Midnight(trip.StartDate, trip.StartDate.Location())
	var missing []wireDay
	for i := 0; i < trip.NumDays(); i++ {
		date := schedule.AddDays(start, i)
		if !covered[date.Format(schedule.DateLayout)] {
			missing = append(missing, fallbackDay(trip.Destination, origin, date, i))
		}
	}
	if len(missing) > 0 {
		filled, _, err := ParsePlan(mustJSON(wirePlan{Days: missing}), trip, g.policy)
		if err != nil {
			return schedule.Plan{}, fmt.Errorf("offline itinerary: %w", err)
		}
		g.logger.Warn("Itinerary missed dates, filled from the offline template", "destination", trip.Destination, "missing", len(missing))
		days = append(days, filled.Days...)
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	for i := range days {
		days[i].Index = i + 1
	}
	if err := schedule.ValidatePlan(trip, days); err != nil {
		return schedule.Plan{}, err
	}
	return schedule.Plan{Days: days, FilledDays: len(missing)}, nil
}
