package planner

import (
	"context"
	"errors"
	"fmt"

	"travelbuddy/provider"
	"travelbuddy/schedule"
)

// CandidateCount is how many alternatives are requested per disruption.
const CandidateCount = 3

type AlternativesRequest struct {
	Disruption  string
	Activity    schedule.Activity
	Preferences schedule.Preferences
	Destination string
}

// normalizeOriginal maps an unknown category to other and gives an unusable
// time window the default 10:00-12:00 slot on the activity's own date, so
// the offline candidates always validate.
func normalizeOriginal(a schedule.Activity) schedule.Activity {
	if c, ok := schedule.ParseCategory(string(a.Category)); ok {
		a.Category = c
	} else {
		a.Category = schedule.CategoryOther
	}
	if a.EndTime.After(a.StartTime) && schedule.SameDate(a.StartTime, a.EndTime) {
		return a
	}
	date := a.StartTime
	if date.IsZero() {
		date = a.EndTime
	}
	a.StartTime = schedule.At(date, 10, 0)
	a.EndTime = schedule.At(date, 12, 0)
	return a
}

// Alternatives returns replacement candidates for a disrupted activity,
// best fit first. The offline rule always yields exactly CandidateCount.
func (g *Generator) Alternatives(ctx context.Context, req AlternativesRequest) ([]schedule.Candidate, error) {
	req.Activity = normalizeOriginal(req.Activity)

	pr := provider.Prompt(SystemPrompt, alternativesPrompt(req), provider.ShapeJSON)
	original := req.Activity
	pr.Offline = func() (string, error) { return renderFallbackAlternatives(original) }

	if g.live != nil {
		raw, err := g.live.Generate(ctx, pr)
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if err == nil {
			var candidates []schedule.Candidate
			if candidates, _, err = ParseAlternatives(raw, original, CandidateCount, g.policy); err == nil {
				return candidates, nil
			}
		}
		g.logger.Warn("Alternatives fell back to the offline rule", "error", err,
			"destination", req.Destination, "activity", original.Title)
	}

	raw, err := g.offline.Generate(ctx, pr)
	if err != nil {
		return nil, fmt.Errorf("offline alternatives: %w", err)
	}
	candidates, _, err := ParseAlternatives(raw, original, CandidateCount, g.policy)
	if err != nil {
		return nil, fmt.Errorf("offline alternatives: %w", err)
	}
	return candidates, nil
}
