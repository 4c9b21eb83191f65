package trips

import (
	"slices"
	"sort"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"travelbuddy/schedule"
)

// LoadItinerary returns the stored days of trip ordered by index, each with
// its activities ordered by start time.
func LoadItinerary(app core.App, trip schedule.Trip) ([]schedule.Day, error) {
	dayRecords, err := app.FindRecordsByFilter(DaysCollection, "trip = {:trip}", "day_index", 0, 0,
		dbx.Params{"trip": trip.ID})
	if err != nil {
		return nil, err
	}
	activityRecords, err := app.FindAllRecords(ActivitiesCollection, dbx.HashExp{"trip": trip.ID})
	if err != nil {
		return nil, err
	}

	loc := trip.Location()
	byDay := lo.GroupBy(activityRecords, func(r *core.Record) string { return r.GetString("day") })

	days := make([]schedule.Day, 0, len(dayRecords))
	for _, dr := range dayRecords {
		activities := lo.Map(byDay[dr.Id], func(r *core.Record, _ int) schedule.Activity {
			return ActivityFromRecord(r, loc)
		})
		sort.SliceStable(activities, func(i, j int) bool {
			return activities[i].StartTime.Before(activities[j].StartTime)
		})
		days = append(days, schedule.Day{
			ID:         dr.Id,
			Date:       schedule.Midnight(timeIn(dr, "date", loc), loc),
			Index:      dr.GetInt("day_index"),
			Notes:      dr.GetString("notes"),
			Activities: activities,
		})
	}
	return days, nil
}

// ReplaceItinerary swaps the stored itinerary of trip for plan in one
// transaction and returns the saved days with their ids. Activities of the
// previous itinerary are removed with their days.
func ReplaceItinerary(app core.App, trip schedule.Trip, plan schedule.Plan) ([]schedule.Day, error) {
	if err := schedule.ValidatePlan(trip, plan.Days); err != nil {
		return nil, err
	}

	saved := make([]schedule.Day, 0, len(plan.Days))
	err := app.RunInTransaction(func(txApp core.App) error {
		old, err := txApp.FindAllRecords(DaysCollection, dbx.HashExp{"trip": trip.ID})
		if err != nil {
			return err
		}
		for _, r := range old {
			if err := txApp.Delete(r); err != nil {
				return err
			}
		}

		daysCollection, err := txApp.FindCollectionByNameOrId(DaysCollection)
		if err != nil {
			return err
		}
		activitiesCollection, err := txApp.FindCollectionByNameOrId(ActivitiesCollection)
		if err != nil {
			return err
		}

		for _, d := range plan.Days {
			dr := core.NewRecord(daysCollection)
			dr.Set("trip", trip.ID)
			dr.Set("date", d.Date.UTC())
			dr.Set("day_index", d.Index)
			dr.Set("notes", d.Notes)
			if err := txApp.Save(dr); err != nil {
				return err
			}

			d.ID = dr.Id
			d.Activities = slices.Clone(d.Activities)
			for i, a := range d.Activities {
				ar := activityRecord(activitiesCollection, trip.ID, dr.Id, a)
				if err := txApp.Save(ar); err != nil {
					return err
				}
				d.Activities[i].ID = ar.Id
			}
			saved = append(saved, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
