package main

import (
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/spf13/cobra"

	"travelbuddy/assistant"
	"travelbuddy/config"
	"travelbuddy/geo"
	_ "travelbuddy/migrations"
	"travelbuddy/planner"
	"travelbuddy/provider"
	"travelbuddy/routes"
	"travelbuddy/schedule"
)

func main() {
	app := pocketbase.New()

	cfg := config.FromEnv()
	cfg.BindFlags(app.RootCmd.PersistentFlags())

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{})
	app.RootCmd.AddCommand(planCommand(&cfg))

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		c := cfg.Normalize()
		logger := se.App.Logger()
		live := liveProvider(c)
		if live == nil {
			logger.Warn("OPENAI_API_KEY is not configured, itineraries come from the offline template")
		}

		api := &routes.API{
			Planner:      newGenerator(c, live, logger),
			Assistant:    assistant.New(live, c.HistoryLimit, logger),
			Geo:          geo.New(logger),
			HistoryLimit: c.HistoryLimit,
		}
		api.Register(se)
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// liveProvider returns nil when no API key is configured so callers go
// straight to their offline paths.
func liveProvider(c config.Config) provider.Provider {
	p := c.Provider()
	if !p.Configured() {
		return nil
	}
	return p
}

func newGenerator(c config.Config, live provider.Provider, logger *slog.Logger) *planner.Generator {
	return planner.New(live,
		planner.WithRepairPolicy(c.RepairPolicy()),
		planner.WithDefaultBudget(c.DefaultBudgetPerDay),
		planner.WithLogger(logger),
	)
}

func planCommand(cfg *config.Config) *cobra.Command {
	var (
		destination string
		start       string
		end         string
		style       string
		constraints string
		interests   []string
		budget      float64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an itinerary and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg.Normalize()
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			startDate, err := time.Parse(schedule.DateLayout, start)
			if err != nil {
				return err
			}
			endDate, err := time.Parse(schedule.DateLayout, end)
			if err != nil {
				return err
			}

			req := planner.Request{
				Destination: destination,
				StartDate:   startDate,
				EndDate:     endDate,
				Constraints: constraints,
				Preferences: schedule.Preferences{TravelStyle: schedule.Style(style), Interests: interests},
			}
			if cmd.Flags().Changed("budget") {
				req.Budget = &budget
			}
			if place, ok := geo.New(logger).Geocode(cmd.Context(), destination); ok {
				req.Origin = &planner.Coordinates{Lat: place.Latitude, Lng: place.Longitude}
				if loc, err := time.LoadLocation(place.Timezone); err == nil && place.Timezone != "" {
					req.Location = loc
				}
			}

			plan, err := newGenerator(c, liveProvider(c), logger).Plan(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}

	cmd.Flags().StringVar(&destination, "destination", "", "trip destination")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().Float64Var(&budget, "budget", 0, "total trip budget")
	cmd.Flags().StringVar(&style, "style", string(schedule.StyleBalanced), "travel style: chilled, balanced or packed")
	cmd.Flags().StringSliceVar(&interests, "interests", nil, "comma separated interests")
	cmd.Flags().StringVar(&constraints, "constraints", "", "free-text constraints")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
