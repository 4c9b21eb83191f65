// Package config reads the planner settings from the environment and lets
// command line flags override them.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"travelbuddy/assistant"
	"travelbuddy/planner"
	"travelbuddy/provider"
)

type Config struct {
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	ProviderTimeout     time.Duration
	HistoryLimit        int
	DateTolerance       int
	CoerceCategories    bool
	DefaultBudgetPerDay float64
}

func Default() Config {
	return Config{
		OpenAIModel:         provider.DefaultModel,
		ProviderTimeout:     provider.MaxTimeout,
		HistoryLimit:        assistant.DefaultHistoryLimit,
		DateTolerance:       planner.DefaultRepairPolicy.DateTolerance,
		CoerceCategories:    planner.DefaultRepairPolicy.CoerceUnknownCategory,
		DefaultBudgetPerDay: planner.DefaultBudgetPerDay,
	}
}

// FromEnv starts from Default and applies any set environment variables.
// Malformed values are ignored.
func FromEnv() Config {
	c := Default()
	c.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		c.OpenAIModel = v
	}
	c.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if d, err := time.ParseDuration(os.Getenv("PROVIDER_TIMEOUT")); err == nil {
		c.ProviderTimeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("CHAT_HISTORY_LIMIT")); err == nil {
		c.HistoryLimit = n
	}
	if n, err := strconv.Atoi(os.Getenv("PLAN_DATE_TOLERANCE_DAYS")); err == nil {
		c.DateTolerance = n
	}
	if b, err := strconv.ParseBool(os.Getenv("PLAN_COERCE_CATEGORIES")); err == nil {
		c.CoerceCategories = b
	}
	if f, err := strconv.ParseFloat(os.Getenv("DEFAULT_BUDGET_PER_DAY"), 64); err == nil {
		c.DefaultBudgetPerDay = f
	}
	return c
}

// BindFlags registers overrides for c on fs, using c's current values as
// defaults. The API key is only read from the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.OpenAIModel, "openai-model", c.OpenAIModel, "model used for itinerary and chat generation")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", c.OpenAIBaseURL, "override the OpenAI API base URL")
	fs.DurationVar(&c.ProviderTimeout, "provider-timeout", c.ProviderTimeout, "timeout for one generation call (max 15s)")
	fs.IntVar(&c.HistoryLimit, "chat-history", c.HistoryLimit, "prior chat turns sent to the assistant (max 10)")
	fs.IntVar(&c.DateTolerance, "date-tolerance", c.DateTolerance, "days outside the trip a generated day may be clamped from")
	fs.BoolVar(&c.CoerceCategories, "coerce-categories", c.CoerceCategories, "map unknown activity categories to other instead of dropping them")
	fs.Float64Var(&c.DefaultBudgetPerDay, "default-budget", c.DefaultBudgetPerDay, "per-day budget used when neither trip nor traveller sets one")
}

// Normalize clamps every setting into its valid range.
func (c Config) Normalize() Config {
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = provider.MaxTimeout
	}
	c.ProviderTimeout = lo.Clamp(c.ProviderTimeout, time.Second, provider.MaxTimeout)
	c.HistoryLimit = lo.Clamp(c.HistoryLimit, 1, assistant.DefaultHistoryLimit)
	c.DateTolerance = max(c.DateTolerance, 0)
	if c.DefaultBudgetPerDay < 0 {
		c.DefaultBudgetPerDay = planner.DefaultBudgetPerDay
	}
	c.OpenAIModel = lo.Ternary(c.OpenAIModel == "", provider.DefaultModel, c.OpenAIModel)
	return c
}

func (c Config) RepairPolicy() planner.RepairPolicy {
	return planner.RepairPolicy{DateTolerance: c.DateTolerance, CoerceUnknownCategory: c.CoerceCategories}
}

// Provider builds the live provider; it is unconfigured when no key is set.
func (c Config) Provider() *provider.OpenAI {
	return provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:  c.OpenAIAPIKey,
		Model:   c.OpenAIModel,
		BaseURL: c.OpenAIBaseURL,
		Timeout: c.ProviderTimeout,
	})
}
