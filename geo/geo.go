// Package geo stands in for the external geocoding, weather and safety
// services. Lookups never fail: a miss is reported as "not found" and the
// caller stores null fields.
package geo

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"
	"github.com/ringsaturn/tzf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Place struct {
	City             string  `json:"city"`
	Country          string  `json:"country"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
	Timezone         string  `json:"timezone,omitempty"`
}

type Service struct {
	cache  *cache.Cache
	finder tzf.F
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		logger.Warn("Timezone finder unavailable, trips default to UTC", "error", err)
		finder = nil
	}
	return &Service{
		cache:  cache.New(24*time.Hour, time.Hour),
		finder: finder,
		logger: logger,
	}
}

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lower-cases s, strips accents and drops anything after a comma so
// "São Paulo, Brazil" and "sao paulo" share a key.
func foldKey(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Geocode resolves a destination name. The second result is false when the
// destination is unknown.
func (s *Service) Geocode(ctx context.Context, query string) (*Place, bool) {
	key := foldKey(query)
	if key == "" {
		return nil, false
	}
	if v, ok := s.cache.Get(key); ok {
		p, _ := v.(*Place)
		return p, p != nil
	}

	entry, ok := gazetteer[key]
	if !ok {
		s.logger.Debug("Destination not found", "query", query)
		s.cache.Set(key, (*Place)(nil), cache.DefaultExpiration)
		return nil, false
	}

	p := &Place{
		City:             entry.city,
		Country:          entry.country,
		Latitude:         entry.lat,
		Longitude:        entry.lng,
		FormattedAddress: entry.city + ", " + entry.country,
		Timezone:         s.Timezone(entry.lat, entry.lng),
	}
	s.cache.Set(key, p, cache.DefaultExpiration)
	return p, true
}

// Timezone returns the IANA zone name at the coordinates, or "" when the
// finder is unavailable or the point is at sea.
func (s *Service) Timezone(lat, lng float64) string {
	if s.finder == nil {
		return ""
	}
	return s.finder.GetTimezoneName(lng, lat)
}

type Forecast struct {
	Temperature              float64 `json:"temperature"`
	Description              string  `json:"description"`
	Humidity                 float64 `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
}

// Forecast returns the weather for a place and date. There is no weather
// backend, so every call gets the same partly cloudy report.
func (s *Service) Forecast(ctx context.Context, lat, lng float64, date time.Time) Forecast {
	return Forecast{
		Temperature:              22,
		Description:              "partly cloudy",
		Humidity:                 65,
		WindSpeed:                12,
		PrecipitationProbability: 20,
	}
}

type Facility struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	DistanceKm float64 `json:"distance_km"`
	Phone      string  `json:"phone"`
}

type Safety struct {
	Score            float64           `json:"score"`
	Level            string            `json:"level"`
	Warnings         []string          `json:"warnings"`
	Tips             []string          `json:"tips"`
	EmergencyNumbers map[string]string `json:"emergency_numbers"`
	NearestHospital  Facility          `json:"nearest_hospital"`
	NearestPolice    Facility          `json:"nearest_police"`
}

// Safety describes the safety situation around a named location.
func (s *Service) Safety(ctx context.Context, lat, lng float64, name string) Safety {
	return Safety{
		Score:    7.5,
		Level:    "moderate",
		Warnings: []string{},
		Tips: []string{
			"Stay aware of your surroundings",
			"Keep valuables secure",
			"Avoid isolated areas after dark",
		},
		EmergencyNumbers: map[string]string{"police": "112", "ambulance": "112", "fire": "112"},
		NearestHospital:  Facility{Name: "City General Hospital", Address: "Near " + name, DistanceKm: 2.5, Phone: "+123456789"},
		NearestPolice:    Facility{Name: "Central Police Station", Address: name + " Police District", DistanceKm: 1.2, Phone: "+123456788"},
	}
}
