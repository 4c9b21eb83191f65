package geo

type gazetteerEntry struct {
	city, country string
	lat, lng      float64
}

// gazetteer keys are folded names, see foldKey.
var gazetteer = map[string]gazetteerEntry{}

func init() {
	entries := []struct {
		names []string
		entry gazetteerEntry
	}{
		{[]string{"lisbon", "lisboa"}, gazetteerEntry{"Lisbon", "Portugal", 38.7223, -9.1393}},
		{[]string{"porto", "oporto"}, gazetteerEntry{"Porto", "Portugal", 41.1579, -8.6291}},
		{[]string{"paris"}, gazetteerEntry{"Paris", "France", 48.8566, 2.3522}},
		{[]string{"london"}, gazetteerEntry{"London", "United Kingdom", 51.5074, -0.1278}},
		{[]string{"rome", "roma"}, gazetteerEntry{"Rome", "Italy", 41.9028, 12.4964}},
		{[]string{"barcelona"}, gazetteerEntry{"Barcelona", "Spain", 41.3874, 2.1686}},
		{[]string{"madrid"}, gazetteerEntry{"Madrid", "Spain", 40.4168, -3.7038}},
		{[]string{"berlin"}, gazetteerEntry{"Berlin", "Germany", 52.5200, 13.4050}},
		{[]string{"amsterdam"}, gazetteerEntry{"Amsterdam", "Netherlands", 52.3676, 4.9041}},
		{[]string{"zurich", "zuerich"}, gazetteerEntry{"Zürich", "Switzerland", 47.3769, 8.5417}},
		{[]string{"vienna", "wien"}, gazetteerEntry{"Vienna", "Austria", 48.2082, 16.3738}},
		{[]string{"prague", "praha"}, gazetteerEntry{"Prague", "Czechia", 50.0755, 14.4378}},
		{[]string{"istanbul"}, gazetteerEntry{"Istanbul", "Türkiye", 41.0082, 28.9784}},
		{[]string{"reykjavik"}, gazetteerEntry{"Reykjavík", "Iceland", 64.1466, -21.9426}},
		{[]string{"marrakech", "marrakesh"}, gazetteerEntry{"Marrakech", "Morocco", 31.6295, -7.9811}},
		{[]string{"cape town"}, gazetteerEntry{"Cape Town", "South Africa", -33.9249, 18.4241}},
		{[]string{"new york", "new york city", "nyc"}, gazetteerEntry{"New York", "United States", 40.7128, -74.0060}},
		{[]string{"mexico city", "ciudad de mexico"}, gazetteerEntry{"Mexico City", "Mexico", 19.4326, -99.1332}},
		{[]string{"sao paulo"}, gazetteerEntry{"São Paulo", "Brazil", -23.5505, -46.6333}},
		{[]string{"buenos aires"}, gazetteerEntry{"Buenos Aires", "Argentina", -34.6037, -58.3816}},
		{[]string{"tokyo"}, gazetteerEntry{"Tokyo", "Japan", 35.6762, 139.6503}},
		{[]string{"kyoto"}, gazetteerEntry{"Kyoto", "Japan", 35.0116, 135.7681}},
		{[]string{"seoul"}, gazetteerEntry{"Seoul", "South Korea", 37.5665, 126.9780}},
		{[]string{"bangkok"}, gazetteerEntry{"Bangkok", "Thailand", 13.7563, 100.5018}},
		{[]string{"singapore"}, gazetteerEntry{"Singapore", "Singapore", 1.3521, 103.8198}},
		{[]string{"sydney"}, gazetteerEntry{"Sydney", "Australia", -33.8688, 151.2093}},
	}
	for _, e := range entries {
		for _, name := range e.names {
			gazetteer[name] = e.entry
		}
	}
}
