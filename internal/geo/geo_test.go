package geo_test

import (
	"math"
	"testing"

	"jobmate/matching-service/internal/geo"
)

func TestDistanceKm(t *testing.T) {
	if d := geo.DistanceKm(40.4168, -3.7038, 40.4168, -3.7038); d != 0 {
		t.Errorf("identical points: want 0, got %f", d)
	}

	madridBarcelona := geo.DistanceKm(40.4168, -3.7038, 41.3874, 2.1686)
	if madridBarcelona < 490 || madridBarcelona > 515 {
		t.Errorf("Madrid-Barcelona: want ~505km, got %f", madridBarcelona)
	}

	back := geo.DistanceKm(41.3874, 2.1686, 40.4168, -3.7038)
	if math.Abs(back-madridBarcelona) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", madridBarcelona, back)
	}
}

func TestCountryOf(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     geo.Region
		ok       bool
	}{
		{"madrid", 40.4168, -3.7038, geo.Spain, true},
		{"mexico city", 19.4326, -99.1332, geo.Mexico, true},
		{"bogota", 4.711, -74.0721, geo.Colombia, true},
		{"london", 51.5074, -0.1278, geo.UnitedKingdom, true},
		{"new york", 40.7128, -74.006, geo.UnitedStates, true},
		{"tokyo", 35.6762, 139.6503, "", false},
		{"open ocean", 0, -30, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := geo.CountryOf(tc.lat, tc.lon)
			if got != tc.want || ok != tc.ok {
				t.Errorf("CountryOf(%f, %f) = (%q, %v), want (%q, %v)", tc.lat, tc.lon, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestRegionOf(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     geo.Region
	}{
		{"berlin", 52.52, 13.405, geo.Europe},
		{"sao paulo", -23.5505, -46.6333, geo.SouthAmerica},
		{"tokyo", 35.6762, 139.6503, geo.Asia},
		{"sydney", -33.8688, 151.2093, geo.Oceania},
		{"toronto", 43.6532, -79.3832, geo.NorthAmerica},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := geo.RegionOf(tc.lat, tc.lon)
			if !ok || got != tc.want {
				t.Errorf("RegionOf = (%q, %v), want %q", got, ok, tc.want)
			}
		})
	}
}

func TestLocationMatchesCountry(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Madrid, Comunidad de Madrid", true},
		{"MÁLAGA", true},
		{"málaga", true},
		{"Remote - Spain", true},
		{"Lisboa, Portugal", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := geo.LocationMatchesCountry(tc.text, geo.Spain); got != tc.want {
			t.Errorf("LocationMatchesCountry(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestCountryKeywordsOnlyExpandDesignatedCountry(t *testing.T) {
	if kws := geo.CountryKeywords(geo.DesignatedCountry); len(kws) == 0 {
		t.Fatal("designated country should have keywords")
	}
	for _, c := range []geo.Region{geo.Mexico, geo.UnitedStates, geo.UnitedKingdom, "atlantis"} {
		if kws := geo.CountryKeywords(c); kws != nil {
			t.Errorf("CountryKeywords(%q) = %v, want nil", c, kws)
		}
	}
	if geo.LocationMatchesCountry("New York, NY", geo.UnitedStates) {
		t.Error("non-designated countries should never keyword-match")
	}
}

func TestLocationNamesCountry(t *testing.T) {
	tests := []struct {
		text    string
		country geo.Region
		want    bool
	}{
		{"Ciudad de MÉXICO", geo.Mexico, true},
		{"Monterrey, NL", geo.Mexico, false},
		{"Bogotá, Colombia", geo.Colombia, true},
		{"anything", "", false},
	}
	for _, tc := range tests {
		if got := geo.LocationNamesCountry(tc.text, tc.country); got != tc.want {
			t.Errorf("LocationNamesCountry(%q, %q) = %v, want %v", tc.text, tc.country, got, tc.want)
		}
	}
}

func TestLocationMatchesRegion(t *testing.T) {
	if !geo.LocationMatchesRegion("Lisboa, Portugal", geo.Europe) {
		t.Error("Portugal should match europa")
	}
	if geo.LocationMatchesRegion("Lisboa, Portugal", geo.Asia) {
		t.Error("Portugal should not match asia")
	}
	if geo.LocationMatchesRegion("anything", geo.Region("atlantis")) {
		t.Error("unknown region should never match")
	}
}
