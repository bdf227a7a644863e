package recommend

import (
	"testing"

	"jobmate/matching-service/internal/geo"
	"jobmate/matching-service/internal/model"
)

func TestGeoScore(t *testing.T) {
	madrid := model.KnownCoordinates(40.4168, -3.7038)
	paris := model.KnownCoordinates(48.8566, 2.3522)
	newYork := model.KnownCoordinates(40.7128, -74.006)
	inSpain := profile{coords: madrid, country: geo.Spain, inHome: true}
	inFrance := profile{coords: paris}
	inUS := profile{coords: newYork, country: geo.UnitedStates}
	nowhere := profile{}
	loc := func(s string) *string { return &s }

	tests := []struct {
		name string
		p    profile
		job  model.Job
		want float64
	}{
		{"remote without actor coordinates", nowhere, model.Job{IsRemote: true}, 15},
		{"remote far away", inSpain, model.Job{IsRemote: true, Coordinates: model.KnownCoordinates(35.68, 139.69)}, 15},
		{"no actor coordinates", nowhere, model.Job{Location: loc("Madrid")}, 0},
		{"same city", inSpain, model.Job{Coordinates: model.KnownCoordinates(40.45, -3.69)}, 30},
		{"alcalá ~30km", inSpain, model.Job{Coordinates: model.KnownCoordinates(40.482, -3.364)}, 25},
		{"toledo ~70km", inSpain, model.Job{Coordinates: model.KnownCoordinates(39.8628, -4.0273)}, 20},
		{"valladolid ~160km", inSpain, model.Job{Coordinates: model.KnownCoordinates(41.6523, -4.7245)}, 15},
		{"barcelona, home actor", inSpain, model.Job{Coordinates: model.KnownCoordinates(41.3874, 2.1686)}, -30},
		{"far, no home country", inFrance, model.Job{Coordinates: model.KnownCoordinates(41.3874, 2.1686)}, -10},
		{"home keyword", inSpain, model.Job{Location: loc("Bilbao, País Vasco")}, 40},
		{"outside home", inSpain, model.Job{Location: loc("Lisboa")}, -20},
		{"empty location text", inSpain, model.Job{}, 0},
		{"region keyword", inFrance, model.Job{Location: loc("Munich, Alemania")}, 8},
		{"no region keyword", inFrance, model.Job{Location: loc("Tokyo")}, 0},
		{"far, classified non-home country", inUS, model.Job{Coordinates: madrid}, -10},
		{"country name, non-home country", inUS, model.Job{Location: loc("Miami, Estados Unidos")}, 12},
		{"city only, non-home country", inUS, model.Job{Location: loc("New York, NY")}, 0},
		{"continent keyword, non-home country", inUS, model.Job{Location: loc("Toronto, Canada")}, 8},
		{"spanish keyword, non-home country", inUS, model.Job{Location: loc("Madrid")}, 0},
	}

	e := New(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.geoScore(tt.job, tt.p); got != tt.want {
				t.Errorf("geoScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReshape(t *testing.T) {
	loc := func(s string) *string { return &s }
	jobs := []model.Job{
		{ID: 1, Location: loc("Berlin")},
		{ID: 2, IsRemote: true},
		{ID: 3, Location: loc("Valencia")},
		{ID: 4},
		{ID: 5, IsRemote: true, Location: loc("Madrid")},
		{ID: 6, Location: loc("Madrid")},
	}
	got := reshape(jobs, geo.Spain)
	want := []int64{3, 6, 2, 5, 1, 4}
	for i, j := range got {
		if j.ID != want[i] {
			t.Fatalf("reshape order = %v, want %v", idsOf(got), want)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("reshape dropped jobs: %v", idsOf(got))
	}
}

func idsOf(jobs []model.Job) []int64 {
	out := make([]int64, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
