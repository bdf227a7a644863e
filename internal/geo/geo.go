// Package geo holds the coarse geographic heuristics used for ranking:
// haversine distance, bounding-box country/region classification and
// keyword matching of free-text locations.
//
// Classification is approximate. Overlapping boxes resolve to the first
// match and border areas may be unclassified.
package geo

import (
	"math"
	"strings"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 { return deg * (math.Pi / 180) }

// Region is a classification key such as "españa" or "europa".
type Region string

// Classifier maps a coordinate to a region. It can be swapped for a real
// geocoder without touching the scorer.
type Classifier interface {
	Classify(lat, lon float64) (Region, bool)
}

type box struct {
	region         Region
	minLat, maxLat float64
	minLon, maxLon float64
}

func (b box) contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

// BoxClassifier classifies by the first bounding box containing the point.
type BoxClassifier struct {
	boxes []box
}

// Classify implements Classifier.
func (c BoxClassifier) Classify(lat, lon float64) (Region, bool) {
	for _, b := range c.boxes {
		if b.contains(lat, lon) {
			return b.region, true
		}
	}
	return "", false
}

// Country keys.
const (
	Spain         Region = "españa"
	Mexico        Region = "méxico"
	Colombia      Region = "colombia"
	Argentina     Region = "argentina"
	Chile         Region = "chile"
	Peru          Region = "perú"
	UnitedStates  Region = "estados unidos"
	UnitedKingdom Region = "reino unido"
)

// Continent keys.
const (
	NorthAmerica Region = "norteamerica"
	SouthAmerica Region = "sudamerica"
	Europe       Region = "europa"
	Asia         Region = "asia"
	Africa       Region = "africa"
	Oceania      Region = "oceania"
)

// DesignatedCountry is the country whose cities and regions are expanded
// into keywords for location filtering and scoring.
const DesignatedCountry = Spain

// Countries classifies into the small fixed set of supported countries.
var Countries Classifier = BoxClassifier{boxes: []box{
	{Spain, 36, 44, -10, 5},
	{Mexico, 14, 33, -120, -86},
	{Colombia, -5, 13, -80, -66},
	{Argentina, -55, -22, -73, -53},
	{Chile, -56, -17, -76, -66},
	{Peru, -18, 0, -82, -68},
	{UnitedStates, 24, 50, -125, -66},
	{UnitedKingdom, 49, 59, -8, 2},
}}

// Regions classifies into continents.
var Regions Classifier = BoxClassifier{boxes: []box{
	{NorthAmerica, 15, 72, -168, -52},
	{SouthAmerica, -56, 15, -82, -34},
	{Europe, 36, 71, -10, 40},
	{Asia, 0, 82, 40, 180},
	{Africa, -35, 37, -18, 52},
	{Oceania, -47, 0, 110, 180},
}}

// CountryOf classifies a coordinate into a country.
func CountryOf(lat, lon float64) (Region, bool) { return Countries.Classify(lat, lon) }

// RegionOf classifies a coordinate into a continent.
func RegionOf(lat, lon float64) (Region, bool) { return Regions.Classify(lat, lon) }

var spainKeywords = []string{
	"españa", "spain", "madrid", "barcelona", "valencia", "sevilla",
	"zaragoza", "málaga", "malaga", "bilbao", "alicante", "córdoba", "cordoba",
	"valladolid", "vigo", "gijón", "gijon", "hospitalet", "palma", "murcia",
	"vitoria", "oviedo", "sabadell", "santander", "jerez", "pamplona", "almería",
	"almeria", "donostia", "san sebastián", "san sebastian", "cartagena", "jaén",
	"jaen", "canarias", "cataluña", "cataluna", "galicia", "andalucía", "andalucia",
	"castilla", "aragón", "aragon", "asturias", "cantabria", "navarra", "extremadura",
}

var regionKeywords = map[Region][]string{
	NorthAmerica: {"estados unidos", "usa", "eeuu", "us", "canada", "méxico", "mexico", "norteamerica", "north america"},
	SouthAmerica: {"colombia", "venezuela", "brasil", "argentina", "chile", "perú", "peru", "ecuador", "bolivia", "uruguay", "paraguay", "sudamerica", "latinoamerica", "latin america", "south america"},
	Europe:       {"españa", "spain", "francia", "alemania", "italia", "reino unido", "portugal", "europa", "europe"},
	Asia:         {"china", "japón", "japon", "india", "asia"},
	Africa:       {"africa", "áfrica", "sudáfrica", "sudafrica", "egipto", "marruecos"},
	Oceania:      {"australia", "nueva zelanda", "oceania"},
}

// CountryKeywords returns the city and region keywords of the designated
// country. Other countries have no expansion and yield nil.
func CountryKeywords(country Region) []string {
	if Region(strings.ToLower(string(country))) != DesignatedCountry {
		return nil
	}
	return spainKeywords
}

// LocationMatchesCountry reports whether the location text mentions any
// keyword of the given country. Only the designated country has keywords.
func LocationMatchesCountry(text string, country Region) bool {
	return containsAny(text, CountryKeywords(country))
}

// LocationNamesCountry reports whether the location text contains the
// country key itself, e.g. "méxico" in "Ciudad de México".
func LocationNamesCountry(text string, country Region) bool {
	return country != "" && strings.Contains(strings.ToLower(text), string(country))
}

// LocationMatchesRegion reports whether the location text mentions any
// keyword of the given continent.
func LocationMatchesRegion(text string, region Region) bool {
	return containsAny(text, regionKeywords[Region(strings.ToLower(string(region)))])
}

func containsAny(text string, keywords []string) bool {
	if text == "" || len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
