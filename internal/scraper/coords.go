package scraper

import (
	"math"
	"strconv"
	"strings"

	"jobmate/matching-service/internal/model"
)

// coordinatesOf looks for coordinates at location/coordinates, then at
// coordinates. Each source may be a "lat,lng" string or an element exposing
// lat+lng or latitude+longitude. The first representation that parses wins;
// anything else yields Unknown.
func coordinatesOf(entry *node) model.Coordinates {
	sources := []*node{
		entry.child("location").child("coordinates"),
		entry.child("coordinates"),
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if c, ok := parseCoordinateNode(src); ok {
			return c
		}
	}
	return model.UnknownCoordinates()
}

func parseCoordinateNode(n *node) (model.Coordinates, bool) {
	if n.isLeaf() {
		return parseCoordinatePair(n.text)
	}
	pairs := [][2]string{{"lat", "lng"}, {"latitude", "longitude"}}
	for _, p := range pairs {
		lat, lon := n.value(p[0]), n.value(p[1])
		if lat == "" || lon == "" {
			continue
		}
		if c, ok := coordinates(lat, lon); ok {
			return c, true
		}
	}
	return model.Coordinates{}, false
}

// parseCoordinatePair parses "lat,lng".
func parseCoordinatePair(s string) (model.Coordinates, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinates{}, false
	}
	return coordinates(parts[0], parts[1])
}

func coordinates(latText, lonText string) (model.Coordinates, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return model.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return model.Coordinates{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return model.Coordinates{}, false
	}
	return model.KnownCoordinates(lat, lon), true
}
