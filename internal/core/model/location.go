package model

import (
	"math"
)

const earthRadiusKm = 6371.0

// Location is a point on Earth in decimal degrees.
type Location struct {
	lat float64
	lon float64
}

// NewLocation validates the coordinates and builds a Location.
func NewLocation(lat, lon float64) (Location, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Location{}, validationErrorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Location{}, validationErrorf("longitude %v out of range [-180, 180]", lon)
	}
	return Location{lat: lat, lon: lon}, nil
}

// MustLocation is like NewLocation but panics on invalid coordinates.
func MustLocation(lat, lon float64) Location {
	l, err := NewLocation(lat, lon)
	if err != nil {
		panic(err)
	}
	return l
}

// Latitude in degrees.
func (l Location) Latitude() float64 { return l.lat }

// Longitude in degrees.
func (l Location) Longitude() float64 { return l.lon }

// DistanceTo returns the great-circle (haversine) distance to other.
func (l Location) DistanceTo(other Location) Distance {
	dLat := toRadians(other.lat - l.lat)
	dLon := toRadians(other.lon - l.lon)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(l.lat))*math.Cos(toRadians(other.lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return Distance{km: earthRadiusKm * c}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance is a non-negative length in kilometers.
type Distance struct {
	km float64
}

// NewDistance builds a Distance from kilometers.
func NewDistance(km float64) (Distance, error) {
	if math.IsNaN(km) || km < 0 {
		return Distance{}, validationErrorf("distance %v must be non-negative", km)
	}
	return Distance{km: km}, nil
}

// Kilometers builds a Distance and panics on negative input. Intended for constants.
func Kilometers(km float64) Distance {
	d, err := NewDistance(km)
	if err != nil {
		panic(err)
	}
	return d
}

// Km returns the distance in kilometers.
func (d Distance) Km() float64 { return d.km }

// Meters returns the distance in meters.
func (d Distance) Meters() float64 { return d.km * 1000 }

// Within reports whether d is less than or equal to limit.
func (d Distance) Within(limit Distance) bool { return d.km <= limit.km }
