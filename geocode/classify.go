package geocode

import (
	"github.com/rightfit/rightfit-navigation/maps"
	"github.com/rightfit/rightfit-navigation/property"
)

// Classify grades a match by precision. Rules apply in order: a house or
// building match is an ADDRESS, a hamlet or village match is RURAL, a match
// without a house number is COORDINATES_ONLY, anything else is an ADDRESS.
func Classify(m maps.GeocodeMatch) property.LocationType {
	switch m.Type {
	case "house", "building":
		return property.LocationTypeAddress
	case "hamlet", "village":
		return property.LocationTypeRural
	}
	if m.Address.HouseNumber == "" {
		return property.LocationTypeCoordinatesOnly
	}
	return property.LocationTypeAddress
}
