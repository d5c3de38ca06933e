package domain

// FuelStation is a candidate fueling location.
type FuelStation struct {
	ID             string      `json:"id" yaml:"id"`
	Name           string      `json:"name" yaml:"name"`
	Point          Coordinates `json:"point" yaml:"point"`
	PricePerGallon float64     `json:"price_per_gallon" yaml:"price_per_gallon"`
}

// RestArea is a candidate location for a full rest or restart.
type RestArea struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Point  Coordinates `json:"point" yaml:"point"`
	Spaces int         `json:"spaces,omitempty" yaml:"spaces,omitempty"`
}

// FuelCandidate is a station matched by a proximity or corridor search.
type FuelCandidate struct {
	Station     FuelStation
	DetourMiles float64
	AlongMiles  float64
}

// RestCandidate is a rest area matched by a proximity or corridor search.
type RestCandidate struct {
	Area        RestArea
	DetourMiles float64
	AlongMiles  float64
}
