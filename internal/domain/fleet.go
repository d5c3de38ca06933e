package domain

// Driver is the data-access view of a driver needed for planning.
type Driver struct {
	ID              string      `json:"id"`
	TenantID        string      `json:"tenant_id"`
	Name            string      `json:"name"`
	CurrentLocation Coordinates `json:"current_location"`
	HOS             HOSState    `json:"hos"`
}

// FuelState is a vehicle's tank level and efficiency.
type FuelState struct {
	CurrentGallons  float64 `json:"current_gallons" yaml:"current_gallons"`
	CapacityGallons float64 `json:"capacity_gallons" yaml:"capacity_gallons"`
	MilesPerGallon  float64 `json:"miles_per_gallon" yaml:"miles_per_gallon"`
}

// RangeMiles returns how far the current tank goes, before any safety margin.
func (f FuelState) RangeMiles() float64 {
	return f.CurrentGallons * f.MilesPerGallon
}

// GallonsFor returns fuel needed to cover miles at the vehicle's efficiency.
func (f FuelState) GallonsFor(miles float64) float64 {
	if f.MilesPerGallon <= 0 {
		return 0
	}
	return miles / f.MilesPerGallon
}

// Burn returns the state after driving miles. The tank never goes below zero.
func (f FuelState) Burn(miles float64) FuelState {
	f.CurrentGallons -= f.GallonsFor(miles)
	if f.CurrentGallons < 0 {
		f.CurrentGallons = 0
	}
	return f
}

// Vehicle is the data-access view of a tractor needed for planning.
type Vehicle struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id"`
	UnitName string    `json:"unit_name"`
	Fuel     FuelState `json:"fuel"`
}

// Load groups the stops of one shipment. Pickups must precede deliveries.
type Load struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Stops    []Stop `json:"stops"`
}
