// Package scenario reads self-contained planning scenarios from YAML: a
// driver, a vehicle, the loads to haul and the stations along the way.
package scenario

import (
	"context"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/services"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const Tenant = "local"

type Driver struct {
	ID       string             `yaml:"id"`
	Name     string             `yaml:"name"`
	Location domain.Coordinates `yaml:"location"`
	HOS      domain.HOSState    `yaml:"hos"`
}

type Vehicle struct {
	ID       string           `yaml:"id"`
	UnitName string           `yaml:"unit_name"`
	Fuel     domain.FuelState `yaml:"fuel"`
}

// LoadSpec is one load as written in a scenario file.
type LoadSpec struct {
	ID    string        `yaml:"id"`
	Stops []domain.Stop `yaml:"stops"`
}

type Scenario struct {
	Name            string                      `yaml:"name"`
	DepartureTime   time.Time                   `yaml:"departure_time"`
	Priority        domain.OptimizationPriority `yaml:"priority"`
	Driver          Driver                      `yaml:"driver"`
	Vehicle         Vehicle                     `yaml:"vehicle"`
	Loads           []LoadSpec                  `yaml:"loads"`
	EndLocation     *domain.Coordinates         `yaml:"end_location,omitempty"`
	EndLocationName string                      `yaml:"end_location_name,omitempty"`
	FuelStations    []domain.FuelStation        `yaml:"fuel_stations"`
	RestAreas       []domain.RestArea           `yaml:"rest_areas"`
	Planner         *services.PlannerConfig     `yaml:"planner,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario. Planner fields absent from the file keep their
// default values: yaml.v3 decodes into the pre-filled config.
func Parse(data []byte) (*Scenario, error) {
	cfg := services.DefaultPlannerConfig()
	s := Scenario{Planner: &cfg}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	if s.Planner == nil {
		s.Planner = &cfg
	}

	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	if s.DepartureTime.IsZero() {
		return fmt.Errorf("departure_time is required")
	}
	if _, err := domain.ParsePriority(string(s.Priority)); err != nil {
		return err
	}
	if s.Driver.ID == "" || !s.Driver.Location.Valid() {
		return fmt.Errorf("driver needs an id and a valid location")
	}
	if err := s.Driver.HOS.Validate(); err != nil {
		return fmt.Errorf("driver hos: %w", err)
	}
	if s.Vehicle.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if len(s.Loads) == 0 {
		return fmt.Errorf("at least one load must be defined")
	}
	for i, l := range s.Loads {
		if l.ID == "" {
			return fmt.Errorf("load %d: id is required", i)
		}
		if len(l.Stops) == 0 {
			return fmt.Errorf("load %s: at least one stop is required", l.ID)
		}
	}
	if s.EndLocation != nil && !s.EndLocation.Valid() {
		return fmt.Errorf("end_location is not a valid coordinate")
	}
	return s.Planner.Validate()
}

// LoadIDs lists the scenario's loads in file order.
func (s *Scenario) LoadIDs() []string {
	ids := make([]string, 0, len(s.Loads))
	for _, l := range s.Loads {
		ids = append(ids, l.ID)
	}
	return ids
}

// Request builds the planning request the scenario describes.
func (s *Scenario) Request() services.PlanTripRequest {
	priority, _ := domain.ParsePriority(string(s.Priority))
	req := services.PlanTripRequest{
		TenantID:  Tenant,
		DriverID:  s.Driver.ID,
		VehicleID: s.Vehicle.ID,
		LoadIDs:   s.LoadIDs(),
		DepartAt:  s.DepartureTime,
		Priority:  priority,
	}
	if s.EndLocation != nil {
		end := *s.EndLocation
		req.Params = &services.DispatcherParams{EndLocation: &end, EndLocationName: s.EndLocationName}
	}
	return req
}

// Fleet serves the scenario's driver, vehicle and loads through the fleet
// repository contract.
func (s *Scenario) Fleet() *Fleet { return &Fleet{s: s} }

type Fleet struct{ s *Scenario }

func (f *Fleet) GetDriver(_ context.Context, tenantID, driverID string) (*domain.Driver, error) {
	d := f.s.Driver
	if tenantID != Tenant || driverID != d.ID {
		return nil, fmt.Errorf("driver %q: %w", driverID, domain.ErrNotFound)
	}
	return &domain.Driver{ID: d.ID, TenantID: Tenant, Name: d.Name, CurrentLocation: d.Location, HOS: d.HOS.Clone()}, nil
}

func (f *Fleet) GetVehicle(_ context.Context, tenantID, vehicleID string) (*domain.Vehicle, error) {
	v := f.s.Vehicle
	if tenantID != Tenant || vehicleID != v.ID {
		return nil, fmt.Errorf("vehicle %q: %w", vehicleID, domain.ErrNotFound)
	}
	return &domain.Vehicle{ID: v.ID, TenantID: Tenant, UnitName: v.UnitName, Fuel: v.Fuel}, nil
}

func (f *Fleet) GetLoads(_ context.Context, tenantID string, loadIDs []string) ([]*domain.Load, error) {
	out := make([]*domain.Load, 0, len(loadIDs))
	for _, id := range loadIDs {
		var found *LoadSpec
		for i := range f.s.Loads {
			if f.s.Loads[i].ID == id {
				found = &f.s.Loads[i]
				break
			}
		}
		if tenantID != Tenant || found == nil {
			return nil, fmt.Errorf("load %q: %w", id, domain.ErrNotFound)
		}
		out = append(out, &domain.Load{ID: found.ID, TenantID: Tenant, Stops: append([]domain.Stop(nil), found.Stops...)})
	}
	return out, nil
}
