package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownItemType = errors.New("unknown item type")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type BuildingDef struct {
	Type            string   `yaml:"type" json:"type"`
	Name            string   `yaml:"name" json:"name"`
	Cost            int64    `yaml:"cost" json:"cost"`
	AllowedVehicles []string `yaml:"allowed_vehicles" json:"allowed_vehicles"`
	Incidents       []string `yaml:"incidents" json:"incidents"`
}

type VehicleDef struct {
	Type         string   `yaml:"type" json:"type"`
	Name         string   `yaml:"name" json:"name"`
	Cost         int64    `yaml:"cost" json:"cost"`
	Capabilities []string `yaml:"capabilities" json:"capabilities"`
}

type IncidentDef struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	XP          int64  `yaml:"xp" json:"xp"`
	Currency    int64  `yaml:"currency" json:"currency"`
}

type file struct {
	Buildings []BuildingDef `yaml:"buildings"`
	Vehicles  []VehicleDef  `yaml:"vehicles"`
	Incidents []IncidentDef `yaml:"incidents"`
}

// Catalog is the immutable table of purchasable items and incident categories.
// It is safe for concurrent use once constructed.
type Catalog struct {
	buildings     map[string]BuildingDef
	vehicles      map[string]VehicleDef
	incidents     map[string]IncidentDef
	capabilities  map[string]map[string]struct{}
	incidentTypes []string
}

// View is the serializable form of the catalog, ordered by type.
type View struct {
	Buildings []BuildingDef `json:"buildings"`
	Vehicles  []VehicleDef  `json:"vehicles"`
	Incidents []IncidentDef `json:"incidents"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path yields the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(f.Buildings, f.Vehicles, f.Incidents)
}

// New validates the definitions and builds a catalog from them.
func New(buildings []BuildingDef, vehicles []VehicleDef, incidents []IncidentDef) (*Catalog, error) {
	c := &Catalog{
		buildings:    make(map[string]BuildingDef, len(buildings)),
		vehicles:     make(map[string]VehicleDef, len(vehicles)),
		incidents:    make(map[string]IncidentDef, len(incidents)),
		capabilities: make(map[string]map[string]struct{}, len(vehicles)),
	}
	if len(incidents) == 0 {
		return nil, fmt.Errorf("%w: no incident types", ErrInvalidCatalog)
	}
	for _, in := range incidents {
		if in.Type == "" {
			return nil, fmt.Errorf("%w: incident without type", ErrInvalidCatalog)
		}
		if _, dup := c.incidents[in.Type]; dup {
			return nil, fmt.Errorf("%w: duplicate incident %q", ErrInvalidCatalog, in.Type)
		}
		if in.XP <= 0 || in.Currency < 0 {
			return nil, fmt.Errorf("%w: incident %q reward must be positive", ErrInvalidCatalog, in.Type)
		}
		c.incidents[in.Type] = in
		c.incidentTypes = append(c.incidentTypes, in.Type)
	}
	sort.Strings(c.incidentTypes)

	for _, v := range vehicles {
		if err := c.checkItem(v.Type, v.Cost); err != nil {
			return nil, err
		}
		caps := make(map[string]struct{}, len(v.Capabilities))
		for _, mt := range v.Capabilities {
			if _, ok := c.incidents[mt]; !ok {
				return nil, fmt.Errorf("%w: vehicle %q responds to undeclared incident %q", ErrInvalidCatalog, v.Type, mt)
			}
			caps[mt] = struct{}{}
		}
		v.Capabilities = append([]string(nil), v.Capabilities...)
		c.vehicles[v.Type] = v
		c.capabilities[v.Type] = caps
	}
	for _, b := range buildings {
		if err := c.checkItem(b.Type, b.Cost); err != nil {
			return nil, err
		}
		for _, mt := range b.Incidents {
			if _, ok := c.incidents[mt]; !ok {
				return nil, fmt.Errorf("%w: building %q lists undeclared incident %q", ErrInvalidCatalog, b.Type, mt)
			}
		}
		for _, vt := range b.AllowedVehicles {
			if _, ok := c.vehicles[vt]; !ok {
				return nil, fmt.Errorf("%w: building %q allows undeclared vehicle %q", ErrInvalidCatalog, b.Type, vt)
			}
		}
		b.Incidents = append([]string(nil), b.Incidents...)
		b.AllowedVehicles = append([]string(nil), b.AllowedVehicles...)
		c.buildings[b.Type] = b
	}
	return c, nil
}

func (c *Catalog) checkItem(itemType string, cost int64) error {
	if itemType == "" {
		return fmt.Errorf("%w: item without type", ErrInvalidCatalog)
	}
	if _, ok := c.buildings[itemType]; ok {
		return fmt.Errorf("%w: duplicate item %q", ErrInvalidCatalog, itemType)
	}
	if _, ok := c.vehicles[itemType]; ok {
		return fmt.Errorf("%w: duplicate item %q", ErrInvalidCatalog, itemType)
	}
	if cost <= 0 {
		return fmt.Errorf("%w: item %q cost must be positive", ErrInvalidCatalog, itemType)
	}
	return nil
}

// Cost returns the purchase price of a building or vehicle type.
func (c *Catalog) Cost(itemType string) (int64, error) {
	if b, ok := c.buildings[itemType]; ok {
		return b.Cost, nil
	}
	if v, ok := c.vehicles[itemType]; ok {
		return v.Cost, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownItemType, itemType)
}

func (c *Catalog) Building(buildingType string) (BuildingDef, error) {
	b, ok := c.buildings[buildingType]
	if !ok {
		return BuildingDef{}, fmt.Errorf("%w: building %q", ErrUnknownItemType, buildingType)
	}
	return b, nil
}

func (c *Catalog) Vehicle(vehicleType string) (VehicleDef, error) {
	v, ok := c.vehicles[vehicleType]
	if !ok {
		return VehicleDef{}, fmt.Errorf("%w: vehicle %q", ErrUnknownItemType, vehicleType)
	}
	return v, nil
}

// Capabilities returns the set of incident types a vehicle type may respond to.
// The returned map is a copy.
func (c *Catalog) Capabilities(vehicleType string) (map[string]struct{}, error) {
	caps, ok := c.capabilities[vehicleType]
	if !ok {
		return nil, fmt.Errorf("%w: vehicle %q", ErrUnknownItemType, vehicleType)
	}
	out := make(map[string]struct{}, len(caps))
	for k := range caps {
		out[k] = struct{}{}
	}
	return out, nil
}

// CanRespond reports whether vehicleType lists incidentType among its capabilities.
func (c *Catalog) CanRespond(vehicleType, incidentType string) (bool, error) {
	caps, ok := c.capabilities[vehicleType]
	if !ok {
		return false, fmt.Errorf("%w: vehicle %q", ErrUnknownItemType, vehicleType)
	}
	_, ok = caps[incidentType]
	return ok, nil
}

// AllowsVehicle reports whether a vehicle type may be stationed at a building
// type. A building with no allow list accepts every vehicle type.
func (c *Catalog) AllowsVehicle(buildingType, vehicleType string) (bool, error) {
	b, err := c.Building(buildingType)
	if err != nil {
		return false, err
	}
	if _, err := c.Vehicle(vehicleType); err != nil {
		return false, err
	}
	if len(b.AllowedVehicles) == 0 {
		return true, nil
	}
	for _, vt := range b.AllowedVehicles {
		if vt == vehicleType {
			return true, nil
		}
	}
	return false, nil
}

func (c *Catalog) Incident(incidentType string) (IncidentDef, error) {
	in, ok := c.incidents[incidentType]
	if !ok {
		return IncidentDef{}, fmt.Errorf("%w: incident %q", ErrUnknownItemType, incidentType)
	}
	return in, nil
}

// IncidentTypes returns every incident type in sorted order.
func (c *Catalog) IncidentTypes() []string {
	return append([]string(nil), c.incidentTypes...)
}

// BuildingIncidents returns the incident types that spawn near a building type,
// falling back to every incident type when the building declares none.
func (c *Catalog) BuildingIncidents(buildingType string) ([]string, error) {
	b, err := c.Building(buildingType)
	if err != nil {
		return nil, err
	}
	if len(b.Incidents) == 0 {
		return c.IncidentTypes(), nil
	}
	out := append([]string(nil), b.Incidents...)
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) View() View {
	v := View{}
	for _, b := range c.buildings {
		v.Buildings = append(v.Buildings, b)
	}
	for _, vd := range c.vehicles {
		v.Vehicles = append(v.Vehicles, vd)
	}
	for _, t := range c.incidentTypes {
		v.Incidents = append(v.Incidents, c.incidents[t])
	}
	sort.Slice(v.Buildings, func(i, j int) bool { return v.Buildings[i].Type < v.Buildings[j].Type })
	sort.Slice(v.Vehicles, func(i, j int) bool { return v.Vehicles[i].Type < v.Vehicles[j].Type })
	return v
}
