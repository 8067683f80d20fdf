package station

import "strings"

type Station struct {
	Name string
}

func (s Station) Code() string {
	return s.Name
}

func (s Station) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + strings.ToLower(s.Name[1:])
}

type Enum struct {
	Hot     Station
	Cold    Station
	Bar     Station
	Dessert Station
}

var Stations = Enum{
	Hot:     Station{Name: "HOT"},
	Cold:    Station{Name: "COLD"},
	Bar:     Station{Name: "BAR"},
	Dessert: Station{Name: "DESSERT"},
}

var All = []Station{
	Stations.Hot,
	Stations.Cold,
	Stations.Bar,
	Stations.Dessert,
}

// ByName returns the station for a given name, or nil if not found.
// Matching ignores case so "bar" and "BAR" resolve to the same station.
func ByName(name string) *Station {
	for _, s := range All {
		if strings.EqualFold(s.Name, name) {
			return &s
		}
	}
	return nil
}

// categoryStations is the default menu category routing.
var categoryStations = map[string]Station{
	"beverages":   Stations.Bar,
	"desserts":    Stations.Dessert,
	"starters":    Stations.Hot,
	"main course": Stations.Hot,
	"breads":      Stations.Hot,
}

// ForCategory maps a menu category to the station that prepares it.
// Unknown categories go to the cold station.
func ForCategory(category string) Station {
	if s, ok := categoryStations[normalize(category)]; ok {
		return s
	}
	return Stations.Cold
}

// Mapper resolves categories to stations with optional per-restaurant overrides
// layered on top of the default routing.
type Mapper struct {
	overrides map[string]Station
}

// NewMapper builds a mapper from category -> station name pairs. Pairs that
// name an unknown station are ignored.
func NewMapper(overrides map[string]string) Mapper {
	m := Mapper{overrides: make(map[string]Station, len(overrides))}
	for category, name := range overrides {
		s := ByName(name)
		if s == nil {
			continue
		}
		m.overrides[normalize(category)] = *s
	}
	return m
}

func (m Mapper) ForCategory(category string) Station {
	if s, ok := m.overrides[normalize(category)]; ok {
		return s
	}
	return ForCategory(category)
}

func normalize(category string) string {
	return strings.ToLower(strings.Join(strings.Fields(category), " "))
}
