package schema

import (
	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/transform"
)

// Definition is the result of parsing an overall schema file
type Definition struct {
	Services        []Service                                         `json:"services"`
	Transformations map[graph.Coordinate]*transform.FieldTransformation `json:"-"`
	// Ownership maps every field declared inside a service block to that service
	Ownership map[graph.Coordinate]string `json:"-"`
	// SDL is the preprocessed schema, ready to be loaded
	SDL string `json:"-"`
}

// Service represents a "service" block
type Service struct {
	Name  string   `json:"name"`
	Types []string `json:"types"` // types and type extensions declared by the service, in order
}

// Service looks up a service by name
func (d *Definition) Service(name string) (*Service, bool) {
	for i := range d.Services {
		if d.Services[i].Name == name {
			return &d.Services[i], true
		}
	}
	return nil, false
}

// Owner returns the service declaring the field at coord
func (d *Definition) Owner(coord graph.Coordinate) (string, bool) {
	s, ok := d.Ownership[coord]
	return s, ok
}
