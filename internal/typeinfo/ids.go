package typeinfo

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out the identifiers tagged onto recorded nodes. A
// generator is used by a single recording call and need not be thread safe.
type IDGenerator interface {
	Next() string
}

// Counter yields "1", "2", ... and makes recordings reproducible
type Counter struct {
	n int
}

func NewCounter() IDGenerator {
	return &Counter{}
}

func (c *Counter) Next() string {
	c.n++
	return strconv.Itoa(c.n)
}

// UUIDGenerator yields random UUIDs, for tables merged across recordings
type UUIDGenerator struct{}

func NewUUIDGenerator() IDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) Next() string {
	return uuid.NewString()
}

// Generators maps the configuration names of the ID generators to their factories
var Generators = map[string]func() IDGenerator{
	"counter": NewCounter,
	"uuid":    NewUUIDGenerator,
}

// GeneratorFor returns the factory registered under name
func GeneratorFor(name string) (func() IDGenerator, error) {
	if name == "" {
		return NewCounter, nil
	}
	f, ok := Generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIDKind, name)
	}
	return f, nil
}
