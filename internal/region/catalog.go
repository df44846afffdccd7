// Package region holds the reference catalog of US states and territories and
// the keyboard-navigation adjacency table derived from their hexgrid positions.
package region

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var embeddedCatalog []byte

// ErrUnknownRegion is returned when a code is not in the catalog.
var ErrUnknownRegion = errors.New("unknown region")

type entry struct {
	domain.Region `yaml:",inline"`
	Neighbors     map[string]string `yaml:"neighbors,omitempty"`
}

type catalogFile struct {
	Regions []entry `yaml:"regions"`
}

// Catalog is an immutable, ordered set of regions with an index by code.
type Catalog struct {
	regions   []domain.Region
	index     map[string]int
	adjacency *Adjacency
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Load reads a catalog from a YAML file. An empty path loads the embedded
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse region catalog: %w", err)
	}
	if len(file.Regions) == 0 {
		return nil, errors.New("region catalog is empty")
	}

	c := &Catalog{
		regions: make([]domain.Region, 0, len(file.Regions)),
		index:   make(map[string]int, len(file.Regions)),
	}
	cells := make(map[[2]int]string, len(file.Regions))
	for i, e := range file.Regions {
		r := e.Region
		r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
		if r.Code == "" {
			return nil, fmt.Errorf("region %d: missing code", i)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("region %s: missing name", r.Code)
		}
		if _, dup := c.index[r.Code]; dup {
			return nil, fmt.Errorf("region %s: duplicate code", r.Code)
		}
		if other, taken := cells[[2]int{r.Col, r.Row}]; taken {
			return nil, fmt.Errorf("region %s: grid cell (%d,%d) already holds %s", r.Code, r.Col, r.Row, other)
		}
		cells[[2]int{r.Col, r.Row}] = r.Code
		c.index[r.Code] = len(c.regions)
		c.regions = append(c.regions, r)
	}

	adj, err := buildAdjacency(c, file.Regions)
	if err != nil {
		return nil, err
	}
	c.adjacency = adj
	return c, nil
}

// Regions returns the catalog in file order.
func (c *Catalog) Regions() []domain.Region {
	return slices.Clone(c.regions)
}

// Len returns the number of regions.
func (c *Catalog) Len() int { return len(c.regions) }

// Lookup returns the region with the given code, case-insensitively.
func (c *Catalog) Lookup(code string) (domain.Region, error) {
	i, ok := c.index[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return domain.Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	return c.regions[i], nil
}

// SortedByName returns the regions ordered by display name.
func (c *Catalog) SortedByName() []domain.Region {
	out := c.Regions()
	slices.SortFunc(out, func(a, b domain.Region) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// SortedByCode returns the regions ordered by code.
func (c *Catalog) SortedByCode() []domain.Region {
	out := c.Regions()
	slices.SortFunc(out, func(a, b domain.Region) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out
}

// Adjacency returns the catalog's neighbor table.
func (c *Catalog) Adjacency() *Adjacency { return c.adjacency }
