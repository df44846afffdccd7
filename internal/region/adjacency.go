package region

import (
	"fmt"
	"strings"
)

// Direction is a keyboard-navigation direction on the map.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

var directionNames = [...]string{"north", "south", "east", "west"}

func (d Direction) String() string {
	if d < North || d > West {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText encodes the direction by name, so maps keyed by Direction
// serialize as {"north": ...}.
func (d Direction) MarshalText() ([]byte, error) {
	if d < North || d > West {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

// ParseDirection accepts a direction name or its arrow-key alias.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "south", "s", "down":
		return South, nil
	case "east", "e", "right":
		return East, nil
	case "west", "w", "left":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

const none = -1

// Adjacency maps (region, direction) to a neighboring region. Entries are
// indexes into the catalog's region slice; none marks an edge of the map.
type Adjacency struct {
	catalog *Catalog
	table   [][4]int
}

// buildAdjacency derives neighbors from grid positions: north and south are
// the same column one row up or down, east and west the next or previous
// column in the same row. Explicit neighbors in the catalog file override the
// derived ones.
func buildAdjacency(c *Catalog, entries []entry) (*Adjacency, error) {
	cells := make(map[[2]int]int, len(c.regions))
	for i, r := range c.regions {
		cells[[2]int{r.Col, r.Row}] = i
	}
	at := func(col, row int) int {
		if i, ok := cells[[2]int{col, row}]; ok {
			return i
		}
		return none
	}

	adj := &Adjacency{catalog: c, table: make([][4]int, len(c.regions))}
	for i, r := range c.regions {
		adj.table[i] = [4]int{
			North: at(r.Col, r.Row-1),
			South: at(r.Col, r.Row+1),
			East:  at(r.Col+1, r.Row),
			West:  at(r.Col-1, r.Row),
		}
		for name, target := range entries[i].Neighbors {
			dir, err := ParseDirection(name)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", r.Code, err)
			}
			j, ok := c.index[strings.ToUpper(target)]
			if !ok {
				return nil, fmt.Errorf("region %s: %s neighbor %w: %q", r.Code, dir, ErrUnknownRegion, target)
			}
			if j == i {
				return nil, fmt.Errorf("region %s: %s neighbor is itself", r.Code, dir)
			}
			adj.table[i][dir] = j
		}
	}
	return adj, nil
}

// Neighbor returns the code of the region in direction d from code. The
// boolean is false at the edge of the map or for an unknown code.
func (a *Adjacency) Neighbor(code string, d Direction) (string, bool) {
	if d < North || d > West {
		return "", false
	}
	i, ok := a.catalog.index[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", false
	}
	j := a.table[i][d]
	if j == none {
		return "", false
	}
	return a.catalog.regions[j].Code, true
}

// Neighbors returns every neighbor of code keyed by direction.
func (a *Adjacency) Neighbors(code string) map[Direction]string {
	out := make(map[Direction]string, 4)
	for d := North; d <= West; d++ {
		if n, ok := a.Neighbor(code, d); ok {
			out[d] = n
		}
	}
	return out
}
