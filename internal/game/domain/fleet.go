// Package domain holds the pure game model: boards, fleets, shot
// resolution, and the session turn state machine. Nothing in this package
// performs I/O; persistence and messaging live in the surrounding layers.
package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

// ShipID identifies a ship type within a fleet. IDs must stay within 1..8
// so the flat-array storage encoding can reserve 9 for misses and 10+id
// for hit segments.
type ShipID int

const maxShipID = 8

// ShipSpec describes one ship type in a fleet catalog.
type ShipSpec struct {
	ID     ShipID `json:"id"`
	Name   string `json:"name"`
	Length int    `json:"length"`
}

// FleetConfig is the ordered catalog of ship types placed on a board.
// Placement processes ships in catalog order so seeded generation is
// reproducible.
type FleetConfig struct {
	Ships []ShipSpec `json:"ships"`
}

// DefaultGridSize is the grid dimension used when none is configured.
const DefaultGridSize = 5

// DefaultFleet returns the standard Battle Dinghy fleet. Ship IDs equal
// their lengths, matching the historical sentinel encoding.
func DefaultFleet() FleetConfig {
	return FleetConfig{Ships: []ShipSpec{
		{ID: 3, Name: "Giant Dinghy", Length: 3},
		{ID: 2, Name: "Average Dinghy", Length: 2},
		{ID: 1, Name: "Tiny Dinghy", Length: 1},
	}}
}

// Validate checks the fleet catalog against a grid size.
func (f FleetConfig) Validate(gridSize int) error {
	if gridSize < 2 || gridSize > 10 {
		return apperrors.New(apperrors.CodeInvalidGridSize,
			fmt.Sprintf("grid size %d out of range [2,10]", gridSize))
	}
	if len(f.Ships) == 0 {
		return apperrors.New(apperrors.CodeInvalidFleet, "fleet has no ships")
	}
	seen := make(map[ShipID]struct{}, len(f.Ships))
	for _, ship := range f.Ships {
		if ship.ID < 1 || ship.ID > maxShipID {
			return apperrors.New(apperrors.CodeInvalidFleet,
				fmt.Sprintf("ship id %d out of range [1,%d]", ship.ID, maxShipID))
		}
		if _, dup := seen[ship.ID]; dup {
			return apperrors.New(apperrors.CodeInvalidFleet,
				fmt.Sprintf("duplicate ship id %d", ship.ID))
		}
		seen[ship.ID] = struct{}{}
		if strings.TrimSpace(ship.Name) == "" {
			return apperrors.New(apperrors.CodeInvalidFleet,
				fmt.Sprintf("ship %d has no name", ship.ID))
		}
		if ship.Length < 1 || ship.Length > gridSize {
			return apperrors.New(apperrors.CodeInvalidFleet,
				fmt.Sprintf("ship %q length %d does not fit grid %d", ship.Name, ship.Length, gridSize))
		}
	}
	if f.TotalCells() > gridSize*gridSize {
		return apperrors.New(apperrors.CodeInvalidFleet, "fleet does not fit on the grid")
	}
	return nil
}

// TotalCells returns the number of cells the fleet covers when placed.
func (f FleetConfig) TotalCells() int {
	total := 0
	for _, ship := range f.Ships {
		total += ship.Length
	}
	return total
}

// Spec looks up a ship type by id.
func (f FleetConfig) Spec(id ShipID) (ShipSpec, bool) {
	for _, ship := range f.Ships {
		if ship.ID == id {
			return ship, true
		}
	}
	return ShipSpec{}, false
}
