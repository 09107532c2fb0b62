package domain

import (
	"fmt"
	"math/rand"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

// CellState tags the state of one board cell.
type CellState uint8

const (
	// Water is an untouched cell with no ship on it.
	Water CellState = iota
	// ShipSegment is an unhit cell occupied by a ship.
	ShipSegment
	// Miss is a water cell that has been fired upon.
	Miss
	// HitSegment is a ship cell that has been fired upon.
	HitSegment
)

// Cell is one board cell. Ship is meaningful only for ShipSegment and
// HitSegment states. Legal transitions are Water->Miss and
// ShipSegment->HitSegment; Miss and HitSegment cells never change again.
type Cell struct {
	State CellState
	Ship  ShipID
}

// Board is one player's grid holding both the fleet layout and the marks of
// shots fired at it. Cells are stored row-major.
type Board struct {
	Size  int
	Fleet FleetConfig
	Cells []Cell
}

const (
	// placementAttemptsPerShip caps random samples for a single ship before
	// the whole board is discarded and placement restarts from scratch.
	// Restarting fully avoids biased partial layouts.
	placementAttemptsPerShip = 100
	// boardRestartLimit caps full placement restarts. Exhausting it means
	// the fleet/grid combination is unsatisfiable in practice.
	boardRestartLimit = 100
)

// NewBoard places the fleet randomly on a fresh size x size grid. Ships are
// processed in catalog order so a seeded rng reproduces the same layout.
func NewBoard(size int, fleet FleetConfig, rng *rand.Rand) (*Board, error) {
	if err := fleet.Validate(size); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("rng is required")
	}
	for restart := 0; restart < boardRestartLimit; restart++ {
		if board, ok := tryPlaceFleet(size, fleet, rng); ok {
			return board, nil
		}
	}
	return nil, apperrors.New(apperrors.CodePlacementExhausted,
		fmt.Sprintf("fleet placement did not converge after %d restarts", boardRestartLimit))
}

func tryPlaceFleet(size int, fleet FleetConfig, rng *rand.Rand) (*Board, bool) {
	board := &Board{
		Size:  size,
		Fleet: fleet,
		Cells: make([]Cell, size*size),
	}
	for _, ship := range fleet.Ships {
		if !placeShip(board, ship, rng) {
			return nil, false
		}
	}
	return board, true
}

func placeShip(board *Board, ship ShipSpec, rng *rand.Rand) bool {
	for attempt := 0; attempt < placementAttemptsPerShip; attempt++ {
		horizontal := rng.Intn(2) == 0

		var row, col, dr, dc int
		if horizontal {
			row = rng.Intn(board.Size)
			col = rng.Intn(board.Size - ship.Length + 1)
			dc = 1
		} else {
			row = rng.Intn(board.Size - ship.Length + 1)
			col = rng.Intn(board.Size)
			dr = 1
		}

		overlap := false
		for i := 0; i < ship.Length; i++ {
			if board.at(row+i*dr, col+i*dc).State != Water {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}

		for i := 0; i < ship.Length; i++ {
			*board.at(row+i*dr, col+i*dc) = Cell{State: ShipSegment, Ship: ship.ID}
		}
		return true
	}
	return false
}

func (b *Board) at(row, col int) *Cell {
	return &b.Cells[row*b.Size+col]
}

// At returns the cell at the given coordinate.
func (b *Board) At(c Coord) Cell {
	return *b.at(c.Row, c.Col)
}

// InBounds reports whether the coordinate lies on the board.
func (b *Board) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < b.Size && c.Col >= 0 && c.Col < b.Size
}

// Copy produces an independent deep copy of the board. The engine snapshots
// a board before mutating it so a failed persistence write never leaves a
// half-applied shot visible.
func (b *Board) Copy() *Board {
	cells := make([]Cell, len(b.Cells))
	copy(cells, b.Cells)
	ships := make([]ShipSpec, len(b.Fleet.Ships))
	copy(ships, b.Fleet.Ships)
	return &Board{
		Size:  b.Size,
		Fleet: FleetConfig{Ships: ships},
		Cells: cells,
	}
}

// Storage sentinels for the flat-array wire encoding: 0 water, 1..8 unhit
// ship id, 9 miss, 10+id hit ship. The tagged Cell struct is the in-memory
// model; this encoding exists only at the persistence boundary.
const (
	missSentinel = 9
	hitOffset    = 10
)

// Encode flattens the board into the sentinel-int wire form.
func (b *Board) Encode() []int {
	out := make([]int, len(b.Cells))
	for i, cell := range b.Cells {
		switch cell.State {
		case Water:
			out[i] = 0
		case ShipSegment:
			out[i] = int(cell.Ship)
		case Miss:
			out[i] = missSentinel
		case HitSegment:
			out[i] = hitOffset + int(cell.Ship)
		}
	}
	return out
}

// DecodeBoard rebuilds a board from its sentinel-int wire form.
func DecodeBoard(size int, fleet FleetConfig, values []int) (*Board, error) {
	if len(values) != size*size {
		return nil, fmt.Errorf("board cell count %d does not match grid %dx%d", len(values), size, size)
	}
	cells := make([]Cell, len(values))
	for i, v := range values {
		switch {
		case v == 0:
			cells[i] = Cell{State: Water}
		case v >= 1 && v <= maxShipID:
			cells[i] = Cell{State: ShipSegment, Ship: ShipID(v)}
		case v == missSentinel:
			cells[i] = Cell{State: Miss}
		case v > hitOffset && v <= hitOffset+maxShipID:
			cells[i] = Cell{State: HitSegment, Ship: ShipID(v - hitOffset)}
		default:
			return nil, fmt.Errorf("unknown cell value %d at index %d", v, i)
		}
	}
	return &Board{Size: size, Fleet: fleet, Cells: cells}, nil
}
