package domain

// Outcome classifies the result of resolving one shot against a board.
type Outcome uint8

const (
	// OutcomeInvalid marks a shot at a coordinate off the board.
	OutcomeInvalid Outcome = iota
	// OutcomeMiss marks a shot into open water.
	OutcomeMiss
	// OutcomeHit marks a shot into a ship with other segments still unhit.
	OutcomeHit
	// OutcomeSunk marks the shot that hit the last unhit segment of a ship.
	OutcomeSunk
	// OutcomeAlreadyFired marks a shot at a cell that was fired on before.
	OutcomeAlreadyFired
)

// String returns the canonical name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "MISS"
	case OutcomeHit:
		return "HIT"
	case OutcomeSunk:
		return "SUNK"
	case OutcomeAlreadyFired:
		return "ALREADY_FIRED"
	default:
		return "INVALID"
	}
}

// ResolveShot applies one shot to the board in place and classifies it.
// Firing at a Miss or HitSegment cell returns OutcomeAlreadyFired and leaves
// the board unchanged, so shot application is idempotent at the cell level.
// Callers needing rollback on a failed persist must operate on a Copy.
func (b *Board) ResolveShot(c Coord) (Outcome, ShipID) {
	if !b.InBounds(c) {
		return OutcomeInvalid, 0
	}

	cell := b.at(c.Row, c.Col)
	switch cell.State {
	case Miss, HitSegment:
		return OutcomeAlreadyFired, 0
	case Water:
		cell.State = Miss
		return OutcomeMiss, 0
	}

	ship := cell.Ship
	cell.State = HitSegment

	for i := range b.Cells {
		if b.Cells[i].Ship == ship && b.Cells[i].State == ShipSegment {
			return OutcomeHit, ship
		}
	}
	return OutcomeSunk, ship
}

// ShipStanding reports whether one ship type is still afloat.
type ShipStanding struct {
	Spec   ShipSpec `json:"spec"`
	Afloat bool     `json:"afloat"`
}

// FleetSummary aggregates per-ship afloat flags. A ship is afloat iff at
// least one of its cells is still an unhit ShipSegment.
type FleetSummary struct {
	Ships       []ShipStanding `json:"ships"`
	TotalAfloat int            `json:"total_afloat"`
}

// ShipsRemaining reports, per ship type in catalog order, whether any
// segment is unhit, plus the total afloat count.
func (b *Board) ShipsRemaining() FleetSummary {
	summary := FleetSummary{Ships: make([]ShipStanding, 0, len(b.Fleet.Ships))}
	for _, spec := range b.Fleet.Ships {
		afloat := false
		for _, cell := range b.Cells {
			if cell.Ship == spec.ID && cell.State == ShipSegment {
				afloat = true
				break
			}
		}
		summary.Ships = append(summary.Ships, ShipStanding{Spec: spec, Afloat: afloat})
		if afloat {
			summary.TotalAfloat++
		}
	}
	return summary
}

// ShipStatus describes one ship's hit tally for display purposes.
type ShipStatus struct {
	Spec ShipSpec `json:"spec"`
	Hits int      `json:"hits"`
	Sunk bool     `json:"sunk"`
}

// DetailedShipStatus returns per-ship hit counts and sunk flags in catalog
// order.
func (b *Board) DetailedShipStatus() []ShipStatus {
	statuses := make([]ShipStatus, 0, len(b.Fleet.Ships))
	for _, spec := range b.Fleet.Ships {
		unhit, hits := 0, 0
		for _, cell := range b.Cells {
			if cell.Ship != spec.ID {
				continue
			}
			switch cell.State {
			case ShipSegment:
				unhit++
			case HitSegment:
				hits++
			}
		}
		statuses = append(statuses, ShipStatus{
			Spec: spec,
			Hits: hits,
			Sunk: unhit == 0 && hits > 0,
		})
	}
	return statuses
}

// HitsAndMisses returns aggregate shot statistics for the board.
func (b *Board) HitsAndMisses() (hits, misses int) {
	for _, cell := range b.Cells {
		switch cell.State {
		case HitSegment:
			hits++
		case Miss:
			misses++
		}
	}
	return hits, misses
}
