package domain

import "testing"

// testBoard builds an empty 5x5 board with the default fleet and no ships,
// then lets the caller place segments directly.
func testBoard(t *testing.T) *Board {
	t.Helper()
	return &Board{
		Size:  5,
		Fleet: DefaultFleet(),
		Cells: make([]Cell, 25),
	}
}

func placeSegment(b *Board, row, col int, ship ShipID) {
	b.Cells[row*b.Size+col] = Cell{State: ShipSegment, Ship: ship}
}

func TestResolveShotScenario(t *testing.T) {
	// 5x5 grid, default fleet; Average Dinghy (length 2) at A1-A2.
	board := testBoard(t)
	placeSegment(board, 0, 0, 2)
	placeSegment(board, 0, 1, 2)
	placeSegment(board, 2, 2, 3)
	placeSegment(board, 2, 3, 3)
	placeSegment(board, 2, 4, 3)
	placeSegment(board, 4, 0, 1)

	outcome, ship := board.ResolveShot(Coord{Row: 0, Col: 0}) // A1
	if outcome != OutcomeHit {
		t.Fatalf("A1 outcome = %v, want HIT", outcome)
	}
	if ship != 2 {
		t.Fatalf("A1 ship = %d, want 2", ship)
	}
	if got := board.ShipsRemaining().TotalAfloat; got != 3 {
		t.Fatalf("afloat after A1 = %d, want 3", got)
	}

	outcome, ship = board.ResolveShot(Coord{Row: 0, Col: 1}) // A2
	if outcome != OutcomeSunk {
		t.Fatalf("A2 outcome = %v, want SUNK", outcome)
	}
	if ship != 2 {
		t.Fatalf("A2 ship = %d, want 2", ship)
	}
	summary := board.ShipsRemaining()
	if summary.TotalAfloat != 2 {
		t.Fatalf("afloat after A2 = %d, want 2", summary.TotalAfloat)
	}
	for _, standing := range summary.Ships {
		if standing.Spec.ID == 2 && standing.Afloat {
			t.Fatal("Average Dinghy reported afloat after sinking")
		}
	}

	outcome, _ = board.ResolveShot(Coord{Row: 0, Col: 0}) // A1 again
	if outcome != OutcomeAlreadyFired {
		t.Fatalf("repeat A1 outcome = %v, want ALREADY_FIRED", outcome)
	}
}

func TestResolveShotIdempotent(t *testing.T) {
	board := testBoard(t)
	placeSegment(board, 1, 1, 1)

	coords := []Coord{{Row: 1, Col: 1}, {Row: 3, Col: 3}}
	for _, c := range coords {
		board.ResolveShot(c)
		snapshot := board.Copy()

		outcome, ship := board.ResolveShot(c)
		if outcome != OutcomeAlreadyFired {
			t.Fatalf("second shot at %v = %v, want ALREADY_FIRED", c, outcome)
		}
		if ship != 0 {
			t.Fatalf("second shot at %v reported ship %d", c, ship)
		}
		for i := range board.Cells {
			if board.Cells[i] != snapshot.Cells[i] {
				t.Fatalf("cell %d changed by repeated shot at %v", i, c)
			}
		}
	}
}

func TestResolveShotMiss(t *testing.T) {
	board := testBoard(t)
	outcome, ship := board.ResolveShot(Coord{Row: 2, Col: 2})
	if outcome != OutcomeMiss {
		t.Fatalf("outcome = %v, want MISS", outcome)
	}
	if ship != 0 {
		t.Fatalf("ship = %d, want 0", ship)
	}
	if got := board.At(Coord{Row: 2, Col: 2}).State; got != Miss {
		t.Fatalf("cell state = %v, want Miss", got)
	}
}

func TestResolveShotOutOfBounds(t *testing.T) {
	board := testBoard(t)
	outcome, _ := board.ResolveShot(Coord{Row: 5, Col: 0})
	if outcome != OutcomeInvalid {
		t.Fatalf("outcome = %v, want INVALID", outcome)
	}
	outcome, _ = board.ResolveShot(Coord{Row: -1, Col: 0})
	if outcome != OutcomeInvalid {
		t.Fatalf("outcome = %v, want INVALID", outcome)
	}
}

func TestSunkOnlyWhenAllSegmentsHit(t *testing.T) {
	board := testBoard(t)
	placeSegment(board, 2, 1, 3)
	placeSegment(board, 2, 2, 3)
	placeSegment(board, 2, 3, 3)

	if outcome, _ := board.ResolveShot(Coord{Row: 2, Col: 1}); outcome != OutcomeHit {
		t.Fatalf("first segment outcome = %v, want HIT", outcome)
	}
	if outcome, _ := board.ResolveShot(Coord{Row: 2, Col: 2}); outcome != OutcomeHit {
		t.Fatalf("second segment outcome = %v, want HIT", outcome)
	}

	statuses := board.DetailedShipStatus()
	for _, status := range statuses {
		if status.Spec.ID == 3 {
			if status.Sunk {
				t.Fatal("ship reported sunk with one segment unhit")
			}
			if status.Hits != 2 {
				t.Fatalf("hits = %d, want 2", status.Hits)
			}
		}
	}

	if outcome, _ := board.ResolveShot(Coord{Row: 2, Col: 3}); outcome != OutcomeSunk {
		t.Fatalf("last segment outcome = %v, want SUNK", outcome)
	}
	for _, status := range board.DetailedShipStatus() {
		if status.Spec.ID == 3 && !status.Sunk {
			t.Fatal("ship not reported sunk after all segments hit")
		}
	}
}

func TestHitsAndMisses(t *testing.T) {
	board := testBoard(t)
	placeSegment(board, 0, 0, 1)

	board.ResolveShot(Coord{Row: 0, Col: 0})
	board.ResolveShot(Coord{Row: 1, Col: 1})
	board.ResolveShot(Coord{Row: 2, Col: 2})

	hits, misses := board.HitsAndMisses()
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
	if misses != 2 {
		t.Fatalf("misses = %d, want 2", misses)
	}
}

func TestOutcomeString(t *testing.T) {
	pairs := map[Outcome]string{
		OutcomeMiss:         "MISS",
		OutcomeHit:          "HIT",
		OutcomeSunk:         "SUNK",
		OutcomeAlreadyFired: "ALREADY_FIRED",
		OutcomeInvalid:      "INVALID",
	}
	for outcome, want := range pairs {
		if got := outcome.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}
