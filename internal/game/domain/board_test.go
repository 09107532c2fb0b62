package domain

import (
	"errors"
	"math/rand"
	"testing"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

func TestNewBoardPlacementValidity(t *testing.T) {
	fleet := DefaultFleet()
	wantCovered := fleet.TotalCells()

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		board, err := NewBoard(5, fleet, rng)
		if err != nil {
			t.Fatalf("seed %d: new board: %v", seed, err)
		}

		covered := 0
		perShip := make(map[ShipID]int)
		for _, cell := range board.Cells {
			switch cell.State {
			case ShipSegment:
				covered++
				perShip[cell.Ship]++
			case Miss, HitSegment:
				t.Fatalf("seed %d: fresh board has fired cells", seed)
			}
		}
		if covered != wantCovered {
			t.Fatalf("seed %d: covered cells = %d, want %d", seed, covered, wantCovered)
		}
		for _, spec := range fleet.Ships {
			if perShip[spec.ID] != spec.Length {
				t.Fatalf("seed %d: ship %q covers %d cells, want %d",
					seed, spec.Name, perShip[spec.ID], spec.Length)
			}
		}
	}
}

func TestNewBoardShipsAreContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	board, err := NewBoard(6, DefaultFleet(), rng)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}

	for _, spec := range board.Fleet.Ships {
		var coords []Coord
		for i, cell := range board.Cells {
			if cell.Ship == spec.ID && cell.State == ShipSegment {
				coords = append(coords, Coord{Row: i / board.Size, Col: i % board.Size})
			}
		}
		if len(coords) != spec.Length {
			t.Fatalf("ship %q has %d cells, want %d", spec.Name, len(coords), spec.Length)
		}
		if spec.Length == 1 {
			continue
		}
		sameRow, sameCol := true, true
		for _, c := range coords[1:] {
			if c.Row != coords[0].Row {
				sameRow = false
			}
			if c.Col != coords[0].Col {
				sameCol = false
			}
		}
		if !sameRow && !sameCol {
			t.Fatalf("ship %q is not in a straight line: %v", spec.Name, coords)
		}
	}
}

func TestNewBoardReproducibleUnderSeed(t *testing.T) {
	first, err := NewBoard(5, DefaultFleet(), rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	second, err := NewBoard(5, DefaultFleet(), rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	for i := range first.Cells {
		if first.Cells[i] != second.Cells[i] {
			t.Fatalf("cell %d differs between identically seeded boards", i)
		}
	}
}

func TestNewBoardRejectsBadFleet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewBoard(5, FleetConfig{}, rng)
	if !errors.Is(err, apperrors.New(apperrors.CodeInvalidFleet, "")) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidFleet)
	}

	tooLong := FleetConfig{Ships: []ShipSpec{{ID: 1, Name: "Long", Length: 9}}}
	_, err = NewBoard(5, tooLong, rng)
	if !errors.Is(err, apperrors.New(apperrors.CodeInvalidFleet, "")) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidFleet)
	}

	_, err = NewBoard(1, DefaultFleet(), rng)
	if !errors.Is(err, apperrors.New(apperrors.CodeInvalidGridSize, "")) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidGridSize)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	board, err := NewBoard(5, DefaultFleet(), rng)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}

	clone := board.Copy()
	if outcome, _ := clone.ResolveShot(Coord{Row: 0, Col: 0}); outcome == OutcomeInvalid {
		t.Fatalf("resolve on copy: unexpected outcome %v", outcome)
	}

	hits, misses := board.HitsAndMisses()
	if hits+misses != 0 {
		t.Fatalf("original board mutated through copy: %d hits, %d misses", hits, misses)
	}
}

func TestEncodeDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	board, err := NewBoard(5, DefaultFleet(), rng)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	board.ResolveShot(Coord{Row: 0, Col: 0})
	board.ResolveShot(Coord{Row: 4, Col: 4})

	decoded, err := DecodeBoard(board.Size, board.Fleet, board.Encode())
	if err != nil {
		t.Fatalf("decode board: %v", err)
	}
	for i := range board.Cells {
		if board.Cells[i] != decoded.Cells[i] {
			t.Fatalf("cell %d = %+v after round trip, want %+v", i, decoded.Cells[i], board.Cells[i])
		}
	}
}

func TestDecodeBoardRejectsBadValues(t *testing.T) {
	values := make([]int, 25)
	values[3] = 42
	if _, err := DecodeBoard(5, DefaultFleet(), values); err == nil {
		t.Fatal("expected error for unknown cell value")
	}
	if _, err := DecodeBoard(5, DefaultFleet(), make([]int, 24)); err == nil {
		t.Fatal("expected error for wrong cell count")
	}
}
