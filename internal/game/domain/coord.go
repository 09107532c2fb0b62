package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

// Coord is a zero-indexed board coordinate.
type Coord struct {
	Row int
	Col int
}

// String renders the coordinate in player-facing form, e.g. "A1".
func (c Coord) String() string {
	return fmt.Sprintf("%c%d", 'A'+rune(c.Row), c.Col+1)
}

// maxCoordinateLength rejects pathological input before parsing. Coordinate
// text comes from untrusted free-form messages.
const maxCoordinateLength = 10

// ParseCoordinate decodes player-entered coordinate text ("A1", "c3") for a
// size x size grid. It never panics on malformed input; all failures return
// a CodeInvalidCoordinate error.
func ParseCoordinate(raw string, size int) (Coord, error) {
	var sanitized strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sanitized.WriteRune(r)
		}
	}
	text := strings.ToUpper(sanitized.String())

	if len(text) < 2 || len(text) > maxCoordinateLength {
		return Coord{}, apperrors.New(apperrors.CodeInvalidCoordinate,
			fmt.Sprintf("coordinate %q is not a row letter followed by a column number", raw))
	}

	rowLetter := text[0]
	if rowLetter < 'A' || rowLetter > 'A'+byte(size)-1 {
		return Coord{}, apperrors.New(apperrors.CodeInvalidCoordinate,
			fmt.Sprintf("row %q out of range A-%c", string(rowLetter), 'A'+rune(size)-1))
	}

	col, err := strconv.Atoi(text[1:])
	if err != nil {
		return Coord{}, apperrors.New(apperrors.CodeInvalidCoordinate,
			fmt.Sprintf("column %q is not a number", text[1:]))
	}
	if col < 1 || col > size {
		return Coord{}, apperrors.New(apperrors.CodeInvalidCoordinate,
			fmt.Sprintf("column %d out of range 1-%d", col, size))
	}

	return Coord{Row: int(rowLetter - 'A'), Col: col - 1}, nil
}
