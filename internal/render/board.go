// Package render formats boards and game announcements as message text.
package render

import (
	"strings"

	"github.com/battledinghy/battledinghy/internal/game/domain"
)

// View controls whether unhit ship segments are visible.
type View int

const (
	// OwnerView shows the full layout including unhit ships.
	OwnerView View = iota
	// OpponentView hides unhit ships, showing only shot marks.
	OpponentView
)

const (
	emojiWater = "🟦"
	emojiMiss  = "⭕️"
	emojiHit   = "💥"
	emojiShip  = "🚤"
)

// columnHeaders are keycap digits for columns 1 through 10, the widest grid
// the coordinate grammar supports.
var columnHeaders = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

const rowLabels = "ABCDEFGHIJ"

// Board renders the grid as a fenced text block with column headers, row
// labels, and a legend.
func Board(board *domain.Board, title string, view View) string {
	var b strings.Builder
	b.WriteString("```\n")
	b.WriteString(title)
	b.WriteString("\n  ")
	b.WriteString(strings.Join(columnHeaders[:board.Size], ""))
	b.WriteString("\n")

	for row := 0; row < board.Size; row++ {
		b.WriteByte(rowLabels[row])
		b.WriteByte(' ')
		for col := 0; col < board.Size; col++ {
			b.WriteString(cellEmoji(board.At(domain.Coord{Row: row, Col: col}), view))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nLegend: ")
	b.WriteString(emojiWater + " = water   " + emojiMiss + " = miss   " + emojiHit + " = hit/sunk")
	if view == OwnerView {
		b.WriteString("   " + emojiShip + " = dinghy")
	}
	b.WriteString("\n```")
	return b.String()
}

func cellEmoji(cell domain.Cell, view View) string {
	switch cell.State {
	case domain.Miss:
		return emojiMiss
	case domain.HitSegment:
		return emojiHit
	case domain.ShipSegment:
		if view == OwnerView {
			return emojiShip
		}
		return emojiWater
	default:
		return emojiWater
	}
}
