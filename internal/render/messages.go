package render

import (
	"fmt"
	"strings"

	"github.com/battledinghy/battledinghy/internal/game/domain"
)

// ShotLine summarizes one resolved shot for the thread.
func ShotLine(outcome domain.Outcome, coord domain.Coord, shipName string) string {
	switch outcome {
	case domain.OutcomeMiss:
		return fmt.Sprintf("⭕️ Miss at %s! The sea swallows your shot.", coord)
	case domain.OutcomeHit:
		return fmt.Sprintf("💥 Direct hit at %s!", coord)
	case domain.OutcomeSunk:
		return fmt.Sprintf("💥 Hit at %s! You sunk the %s!", coord, shipName)
	case domain.OutcomeAlreadyFired:
		return fmt.Sprintf("🔁 Already fired at %s! Pick a new target.", coord)
	default:
		return "🎯 Please specify a coordinate! Example: 'fire A1'"
	}
}

// GameStart announces a freshly created session.
func GameStart(session domain.Session) string {
	return fmt.Sprintf("⚔️ Game #%d has begun! ⚔️\n\n@%s vs @%s\n\n🎯 @%s starts first!\n\nReply with 'Fire [coordinate]' (e.g., 'Fire C3') to take your shot!",
		session.GameNumber, session.Player1, session.Player2, session.Turn)
}

// ShotResult builds the numbered result post after an applied shot,
// including running stats against the defender's board.
func ShotResult(postNumber int64, line string, session domain.Session, defender *domain.Board, winner string) string {
	hits, misses := defender.HitsAndMisses()
	remaining := defender.ShipsRemaining()

	if winner != "" {
		accuracy := 0
		if hits+misses > 0 {
			accuracy = int(float64(hits)/float64(hits+misses)*100 + 0.5)
		}
		return fmt.Sprintf("%d/ %s\n\n🎉 GAME OVER! @%s WINS! 🏆\n\n📊 Final Stats:\n• Shots: %d\n• Hits: %d 💥\n• Misses: %d ⭕️\n• Accuracy: %d%%\n\nGame #%d",
			postNumber, line, winner, hits+misses, hits, misses, accuracy, session.GameNumber)
	}
	return fmt.Sprintf("%d/ %s\n\n📊 Stats: %d hits, %d misses\n🚢 Ships left: %d/%d\n\nGame #%d",
		postNumber, line, hits, misses, remaining.TotalAfloat, len(defender.Fleet.Ships), session.GameNumber)
}

// TurnPrompt nudges the next shooter.
func TurnPrompt(postNumber int64, player string) string {
	return fmt.Sprintf("%d/ Your turn, @%s! Fire away! 🎯", postNumber, player)
}

// FleetStatus lists each ship's standing for display next to a board.
func FleetStatus(board *domain.Board) string {
	var lines []string
	for _, status := range board.DetailedShipStatus() {
		mark := "🚤"
		if status.Sunk {
			mark = "💥"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%d/%d)", mark, status.Spec.Name, status.Hits, status.Spec.Length))
	}
	return strings.Join(lines, "\n")
}
