// Package ingest turns free-form social messages into game commands: shot
// coordinates, challenge detection, and opponent extraction.
package ingest

import (
	"strconv"
	"strings"
)

// commandKeywords mark the word right before a coordinate in a fire command.
var commandKeywords = map[string]bool{"fire": true, "shoot": true, "at": true}

const wordPunctuation = ",:;!?."

// ParseShotCoordinate finds a board coordinate in message text for a
// size x size grid. It prefers the word following a fire keyword and falls
// back to the first standalone coordinate-shaped word. The result is
// normalized letter-first and uppercased, e.g. "1a" becomes "A1".
func ParseShotCoordinate(text string, size int) (string, bool) {
	words := strings.Fields(strings.ToLower(text))

	for i, word := range words {
		if !commandKeywords[word] || i+1 >= len(words) {
			continue
		}
		if coord, ok := matchCoordWord(words[i+1], size); ok {
			return coord, true
		}
	}

	for _, word := range words {
		if coord, ok := matchCoordWord(word, size); ok {
			return coord, true
		}
	}
	return "", false
}

// matchCoordWord accepts exactly letter+number or number+letter forms within
// the grid bounds, normalizing to letter-first uppercase.
func matchCoordWord(word string, size int) (string, bool) {
	word = strings.Trim(word, wordPunctuation)
	if len(word) < 2 || len(word) > 3 {
		return "", false
	}

	first := word[0]
	if first >= 'a' && first <= 'z' {
		return buildCoord(first, word[1:], size)
	}
	// Digit-first form: the row letter is the last byte.
	last := word[len(word)-1]
	if last >= 'a' && last <= 'z' {
		return buildCoord(last, word[:len(word)-1], size)
	}
	return "", false
}

func buildCoord(rowLetter byte, colText string, size int) (string, bool) {
	if int(rowLetter-'a') >= size {
		return "", false
	}
	col, err := strconv.Atoi(colText)
	if err != nil || col < 1 || col > size {
		return "", false
	}
	return strings.ToUpper(string(rowLetter)) + strconv.Itoa(col), true
}

// challengeThreshold is the minimum confidence for a mention to count as a
// game challenge.
const challengeThreshold = 3

var strongKeywords = []string{
	"play", "playing", "played", "challenge", "challenging", "challenged",
	"battle", "battling", "fight", "fighting", "game", "gaming",
	"match", "versus", "vs", "against",
}

var invitationKeywords = []string{
	"wanna", "wana", "want", "wants", "lets", "let's",
	"ready", "down", "dare", "bet", "up for", "fancy",
}

var challengePhrases = []string{
	"start game", "new game", "begin match", "1v1", "one on one",
	"you and me", "with me",
}

var questionStarters = map[string]bool{"who": true, "anyone": true, "anybody": true}

// ChallengeConfidence scores how likely the text is a game challenge. The
// bot's own handle is removed first so keywords inside it never score.
func ChallengeConfidence(text, botHandle string) int {
	lower := strings.ToLower(text)
	withoutBot := strings.ReplaceAll(lower, "@"+strings.ToLower(botHandle), "")

	score := 0
	for _, keyword := range strongKeywords {
		if strings.Contains(withoutBot, keyword) {
			score += 3
			break
		}
	}
	for _, keyword := range invitationKeywords {
		if strings.Contains(withoutBot, keyword) {
			score += 2
			break
		}
	}
	for _, phrase := range challengePhrases {
		if strings.Contains(withoutBot, phrase) {
			score += 3
			break
		}
	}

	if strings.Count(lower, "@") >= 2 {
		score++
	}
	if strings.Contains(lower, "?") {
		score++
	}

	fields := strings.Fields(lower)
	if len(fields) > 0 && questionStarters[fields[0]] {
		score += 2
	}
	return score
}

// IsChallenge reports whether the text clears the challenge threshold.
func IsChallenge(text, botHandle string) bool {
	return ChallengeConfidence(text, botHandle) >= challengeThreshold
}

// ExtractMentions returns the handles mentioned in the text, in order,
// excluding the bot itself. Trailing punctuation is stripped.
func ExtractMentions(text, botHandle string) []string {
	var mentions []string
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "@") {
			continue
		}
		handle := strings.TrimRight(strings.TrimPrefix(word, "@"), wordPunctuation)
		if handle == "" || strings.EqualFold(handle, botHandle) {
			continue
		}
		mentions = append(mentions, handle)
	}
	return mentions
}
