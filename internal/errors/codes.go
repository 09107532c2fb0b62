// Package errors provides structured error handling with typed domain codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Shot rejections
	CodeInvalidCoordinate      Code = "SHOT_INVALID_COORDINATE"
	CodeWrongTurn              Code = "SHOT_WRONG_TURN"
	CodeAlreadyFired           Code = "SHOT_ALREADY_FIRED"
	CodeNotActive              Code = "SESSION_NOT_ACTIVE"
	CodeDuplicateCommand       Code = "COMMAND_DUPLICATE"
	CodeConcurrentModification Code = "SESSION_CONCURRENT_MODIFICATION"
	CodeNotParticipant         Code = "SHOT_NOT_PARTICIPANT"

	// Session errors
	CodeSessionSamePlayers    Code = "SESSION_SAME_PLAYERS"
	CodeSessionEmptyPlayer    Code = "SESSION_EMPTY_PLAYER"
	CodeSessionEmptyThread    Code = "SESSION_EMPTY_THREAD"
	CodeSessionThreadConflict Code = "SESSION_THREAD_CONFLICT"

	// Fleet/board errors
	CodePlacementExhausted Code = "BOARD_PLACEMENT_EXHAUSTED"
	CodeInvalidFleet       Code = "FLEET_INVALID"
	CodeInvalidGridSize    Code = "BOARD_INVALID_GRID_SIZE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"

	// Operator token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"
)

// HTTPStatus maps domain codes to HTTP status codes for the admin API.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, malformed input
	case CodeInvalidCoordinate,
		CodeSessionSamePlayers,
		CodeSessionEmptyPlayer,
		CodeSessionEmptyThread,
		CodeInvalidFleet,
		CodeInvalidGridSize:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeWrongTurn,
		CodeAlreadyFired,
		CodeNotActive,
		CodeDuplicateCommand,
		CodeConcurrentModification,
		CodeNotParticipant,
		CodeSessionThreadConflict,
		CodeConflict:
		return http.StatusConflict

	case CodeNotFound:
		return http.StatusNotFound

	case CodeTokenInvalid, CodeTokenExpired:
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}
