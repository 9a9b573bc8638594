package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Session & Room errors
// 21000-21999: Player & Card errors
// 22000-22999: Execution & Sandbox errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Timeout             ErrorCode = 10004

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Session & Room Errors (20000-20999) ==========

	RoomNotFound      ErrorCode = 20000
	GameAlreadyActive ErrorCode = 20001
	GameNotStarted    ErrorCode = 20002
	GameAlreadyEnded  ErrorCode = 20003
	NotHost           ErrorCode = 20004
	RoomEmpty         ErrorCode = 20005

	// ========== Player & Card Errors (21000-21999) ==========

	PlayerNotFound     ErrorCode = 21000
	PlayerEliminated   ErrorCode = 21001
	UsernameRequired   ErrorCode = 21002
	CardNotInHand      ErrorCode = 21100
	CardNotSelected    ErrorCode = 21101
	CardSelectionStale ErrorCode = 21102

	// ========== Execution & Sandbox Errors (22000-22999) ==========

	ExecTimeLimitExceeded ErrorCode = 22000
	ExecEntryPointMissing ErrorCode = 22001
	ExecRuntimeError      ErrorCode = 22002
	SandboxStartFailed    ErrorCode = 22100
	SandboxVerdictInvalid ErrorCode = 22101
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Timeout:             "Request timeout",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	RoomNotFound:      "Room not found",
	GameAlreadyActive: "Game already in progress",
	GameNotStarted:    "Game has not started yet",
	GameAlreadyEnded:  "Game has already ended",
	NotHost:           "Only the host can start the game",
	RoomEmpty:         "No players in the room",

	PlayerNotFound:     "Player not found",
	PlayerEliminated:   "Player is eliminated",
	UsernameRequired:   "Username required",
	CardNotInHand:      "Card not found in player hand",
	CardNotSelected:    "Card is not currently selected",
	CardSelectionStale: "Card selection changed during execution",

	ExecTimeLimitExceeded: "Time limit exceeded",
	ExecEntryPointMissing: "Entry point function not found",
	ExecRuntimeError:      "Runtime error",
	SandboxStartFailed:    "Sandbox failed to start",
	SandboxVerdictInvalid: "Sandbox returned an invalid verdict",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}
